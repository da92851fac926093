package preprocess

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const htmlPrologue = "<!DOCTYPE html>\n<meta charset='utf-8'>\n"

// HTMLOptions selects the HTML cleanup steps
type HTMLOptions struct {
	RemoveSVG            bool
	ConvertStrikethrough bool
}

// CleanHTML prepares a clipboard HTML fragment for Pandoc: SVG images
// that Pandoc cannot embed are dropped, <s>/<strike> become <del>,
// paragraphs directly inside list items are unwrapped and empty
// paragraphs removed. A doctype and charset are added when missing.
func CleanHTML(src string, opts HTMLOptions) (string, error) {
	nodes, err := parseHTML(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	for _, n := range nodes {
		cleanNode(n, opts)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render html: %w", err)
		}
	}

	out := buf.String()
	if !strings.Contains(strings.ToUpper(out), "<!DOCTYPE") {
		out = htmlPrologue + out
	}
	return out, nil
}

// parseHTML keeps fragments as fragments and only builds a full document
// when the input already is one
func parseHTML(src string) ([]*html.Node, error) {
	lower := strings.ToLower(src)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		doc, err := html.Parse(strings.NewReader(src))
		if err != nil {
			return nil, err
		}
		return []*html.Node{doc}, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(src), body)
}

func cleanNode(n *html.Node, opts HTMLOptions) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type != html.ElementNode {
			continue
		}

		if opts.RemoveSVG && isSVG(c) {
			n.RemoveChild(c)
			continue
		}
		if opts.ConvertStrikethrough && (c.DataAtom == atom.S || c.DataAtom == atom.Strike) {
			c.Data = "del"
			c.DataAtom = atom.Del
		}

		cleanNode(c, opts)

		if c.DataAtom == atom.Li {
			unwrapParagraphs(c)
		}
		if c.DataAtom == atom.P && isEmptyParagraph(c) {
			n.RemoveChild(c)
		}
	}
}

func isSVG(n *html.Node) bool {
	if n.DataAtom == atom.Svg || n.Data == "svg" {
		return true
	}
	if n.DataAtom != atom.Img {
		return false
	}
	src := strings.ToLower(strings.TrimSpace(attr(n, "src")))
	if i := strings.IndexAny(src, "?#"); i >= 0 && !strings.HasPrefix(src, "data:") {
		src = src[:i]
	}
	return strings.HasSuffix(src, ".svg") || strings.HasPrefix(src, "data:image/svg+xml")
}

// unwrapParagraphs lifts the content of <p> children of li into li.
// Consecutive paragraphs are separated by <br>.
func unwrapParagraphs(li *html.Node) {
	first := true
	var next *html.Node
	for c := li.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type != html.ElementNode || c.DataAtom != atom.P {
			continue
		}
		if !first {
			li.InsertBefore(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br}, c)
		}
		first = false
		for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
			c.RemoveChild(gc)
			li.InsertBefore(gc, c)
		}
		li.RemoveChild(c)
	}
}

func isEmptyParagraph(p *html.Node) bool {
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(strings.ReplaceAll(c.Data, "\u00a0", " ")) != "" {
				return false
			}
		case html.ElementNode:
			if c.DataAtom != atom.Br {
				return false
			}
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// plainTags carry no structure Pandoc would turn into formatting
var plainTags = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true, atom.Meta: true,
	atom.Title: true, atom.Style: true, atom.Link: true,
	atom.Div: true, atom.Span: true, atom.Br: true, atom.Font: true,
	atom.P: true, atom.Pre: true, atom.Code: true,
}

// IsPlainFragment reports whether html is only styled text, as produced
// by code editors and terminals. Such content is better read as the
// clipboard's plain text, which may itself be Markdown.
func IsPlainFragment(src string) bool {
	if strings.TrimSpace(src) == "" {
		return true
	}
	nodes, err := parseHTML(src)
	if err != nil {
		return true
	}
	for _, n := range nodes {
		if !plainTree(n) {
			return false
		}
	}
	return true
}

func plainTree(n *html.Node) bool {
	if n.Type == html.ElementNode && !plainTags[n.DataAtom] {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !plainTree(c) {
			return false
		}
	}
	return true
}
