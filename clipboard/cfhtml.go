// Package clipboard holds the OS-independent clipboard logic: CF_HTML
// fragment extraction, availability polling and Markdown file reading.
package clipboard

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	fragmentPattern     = regexp.MustCompile(`(?s)<!--StartFragment-->(.*)<!--EndFragment-->`)
	commentMarker       = []byte("<!--")
	commentMarkerString = "<!--"
)

// byteStrategy tries to extract the fragment from raw CF_HTML bytes
type byteStrategy func(data []byte, meta map[string]string) (string, bool)

// stringStrategy is the same over an already decoded string
type stringStrategy func(s string, meta map[string]string) (string, bool)

var byteStrategies = []struct {
	name string
	fn   byteStrategy
}{
	{"fragment offsets", fragmentByOffsets},
	{"fragment markers", fragmentByMarkers},
	{"html offsets", htmlByOffsets},
}

var stringStrategies = []struct {
	name string
	fn   stringStrategy
}{
	{"fragment offsets", fragmentByOffsetsString},
	{"fragment markers", fragmentByMarkersString},
	{"html offsets", htmlByOffsetsString},
}

// ExtractFragment returns the HTML fragment a source application exported
// in a CF_HTML container. Header byte offsets win over comment anchors; when
// nothing matches, the whole input is returned decoded. It never panics.
func ExtractFragment(data []byte) string {
	meta := parseHeaderBytes(data)

	for _, s := range byteStrategies {
		if out, ok := tryBytes(s.fn, data, meta); ok {
			slog.Debug("Extracted CF_HTML fragment", "strategy", s.name, "bytes", len(out))
			return out
		}
	}

	return decodeUTF8(data)
}

// ExtractFragmentString is ExtractFragment for a container that has already
// been decoded to text. Offsets count bytes of the UTF-8 string, as CF_HTML
// offsets do; a range that splits a character loses the partial bytes.
func ExtractFragmentString(s string) string {
	meta := parseHeaderString(s)

	for _, st := range stringStrategies {
		if out, ok := tryString(st.fn, s, meta); ok {
			slog.Debug("Extracted CF_HTML fragment", "strategy", st.name, "chars", len(out))
			return out
		}
	}

	return s
}

func tryBytes(fn byteStrategy, data []byte, meta map[string]string) (out string, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("CF_HTML strategy panicked", "panic", p)
			out, ok = "", false
		}
	}()
	return fn(data, meta)
}

func tryString(fn stringStrategy, s string, meta map[string]string) (out string, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("CF_HTML strategy panicked", "panic", p)
			out, ok = "", false
		}
	}()
	return fn(s, meta)
}

// parseHeaderBytes reads "Key:Value" lines up to the first HTML comment
func parseHeaderBytes(data []byte) map[string]string {
	meta := make(map[string]string)
	for _, line := range splitLines(data) {
		if bytes.HasPrefix(bytes.TrimSpace(line), commentMarker) {
			break
		}
		k, v, found := bytes.Cut(line, []byte(":"))
		if !found {
			continue
		}
		key := strings.TrimSpace(asciiOnly(k))
		if key != "" {
			meta[key] = strings.TrimSpace(asciiOnly(v))
		}
	}
	return meta
}

func parseHeaderString(s string) map[string]string {
	meta := make(map[string]string)
	for _, line := range strings.FieldsFunc(s, isLineBreak) {
		if strings.HasPrefix(strings.TrimSpace(line), commentMarkerString) {
			break
		}
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if key := strings.TrimSpace(k); key != "" {
			meta[key] = strings.TrimSpace(v)
		}
	}
	return meta
}

func fragmentByOffsets(data []byte, meta map[string]string) (string, bool) {
	start, end, ok := offsetRange(meta, "StartFragment", "EndFragment", -1, -1, len(data))
	if !ok {
		return "", false
	}
	return decodeUTF8(data[start:end]), true
}

func fragmentByMarkers(data []byte, _ map[string]string) (string, bool) {
	m := fragmentPattern.FindSubmatch(data)
	if m == nil {
		return "", false
	}
	return decodeUTF8(m[1]), true
}

func htmlByOffsets(data []byte, meta map[string]string) (string, bool) {
	start, end, ok := offsetRange(meta, "StartHTML", "EndHTML", 0, len(data), len(data))
	if !ok {
		return "", false
	}
	return decodeUTF8(data[start:end]), true
}

func fragmentByOffsetsString(s string, meta map[string]string) (string, bool) {
	start, end, ok := offsetRange(meta, "StartFragment", "EndFragment", -1, -1, len(s))
	if !ok {
		return "", false
	}
	return strings.ToValidUTF8(s[start:end], ""), true
}

func fragmentByMarkersString(s string, _ map[string]string) (string, bool) {
	m := fragmentPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func htmlByOffsetsString(s string, meta map[string]string) (string, bool) {
	start, end, ok := offsetRange(meta, "StartHTML", "EndHTML", 0, len(s), len(s))
	if !ok {
		return "", false
	}
	return strings.ToValidUTF8(s[start:end], ""), true
}

// offsetRange reads two all-digit offsets from meta. A negative default
// means the key is required. The range must satisfy 0 <= start <= end <= size.
func offsetRange(meta map[string]string, startKey, endKey string, startDef, endDef, size int) (int, int, bool) {
	start, ok := offset(meta[startKey], startDef)
	if !ok {
		return 0, 0, false
	}
	end, ok := offset(meta[endKey], endDef)
	if !ok {
		return 0, 0, false
	}
	if start < 0 || start > end || end > size {
		return 0, 0, false
	}
	return start, end, true
}

func offset(v string, def int) (int, bool) {
	if !isDigits(v) {
		return def, def >= 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func asciiOnly(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c < utf8.RuneSelf {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// decodeUTF8 drops invalid byte sequences
func decodeUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "")
}

func splitLines(data []byte) [][]byte {
	return bytes.FieldsFunc(data, isLineBreak)
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}
