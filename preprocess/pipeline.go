package preprocess

import (
	"context"
	"log/slog"

	"markestedt/pastemd/config"
)

// Processor is a function that transforms content
type Processor func(ctx context.Context, text string) (string, error)

// Pipeline runs a series of processors in sequence
type Pipeline struct {
	name       string
	processors []Processor
}

// NewPipeline creates a new processing pipeline
func NewPipeline(name string, processors ...Processor) *Pipeline {
	return &Pipeline{
		name:       name,
		processors: processors,
	}
}

// Process runs all processors in sequence
func (p *Pipeline) Process(ctx context.Context, text string) (string, error) {
	slog.Debug("Preprocessing content", "pipeline", p.name, "steps", len(p.processors))

	result := text
	var err error

	for i, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result, err = proc(ctx, result)
		if err != nil {
			slog.Error("Processor failed", "pipeline", p.name, "index", i, "error", err)
			return result, err
		}
	}

	return result, nil
}

// AddProcessor adds a processor to the pipeline
func (p *Pipeline) AddProcessor(proc Processor) {
	p.processors = append(p.processors, proc)
}

// Len returns the number of processors
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// MarkdownPipeline builds the Markdown preprocessing steps enabled in cfg
func MarkdownPipeline(cfg config.ConversionConfig) *Pipeline {
	p := NewPipeline("markdown")
	if cfg.NormalizeMarkdown {
		p.AddProcessor(func(_ context.Context, s string) (string, error) {
			return NormalizeMarkdown(s), nil
		})
	}
	if cfg.LatexSupport {
		fix := cfg.FixSingleDollarBlock
		p.AddProcessor(func(_ context.Context, s string) (string, error) {
			return LatexDelimiters(s, fix), nil
		})
	}
	return p
}

// HTMLPipeline builds the HTML preprocessing steps enabled in cfg
func HTMLPipeline(cfg config.ConversionConfig) *Pipeline {
	opts := HTMLOptions{
		RemoveSVG:            cfg.RemoveSVG,
		ConvertStrikethrough: cfg.ConvertStrikethrough,
	}
	return NewPipeline("html", func(_ context.Context, s string) (string, error) {
		return CleanHTML(s, opts)
	})
}
