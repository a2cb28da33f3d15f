package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/connerohnesorge/mdstream/internal/diag"
	"github.com/connerohnesorge/mdstream/internal/document"
	"github.com/connerohnesorge/mdstream/internal/highlight"
	"github.com/connerohnesorge/mdstream/internal/mdxsvc"
	"github.com/connerohnesorge/mdstream/internal/sanitize"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/view"
)

// RenderCmd renders a Markdown/MDX file (or stdin) once and prints the
// resulting block tree, without watching for further changes.
type RenderCmd struct {
	// Path is the file to render; "-" or omitted reads stdin.
	Path string `arg:"" optional:"" help:"File to render (- or omitted for stdin)" predictor:"markdownFile"` //nolint:lll,revive

	JSON bool `help:"Output the raw block snapshot as JSON" name:"json"`
	Raw  bool `help:"Skip highlighting, sanitizing, and MDX resolution" name:"raw"` //nolint:lll,revive
}

// Run executes the render command.
func (c *RenderCmd) Run(cli *CLI) error {
	cfg, th, err := loadConfig(cli.Theme)
	if err != nil {
		return err
	}

	src, err := c.openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	text, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	opts := document.Options{
		Strategy:         scheduler.MicrotaskStrategy{},
		Priority:         scheduler.High,
		Diag:             diag.New(256),
		SchedulerOptions: cfg.SchedulerOptions(),
	}
	if !c.Raw {
		if cfg.Features.Highlight {
			opts.Highlighter = highlight.New(cfg.HighlightStyle)
		}
		if cfg.Features.Sanitize {
			opts.Sanitizer = sanitize.New(sanitize.Policy(cfg.SanitizePolicy))
		}
		if cfg.Features.MDX {
			svc := mdxsvc.New(4, cfg.MDXComponents)
			defer svc.Close()
			opts.MDX = svc
		}
	}

	doc := document.New(opts)
	doc.Append(string(text))
	doc.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := doc.AwaitIdle(ctx); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if c.JSON {
		snap, err := doc.Snapshot()
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		fmt.Println(string(snap))

		return nil
	}

	var sb strings.Builder
	for _, b := range doc.Store().TopLevelBlocks() {
		sb.WriteString(view.RenderBlock(b, th, false))
	}
	fmt.Print(sb.String())

	return nil
}

func (c *RenderCmd) openSource() (io.ReadCloser, error) {
	if c.Path == "" || c.Path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Path, err)
	}

	return f, nil
}
