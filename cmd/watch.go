package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/connerohnesorge/mdstream/internal/diag"
	"github.com/connerohnesorge/mdstream/internal/document"
	"github.com/connerohnesorge/mdstream/internal/highlight"
	"github.com/connerohnesorge/mdstream/internal/mdxsvc"
	"github.com/connerohnesorge/mdstream/internal/sanitize"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/view"
	"github.com/connerohnesorge/mdstream/internal/watchsrc"
)

// WatchCmd tails a Markdown/MDX file and renders it live in a
// full-screen terminal view as new content is appended, the way a
// streaming LLM reply or a long-running build log would be watched.
type WatchCmd struct {
	// Path is the file to watch.
	Path string `arg:"" help:"File to watch" predictor:"markdownFile"`
}

// Run executes the watch command. It runs until the bubbletea program
// quits or the process receives SIGINT/SIGTERM; removing the file
// finalizes the document but leaves the view open.
func (c *WatchCmd) Run(cli *CLI) error {
	cfg, th, err := loadConfig(cli.Theme)
	if err != nil {
		return err
	}

	src, err := watchsrc.New(c.Path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", c.Path, err)
	}
	defer src.Close()

	strategy, err := scheduler.StrategyFromName(cfg.Strategy, isatty.IsTerminal(os.Stdout.Fd()))
	if err != nil {
		return err
	}

	diagSink := diag.New(256)
	opts := document.Options{
		Strategy:         strategy,
		Priority:         scheduler.High,
		Diag:             diagSink,
		SchedulerOptions: cfg.SchedulerOptions(),
	}
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

	doc := document.New(opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pumpChunks(ctx, src, doc)

	model := view.NewModel(doc.Store(), doc.Scheduler(), th)
	program := tea.NewProgram(model, tea.WithAltScreen())

	_, err = program.Run()

	return err
}

func pumpChunks(ctx context.Context, src *watchsrc.Source, doc *document.Document) {
	for {
		select {
		case <-ctx.Done():
			doc.Finalize()

			return

		case chunk, ok := <-src.Chunks():
			if !ok {
				doc.Finalize()

				return
			}
			if chunk.Text != "" {
				doc.Append(chunk.Text)
			}
			if chunk.Final {
				doc.Finalize()

				return
			}

		case err, ok := <-src.Errors():
			if !ok {
				continue
			}
			fmt.Fprintf(os.Stderr, "mdstream: watch: %v\n", err)
		}
	}
}
