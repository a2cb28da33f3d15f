package view

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/exp/teatest"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/connerohnesorge/mdstream/internal/document"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

// TestModelRendersAppendedBlocks drives the full bubbletea Update loop
// (rather than calling Update directly) the way a real terminal
// session would, confirming a committed block actually reaches the
// screen.
func TestModelRendersAppendedBlocks(t *testing.T) {
	th, err := theme.Get("default")
	if err != nil {
		t.Fatal(err)
	}

	doc := document.New(document.Options{Strategy: scheduler.MicrotaskStrategy{}})
	doc.Append("# Streaming Title\n\nbody paragraph\n")
	doc.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := doc.AwaitIdle(ctx); err != nil {
		t.Fatal(err)
	}

	m := NewModel(doc.Store(), doc.Scheduler(), th)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "Streaming Title")
	}, teatest.WithCheckInterval(50*time.Millisecond), teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
