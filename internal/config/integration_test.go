//go:build integration

package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/afero"

	"github.com/connerohnesorge/mdstream/internal/config"
	"github.com/connerohnesorge/mdstream/internal/document"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
)

// TestIntegration_ConfigDrivesDocumentPipeline verifies that a loaded
// Config's Strategy selects the scheduler strategy a Document commits
// through, and that the resulting store reflects appended content.
func TestIntegration_ConfigDrivesDocumentPipeline(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/proj/mdstream.yaml", []byte("theme: dark\nstrategy: microtask\n"), 0o644))

	cfg, err := config.Load(fs, "/proj")
	assert.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)

	strat, err := scheduler.StrategyFromName(cfg.Strategy, false)
	assert.NoError(t, err)
	assert.Equal(t, "microtask", strat.Name())

	doc := document.New(document.Options{Strategy: strat, Priority: scheduler.High})
	doc.Append("# Title\n\nSome paragraph text.\n")
	doc.Finalize()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, doc.AwaitIdle(ctx))

	assert.True(t, doc.Store().Version() > 0)
}

// TestIntegration_DefaultsWhenNoConfigFile verifies that a project with
// no mdstream.yaml still produces a usable, validated default Config
// that can drive the pipeline.
func TestIntegration_DefaultsWhenNoConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, fs.MkdirAll("/proj", 0o755))

	cfg, err := config.Load(fs, "/proj")
	assert.NoError(t, err)
	assert.Equal(t, "default", cfg.Theme)

	strat, err := scheduler.StrategyFromName(cfg.Strategy, false)
	assert.NoError(t, err)
	assert.Equal(t, "microtask", strat.Name())
}
