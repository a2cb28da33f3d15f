package config

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/afero"

	"github.com/connerohnesorge/mdstream/internal/scheduler"
)

func TestLoadReturnsDefaultsWhenNoFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/work/project")
	assert.NoError(t, err)
	assert.Equal(t, "default", cfg.Theme)
	assert.Equal(t, DefaultStrategy, cfg.Strategy)
	assert.Equal(t, "strict", cfg.SanitizePolicy)
	assert.True(t, cfg.Features.Highlight)
	assert.True(t, len(cfg.MDXComponents) > 0)
}

func TestLoadCustomMDXComponentsOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte("mdx_components: [Widget]\n"), 0o644))

	cfg, err := Load(fs, "/work")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Widget"}, cfg.MDXComponents)
}

func TestLoadFindsConfigWalkingUp(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, fs.MkdirAll("/work/project/nested", 0o755))
	assert.NoError(t, afero.WriteFile(fs, "/work/project/mdstream.yaml", []byte("theme: dark\nstrategy: raf\n"), 0o644))

	cfg, err := Load(fs, "/work/project/nested")
	assert.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, "raf", cfg.Strategy)
	assert.Equal(t, "/work/project", cfg.ProjectRoot)
}

func TestLoadNearestConfigWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, fs.MkdirAll("/work/project/nested", 0o755))
	assert.NoError(t, afero.WriteFile(fs, "/work/project/mdstream.yaml", []byte("theme: dark\n"), 0o644))
	assert.NoError(t, afero.WriteFile(fs, "/work/project/nested/mdstream.yaml", []byte("theme: light\n"), 0o644))

	cfg, err := Load(fs, "/work/project/nested")
	assert.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, "/work/project/nested", cfg.ProjectRoot)
}

func TestLoadRejectsUnknownTheme(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte("theme: nope\n"), 0o644))

	_, err := Load(fs, "/work")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte("strategy: nope\n"), 0o644))

	_, err := Load(fs, "/work")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownSanitizePolicy(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte("sanitize_policy: nope\n"), 0o644))

	_, err := Load(fs, "/work")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte("theme: [unterminated\n"), 0o644))

	_, err := Load(fs, "/work")
	assert.Error(t, err)
}

func TestLoadPartialConfigFillsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte("theme: solarized\n"), 0o644))

	cfg, err := Load(fs, "/work")
	assert.NoError(t, err)
	assert.Equal(t, "solarized", cfg.Theme)
	assert.Equal(t, DefaultStrategy, cfg.Strategy)
	assert.Equal(t, "strict", cfg.SanitizePolicy)
	assert.Equal(t, "monokai", cfg.HighlightStyle)
}

func TestDefaultsEnableAllFeatureFlags(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/work")
	assert.NoError(t, err)
	assert.True(t, cfg.Features.Footnotes)
	assert.True(t, cfg.Features.HTML)
	assert.True(t, cfg.Features.Tables)
	assert.True(t, cfg.Features.Callouts)
	assert.True(t, cfg.Features.Math)
	assert.True(t, cfg.Features.FormatAnticipation)
}

func TestLoadParsesSchedulerOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/work/mdstream.yaml", []byte(`
scheduler:
  frame_budget_ms: 12
  low_priority_frame_budget_ms: 6
  high_batch_cap: 16
  low_batch_cap: 4
  adaptive_switch: true
`), 0o644))

	cfg, err := Load(fs, "/work")
	assert.NoError(t, err)
	assert.Equal(t, 12, cfg.Scheduler.FrameBudgetMs)
	assert.Equal(t, 6, cfg.Scheduler.LowPriorityFrameBudgetMs)
	assert.Equal(t, 16, cfg.Scheduler.HighBatchCap)
	assert.Equal(t, 4, cfg.Scheduler.LowBatchCap)
	assert.True(t, cfg.Scheduler.AdaptiveSwitch)

	opts := cfg.SchedulerOptions()
	assert.Equal(t, scheduler.Options{
		FrameBudgetMs:            12,
		LowPriorityFrameBudgetMs: 6,
		HighBatchCap:             16,
		LowBatchCap:              4,
		AdaptiveSwitch:           true,
	}, opts)
}

func TestSchedulerOptionsZeroValueFallsBackToDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/work")
	assert.NoError(t, err)

	opts := cfg.SchedulerOptions()
	assert.Zero(t, opts.FrameBudgetMs)

	applied := scheduler.NewWithOptions(scheduler.MicrotaskStrategy{}, opts)
	assert.NotZero(t, applied)
}
