// Package config handles mdstream configuration file loading and
// validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

const (
	// ConfigFileName is the name of the mdstream configuration file.
	ConfigFileName = "mdstream.yaml"
	// DefaultStrategy is used when Strategy is unset.
	DefaultStrategy = "auto"
)

// Config holds the scheduler options and feature flags exposed as
// configuration surface, plus display options.
type Config struct {
	// ProjectRoot is the absolute path to the directory mdstream.yaml
	// was found in, or the starting path if none was found.
	ProjectRoot string `yaml:"-"`

	// Theme names the color theme to use (default, dark, light,
	// solarized, monokai).
	Theme string `yaml:"theme"`

	// Strategy names the commit scheduler's dispatch strategy:
	// "microtask", "raf", "timeout", or "auto" to pick based on TTY
	// attachment.
	Strategy string `yaml:"strategy"`

	// Features toggles optional pipeline stages.
	Features FeatureFlags `yaml:"features"`

	// SanitizePolicy configures the HTML sanitizer's policy ("strict"/"ugc").
	SanitizePolicy string `yaml:"sanitize_policy"`

	// HighlightStyle names the chroma style used for code highlighting.
	HighlightStyle string `yaml:"highlight_style"`

	// MDXComponents lists the component names the MDX compile service
	// resolves; any MDX tag outside this list resolves with
	// mdxsvc.ErrUnknownComponent.
	MDXComponents []string `yaml:"mdx_components"`

	// Scheduler configures the commit scheduler's wall-clock frame
	// budgets and per-priority batch caps.
	Scheduler SchedulerOptions `yaml:"scheduler"`
}

// FeatureFlags toggles optional stages of the pipeline, matching the
// external interfaces left as configurable collaborators.
type FeatureFlags struct {
	Highlight          bool `yaml:"highlight"`
	Sanitize           bool `yaml:"sanitize"`
	MDX                bool `yaml:"mdx"`
	Footnotes          bool `yaml:"footnotes"`
	HTML               bool `yaml:"html"`
	Tables             bool `yaml:"tables"`
	Callouts           bool `yaml:"callouts"`
	Math               bool `yaml:"math"`
	FormatAnticipation bool `yaml:"format_anticipation"`
}

// SchedulerOptions is the YAML-facing mirror of scheduler.Options.
type SchedulerOptions struct {
	FrameBudgetMs            int  `yaml:"frame_budget_ms"`
	LowPriorityFrameBudgetMs int  `yaml:"low_priority_frame_budget_ms"`
	HighBatchCap             int  `yaml:"high_batch_cap"`
	LowBatchCap              int  `yaml:"low_batch_cap"`
	AdaptiveSwitch           bool `yaml:"adaptive_switch"`
}

// ToScheduler converts the YAML-facing options into scheduler.Options,
// zero fields falling back to scheduler.DefaultOptions() inside
// scheduler.NewWithOptions.
func (o SchedulerOptions) ToScheduler() scheduler.Options {
	return scheduler.Options{
		FrameBudgetMs:            o.FrameBudgetMs,
		LowPriorityFrameBudgetMs: o.LowPriorityFrameBudgetMs,
		HighBatchCap:             o.HighBatchCap,
		LowBatchCap:              o.LowBatchCap,
		AdaptiveSwitch:           o.AdaptiveSwitch,
	}
}

// SchedulerOptions returns the scheduler.Options this configuration
// maps to.
func (c *Config) SchedulerOptions() scheduler.Options {
	return c.Scheduler.ToScheduler()
}

// Load searches for mdstream.yaml starting from the current working
// directory, walking up the directory tree. If not found, returns
// default configuration.
func Load(fs afero.Fs, cwd string) (*Config, error) {
	return LoadFromPath(fs, cwd)
}

// LoadFromPath searches for mdstream.yaml starting from the given
// path, walking up the directory tree via afero so tests can exercise
// this against an in-memory filesystem.
func LoadFromPath(fs afero.Fs, startPath string) (*Config, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %q: %w", startPath, err)
	}

	currentPath := absPath
	for {
		configPath := filepath.Join(currentPath, ConfigFileName)

		if exists, _ := afero.Exists(fs, configPath); exists {
			cfg, err := parseConfigFile(fs, configPath)
			if err != nil {
				return nil, err
			}
			cfg.ProjectRoot = currentPath

			if err := cfg.validate(); err != nil {
				return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
			}

			return cfg, nil
		}

		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			break
		}
		currentPath = parentPath
	}

	return defaults(absPath), nil
}

func defaults(projectRoot string) *Config {
	return &Config{
		ProjectRoot:    projectRoot,
		Theme:          "default",
		Strategy:       DefaultStrategy,
		SanitizePolicy: "strict",
		HighlightStyle: "monokai",
		Features: FeatureFlags{
			Highlight:          true,
			Sanitize:           true,
			MDX:                true,
			Footnotes:          true,
			HTML:               true,
			Tables:             true,
			Callouts:           true,
			Math:               true,
			FormatAnticipation: true,
		},
		Scheduler:     SchedulerOptions{},
		MDXComponents: []string{"Chart", "Callout", "Tabs", "Tab", "CodeBlock", "Figure"},
	}
}

func parseConfigFile(fs afero.Fs, configPath string) (*Config, error) {
	data, err := afero.ReadFile(fs, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		var yamlErr *yaml.TypeError
		if errors.As(err, &yamlErr) {
			return nil, fmt.Errorf("invalid YAML syntax: %v", yamlErr.Errors)
		}

		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Theme == "" {
		cfg.Theme = "default"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if cfg.SanitizePolicy == "" {
		cfg.SanitizePolicy = "strict"
	}
	if cfg.HighlightStyle == "" {
		cfg.HighlightStyle = "monokai"
	}
	if len(cfg.MDXComponents) == 0 {
		cfg.MDXComponents = defaults("").MDXComponents
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := theme.Get(c.Theme); err != nil {
		available := theme.Available()

		return fmt.Errorf("invalid theme '%s', available themes: %s", c.Theme, strings.Join(available, ", "))
	}

	switch c.Strategy {
	case "auto", "microtask", "raf", "timeout":
	default:
		return fmt.Errorf("invalid strategy '%s', must be one of: auto, microtask, raf, timeout", c.Strategy)
	}

	switch c.SanitizePolicy {
	case "strict", "ugc":
	default:
		return fmt.Errorf("invalid sanitize_policy '%s', must be one of: strict, ugc", c.SanitizePolicy)
	}

	return nil
}
