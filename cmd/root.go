// Package cmd provides command-line interface implementations for
// mdstream.
package cmd

import (
	"fmt"
	"os"

	kongcompletion "github.com/jotaen/kong-completion"
	"github.com/spf13/afero"

	"github.com/connerohnesorge/mdstream/internal/config"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

// CLI represents the root command structure for Kong.
type CLI struct {
	// Global flags (apply to all commands)
	Theme string `help:"Color theme override (default, dark, light, solarized, monokai)" name:"theme" predictor:"theme"` //nolint:lll,revive

	// Commands
	Render     RenderCmd                 `cmd:"" help:"Render a Markdown/MDX file once and print the result"` //nolint:lll,revive
	Watch      WatchCmd                  `cmd:"" help:"Watch a file and render it live as it grows"`          //nolint:lll,revive
	Version    VersionCmd                `cmd:"" help:"Show version info"`                                    //nolint:lll,revive
	Completion kongcompletion.Completion `cmd:"" help:"Generate shell completions"`                           //nolint:lll,revive
}

// loadConfig resolves mdstream.yaml from the current working
// directory and the active theme, letting override win over whatever
// the config file names. Falls back to defaults rather than failing
// the command if the config can't be read, since a missing/invalid
// config is recoverable (the whole config surface is optional); a
// working directory that can't be resolved is still an error.
func loadConfig(override string) (*config.Config, *theme.Theme, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(afero.NewOsFs(), cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdstream: config: %v\n", err)
		cfg = &config.Config{
			Theme:          "default",
			Strategy:       config.DefaultStrategy,
			SanitizePolicy: "strict",
			HighlightStyle: "monokai",
			Features:       config.FeatureFlags{Highlight: true, Sanitize: true, MDX: true},
		}
	}

	themeName := cfg.Theme
	if override != "" {
		themeName = override
	}

	th, err := theme.Get(themeName)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve theme: %w", err)
	}

	return cfg, th, nil
}
