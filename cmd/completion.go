// Package cmd provides command-line interface implementations. This
// file contains shell completion predictors for the mdstream CLI.
// Predictors provide context-aware suggestions for tab completion in
// supported shells (bash, zsh, fish).
package cmd

import (
	"github.com/posener/complete"

	"github.com/connerohnesorge/mdstream/internal/theme"
)

// PredictMarkdownFiles returns a predictor that suggests Markdown/MDX
// files for the render/watch commands' path argument.
func PredictMarkdownFiles() complete.Predictor {
	return complete.PredictOr(
		complete.PredictFiles("*.md"),
		complete.PredictFiles("*.mdx"),
	)
}

// PredictThemes returns a predictor that suggests the names of the
// built-in color themes.
func PredictThemes() complete.Predictor {
	return complete.PredictFunc(func(_ complete.Args) []string {
		return theme.Available()
	})
}
