// Package theme provides the color palette `mdstream watch`'s live
// view renders blocks with.
package theme

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a complete color palette for rendering a streaming
// document in a terminal.
type Theme struct {
	Primary       lipgloss.Color // Headings, titles
	Secondary     lipgloss.Color // Cursor, active block highlight
	Success       lipgloss.Color // Finalized-block indicator
	Error         lipgloss.Color // Diagnostic sink errors
	Warning       lipgloss.Color // Diagnostic sink warnings
	Muted         lipgloss.Color // Blockquote text, dim metadata
	Border        lipgloss.Color // Table borders, rules, thematic breaks
	Header        lipgloss.Color // Table header row
	Selected      lipgloss.Color // Selected block foreground
	Highlight     lipgloss.Color // Selected block background
	Link          lipgloss.Color // Inline link/image segments
	CodeFence     lipgloss.Color // Code-fence block background
	GradientStart lipgloss.Color // Banner/splash gradient start
	GradientEnd   lipgloss.Color // Banner/splash gradient end
}

// Default theme matching current hardcoded colors in the codebase.
var defaultTheme = &Theme{
	Primary:       lipgloss.Color("99"),  // Purple/violet for headers/titles
	Secondary:     lipgloss.Color("170"), // Pink for selections
	Success:       lipgloss.Color("42"),  // Green
	Error:         lipgloss.Color("196"), // Red
	Warning:       lipgloss.Color("3"),   // Yellow
	Muted:         lipgloss.Color("240"), // Dim gray
	Border:        lipgloss.Color("240"), // Dim gray
	Header:        lipgloss.Color("99"),  // Purple
	Selected:      lipgloss.Color("229"), // Light yellow foreground
	Highlight:     lipgloss.Color("57"),  // Purple background
	Link:          lipgloss.Color("75"),  // Sky blue
	CodeFence:     lipgloss.Color("236"), // Near-black background
	GradientStart: lipgloss.Color("99"),  // Purple
	GradientEnd:   lipgloss.Color("205"), // Pink
}

// Dark theme: high contrast on dark backgrounds, brighter colors.
var darkTheme = &Theme{
	Primary:       lipgloss.Color("141"), // Bright purple
	Secondary:     lipgloss.Color("213"), // Bright pink
	Success:       lipgloss.Color("46"),  // Bright green
	Error:         lipgloss.Color("196"), // Bright red
	Warning:       lipgloss.Color("226"), // Bright yellow
	Muted:         lipgloss.Color("243"), // Medium gray
	Border:        lipgloss.Color("238"), // Dark gray border
	Header:        lipgloss.Color("141"), // Bright purple
	Selected:      lipgloss.Color("231"), // White foreground
	Highlight:     lipgloss.Color("61"),  // Bright purple background
	Link:          lipgloss.Color("111"), // Light blue
	CodeFence:     lipgloss.Color("234"), // Near-black background
	GradientStart: lipgloss.Color("141"), // Bright purple
	GradientEnd:   lipgloss.Color("213"), // Bright pink
}

// Light theme: optimized for light terminal backgrounds, darker accents.
var lightTheme = &Theme{
	Primary:       lipgloss.Color("55"),  // Dark purple
	Secondary:     lipgloss.Color("125"), // Dark pink
	Success:       lipgloss.Color("28"),  // Dark green
	Error:         lipgloss.Color("160"), // Dark red
	Warning:       lipgloss.Color("136"), // Dark yellow/orange
	Muted:         lipgloss.Color("246"), // Light gray
	Border:        lipgloss.Color("250"), // Very light gray border
	Header:        lipgloss.Color("55"),  // Dark purple
	Selected:      lipgloss.Color("16"),  // Black foreground
	Highlight:     lipgloss.Color("189"), // Light purple background
	Link:          lipgloss.Color("25"),  // Dark blue
	CodeFence:     lipgloss.Color("254"), // Near-white background
	GradientStart: lipgloss.Color("55"),  // Dark purple
	GradientEnd:   lipgloss.Color("125"), // Dark pink
}

// Solarized theme: Solarized Dark palette colors.
var solarizedTheme = &Theme{
	Primary:       lipgloss.Color("33"),  // Blue (base0)
	Secondary:     lipgloss.Color("125"), // Magenta
	Success:       lipgloss.Color("64"),  // Green
	Error:         lipgloss.Color("160"), // Red
	Warning:       lipgloss.Color("136"), // Yellow
	Muted:         lipgloss.Color("240"), // Base01
	Border:        lipgloss.Color("235"), // Base02
	Header:        lipgloss.Color("37"),  // Cyan
	Selected:      lipgloss.Color("230"), // Base3 (light)
	Highlight:     lipgloss.Color("235"), // Base02 (dark)
	Link:          lipgloss.Color("33"),  // Blue
	CodeFence:     lipgloss.Color("235"), // Base02
	GradientStart: lipgloss.Color("33"),  // Blue
	GradientEnd:   lipgloss.Color("125"), // Magenta
}

// Monokai theme: Monokai palette colors.
var monokaiTheme = &Theme{
	Primary:       lipgloss.Color("141"), // Purple
	Secondary:     lipgloss.Color("197"), // Pink
	Success:       lipgloss.Color("148"), // Green
	Error:         lipgloss.Color("197"), // Pink/red
	Warning:       lipgloss.Color("208"), // Orange
	Muted:         lipgloss.Color("243"), // Gray
	Border:        lipgloss.Color("237"), // Dark gray
	Header:        lipgloss.Color("81"),  // Cyan/blue
	Selected:      lipgloss.Color("231"), // White
	Highlight:     lipgloss.Color("237"), // Dark gray background
	Link:          lipgloss.Color("81"),  // Cyan/blue
	CodeFence:     lipgloss.Color("235"), // Dark gray background
	GradientStart: lipgloss.Color("141"), // Purple
	GradientEnd:   lipgloss.Color("197"), // Pink
}

// themes is the registry of all available themes.
var themes = map[string]*Theme{
	"default":   defaultTheme,
	"dark":      darkTheme,
	"light":     lightTheme,
	"solarized": solarizedTheme,
	"monokai":   monokaiTheme,
}

// current holds the currently active theme.
var current *Theme

// Get returns the theme with the given name.
// Returns an error if the theme does not exist.
func Get(name string) (*Theme, error) {
	theme, ok := themes[name]
	if !ok {
		return nil, fmt.Errorf("theme not found: %s", name)
	}

	return theme, nil
}

// Load loads the theme with the given name as the current theme.
// Returns an error if the theme does not exist.
func Load(name string) error {
	theme, err := Get(name)
	if err != nil {
		return err
	}
	current = theme

	return nil
}

// Current returns the currently active theme.
// If no theme has been loaded, returns the default theme.
func Current() *Theme {
	if current == nil {
		return defaultTheme
	}

	return current
}

// Available returns a sorted list of all available theme names.
func Available() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
