package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/connerohnesorge/mdstream/internal/theme"
)

// Banner renders text (typically ASCII art or a one-line title) with a
// left-to-right color gradient between the theme's GradientStart and
// GradientEnd colors, for `mdstream watch`'s startup screen.
func Banner(text string, th *theme.Theme) string {
	startColor, endColor, err := parseColorPair(th.GradientStart, th.GradientEnd)
	if err != nil {
		return text
	}

	lines := strings.Split(text, "\n")
	totalChars := 0
	for _, line := range lines {
		totalChars += len(line)
	}
	if totalChars == 0 {
		return text
	}

	var out strings.Builder
	charIndex := 0
	for lineIdx, line := range lines {
		if lineIdx > 0 {
			out.WriteString("\n")
		}
		for _, char := range line {
			ratio := colorRatio(charIndex, totalChars)
			out.WriteString(styleChar(char, startColor, endColor, ratio))
			charIndex++
		}
	}

	return out.String()
}

func parseColorPair(colorA, colorB lipgloss.Color) (start, end colorful.Color, err error) {
	start, err = parseANSIColor(string(colorA))
	if err != nil {
		return colorful.Color{}, colorful.Color{}, err
	}

	end, err = parseANSIColor(string(colorB))
	if err != nil {
		return colorful.Color{}, colorful.Color{}, err
	}

	return start, end, nil
}

func colorRatio(charIndex, totalChars int) float64 {
	if totalChars <= 1 {
		return 0
	}

	return float64(charIndex) / float64(totalChars-1)
}

func styleChar(char rune, startColor, endColor colorful.Color, ratio float64) string {
	interpolated := startColor.BlendLab(endColor, ratio)

	return lipgloss.NewStyle().Foreground(lipgloss.Color(interpolated.Hex())).Render(string(char))
}

// parseANSIColor converts a lipgloss ANSI 256 color code (the palette
// used throughout internal/theme) to an interpolatable colorful.Color.
// Hex colors ("#RRGGBB") are accepted directly.
func parseANSIColor(color string) (colorful.Color, error) {
	if strings.HasPrefix(color, "#") {
		return colorful.Hex(color)
	}

	code, err := parseANSICode(color)
	if err != nil {
		return colorful.Color{}, err
	}

	return ansi256ToRGB(code), nil
}
