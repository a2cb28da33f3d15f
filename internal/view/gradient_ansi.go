package view

import (
	"fmt"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	ansiMaxColorCode   = 255
	ansiStandardMax    = 16
	ansiCubeStart      = 16
	ansiCubeEnd        = 231
	ansiGrayscaleStart = 232
	ansiGrayscaleEnd   = 255
	ansiCubeSize       = 6
	ansiCubePlaneSize  = 36 // 6 * 6
	ansiGrayscaleSteps = 23.0
	ansiColorSteps     = 5.0
	dimBrightness      = 0.5
	standardBrightness = 0.75
	fullBrightness     = 1.0
	zeroBrightness     = 0.0
)

func parseANSICode(color string) (int, error) {
	code, err := strconv.Atoi(color)
	if err != nil || code < 0 || code > ansiMaxColorCode {
		return 0, fmt.Errorf("invalid ANSI 256 color code: %s", color)
	}

	return code, nil
}

// ansi256ToRGB converts an ANSI 256 color code to an interpolatable
// RGB color, covering the 16 standard colors, the 6x6x6 color cube,
// and the 24-step grayscale ramp.
func ansi256ToRGB(code int) colorful.Color {
	switch {
	case code < ansiStandardMax:
		return standardANSIColor(code)
	case code >= ansiCubeStart && code <= ansiCubeEnd:
		return colorCubeColor(code)
	case code >= ansiGrayscaleStart && code <= ansiGrayscaleEnd:
		return grayscaleColor(code)
	default:
		return colorful.Color{R: fullBrightness, G: fullBrightness, B: fullBrightness}
	}
}

func standardANSIColor(code int) colorful.Color {
	colors := [ansiStandardMax]colorful.Color{
		{R: zeroBrightness, G: zeroBrightness, B: zeroBrightness},
		{R: dimBrightness, G: zeroBrightness, B: zeroBrightness},
		{R: zeroBrightness, G: dimBrightness, B: zeroBrightness},
		{R: dimBrightness, G: dimBrightness, B: zeroBrightness},
		{R: zeroBrightness, G: zeroBrightness, B: dimBrightness},
		{R: dimBrightness, G: zeroBrightness, B: dimBrightness},
		{R: zeroBrightness, G: dimBrightness, B: dimBrightness},
		{R: standardBrightness, G: standardBrightness, B: standardBrightness},
		{R: dimBrightness, G: dimBrightness, B: dimBrightness},
		{R: fullBrightness, G: zeroBrightness, B: zeroBrightness},
		{R: zeroBrightness, G: fullBrightness, B: zeroBrightness},
		{R: fullBrightness, G: fullBrightness, B: zeroBrightness},
		{R: zeroBrightness, G: zeroBrightness, B: fullBrightness},
		{R: fullBrightness, G: zeroBrightness, B: fullBrightness},
		{R: zeroBrightness, G: fullBrightness, B: fullBrightness},
		{R: fullBrightness, G: fullBrightness, B: fullBrightness},
	}

	return colors[code]
}

func colorCubeColor(code int) colorful.Color {
	index := code - ansiCubeStart
	r := index / ansiCubePlaneSize
	g := (index % ansiCubePlaneSize) / ansiCubeSize
	b := index % ansiCubeSize

	return colorful.Color{
		R: float64(r) / ansiColorSteps,
		G: float64(g) / ansiColorSteps,
		B: float64(b) / ansiColorSteps,
	}
}

func grayscaleColor(code int) colorful.Color {
	gray := float64(code-ansiGrayscaleStart) / ansiGrayscaleSteps

	return colorful.Color{R: gray, G: gray, B: gray}
}
