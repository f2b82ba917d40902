// Package theme defines the overlay color palettes.
package theme

import (
	"fmt"
	"image/color"
	"os"
	"strings"
)

// Theme holds the colors used by the capture overlay.
type Theme struct {
	Name      string
	Dim       color.RGBA // dimming fill over unselected screen area
	Border    color.RGBA // selection rectangle border
	Highlight color.RGBA // hovered window highlight border
	Crosshair color.RGBA // magnifier crosshair
	Text      color.RGBA // size/hex readouts
	TextBg    color.RGBA // readout backing box
}

// Default returns the standard palette.
func Default() *Theme {
	return &Theme{
		Name:      "default",
		Dim:       color.RGBA{A: 110},
		Border:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Highlight: color.RGBA{R: 64, G: 156, B: 255, A: 255},
		Crosshair: color.RGBA{R: 255, G: 64, B: 64, A: 255},
		Text:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		TextBg:    color.RGBA{A: 180},
	}
}

var presets = map[string]func() *Theme{
	"default": Default,
	"dark": func() *Theme {
		return &Theme{
			Name:      "dark",
			Dim:       color.RGBA{A: 160},
			Border:    color.RGBA{R: 200, G: 200, B: 200, A: 255},
			Highlight: color.RGBA{R: 90, G: 120, B: 200, A: 255},
			Crosshair: color.RGBA{R: 220, G: 80, B: 80, A: 255},
			Text:      color.RGBA{R: 220, G: 220, B: 220, A: 255},
			TextBg:    color.RGBA{A: 220},
		}
	},
	"high_contrast": func() *Theme {
		return &Theme{
			Name:      "high_contrast",
			Dim:       color.RGBA{A: 200},
			Border:    color.RGBA{R: 255, G: 255, B: 0, A: 255},
			Highlight: color.RGBA{G: 255, A: 255},
			Crosshair: color.RGBA{R: 255, B: 255, A: 255},
			Text:      color.RGBA{R: 255, G: 255, B: 0, A: 255},
			TextBg:    color.RGBA{A: 255},
		}
	},
	"hotdog": func() *Theme {
		return &Theme{
			Name:      "hotdog",
			Dim:       color.RGBA{R: 60, A: 140},
			Border:    color.RGBA{R: 255, G: 255, B: 0, A: 255},
			Highlight: color.RGBA{R: 255, A: 255},
			Crosshair: color.RGBA{R: 255, G: 255, B: 0, A: 255},
			Text:      color.RGBA{R: 255, G: 255, B: 0, A: 255},
			TextBg:    color.RGBA{R: 160, A: 255},
		}
	},
}

// Load resolves a theme by name. The empty name falls back to the
// SNAPSHADE_THEME environment variable and then to the default palette.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = strings.TrimSpace(os.Getenv("SNAPSHADE_THEME"))
	}
	if name == "" {
		return Default(), nil
	}
	fn, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q", name)
	}
	return fn(), nil
}

// Names lists the available theme names.
func Names() []string {
	return []string{"default", "dark", "high_contrast", "hotdog"}
}
