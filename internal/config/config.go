// Package config loads the runcommand-style configuration file: capture
// delivery defaults, notification toggles and custom overlay themes.
package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/example/snapshade/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Capture bool
	Save    bool
	Copy    bool
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:  "", // empty falls through to the env variable and the default palette
		Themes: make(map[string]*theme.Theme),
	}
}

// ResolveTheme returns the named overlay theme, preferring a custom theme
// from the configuration file over the built-in presets. The empty name
// picks the configured default.
func (c *Config) ResolveTheme(name string) (*theme.Theme, error) {
	if name == "" {
		name = c.Theme
	}
	if t, ok := c.Themes[strings.ToLower(name)]; ok {
		return t, nil
	}
	return theme.Load(name)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "capture = %v\n", c.Notify.Capture)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort theme names for deterministic output.
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Dim: %s\n", toHex(t.Dim))
		fmt.Fprintf(&sb, "Border: %s\n", toHex(t.Border))
		fmt.Fprintf(&sb, "Highlight: %s\n", toHex(t.Highlight))
		fmt.Fprintf(&sb, "Crosshair: %s\n", toHex(t.Crosshair))
		fmt.Fprintf(&sb, "Text: %s\n", toHex(t.Text))
		fmt.Fprintf(&sb, "TextBg: %s\n", toHex(t.TextBg))
		sb.WriteString("\n")
	}

	return sb.String()
}

func toHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
