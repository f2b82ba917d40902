package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/screens

[notify]
capture = true
save = false
copy = true

[theme.my_custom_theme]
Dim = #00000080
Border = #FFFFFF
`
	r := strings.NewReader(input)
	cfg, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}

	if cfg.SaveDir != "/tmp/screens" {
		t.Errorf("Expected save_dir '/tmp/screens', got '%s'", cfg.SaveDir)
	}

	if !cfg.Notify.Capture {
		t.Error("Expected notify.capture to be true")
	}
	if cfg.Notify.Save {
		t.Error("Expected notify.save to be false")
	}
	if !cfg.Notify.Copy {
		t.Error("Expected notify.copy to be true")
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}

	if th.Dim.A != 0x80 {
		t.Errorf("Unexpected Dim color: %+v", th.Dim)
	}
	if th.Border.R != 0xFF || th.Border.G != 0xFF || th.Border.B != 0xFF {
		t.Errorf("Unexpected Border color: %+v", th.Border)
	}
}

func TestResolveTheme(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
theme = custom

[theme.custom]
Highlight = #FF0000
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Empty name picks the configured default, which is a custom theme.
	th, err := cfg.ResolveTheme("")
	if err != nil {
		t.Fatalf("ResolveTheme: %v", err)
	}
	if th.Highlight.R != 0xFF || th.Highlight.G != 0 {
		t.Errorf("Unexpected Highlight: %+v", th.Highlight)
	}

	// Built-in presets still resolve.
	if _, err := cfg.ResolveTheme("high_contrast"); err != nil {
		t.Fatalf("ResolveTheme preset: %v", err)
	}

	if _, err := cfg.ResolveTheme("no_such_theme"); err == nil {
		t.Error("Expected error for unknown theme")
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/shots

[notify]
capture = true
save = true
copy = false

[theme.custom]
Dim = #3C000064
Border = #FFFF00
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	// 4. Compare relevant fields
	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if t1.Dim != t2.Dim || t1.Border != t2.Border {
		t.Errorf("Theme color mismatch: %+v vs %+v", t1, t2)
	}
}
