package theme

import "testing"

func TestLoadPresets(t *testing.T) {
	for _, name := range Names() {
		th, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if th.Name != name {
			t.Fatalf("Load(%q) returned theme named %q", name, th.Name)
		}
	}
}

func TestLoadEmptyFallsBackToEnv(t *testing.T) {
	t.Setenv("SNAPSHADE_THEME", "dark")
	th, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th.Name != "dark" {
		t.Fatalf("expected env theme dark, got %q", th.Name)
	}

	t.Setenv("SNAPSHADE_THEME", "")
	th, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th.Name != "default" {
		t.Fatalf("expected default theme, got %q", th.Name)
	}
}

func TestLoadUnknownName(t *testing.T) {
	if _, err := Load("plaid"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}
