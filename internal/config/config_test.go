package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("missing file should yield zero config, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	want := &Config{
		Listen:  ":9090",
		DataDir: "/var/lib/genstudio",
		APIKey:  "k",
	}
	want.Costs.Image = 1234

	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestResolvedCosts(t *testing.T) {
	cfg := &Config{}
	cfg.Costs.Video = 9999

	costs := cfg.ResolvedCosts()
	if costs.Video != 9999 {
		t.Errorf("video = %d, want override 9999", costs.Video)
	}
	if costs.Text != 500 || costs.Image != 2500 {
		t.Errorf("defaults lost: %+v", costs)
	}
}

func TestResolvedDataDirDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{}
	if got := cfg.ResolvedDataDir(); got != filepath.Join(home, ".genstudio") {
		t.Errorf("data dir = %q", got)
	}
}
