package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.Sites) != 8 {
		t.Fatalf("expected 8 default sites, got %d", len(cfg.Sites))
	}
	if cfg.Sites[0].Name != "PS1" || cfg.Sites[7].Name != "PS6" {
		t.Errorf("default site order wrong: first=%s last=%s", cfg.Sites[0].Name, cfg.Sites[7].Name)
	}
	if cfg.PerRow != 8 {
		t.Errorf("PerRow = %d, want 8", cfg.PerRow)
	}
	if cfg.SpacingDeg != 0.00015 {
		t.Errorf("SpacingDeg = %g, want 0.00015", cfg.SpacingDeg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.json")
	content := `{
		"sites": [
			{"name": "LotA", "lat": 34.05, "lon": -118.25},
			{"name": "LotB", "lat": 34.06, "lon": -118.26}
		],
		"per_row": 4
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(cfg.Sites))
	}
	if cfg.Sites[0].Name != "LotA" {
		t.Errorf("first site = %s, want LotA", cfg.Sites[0].Name)
	}
	if cfg.PerRow != 4 {
		t.Errorf("PerRow = %d, want 4", cfg.PerRow)
	}
	// omitted field keeps default
	if cfg.SpacingDeg != DefaultSpacingDeg {
		t.Errorf("SpacingDeg = %g, want default %g", cfg.SpacingDeg, DefaultSpacingDeg)
	}
}

func TestLoadRejectsNonJSON(t *testing.T) {
	if _, err := Load("sites.yaml"); err == nil {
		t.Error("expected error for non-JSON extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejectsDuplicateSites(t *testing.T) {
	cfg := Default()
	cfg.Sites = append(cfg.Sites, cfg.Sites[0])
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for duplicate site name")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.PerRow = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for per_row = 0")
	}

	cfg = Default()
	cfg.SpacingDeg = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative spacing")
	}
}
