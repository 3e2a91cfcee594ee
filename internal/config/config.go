// Package config loads the site configuration: the ordered list of parking
// structures used as grid centers, plus the layout constants.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/campus-data/parkmap/internal/layout"
)

// Layout constants matching the source deployment: a narrow grid per
// structure with a tight spacing so each cluster sits on top of its
// structure on the map.
const (
	DefaultPerRow     = 8
	DefaultSpacingDeg = 0.00015
)

// DefaultMaxRows caps how many rows are ingested per dataset so the map is
// not overwhelmed. Zero disables the cap.
const DefaultMaxRows = 150

// SiteConfig is the root configuration. Sites is a slice, not a map: the
// order of entries decides which identifier chunk lands at which structure,
// so iteration order must be the file order.
type SiteConfig struct {
	Sites      []layout.Site `json:"sites"`
	SpacingDeg float64       `json:"spacing_deg"`
	PerRow     int           `json:"per_row"`
	MaxRows    int           `json:"max_rows"`
}

// Default returns the built-in configuration: the eight SDSU parking
// structures in their canonical order.
func Default() *SiteConfig {
	return &SiteConfig{
		Sites: []layout.Site{
			{Name: "PS1", Lat: 32.775596, Lon: -117.067279},
			{Name: "PS3", Lat: 32.772323, Lon: -117.066375},
			{Name: "PS4", Lat: 32.771313, Lon: -117.066391},
			{Name: "PS16", Lat: 32.778200, Lon: -117.068776},
			{Name: "PS8", Lat: 32.777959, Lon: -117.074231},
			{Name: "PS12", Lat: 32.775702, Lon: -117.074781},
			{Name: "PS7", Lat: 32.772526, Lon: -117.076750},
			{Name: "PS6", Lat: 32.772089, Lon: -117.074934},
		},
		SpacingDeg: DefaultSpacingDeg,
		PerRow:     DefaultPerRow,
		MaxRows:    DefaultMaxRows,
	}
}

// Load reads a SiteConfig from a JSON file. Fields omitted from the file
// fall back to the defaults, so partial configs are safe.
func Load(path string) (*SiteConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values are usable.
func (c *SiteConfig) Validate() error {
	if c.PerRow <= 0 {
		return fmt.Errorf("per_row must be positive, got %d", c.PerRow)
	}
	if c.SpacingDeg <= 0 {
		return fmt.Errorf("spacing_deg must be positive, got %g", c.SpacingDeg)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative, got %d", c.MaxRows)
	}
	seen := make(map[string]struct{}, len(c.Sites))
	for _, s := range c.Sites {
		if s.Name == "" {
			return fmt.Errorf("site with empty name at (%g, %g)", s.Lat, s.Lon)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate site name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
