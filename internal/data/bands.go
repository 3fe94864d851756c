package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grid-constraints/internal/network"
)

// BandsFile is the on-disk form of flexibility bands for one grid.
type BandsFile struct {
	Grid      string                   `json:"grid"`
	UseCases  []string                 `json:"use_cases"`
	UpdatedAt string                   `json:"updated_at"` // ISO 8601 timestamp
	Bands     network.FlexibilityBands `json:"bands"`
}

// LoadFlexibilityBands loads bands from a JSON file
func LoadFlexibilityBands(filePath string) (*BandsFile, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read flexibility bands file: %w", err)
	}

	var f BandsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse flexibility bands file: %w", err)
	}

	return &f, nil
}

// SaveFlexibilityBands saves bands to a JSON file
func SaveFlexibilityBands(f *BandsFile, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if f.UpdatedAt == "" {
		f.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flexibility bands: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write flexibility bands file: %w", err)
	}

	return nil
}

// DefaultBandsPath returns the default path for the bands file
func DefaultBandsPath() string {
	if path := os.Getenv("FLEX_BANDS_FILE"); path != "" {
		return path
	}
	return "./data/flexibility_bands.json"
}

// FileBands serves bands read from a file. The file's grid and use cases
// are checked against the request if they are set.
type FileBands struct {
	Path string
}

func (p FileBands) FlexibilityBands(_ context.Context, grid string, useCases []string) (*network.FlexibilityBands, error) {
	f, err := LoadFlexibilityBands(p.Path)
	if err != nil {
		return nil, err
	}
	if f.Grid != "" && grid != "" && f.Grid != grid {
		return nil, fmt.Errorf("flexibility bands file is for grid %q, not %q", f.Grid, grid)
	}
	if len(f.UseCases) > 0 && !sameSet(f.UseCases, useCases) {
		return nil, fmt.Errorf("flexibility bands file has use cases %v, requested %v", f.UseCases, useCases)
	}
	return &f.Bands, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]int, len(a))
	for _, s := range a {
		m[s]++
	}
	for _, s := range b {
		if m[s] == 0 {
			return false
		}
		m[s]--
	}
	return true
}
