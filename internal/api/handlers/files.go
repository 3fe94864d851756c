package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grid-constraints/internal/api/models"
	"grid-constraints/internal/config"
	"grid-constraints/internal/data"
	"grid-constraints/internal/network"
)

// Files resolves request paths below a data directory and loads the
// server-side default configuration.
type Files struct {
	DataDir string
	Config  *config.Config
}

// NewFiles uses DATA_DIR (default ./data) and CONFIG_FILE, if set.
func NewFiles() (*Files, error) {
	dir := os.Getenv("DATA_DIR")
	if dir == "" {
		dir = "./data"
	}
	cfg := config.Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return &Files{DataDir: dir, Config: cfg}, nil
}

// resolve returns the path of rel inside the data directory. Absolute paths
// and paths leaving the directory are rejected.
func (f *Files) resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative to the data directory", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q leaves the data directory", rel)
	}
	return filepath.Join(f.DataDir, clean), nil
}

func (f *Files) loadConfig(rel string) (*config.Config, error) {
	if rel == "" {
		return f.Config, nil
	}
	path, err := f.resolve(rel)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func (f *Files) loadSnapshot(src models.SnapshotSource) (*data.Snapshot, string, error) {
	switch {
	case len(src.Snapshot) > 0 && src.SnapshotPath != "":
		return nil, "", fmt.Errorf("set either snapshot or snapshot_path, not both")
	case len(src.Snapshot) > 0:
		s, err := data.ParseSnapshot(src.Snapshot)
		return s, "inline", err
	case src.SnapshotPath != "":
		path, err := f.resolve(src.SnapshotPath)
		if err != nil {
			return nil, "", err
		}
		s, err := data.LoadSnapshot(path)
		return s, src.SnapshotPath, err
	default:
		return nil, "", fmt.Errorf("snapshot or snapshot_path is required")
	}
}

func (f *Files) loadNetwork(path string, inline json.RawMessage) (*network.Network, error) {
	switch {
	case len(inline) > 0 && path != "":
		return nil, fmt.Errorf("set either network or network_path, not both")
	case len(inline) > 0:
		n, err := data.ParseNetwork(inline)
		return n, err
	case path != "":
		resolved, err := f.resolve(path)
		if err != nil {
			return nil, err
		}
		n, err := data.LoadNetwork(resolved)
		return n, err
	default:
		return nil, fmt.Errorf("network or network_path is required")
	}
}
