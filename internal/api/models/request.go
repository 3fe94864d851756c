package models

import (
	"encoding/json"

	"grid-constraints/internal/checks"
)

// SnapshotSource names a snapshot file below the data directory or carries
// the snapshot inline. Exactly one of the two must be set.
type SnapshotSource struct {
	SnapshotPath string          `json:"snapshot_path,omitempty"`
	Snapshot     json.RawMessage `json:"snapshot,omitempty"`
	ConfigPath   string          `json:"config_path,omitempty"` // default: server config
}

// CheckRequest represents the request body for running the constraint checks
type CheckRequest struct {
	SnapshotSource
	Options     checks.RunOptions `json:"options,omitempty"`
	IncludeRows bool              `json:"include_rows,omitempty"` // flat violation rows, default: false
}

// RelativeLoadRequest represents the request body for the relative loading
// of all lines and stations
type RelativeLoadRequest struct {
	SnapshotSource
}

// ExportRequest represents the request body for the optimization export
type ExportRequest struct {
	NetworkPath   string          `json:"network_path,omitempty"`
	Network       json.RawMessage `json:"network,omitempty"`
	ConfigPath    string          `json:"config_path,omitempty"`
	FlexBandsPath string          `json:"flex_bands_path,omitempty"` // default: band service, if configured
	FlexibleCPs   []string        `json:"flexible_cps,omitempty"`
	FlexibleHPs   []string        `json:"flexible_hps,omitempty"`
}
