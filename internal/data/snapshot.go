package data

import (
	"encoding/json"
	"fmt"
	"os"

	"grid-constraints/internal/cases"
	"grid-constraints/internal/model"
	"grid-constraints/internal/network"
)

// Snapshot is everything the checks need for one grid district.
// Either Cases or ResidualLoad must be set; Cases wins if both are.
type Snapshot struct {
	Topology     model.Topology      `json:"topology"`
	Results      model.Results       `json:"results"`
	Cases        *model.CaseSeries   `json:"cases,omitempty"`
	ResidualLoad *cases.ResidualLoad `json:"residual_load,omitempty"`
}

func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return ParseSnapshot(raw)
}

// ParseSnapshot decodes and validates a snapshot. If no case series is
// given, it is derived from the residual load for the result time index.
func ParseSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if err := s.Prepare(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Prepare validates topology and results and fills in the case series.
func (s *Snapshot) Prepare() error {
	if err := s.Topology.Validate(); err != nil {
		return fmt.Errorf("invalid topology: %w", err)
	}
	if err := s.Results.Validate(); err != nil {
		return fmt.Errorf("invalid results: %w", err)
	}
	switch {
	case s.Cases != nil:
		if err := s.Cases.Validate(); err != nil {
			return fmt.Errorf("invalid cases: %w", err)
		}
	case s.ResidualLoad != nil:
		cs, err := cases.Classify(s.ResidualLoad, s.Results.TimeIndex())
		if err != nil {
			return fmt.Errorf("failed to classify time steps: %w", err)
		}
		s.Cases = cs
	default:
		return fmt.Errorf("snapshot has neither cases nor residual_load")
	}
	return nil
}

func LoadNetwork(path string) (*network.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	return ParseNetwork(raw)
}

func ParseNetwork(raw []byte) (*network.Network, error) {
	var n network.Network
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("failed to parse network: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network: %w", err)
	}
	return &n, nil
}
