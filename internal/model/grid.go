package model

import (
	"fmt"
	"strings"
)

// VoltageLevel discriminates MV from LV grids.
// Keep these values stable; they are used as config key prefixes.
type VoltageLevel string

const (
	MV VoltageLevel = "mv"
	LV VoltageLevel = "lv"
)

func ParseVoltageLevel(s string) (VoltageLevel, error) {
	switch VoltageLevel(strings.ToLower(strings.TrimSpace(s))) {
	case MV:
		return MV, nil
	case LV:
		return LV, nil
	default:
		return "", fmt.Errorf("%q is not a valid voltage level, try 'mv' or 'lv'", s)
	}
}

// Line is a branch between two buses.
// SNom is the apparent power rating in MVA.
type Line struct {
	Name string  `json:"name"`
	Bus0 string  `json:"bus0"`
	Bus1 string  `json:"bus1"`
	SNom float64 `json:"s_nom"`
}

// Transformer connects a grid to its overlying voltage level.
// Bus0 is the primary (upstream) side, Bus1 the secondary side.
type Transformer struct {
	Name string  `json:"name"`
	Bus0 string  `json:"bus0"`
	Bus1 string  `json:"bus1"`
	SNom float64 `json:"s_nom"`
}

// Grid is either the MV grid or one of the LV grids.
// Level is the explicit discriminant; code switches on it instead of
// inspecting grid types.
type Grid struct {
	ID    int          `json:"id"`
	Level VoltageLevel `json:"voltage_level"`
	Buses []string     `json:"buses"`
	Lines []Line       `json:"lines"`

	// Transformers to the overlying voltage level. Empty for the MV grid,
	// whose HV/MV transformers are kept on the topology.
	Transformers []Transformer `json:"transformers,omitempty"`

	// StationBuses are the bus bars on the secondary side of the station.
	StationBuses []string `json:"station_buses"`
}

func (g Grid) String() string {
	switch g.Level {
	case MV:
		return fmt.Sprintf("MVGrid_%d", g.ID)
	case LV:
		return fmt.Sprintf("LVGrid_%d", g.ID)
	default:
		return fmt.Sprintf("Grid_%d", g.ID)
	}
}

// StationName is the grid's name with the extension "_station".
func (g Grid) StationName() string {
	return g.String() + "_station"
}

func (g Grid) LineNames() []string {
	out := make([]string, len(g.Lines))
	for i, l := range g.Lines {
		out[i] = l.Name
	}
	return out
}

func (g Grid) TransformerNames() []string {
	out := make([]string, len(g.Transformers))
	for i, t := range g.Transformers {
		out[i] = t.Name
	}
	return out
}
