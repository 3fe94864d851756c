package model

import "fmt"

// Topology is the read-only network view the checks need.
type Topology struct {
	ID      string `json:"id"`
	MVGrid  Grid   `json:"mv_grid"`
	LVGrids []Grid `json:"lv_grids"`

	// TransformersHVMV are the boundary transformers of the HV/MV station.
	// They are not part of any grid's own transformer set.
	TransformersHVMV []Transformer `json:"transformers_hvmv"`

	// Rings lists buses on closed loops, one slice per ring.
	Rings [][]string `json:"rings"`
}

// Validate checks the grid discriminants and name uniqueness.
func (t *Topology) Validate() error {
	if t.MVGrid.Level != MV {
		return fmt.Errorf("mv_grid has voltage level %q", t.MVGrid.Level)
	}
	seen := map[string]bool{}
	for _, g := range t.Grids() {
		if g.Level != MV && g.Level != LV {
			return fmt.Errorf("grid %d has invalid voltage level %q", g.ID, g.Level)
		}
		if g.Level == LV && len(g.StationBuses) == 0 {
			return fmt.Errorf("%s has no station bus", g)
		}
		for _, l := range g.Lines {
			if seen[l.Name] {
				return fmt.Errorf("line %q defined twice", l.Name)
			}
			seen[l.Name] = true
		}
	}
	for _, g := range t.LVGrids {
		if g.Level != LV {
			return fmt.Errorf("lv grid %d has voltage level %q", g.ID, g.Level)
		}
	}
	return nil
}

// Grids returns the MV grid followed by all LV grids.
func (t *Topology) Grids() []Grid {
	out := make([]Grid, 0, len(t.LVGrids)+1)
	out = append(out, t.MVGrid)
	return append(out, t.LVGrids...)
}

// LinesIn returns all lines of the given voltage level.
// LV lines are all lines that are not MV lines.
func (t *Topology) LinesIn(level VoltageLevel) []Line {
	switch level {
	case MV:
		return t.MVGrid.Lines
	case LV:
		var out []Line
		for _, g := range t.LVGrids {
			out = append(out, g.Lines...)
		}
		return out
	default:
		return nil
	}
}

// Lines returns all lines, MV first.
func (t *Topology) Lines() []Line {
	return append(append([]Line(nil), t.LinesIn(MV)...), t.LinesIn(LV)...)
}

// RingBuses returns the set of buses lying on any ring.
func (t *Topology) RingBuses() map[string]bool {
	out := map[string]bool{}
	for _, ring := range t.Rings {
		for _, b := range ring {
			out[b] = true
		}
	}
	return out
}

// StationTransformers returns the transformers feeding the grid's station.
func (t *Topology) StationTransformers(g Grid) []Transformer {
	switch g.Level {
	case MV:
		return t.TransformersHVMV
	default:
		return g.Transformers
	}
}

// GridByName resolves a grid from its representation, e.g. "LVGrid_3".
func (t *Topology) GridByName(name string) (Grid, bool) {
	for _, g := range t.Grids() {
		if g.String() == name {
			return g, true
		}
	}
	return Grid{}, false
}
