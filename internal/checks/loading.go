package checks

import (
	"math"

	"grid-constraints/internal/frame"
	"grid-constraints/internal/model"
)

// defaultLines returns the names of all lines that are in the power flow
// results, MV first.
func (c *Checker) defaultLines() []string {
	var out []string
	for _, l := range c.topo.Lines() {
		if c.res.SRes.Has(l.Name) {
			out = append(out, l.Name)
		}
	}
	return out
}

// linesInResults returns the lines of a voltage level that were included in
// the power flow.
func (c *Checker) linesInResults(level model.VoltageLevel) []string {
	var out []string
	for _, l := range c.topo.LinesIn(level) {
		if c.res.SRes.Has(l.Name) {
			out = append(out, l.Name)
		}
	}
	return out
}

// LinesLoad returns the apparent power in MVA per line and time step.
// A nil lines slice returns every line in the power flow results.
func (c *Checker) LinesLoad(lines []string) (*frame.Frame, error) {
	if c.res.Empty() {
		return nil, errNoResults("line load")
	}
	if lines == nil {
		lines = c.defaultLines()
	}
	out, err := c.res.SRes.Select(lines)
	if err != nil {
		return nil, newError(KindPrerequisiteMissing, "line load: %v", err)
	}
	return out, nil
}

// BusVoltages returns the voltage magnitude in p.u. per bus and time step.
func (c *Checker) BusVoltages(buses []string) (*frame.Frame, error) {
	if !c.hasVoltages() {
		return nil, errNoResults("bus voltages")
	}
	out, err := c.res.VMagPU.Select(buses)
	if err != nil {
		return nil, newError(KindPrerequisiteMissing, "bus voltages: %v", err)
	}
	return out, nil
}

// StationLoad returns the apparent power over the grid's station in MVA per
// time step. LV stations sum their transformers. The HV/MV station is not
// part of the solved network, so its load is taken from the slack injection,
// which is only meaningful if the MV grid was included in the power flow.
func (c *Checker) StationLoad(g model.Grid) (*frame.Frame, error) {
	if c.res.Empty() {
		return nil, errNoResults("station load")
	}
	index := c.res.TimeIndex()

	var load []float64
	switch g.Level {
	case model.LV:
		names := g.TransformerNames()
		if len(names) == 0 {
			return nil, newError(KindPrerequisiteMissing, "%s has no station transformer", g)
		}
		sum, err := c.res.SRes.SumColumns(names)
		if err != nil {
			return nil, newError(KindPrerequisiteMissing, "%s was not included in power flow analysis: %v", g, err)
		}
		load = sum
	case model.MV:
		if !c.res.IncludesAny(c.topo.MVGrid.LineNames()) {
			return nil, newError(KindPrerequisiteMissing,
				"MV was not included in power flow analysis, wherefore load of HV/MV station cannot be calculated")
		}
		p, q := c.res.Slack.P, c.res.Slack.Q
		if len(p) != len(index) || len(q) != len(index) {
			return nil, newError(KindPrerequisiteMissing, "slack results do not cover all %d time steps", len(index))
		}
		load = make([]float64, len(index))
		for i := range index {
			load[i] = math.Hypot(p[i], q[i])
		}
	default:
		return nil, newError(KindInvalidArgument, "inserted grid %s is invalid", g)
	}
	return frame.FromColumns(index, []string{g.StationName()}, [][]float64{load})
}
