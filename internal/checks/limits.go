package checks

import (
	"time"

	"grid-constraints/internal/config"
	"grid-constraints/internal/frame"
	"grid-constraints/internal/model"
)

// Voltage limit options.
const (
	// LevelsMVLV applies the same allowed deviations to MV and LV buses.
	LevelsMVLV = "mv_lv"
	// LevelsMV and LevelsLV differentiate MV and LV limits.
	LevelsMV = "mv"
	LevelsLV = "lv"

	// ModeAllBuses checks every bus of an LV grid.
	ModeAllBuses = ""
	// ModeStations only checks the LV station bus bars.
	ModeStations = "stations"
)

// VoltageBand holds the allowed upper and lower voltage in p.u. per time step.
type VoltageBand struct {
	Index []time.Time
	Upper []float64
	Lower []float64
}

// LinesAllowedLoad returns the allowed apparent power in MVA per line and
// time step. A nil lines slice returns all lines, LV first.
func (c *Checker) LinesAllowedLoad(lines []string) (*frame.Frame, error) {
	if c.res.Empty() {
		return nil, errNoResults("allowed line load")
	}
	lv, err := c.linesAllowedLoadLevel(model.LV)
	if err != nil {
		return nil, err
	}
	mv, err := c.linesAllowedLoadLevel(model.MV)
	if err != nil {
		return nil, err
	}
	all, err := frame.Concat(lv, mv)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		return all, nil
	}
	out, err := all.Select(lines)
	if err != nil {
		return nil, newError(KindInvalidArgument, "allowed line load: %v", err)
	}
	return out, nil
}

func (c *Checker) linesAllowedLoadLevel(level model.VoltageLevel) (*frame.Frame, error) {
	lines := c.topo.LinesIn(level)
	perCase := make(map[model.Case][]float64, len(model.Cases))
	for _, cs := range model.Cases {
		lf := c.cfg.LoadFactor(level, cs, config.KindLine)
		allowed := make([]float64, len(lines))
		if lf != 1.0 {
			// lines in cycles have to be n-1 secure, radial feeders are not anyway
			ring := c.topo.RingBuses()
			for j, l := range lines {
				if ring[l.Bus0] && ring[l.Bus1] {
					allowed[j] = l.SNom * lf
				} else {
					allowed[j] = l.SNom
				}
			}
		} else {
			for j, l := range lines {
				allowed[j] = l.SNom * lf
			}
		}
		perCase[cs] = allowed
	}

	index := c.res.TimeIndex()
	steps, err := c.casesFor(index)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, len(index))
	for i, cs := range steps {
		rows[i] = perCase[cs]
	}
	names := make([]string, len(lines))
	for j, l := range lines {
		names[j] = l.Name
	}
	return frame.FromRows(index, names, rows)
}

// stationLoadFactors returns the transformer load factor per time step.
func (c *Checker) stationLoadFactors(level model.VoltageLevel, index []time.Time) ([]float64, error) {
	steps, err := c.casesFor(index)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(index))
	for i, cs := range steps {
		out[i] = c.cfg.LoadFactor(level, cs, config.KindTransformer)
	}
	return out, nil
}

// StationAllowedLoad returns the allowed apparent power over the grid's
// station in MVA per time step. The column is named after the station.
func (c *Checker) StationAllowedLoad(g model.Grid) (*frame.Frame, error) {
	if c.res.Empty() {
		return nil, errNoResults("allowed station load")
	}
	switch g.Level {
	case model.MV, model.LV:
	default:
		return nil, newError(KindInvalidArgument, "inserted grid %s is invalid", g)
	}
	var sNom float64
	for _, t := range c.topo.StationTransformers(g) {
		sNom += t.SNom
	}
	index := c.res.TimeIndex()
	lf, err := c.stationLoadFactors(g.Level, index)
	if err != nil {
		return nil, err
	}
	allowed := make([]float64, len(index))
	for i := range index {
		allowed[i] = sNom * lf[i]
	}
	return frame.FromColumns(index, []string{g.StationName()}, [][]float64{allowed})
}

// StationsAllowedLoad concatenates the allowed station load of all grids.
// A nil grids slice means every LV grid followed by the MV grid.
func (c *Checker) StationsAllowedLoad(grids []model.Grid) (*frame.Frame, error) {
	if grids == nil {
		grids = c.defaultStationGrids()
	}
	parts := make([]*frame.Frame, 0, len(grids))
	for _, g := range grids {
		f, err := c.StationAllowedLoad(g)
		if err != nil {
			return nil, err
		}
		parts = append(parts, f)
	}
	if len(parts) == 0 {
		return frame.Empty(c.res.TimeIndex()), nil
	}
	return frame.Concat(parts...)
}

func (c *Checker) defaultStationGrids() []model.Grid {
	return append(append([]model.Grid(nil), c.topo.LVGrids...), c.topo.MVGrid)
}

// MVAllowedVoltageLimits returns the allowed voltage band for MV buses.
// levels is LevelsMVLV or LevelsMV; both use the fixed HV/MV transformer
// offset and control deviation around 1 p.u.
func (c *Checker) MVAllowedVoltageLimits(levels string) (VoltageBand, error) {
	if levels != LevelsMVLV && levels != LevelsMV {
		return VoltageBand{}, newError(KindInvalidArgument,
			"specified mode %q is not a valid option, try %q or %q", levels, LevelsMVLV, LevelsMV)
	}
	if !c.hasVoltages() {
		return VoltageBand{}, errNoResults("voltage limits")
	}
	offset := c.cfg.VoltageDeviation(config.KeyHVMVTrafoOffset)
	control := c.cfg.VoltageDeviation(config.KeyHVMVTrafoControlDeviation)

	upper := map[model.Case]float64{
		model.FeedInCase: 1 + offset + control + c.cfg.VoltageDeviation(config.MaxVDeviationKey(levels, model.FeedInCase)),
		model.LoadCase:   c.cfg.VoltageDeviation(config.KeyLoadCaseUpper),
	}
	lower := map[model.Case]float64{
		model.FeedInCase: c.cfg.VoltageDeviation(config.KeyFeedInCaseLower),
		model.LoadCase:   1 + offset - control - c.cfg.VoltageDeviation(config.MaxVDeviationKey(levels, model.LoadCase)),
	}

	index := c.voltageIndex()
	steps, err := c.casesFor(index)
	if err != nil {
		return VoltageBand{}, err
	}
	band := VoltageBand{Index: index, Upper: make([]float64, len(index)), Lower: make([]float64, len(index))}
	for i, cs := range steps {
		band.Upper[i] = upper[cs]
		band.Lower[i] = lower[cs]
	}
	return band, nil
}

// LVAllowedVoltageLimits returns the allowed voltage band of an LV grid
// relative to a measured reference voltage. With ModeAllBuses the reference
// is the station's secondary side (bus bar), with ModeStations it is the
// primary side of the station's first transformer.
func (c *Checker) LVAllowedVoltageLimits(g model.Grid, mode string) (VoltageBand, error) {
	if g.Level != model.LV {
		return VoltageBand{}, newError(KindInvalidArgument, "%s is not an LV grid", g)
	}
	if !c.hasVoltages() {
		return VoltageBand{}, errNoResults("voltage limits")
	}

	var refBus, prefix string
	switch mode {
	case ModeStations:
		if len(g.Transformers) == 0 {
			return VoltageBand{}, newError(KindPrerequisiteMissing, "%s has no station transformer", g)
		}
		refBus = g.Transformers[0].Bus0
		prefix = "mv_lv_station"
	case ModeAllBuses:
		if len(g.StationBuses) == 0 {
			return VoltageBand{}, newError(KindPrerequisiteMissing, "%s has no station bus", g)
		}
		refBus = g.StationBuses[0]
		prefix = "lv"
	default:
		return VoltageBand{}, newError(KindInvalidArgument,
			"%q is not a valid option for mode, try %q or an empty mode", mode, ModeStations)
	}

	ref, ok := c.res.VMagPU.Column(refBus)
	if !ok {
		return VoltageBand{}, newError(KindPrerequisiteMissing,
			"reference bus %q of %s is not in the power flow results", refBus, g)
	}

	feedInDev := c.cfg.VoltageDeviation(config.MaxVDeviationKey(prefix, model.FeedInCase))
	loadDev := c.cfg.VoltageDeviation(config.MaxVDeviationKey(prefix, model.LoadCase))
	feedInLower := c.cfg.VoltageDeviation(config.KeyFeedInCaseLower)
	loadUpper := c.cfg.VoltageDeviation(config.KeyLoadCaseUpper)

	index := c.voltageIndex()
	steps, err := c.casesFor(index)
	if err != nil {
		return VoltageBand{}, err
	}
	band := VoltageBand{Index: index, Upper: make([]float64, len(index)), Lower: make([]float64, len(index))}
	for i, cs := range steps {
		switch cs {
		case model.FeedInCase:
			band.Upper[i] = ref[i] + feedInDev
			band.Lower[i] = feedInLower
		case model.LoadCase:
			band.Upper[i] = loadUpper
			band.Lower[i] = ref[i] - loadDev
		}
	}
	return band, nil
}
