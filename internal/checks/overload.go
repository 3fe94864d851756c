package checks

import (
	"math"
	"time"

	"grid-constraints/internal/model"

	"go.uber.org/zap"
)

// LineViolation is an over-loaded line with its maximum relative loading.
type LineViolation struct {
	Line           string             `json:"line"`
	MaxRelOverload float64            `json:"max_rel_overload"`
	TimeIndex      time.Time          `json:"time_index"`
	VoltageLevel   model.VoltageLevel `json:"voltage_level"`
}

// StationViolation is an over-loaded station with the greatest apparent
// power missing in MVA.
type StationViolation struct {
	Station      string             `json:"station"`
	SMissing     float64            `json:"s_missing"`
	TimeIndex    time.Time          `json:"time_index"`
	Grid         string             `json:"grid"`
	VoltageLevel model.VoltageLevel `json:"voltage_level"`
}

// MVLineOverload checks the MV lines for over-loading.
func (c *Checker) MVLineOverload() ([]LineViolation, error) {
	crit, err := c.lineOverload(model.MV)
	if err != nil {
		return nil, err
	}
	if len(crit) > 0 {
		c.log.Debug("==> line(s) in MV network has/have load issues", zap.Int("count", len(crit)))
	} else {
		c.log.Debug("==> No line load issues in MV network.")
	}
	return crit, nil
}

// LVLineOverload checks the lines of all LV grids for over-loading.
func (c *Checker) LVLineOverload() ([]LineViolation, error) {
	crit, err := c.lineOverload(model.LV)
	if err != nil {
		return nil, err
	}
	if len(crit) > 0 {
		c.log.Debug("==> line(s) in LV networks has/have load issues", zap.Int("count", len(crit)))
	} else {
		c.log.Debug("==> No line load issues in LV networks.")
	}
	return crit, nil
}

// lineOverload reports every line of the level whose relative load exceeds
// one in any time step, worst first. Lines that were not part of the power
// flow are not checked.
func (c *Checker) lineOverload(level model.VoltageLevel) ([]LineViolation, error) {
	if c.res.Empty() {
		return nil, errNoResults("over-load")
	}
	switch level {
	case model.MV, model.LV:
	default:
		return nil, newError(KindInvalidArgument, "%q is not a valid voltage level, try 'mv' or 'lv'", level)
	}
	lines := c.linesInResults(level)
	if len(lines) == 0 {
		return nil, nil
	}
	rel, err := c.LinesRelativeLoad(lines)
	if err != nil {
		return nil, err
	}

	index := rel.Index()
	worst := fold(triplesWhere(rel, func(v float64) bool { return v > 1 }), greater)
	out := make([]LineViolation, 0, len(worst))
	for _, w := range worst {
		out = append(out, LineViolation{
			Line:           w.element,
			MaxRelOverload: w.value,
			TimeIndex:      index[w.step],
			VoltageLevel:   level,
		})
	}
	sortDescending(out, func(v LineViolation) float64 { return v.MaxRelOverload })
	return out, nil
}

// HVMVStationOverload checks the HV/MV station for over-loading.
func (c *Checker) HVMVStationOverload() ([]StationViolation, error) {
	v, err := c.StationOverload(c.topo.MVGrid)
	if err != nil {
		return nil, err
	}
	if v == nil {
		c.log.Debug("==> No HV/MV station load issues.")
		return nil, nil
	}
	c.log.Debug("==> HV/MV station has load issues.")
	return []StationViolation{*v}, nil
}

// MVLVStationOverload checks the stations of all LV grids for over-loading.
func (c *Checker) MVLVStationOverload() ([]StationViolation, error) {
	var out []StationViolation
	for _, g := range c.topo.LVGrids {
		v, err := c.StationOverload(g)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	if len(out) > 0 {
		c.log.Debug("==> MV/LV station(s) has/have load issues", zap.Int("count", len(out)))
	} else {
		c.log.Debug("==> No MV/LV station load issues.")
	}
	sortDescending(out, func(v StationViolation) float64 { return v.SMissing })
	return out, nil
}

// StationOverload checks a single grid's station. It returns nil if the
// station is never over-loaded.
//
// The residual allowed minus realized load is divided by the load factor of
// each time step, since load factors below one mean more capacity is needed
// than the residual suggests.
func (c *Checker) StationOverload(g model.Grid) (*StationViolation, error) {
	if c.res.Empty() {
		return nil, errNoResults("over-load")
	}
	load, err := c.StationLoad(g)
	if err != nil {
		return nil, err
	}
	allowed, err := c.StationAllowedLoad(g)
	if err != nil {
		return nil, err
	}
	index := load.Index()
	lf, err := c.stationLoadFactors(g.Level, index)
	if err != nil {
		return nil, err
	}

	name := g.StationName()
	var ts []triple
	for i := range index {
		res := allowed.At(i, 0) - load.At(i, 0)
		if res < 0 {
			ts = append(ts, triple{element: name, step: i, value: res / lf[i]})
		}
	}
	worst := fold(ts, less)
	if len(worst) == 0 {
		return nil, nil
	}
	return &StationViolation{
		Station:      name,
		SMissing:     math.Abs(worst[0].value),
		TimeIndex:    index[worst[0].step],
		Grid:         g.String(),
		VoltageLevel: g.Level,
	}, nil
}
