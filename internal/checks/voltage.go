package checks

import (
	"fmt"
	"time"

	"grid-constraints/internal/frame"

	"go.uber.org/zap"
)

// Absolute voltage band in p.u. that must never be left.
const (
	TenPercentUpper = 1.1
	TenPercentLower = 0.9
)

// BusViolation is a bus with its maximum deviation from the allowed band.
// It does not distinguish over- from undervoltage.
type BusViolation struct {
	Bus       string    `json:"bus"`
	VDiffMax  float64   `json:"v_diff_max"`
	TimeIndex time.Time `json:"time_index"`
}

// VoltageDiff returns the deviation of every bus from the lower limit
// (under) and from the upper limit (over) for all time steps, for buses
// that leave the band at least once. Positive values are violations.
//
// A bus that leaves the band on both sides appears in only one of the two
// frames: the one with the larger peak deviation. Ties go to undervoltage.
// The smaller violation is dropped entirely.
func (c *Checker) VoltageDiff(buses []string, band VoltageBand) (under, over *frame.Frame, err error) {
	v, err := c.BusVoltages(buses)
	if err != nil {
		return nil, nil, err
	}
	index := v.Index()
	if len(band.Upper) != len(index) || len(band.Lower) != len(index) {
		return nil, nil, newError(KindInvalidArgument,
			"voltage band has %d/%d time steps, voltages have %d", len(band.Upper), len(band.Lower), len(index))
	}

	var uvNames, ovNames []string
	var uvCols, ovCols [][]float64
	for j, bus := range v.Columns() {
		ov := make([]float64, len(index))
		uv := make([]float64, len(index))
		hasOV, hasUV := false, false
		maxOV, maxUV := 0.0, 0.0
		for i := range index {
			x := v.At(i, j)
			ov[i] = x - band.Upper[i]
			uv[i] = band.Lower[i] - x
			if x > band.Upper[i] {
				if !hasOV || ov[i] > maxOV {
					maxOV = ov[i]
				}
				hasOV = true
			}
			if x < band.Lower[i] {
				if !hasUV || uv[i] > maxUV {
					maxUV = uv[i]
				}
				hasUV = true
			}
		}
		if hasOV && hasUV {
			if maxOV > maxUV {
				hasUV = false
			} else {
				hasOV = false
			}
		}
		if hasOV {
			ovNames = append(ovNames, bus)
			ovCols = append(ovCols, ov)
		}
		if hasUV {
			uvNames = append(uvNames, bus)
			uvCols = append(uvCols, uv)
		}
	}

	if under, err = frame.FromColumns(index, uvNames, uvCols); err != nil {
		return nil, nil, err
	}
	if over, err = frame.FromColumns(index, ovNames, ovCols); err != nil {
		return nil, nil, err
	}
	return under, over, nil
}

// voltageDeviation reports each violating bus once with its worst deviation,
// sorted descending.
func (c *Checker) voltageDeviation(buses []string, band VoltageBand) ([]BusViolation, error) {
	under, over, err := c.VoltageDiff(buses, band)
	if err != nil {
		return nil, err
	}
	var out []BusViolation
	for _, f := range []*frame.Frame{over, under} {
		index := f.Index()
		for _, w := range fold(triplesWhere(f, always), greater) {
			out = append(out, BusViolation{Bus: w.element, VDiffMax: w.value, TimeIndex: index[w.step]})
		}
	}
	sortDescending(out, func(v BusViolation) float64 { return v.VDiffMax })
	return out, nil
}

// MVVoltageDeviation checks the MV buses against the allowed band for the
// given levels option (LevelsMVLV or LevelsMV). The result is keyed by the
// MV grid's name and empty if there are no issues.
func (c *Checker) MVVoltageDeviation(levels string) (map[string][]BusViolation, error) {
	band, err := c.MVAllowedVoltageLimits(levels)
	if err != nil {
		return nil, err
	}
	crit, err := c.voltageDeviation(c.topo.MVGrid.Buses, band)
	if err != nil {
		return nil, err
	}
	out := map[string][]BusViolation{}
	if len(crit) > 0 {
		out[c.topo.MVGrid.String()] = crit
		c.log.Debug("==> bus(es) in MV topology has/have voltage issues", zap.Int("count", len(crit)))
	} else {
		c.log.Debug("==> No voltage issues in MV topology.")
	}
	return out, nil
}

// LVVoltageDeviation checks the LV grids. With ModeStations only the
// station bus bars are checked. levels is LevelsMVLV, which uses the MV
// band for every LV bus, or LevelsLV, which uses a band relative to each
// grid's reference voltage.
func (c *Checker) LVVoltageDeviation(mode, levels string) (map[string][]BusViolation, error) {
	if levels != LevelsMVLV && levels != LevelsLV {
		return nil, newError(KindInvalidArgument,
			"%q is not a valid option for voltage levels, try %q or %q", levels, LevelsMVLV, LevelsLV)
	}
	if mode != ModeAllBuses && mode != ModeStations {
		return nil, newError(KindInvalidArgument,
			"%q is not a valid option for mode, try %q or an empty mode", mode, ModeStations)
	}

	var band VoltageBand
	if levels == LevelsMVLV {
		var err error
		if band, err = c.MVAllowedVoltageLimits(LevelsMVLV); err != nil {
			return nil, err
		}
	}

	out := map[string][]BusViolation{}
	for _, g := range c.topo.LVGrids {
		buses := g.Buses
		if mode == ModeStations {
			buses = g.StationBuses
		}
		if levels == LevelsLV {
			var err error
			if band, err = c.LVAllowedVoltageLimits(g, mode); err != nil {
				return nil, err
			}
		}
		crit, err := c.voltageDeviation(buses, band)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g, err)
		}
		if len(crit) > 0 {
			out[g.String()] = crit
		}
	}

	what := "LV grids"
	if mode == ModeStations {
		what = "LV stations"
	}
	if len(out) > 0 {
		c.log.Debug("==> voltage issues found", zap.String("in", what), zap.Int("count", len(out)))
	} else {
		c.log.Debug("==> No voltage issues in " + what + ".")
	}
	return out, nil
}

// CheckTenPercentVoltageDeviation fails with ErrFatalConstraintViolation if
// any bus voltage leaves [0.9, 1.1] p.u. in any time step.
func (c *Checker) CheckTenPercentVoltageDeviation() error {
	if !c.hasVoltages() {
		return errNoResults("voltage deviation")
	}
	v := c.res.VMagPU
	index := v.Index()
	for j, bus := range v.Columns() {
		for i := range index {
			x := v.At(i, j)
			if x > TenPercentUpper || x < TenPercentLower {
				return newError(KindFatalConstraintViolation,
					"maximum allowed voltage deviation of 10%% exceeded: bus %q at %s has %.4f p.u.",
					bus, index[i].Format(time.RFC3339), x)
			}
		}
	}
	return nil
}
