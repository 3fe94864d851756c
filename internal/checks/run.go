package checks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunOptions selects which checks Run performs and with which limits.
type RunOptions struct {
	// TenPercentCheck aborts the run if any voltage leaves [0.9, 1.1] p.u.
	TenPercentCheck bool `json:"ten_percent_check"`
	// MVVoltageLevels is LevelsMVLV (default) or LevelsMV.
	MVVoltageLevels string `json:"mv_voltage_levels"`
	// LVVoltageLevels is LevelsMVLV (default) or LevelsLV.
	LVVoltageLevels string `json:"lv_voltage_levels"`
	// SkipVoltage only runs the overload checks.
	SkipVoltage bool `json:"skip_voltage"`
}

func (o RunOptions) withDefaults() RunOptions {
	if o.MVVoltageLevels == "" {
		o.MVVoltageLevels = LevelsMVLV
	}
	if o.LVVoltageLevels == "" {
		o.LVVoltageLevels = LevelsMVLV
	}
	return o
}

func (o RunOptions) validate() error {
	if o.MVVoltageLevels != LevelsMVLV && o.MVVoltageLevels != LevelsMV {
		return newError(KindInvalidArgument,
			"specified mode %q is not a valid option, try %q or %q", o.MVVoltageLevels, LevelsMVLV, LevelsMV)
	}
	if o.LVVoltageLevels != LevelsMVLV && o.LVVoltageLevels != LevelsLV {
		return newError(KindInvalidArgument,
			"%q is not a valid option for voltage levels, try %q or %q", o.LVVoltageLevels, LevelsMVLV, LevelsLV)
	}
	return nil
}

// Result collects the reports of all checks of one run.
type Result struct {
	HVMVStations []StationViolation `json:"hv_mv_stations"`
	MVLVStations []StationViolation `json:"mv_lv_stations"`
	MVLines      []LineViolation    `json:"mv_lines"`
	LVLines      []LineViolation    `json:"lv_lines"`

	MVVoltage        map[string][]BusViolation `json:"mv_voltage"`
	LVStationVoltage map[string][]BusViolation `json:"lv_station_voltage"`
	LVVoltage        map[string][]BusViolation `json:"lv_voltage"`

	Duration time.Duration `json:"duration_ns"`
}

// Counts returns the number of violating elements per report.
func (r *Result) Counts() map[string]int {
	return map[string]int{
		"hv_mv_stations":     len(r.HVMVStations),
		"mv_lv_stations":     len(r.MVLVStations),
		"mv_lines":           len(r.MVLines),
		"lv_lines":           len(r.LVLines),
		"mv_voltage":         countBuses(r.MVVoltage),
		"lv_station_voltage": countBuses(r.LVStationVoltage),
		"lv_voltage":         countBuses(r.LVVoltage),
	}
}

// Clean reports whether no check found a violation.
func (r *Result) Clean() bool {
	for _, n := range r.Counts() {
		if n > 0 {
			return false
		}
	}
	return true
}

func countBuses(m map[string][]BusViolation) int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

// Run executes all checks: the optional ten percent check first, then
// station and line overloads, then MV, LV station and LV voltage deviations.
// The context is checked between checks.
func (c *Checker) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if c.res.Empty() {
		return nil, errNoResults("constraints")
	}
	start := time.Now()
	r := &Result{}

	steps := []struct {
		name string
		run  func() error
		skip bool
	}{
		{"ten_percent", c.CheckTenPercentVoltageDeviation, !opts.TenPercentCheck},
		{"hv_mv_station_overload", func() (err error) { r.HVMVStations, err = c.HVMVStationOverload(); return }, false},
		{"mv_lv_station_overload", func() (err error) { r.MVLVStations, err = c.MVLVStationOverload(); return }, false},
		{"mv_line_overload", func() (err error) { r.MVLines, err = c.MVLineOverload(); return }, false},
		{"lv_line_overload", func() (err error) { r.LVLines, err = c.LVLineOverload(); return }, false},
		{"mv_voltage_deviation", func() (err error) {
			r.MVVoltage, err = c.MVVoltageDeviation(opts.MVVoltageLevels)
			return
		}, opts.SkipVoltage},
		{"lv_station_voltage_deviation", func() (err error) {
			r.LVStationVoltage, err = c.LVVoltageDeviation(ModeStations, opts.LVVoltageLevels)
			return
		}, opts.SkipVoltage},
		{"lv_voltage_deviation", func() (err error) {
			r.LVVoltage, err = c.LVVoltageDeviation(ModeAllBuses, opts.LVVoltageLevels)
			return
		}, opts.SkipVoltage},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.skip {
			continue
		}
		if err := s.run(); err != nil {
			c.log.Warn("check failed", zap.String("check", s.name), zap.Error(err))
			return nil, err
		}
	}

	r.Duration = time.Since(start)
	c.log.Info("constraint checks done",
		zap.String("topology", c.topo.ID),
		zap.Any("violations", r.Counts()),
		zap.Duration("took", r.Duration),
	)
	return r, nil
}
