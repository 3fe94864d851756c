package report

import (
	"sort"
	"time"

	"grid-constraints/internal/checks"
)

// Categories of violation rows.
const (
	CategoryHVMVStation      = "hv_mv_station"
	CategoryMVLVStation      = "mv_lv_station"
	CategoryMVLine           = "mv_line"
	CategoryLVLine           = "lv_line"
	CategoryMVVoltage        = "mv_voltage"
	CategoryLVStationVoltage = "lv_station_voltage"
	CategoryLVVoltage        = "lv_voltage"
)

// Row is one violating element in a flat report. Value is the category's
// magnitude: relative overload for lines, missing MVA for stations, p.u.
// deviation for buses.
type Row struct {
	Category  string
	Grid      string
	Element   string
	Value     float64
	TimeIndex time.Time
}

// Rows flattens a check result, keeping the order of the checks and the
// descending order within each report. Voltage grids are listed by name.
func Rows(r *checks.Result) []Row {
	if r == nil {
		return nil
	}
	var out []Row
	stations := func(cat string, vs []checks.StationViolation) {
		for _, v := range vs {
			out = append(out, Row{Category: cat, Grid: v.Grid, Element: v.Station, Value: v.SMissing, TimeIndex: v.TimeIndex})
		}
	}
	lines := func(cat string, vs []checks.LineViolation) {
		for _, v := range vs {
			out = append(out, Row{Category: cat, Element: v.Line, Value: v.MaxRelOverload, TimeIndex: v.TimeIndex})
		}
	}
	buses := func(cat string, m map[string][]checks.BusViolation) {
		grids := make([]string, 0, len(m))
		for g := range m {
			grids = append(grids, g)
		}
		sort.Strings(grids)
		for _, g := range grids {
			for _, v := range m[g] {
				out = append(out, Row{Category: cat, Grid: g, Element: v.Bus, Value: v.VDiffMax, TimeIndex: v.TimeIndex})
			}
		}
	}

	stations(CategoryHVMVStation, r.HVMVStations)
	stations(CategoryMVLVStation, r.MVLVStations)
	lines(CategoryMVLine, r.MVLines)
	lines(CategoryLVLine, r.LVLines)
	buses(CategoryMVVoltage, r.MVVoltage)
	buses(CategoryLVStationVoltage, r.LVStationVoltage)
	buses(CategoryLVVoltage, r.LVVoltage)
	return out
}
