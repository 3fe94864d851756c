package checks

import (
	"testing"
	"time"

	"grid-constraints/internal/config"
	"grid-constraints/internal/frame"
	"grid-constraints/internal/model"

	"github.com/stretchr/testify/require"
)

// hours returns n hourly time steps.
func hours(n int) []time.Time {
	start := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

// testTopology is a small MV grid with a ring A-B-C, a radial line from
// the station to A, and one LV grid hanging off bus A.
func testTopology() *model.Topology {
	return &model.Topology{
		ID: "test",
		MVGrid: model.Grid{
			ID:    1,
			Level: model.MV,
			Buses: []string{"Bus_MV_station", "Bus_A", "Bus_B", "Bus_C"},
			Lines: []model.Line{
				{Name: "Line_SA", Bus0: "Bus_MV_station", Bus1: "Bus_A", SNom: 2.0},
				{Name: "Line_AB", Bus0: "Bus_A", Bus1: "Bus_B", SNom: 1.0},
				{Name: "Line_BC", Bus0: "Bus_B", Bus1: "Bus_C", SNom: 1.0},
			},
			StationBuses: []string{"Bus_MV_station"},
		},
		LVGrids: []model.Grid{{
			ID:           2,
			Level:        model.LV,
			Buses:        []string{"Bus_LV_bb", "Bus_LV_1"},
			Lines:        []model.Line{{Name: "Line_LV_1", Bus0: "Bus_LV_bb", Bus1: "Bus_LV_1", SNom: 0.1}},
			Transformers: []model.Transformer{{Name: "Trafo_LV_2", Bus0: "Bus_A", Bus1: "Bus_LV_bb", SNom: 0.63}},
			StationBuses: []string{"Bus_LV_bb"},
		}},
		TransformersHVMV: []model.Transformer{{Name: "Trafo_HVMV", Bus0: "Bus_HV", Bus1: "Bus_MV_station", SNom: 40}},
		Rings:            [][]string{{"Bus_A", "Bus_B", "Bus_C"}},
	}
}

// testCases: two load case steps followed by two feed-in case steps.
func testCases(t *testing.T) *model.CaseSeries {
	t.Helper()
	cs, err := model.NewCaseSeries(hours(4), []model.Case{model.LoadCase, model.LoadCase, model.FeedInCase, model.FeedInCase})
	require.NoError(t, err)
	return &cs
}

func mustColumns(t *testing.T, index []time.Time, cols map[string][]float64, order []string) *frame.Frame {
	t.Helper()
	values := make([][]float64, len(order))
	for j, c := range order {
		values[j] = cols[c]
	}
	f, err := frame.FromColumns(index, order, values)
	require.NoError(t, err)
	return f
}

func testSRes(t *testing.T) *frame.Frame {
	return mustColumns(t, hours(4), map[string][]float64{
		"Line_SA":    {1.0, 1.0, 1.0, 3.0},
		"Line_AB":    {0.6, 0.4, 1.2, 0.9},
		"Line_BC":    {0.2, 0.2, 0.2, 0.2},
		"Line_LV_1":  {0.05, 0.05, 0.05, 0.05},
		"Trafo_LV_2": {0.7, 0.5, 0.5, 0.5},
	}, []string{"Line_SA", "Line_AB", "Line_BC", "Line_LV_1", "Trafo_LV_2"})
}

func testVRes(t *testing.T) *frame.Frame {
	return mustColumns(t, hours(4), map[string][]float64{
		"Bus_MV_station": {1.0, 1.0, 1.0, 1.0},
		"Bus_A":          {0.98, 1.0, 1.07, 1.0},
		"Bus_B":          {0.97, 1.0, 1.06, 1.0},
		"Bus_C":          {1.0, 1.0, 1.08, 1.0},
		"Bus_LV_bb":      {1.0, 0.99, 1.02, 1.0},
		"Bus_LV_1":       {0.95, 0.99, 1.03, 1.0},
	}, []string{"Bus_MV_station", "Bus_A", "Bus_B", "Bus_C", "Bus_LV_bb", "Bus_LV_1"})
}

func testResults(t *testing.T) *model.Results {
	return &model.Results{
		VMagPU: testVRes(t),
		SRes:   testSRes(t),
		Slack:  model.SlackResult{P: []float64{25, 3, 0, 0}, Q: []float64{0, 4, 0, 0}},
	}
}

func newTestChecker(t *testing.T) *Checker {
	t.Helper()
	return New(testTopology(), testResults(t), testCases(t), config.Default(), nil)
}
