package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"grid-constraints/internal/cases"
	"grid-constraints/internal/checks"
	"grid-constraints/internal/config"
	"grid-constraints/internal/frame"
	"grid-constraints/internal/model"
	"grid-constraints/internal/report"

	"go.uber.org/zap"
)

// Demo:
// - Build a small MV grid with a ring and one LV grid
// - Synthesize one day of power flow results with a midday PV peak
// - Classify time steps with a daily feed-in window and run all checks
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	hours := flag.Int("hours", 24, "Number of hourly time steps to simulate")
	pv := flag.Float64("pv", 1.6, "PV peak in MVA on the ring lines")
	outCSV := flag.String("out", "", "Optional path to write violations CSV (e.g. results/demo.csv)")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Default()
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			panic(err)
		}
	}

	topo := demoTopology()
	index := make([]time.Time, *hours)
	start := time.Date(2011, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
	}
	res, err := demoResults(index, *pv)
	if err != nil {
		panic(err)
	}

	cs, err := cases.Classify(cases.Window{FeedInStart: "10:00", FeedInEnd: "16:00"}, index)
	if err != nil {
		panic(err)
	}

	chk := checks.New(topo, res, cs, cfg, log)
	result, err := chk.Run(context.Background(), checks.RunOptions{})
	if err != nil {
		panic(err)
	}

	rows := report.Rows(result)
	fmt.Printf("%-20s %-12s %-18s %-10s %s\n", "category", "grid", "element", "value", "time")
	for _, r := range rows {
		fmt.Printf("%-20s %-12s %-18s %-10.4f %s\n", r.Category, r.Grid, r.Element, r.Value, r.TimeIndex.Format("15:04"))
	}
	fmt.Printf("%d violations in %s\n", len(rows), result.Duration)

	if *outCSV != "" {
		if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
			panic(err)
		}
		if err := report.WriteViolationsCSV(*outCSV, rows); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), *outCSV)
	}
}

func demoTopology() *model.Topology {
	return &model.Topology{
		ID: "demo",
		MVGrid: model.Grid{
			ID:    1,
			Level: model.MV,
			Buses: []string{"Bus_MV_station", "Bus_A", "Bus_B", "Bus_C"},
			Lines: []model.Line{
				{Name: "Line_SA", Bus0: "Bus_MV_station", Bus1: "Bus_A", SNom: 4},
				{Name: "Line_AB", Bus0: "Bus_A", Bus1: "Bus_B", SNom: 2},
				{Name: "Line_BC", Bus0: "Bus_B", Bus1: "Bus_C", SNom: 2},
				{Name: "Line_CA", Bus0: "Bus_C", Bus1: "Bus_A", SNom: 2},
			},
			StationBuses: []string{"Bus_MV_station"},
		},
		LVGrids: []model.Grid{{
			ID:           2,
			Level:        model.LV,
			Buses:        []string{"Bus_LV_bb", "Bus_LV_1"},
			Lines:        []model.Line{{Name: "Line_LV_1", Bus0: "Bus_LV_bb", Bus1: "Bus_LV_1", SNom: 0.15}},
			Transformers: []model.Transformer{{Name: "Trafo_LV_2", Bus0: "Bus_A", Bus1: "Bus_LV_bb", SNom: 0.4}},
			StationBuses: []string{"Bus_LV_bb"},
		}},
		TransformersHVMV: []model.Transformer{{Name: "Trafo_HVMV", Bus0: "Bus_HV", Bus1: "Bus_MV_station", SNom: 20}},
		Rings:            [][]string{{"Bus_A", "Bus_B", "Bus_C"}},
	}
}

// demoResults superimposes an evening load peak and a midday PV peak.
func demoResults(index []time.Time, pvPeak float64) (*model.Results, error) {
	n := len(index)
	load := make([]float64, n)
	gen := make([]float64, n)
	for i, t := range index {
		h := float64(t.Hour())
		load[i] = 0.5 + 0.5*math.Exp(-math.Pow(h-19, 2)/8)
		gen[i] = pvPeak * math.Max(0, math.Sin(math.Pi*(h-6)/12))
	}

	flow := func(scale float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = scale * math.Abs(load[i]-gen[i])
		}
		return out
	}
	volt := func(sens float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1 + sens*(gen[i]-load[i])
		}
		return out
	}

	sCols := []string{"Line_SA", "Line_AB", "Line_BC", "Line_CA", "Line_LV_1", "Trafo_LV_2"}
	sRes, err := frame.FromColumns(index, sCols, [][]float64{
		flow(2), flow(0.8), flow(0.6), flow(0.5), flow(0.12), flow(0.3),
	})
	if err != nil {
		return nil, err
	}
	vCols := []string{"Bus_MV_station", "Bus_A", "Bus_B", "Bus_C", "Bus_LV_bb", "Bus_LV_1"}
	vRes, err := frame.FromColumns(index, vCols, [][]float64{
		volt(0.005), volt(0.02), volt(0.03), volt(0.035), volt(0.04), volt(0.06),
	})
	if err != nil {
		return nil, err
	}

	slack := model.SlackResult{P: make([]float64, n), Q: make([]float64, n)}
	for i := range index {
		slack.P[i] = 2 * (load[i] - gen[i])
		slack.Q[i] = 0.3 * load[i]
	}
	return &model.Results{VMagPU: vRes, SRes: sRes, Slack: slack}, nil
}
