package powermodels

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"grid-constraints/internal/config"
	"grid-constraints/internal/frame"
	"grid-constraints/internal/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshots(n int) []time.Time {
	start := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * 15 * time.Minute)
	}
	return out
}

func mustFrame(t *testing.T, index []time.Time, cols []string, values [][]float64) *frame.Frame {
	t.Helper()
	f, err := frame.FromColumns(index, cols, values)
	require.NoError(t, err)
	return f
}

func testNetwork(t *testing.T) *network.Network {
	idx := snapshots(2)
	return &network.Network{
		ID:        "2534",
		Snapshots: idx,
		Buses: []network.Bus{
			{Name: "Bus_HV", VNom: 110, VMagPUSet: 1, VMagPUMin: 0.9, VMagPUMax: 1.1, Control: network.ControlPQ},
			{Name: "Bus_MV", VNom: 20, VMagPUSet: 1, VMagPUMin: 0.99, VMagPUMax: 1.02, Control: network.ControlPQ},
			{Name: "Bus_MV_2", VNom: 20, VMagPUSet: 1, VMagPUMin: 0.9, VMagPUMax: 1.1, Control: "PV"},
			{Name: "Bus_LV", VNom: 0.4, VMagPUSet: 1, VMagPUMin: 0.9, VMagPUMax: 1.1, Control: ""},
		},
		Lines: []network.Line{
			{Name: "Line_1", Bus0: "Bus_MV", Bus1: "Bus_MV_2", R: 4, X: 8, B: 0.001, SNom: 5},
		},
		Transformers: []network.Transformer{
			{Name: "Trafo_HVMV_1", Bus0: "Bus_HV", Bus1: "Bus_MV", R: 0.02, X: 0.1, SNom: 20, TapRatio: 1},
			{Name: "Trafo_HVMV_2", Bus0: "Bus_HV", Bus1: "Bus_MV", R: 0.02, X: 0.1, SNom: 20, TapRatio: 1},
			{Name: "Trafo_LV_1", Bus0: "Bus_MV_2", Bus1: "Bus_LV", R: 0.01, X: 0.04, SNom: 0.63},
		},
		Generators: []network.Generator{
			{Name: "Generator_slack", Bus: "Bus_HV", PNom: 100, PMaxPU: 1},
			{Name: "Generator_pv_1", Bus: "Bus_LV", PSet: 0.01, PNom: 0.03, PMaxPU: 1},
		},
		Loads: []network.Load{
			{Name: "Load_1", Bus: "Bus_LV", PSet: 0.02, QSet: 0.005},
			{Name: "Charging_point_1", Bus: "Bus_LV", PSet: 0.011},
			{Name: "Heat_pump_1", Bus: "Bus_LV", PSet: 0.003, COP: 3.5, PMax: 0.005},
			{Name: "Load_2", Bus: "Bus_MV_2", PSet: 0.5, QSet: 0.1},
		},
		StorageUnits: []network.StorageUnit{
			{Name: "Storage_1", Bus: "Bus_LV", PMaxPU: 1, PMinPU: -1, StateOfChargeInitial: 0.5},
		},
		GeneratorsT: network.Series{
			P: mustFrame(t, idx, []string{"Generator_pv_1"}, [][]float64{{0.01, 0.02}}),
			Q: mustFrame(t, idx, []string{"Generator_pv_1"}, [][]float64{{0, 0}}),
		},
		LoadsT: network.Series{
			P: mustFrame(t, idx,
				[]string{"Load_1", "Charging_point_1", "Heat_pump_1", "Load_2"},
				[][]float64{{0.02, 0.03}, {0.011, 0}, {0.003, 0.004}, {0.5, 0.4}}),
			Q: mustFrame(t, idx,
				[]string{"Load_1", "Load_2"},
				[][]float64{{0.005, 0.006}, {0.1, 0.1}}),
		},
		StorageUnitsT: network.Series{
			P: mustFrame(t, idx, []string{"Storage_1"}, [][]float64{{0.001, -0.001}}),
			Q: mustFrame(t, idx, []string{"Storage_1"}, [][]float64{{0, 0}}),
		},
	}
}

type staticBands struct {
	bands    *network.FlexibilityBands
	grid     string
	useCases []string
}

func (s *staticBands) FlexibilityBands(_ context.Context, grid string, useCases []string) (*network.FlexibilityBands, error) {
	s.grid = grid
	s.useCases = useCases
	return s.bands, nil
}

func testBands(t *testing.T) *staticBands {
	idx := snapshots(2)
	return &staticBands{bands: &network.FlexibilityBands{
		UpperPower:  mustFrame(t, idx, []string{"Charging_point_1"}, [][]float64{{0.011, 0.011}}),
		LowerEnergy: mustFrame(t, idx, []string{"Charging_point_1"}, [][]float64{{0, 0.002}}),
		UpperEnergy: mustFrame(t, idx, []string{"Charging_point_1"}, [][]float64{{0.003, 0.005}}),
	}}
}

func export(t *testing.T, cps, hps []string) *Model {
	t.Helper()
	e := NewExporter(config.Default().PowerModels, testBands(t), nil)
	pm, err := e.Export(context.Background(), testNetwork(t), cps, hps)
	require.NoError(t, err)
	return pm
}

func TestExportMetadata(t *testing.T) {
	pm := export(t, nil, nil)
	assert.Equal(t, "ding0_2534_t_2", pm.Name)
	assert.Equal(t, 1.0, pm.BaseMVA)
	assert.Equal(t, 2, pm.SourceVersion)
	assert.True(t, pm.PerUnit)
	assert.Equal(t, 2, pm.TimeSeries.NumSteps)
}

func TestExportBuses(t *testing.T) {
	pm := export(t, nil, nil)
	require.Len(t, pm.Bus, 4)

	hv := pm.Bus["1"]
	assert.Equal(t, 3, hv.BusType, "slack generator bus")
	assert.Equal(t, 1.05, hv.VMax)
	assert.Equal(t, 0.985, hv.VMin)
	assert.Equal(t, 110.0, hv.BaseKV)

	mv := pm.Bus["2"]
	assert.Equal(t, 1, mv.BusType)
	assert.Equal(t, 1.02, mv.VMax)
	assert.Equal(t, 0.99, mv.VMin)

	assert.Equal(t, 2, pm.Bus["3"].BusType)
	assert.Equal(t, 4, pm.Bus["4"].BusType)
}

func TestExportBranchesAggregateParallelTransformers(t *testing.T) {
	pm := export(t, nil, nil)
	require.Len(t, pm.Branch, 3)

	line := pm.Branch["1"]
	assert.Equal(t, "Line_1", line.Name)
	assert.False(t, line.Transformer)
	assert.InDelta(t, 0.01, line.BrR, 1e-12)
	assert.InDelta(t, 0.2, line.BTo, 1e-12)
	assert.Equal(t, 2, line.FBus)
	assert.Equal(t, 3, line.TBus)
	assert.Equal(t, 1.0, line.Tap)
	assert.Equal(t, 250.0, line.RateB)
	assert.InDelta(t, -math.Pi/6, line.AngMin, 1e-12)

	hvmv := pm.Branch["2"]
	assert.Equal(t, "Trafo_HVMV", hvmv.Name)
	assert.True(t, hvmv.Transformer)
	assert.Equal(t, 40.0, hvmv.RateA)
	// 0.01 Ohm-equivalent on 40 MVA, rescaled to 1 MVA
	assert.InDelta(t, 0.01/40, hvmv.BrR, 1e-12)

	lv := pm.Branch["3"]
	assert.Equal(t, "Trafo_LV_1", lv.Name)
	assert.Equal(t, 1.0, lv.Tap, "missing tap ratio defaults to 1")
}

func TestExportExcludesFlexibleLoads(t *testing.T) {
	pm := export(t, []string{"Charging_point_1"}, []string{"Heat_pump_1"})

	assert.Equal(t, []string{"Load_1", "Load_2"}, pm.Index.Load.Names())
	require.Len(t, pm.Load, 2)
	assert.Equal(t, 0.5, pm.Load["2"].PD)

	require.Len(t, pm.Electromobility, 1)
	cp := pm.Electromobility["1"]
	assert.Equal(t, 0.011, cp.PD)
	assert.Equal(t, 4, cp.CPBus)

	require.Len(t, pm.Heatpumps, 1)
	hp := pm.Heatpumps["1"]
	assert.Equal(t, 3.5, hp.COP)
	assert.Equal(t, 0.005, hp.PMax)

	assert.Equal(t, FlexSeries{
		PMax: []float64{0.011, 0.011},
		EMin: []float64{0, 0.002},
		EMax: []float64{0.003, 0.005},
	}, pm.TimeSeries.Electromobility["1"])
	assert.Equal(t, []float64{0.003, 0.004}, pm.TimeSeries.Heatpumps["1"].PD)
}

func TestExportEmptyFlexibleCategories(t *testing.T) {
	e := NewExporter(config.Default().PowerModels, nil, nil)
	pm, err := e.Export(context.Background(), testNetwork(t), nil, nil)
	require.NoError(t, err)

	assert.NotNil(t, pm.Electromobility)
	assert.Empty(t, pm.Electromobility)
	assert.NotNil(t, pm.Heatpumps)
	assert.Empty(t, pm.Heatpumps)
	assert.Len(t, pm.Load, 4)

	raw, err := json.Marshal(pm)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"electromobility", "heatpumps", "dcline", "switch", "shunt", "dsm"} {
		assert.Equal(t, map[string]any{}, generic[key], key)
	}
	ts := generic["time_series"].(map[string]any)
	assert.Equal(t, map[string]any{}, ts["electromobility"])
	assert.Equal(t, map[string]any{}, ts["heatpumps"])
}

func TestExportIndexIsBijection(t *testing.T) {
	pm := export(t, []string{"Charging_point_1"}, []string{"Heat_pump_1"})

	tables := map[string]struct {
		m    *Mapping
		keys int
	}{
		"bus":     {pm.Index.Bus, len(pm.Bus)},
		"gen":     {pm.Index.Gen, len(pm.Gen)},
		"branch":  {pm.Index.Branch, len(pm.Branch)},
		"load":    {pm.Index.Load, len(pm.Load)},
		"storage": {pm.Index.Storage, len(pm.Storage)},
	}
	for kind, tc := range tables {
		require.Equal(t, tc.keys, tc.m.Len(), kind)
		seen := map[string]bool{}
		for i := 1; i <= tc.m.Len(); i++ {
			name, ok := tc.m.Name(i)
			require.True(t, ok, kind)
			assert.False(t, seen[name], "%s: %s mapped twice", kind, name)
			seen[name] = true
			back, ok := tc.m.Of(name)
			require.True(t, ok)
			assert.Equal(t, i, back, kind)
		}
		_, ok := tc.m.Name(tc.m.Len() + 1)
		assert.False(t, ok)
	}

	// time series share the table keys
	key, _ := pm.Index.Gen.Key("Generator_pv_1")
	assert.Equal(t, []float64{0.01, 0.02}, pm.TimeSeries.Gen[key].PG)
	_, hasSlack := pm.TimeSeries.Gen["1"]
	assert.False(t, hasSlack)

	key, _ = pm.Index.Load.Key("Load_2")
	assert.Equal(t, []float64{0.5, 0.4}, pm.TimeSeries.Load[key].PD)
	key, _ = pm.Index.Load.Key("Load_1")
	assert.Equal(t, []float64{0.005, 0.006}, pm.TimeSeries.Load[key].QD)

	key, _ = pm.Index.Storage.Key("Storage_1")
	assert.Equal(t, []float64{0.001, -0.001}, pm.TimeSeries.Storage[key].PS)

	for k, gen := range pm.Gen {
		assert.Equal(t, k, strconv.Itoa(gen.Index))
	}
}

func TestExportRequiresSlackGenerator(t *testing.T) {
	cfg := config.Default().PowerModels
	cfg.SlackGenerator = "Generator_ext"
	_, err := NewExporter(cfg, nil, nil).Export(context.Background(), testNetwork(t), nil, nil)
	assert.ErrorIs(t, err, ErrSlackMissing)
}

func TestExportUnknownFlexibleLoad(t *testing.T) {
	_, err := NewExporter(config.Default().PowerModels, testBands(t), nil).
		Export(context.Background(), testNetwork(t), []string{"Charging_point_9"}, nil)
	assert.True(t, errors.Is(err, ErrUnknownComponent))
}

func TestExportNeedsBandProviderForChargingPoints(t *testing.T) {
	_, err := NewExporter(config.Default().PowerModels, nil, nil).
		Export(context.Background(), testNetwork(t), []string{"Charging_point_1"}, nil)
	assert.ErrorIs(t, err, ErrNoBandProvider)
}

func TestExportPassesUseCasesToProvider(t *testing.T) {
	bands := testBands(t)
	_, err := NewExporter(config.Default().PowerModels, bands, nil).
		Export(context.Background(), testNetwork(t), []string{"Charging_point_1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2534", bands.grid)
	assert.Equal(t, []string{"home", "work"}, bands.useCases)
}

func TestExportDoesNotModifyInput(t *testing.T) {
	n := testNetwork(t)
	_, err := NewExporter(config.Default().PowerModels, nil, nil).Export(context.Background(), n, nil, nil)
	require.NoError(t, err)
	assert.Len(t, n.Transformers, 3)
	assert.Equal(t, 0.0, n.Lines[0].RPU)
}
