package checks

import (
	"testing"

	"grid-constraints/internal/config"
	"grid-constraints/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesAllowedLoadRingAndRadial(t *testing.T) {
	c := newTestChecker(t)

	allowed, err := c.LinesAllowedLoad([]string{"Line_AB", "Line_BC", "Line_SA", "Line_LV_1"})
	require.NoError(t, err)

	ab, _ := allowed.Column("Line_AB")
	bc, _ := allowed.Column("Line_BC")
	sa, _ := allowed.Column("Line_SA")
	lv, _ := allowed.Column("Line_LV_1")

	// load case steps use the 0.5 ring factor, feed-in steps have factor 1
	assert.Equal(t, []float64{0.5, 0.5, 1.0, 1.0}, ab)
	assert.Equal(t, []float64{0.5, 0.5, 1.0, 1.0}, bc)
	// radial line keeps its full rating
	assert.Equal(t, []float64{2.0, 2.0, 2.0, 2.0}, sa)
	assert.Equal(t, []float64{0.1, 0.1, 0.1, 0.1}, lv)
}

func TestLinesAllowedLoadRingFactorInBothCases(t *testing.T) {
	cfg := config.Default()
	cfg.LoadFactors["mv_feed-in_case_line"] = 0.5
	c := New(testTopology(), testResults(t), testCases(t), cfg, nil)

	allowed, err := c.LinesAllowedLoad([]string{"Line_AB", "Line_BC"})
	require.NoError(t, err)
	for _, name := range []string{"Line_AB", "Line_BC"} {
		col, ok := allowed.Column(name)
		require.True(t, ok)
		assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, col, name)
	}
}

func TestLinesAllowedLoadFactorOneIgnoresRings(t *testing.T) {
	cfg := config.Default()
	cfg.LoadFactors["mv_load_case_line"] = 1.0
	topo := testTopology()
	c := New(topo, testResults(t), testCases(t), cfg, nil)

	allowed, err := c.LinesAllowedLoad(nil)
	require.NoError(t, err)
	for _, l := range topo.Lines() {
		col, ok := allowed.Column(l.Name)
		require.True(t, ok)
		for _, v := range col {
			assert.Equal(t, l.SNom, v, l.Name)
		}
	}
}

func TestLinesAllowedLoadColumnsLVFirst(t *testing.T) {
	c := newTestChecker(t)
	allowed, err := c.LinesAllowedLoad(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Line_LV_1", "Line_SA", "Line_AB", "Line_BC"}, allowed.Columns())
}

func TestLinesAllowedLoadUnknownLine(t *testing.T) {
	c := newTestChecker(t)
	_, err := c.LinesAllowedLoad([]string{"nope"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStationsAllowedLoad(t *testing.T) {
	c := newTestChecker(t)
	allowed, err := c.StationsAllowedLoad(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LVGrid_2_station", "MVGrid_1_station"}, allowed.Columns())

	lv, _ := allowed.Column("LVGrid_2_station")
	assert.Equal(t, []float64{0.63, 0.63, 0.63, 0.63}, lv)

	// HV/MV transformers: 40 MVA, load factor 0.5 in load case
	mv, _ := allowed.Column("MVGrid_1_station")
	assert.Equal(t, []float64{20, 20, 40, 40}, mv)
}

func TestMVAllowedVoltageLimits(t *testing.T) {
	c := newTestChecker(t)

	band, err := c.MVAllowedVoltageLimits(LevelsMV)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.1, 1.1, 1.05, 1.05}, band.Upper, 1e-12)
	assert.InDeltaSlice(t, []float64{0.985, 0.985, 0.9, 0.9}, band.Lower, 1e-12)

	band, err = c.MVAllowedVoltageLimits(LevelsMVLV)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.1, 1.1, 1.1, 1.1}, band.Upper, 1e-12)
	assert.InDeltaSlice(t, []float64{0.9, 0.9, 0.9, 0.9}, band.Lower, 1e-12)
}

func TestMVAllowedVoltageLimitsOffsetAndControlDeviation(t *testing.T) {
	cfg := config.Default()
	cfg.VoltageDeviations[config.KeyHVMVTrafoOffset] = 0.01
	cfg.VoltageDeviations[config.KeyHVMVTrafoControlDeviation] = 0.005
	c := New(testTopology(), testResults(t), testCases(t), cfg, nil)

	band, err := c.MVAllowedVoltageLimits(LevelsMV)
	require.NoError(t, err)
	// feed-in upper = 1 + 0.01 + 0.005 + 0.05, load lower = 1 + 0.01 - 0.005 - 0.015
	assert.InDelta(t, 1.065, band.Upper[2], 1e-12)
	assert.InDelta(t, 0.99, band.Lower[0], 1e-12)
}

func TestMVAllowedVoltageLimitsInvalidLevels(t *testing.T) {
	c := newTestChecker(t)
	_, err := c.MVAllowedVoltageLimits("lv")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "mv_lv")
}

func TestLVAllowedVoltageLimits(t *testing.T) {
	c := newTestChecker(t)
	lv := c.Topology().LVGrids[0]

	// reference is the bus bar: 1.0, 0.99, 1.02, 1.0
	band, err := c.LVAllowedVoltageLimits(lv, ModeAllBuses)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.1, 1.1, 1.055, 1.035}, band.Upper, 1e-12)
	assert.InDeltaSlice(t, []float64{0.935, 0.925, 0.9, 0.9}, band.Lower, 1e-12)

	// reference is the transformer's primary side Bus_A: 0.98, 1.0, 1.07, 1.0
	band, err = c.LVAllowedVoltageLimits(lv, ModeStations)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.1, 1.1, 1.085, 1.015}, band.Upper, 1e-12)
	assert.InDeltaSlice(t, []float64{0.96, 0.98, 0.9, 0.9}, band.Lower, 1e-12)
}

func TestLVAllowedVoltageLimitsInvalid(t *testing.T) {
	c := newTestChecker(t)
	_, err := c.LVAllowedVoltageLimits(c.Topology().LVGrids[0], "feeders")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.LVAllowedVoltageLimits(c.Topology().MVGrid, ModeAllBuses)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMissingCaseIsPrerequisiteMissing(t *testing.T) {
	cs, err := model.NewCaseSeries(hours(2), []model.Case{model.LoadCase, model.LoadCase})
	require.NoError(t, err)
	c := New(testTopology(), testResults(t), &cs, config.Default(), nil)

	_, err = c.LinesAllowedLoad(nil)
	assert.ErrorIs(t, err, ErrPrerequisiteMissing)
}
