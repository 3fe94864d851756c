package checks

import (
	"testing"

	"grid-constraints/internal/config"
	"grid-constraints/internal/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentsRelativeLoadIsElementwise(t *testing.T) {
	c := newTestChecker(t)

	rel, err := c.ComponentsRelativeLoad()
	require.NoError(t, err)
	assert.Equal(t, []string{"Line_SA", "Line_AB", "Line_BC", "Line_LV_1", "LVGrid_2_station", "MVGrid_1_station"}, rel.Columns())
	require.Equal(t, 4, rel.Rows())

	lines := []string{"Line_SA", "Line_AB", "Line_BC", "Line_LV_1"}
	load, err := c.LinesLoad(lines)
	require.NoError(t, err)
	allowed, err := c.LinesAllowedLoad(lines)
	require.NoError(t, err)
	stLoad, err := frame.Concat(mustStationLoad(t, c, 0), mustStationLoad(t, c, -1))
	require.NoError(t, err)
	stAllowed, err := c.StationsAllowedLoad(nil)
	require.NoError(t, err)

	realized, err := frame.Concat(load, stLoad)
	require.NoError(t, err)
	limit, err := frame.Concat(allowed, stAllowed)
	require.NoError(t, err)

	for _, name := range rel.Columns() {
		got, _ := rel.Column(name)
		num, _ := realized.Column(name)
		den, _ := limit.Column(name)
		for i := range got {
			assert.InDelta(t, num[i]/den[i], got[i], 1e-12, "%s step %d", name, i)
		}
	}
}

// mustStationLoad returns the station load of the LV grid at i, or of the
// MV grid for i < 0.
func mustStationLoad(t *testing.T, c *Checker, i int) *frame.Frame {
	t.Helper()
	g := c.Topology().MVGrid
	if i >= 0 {
		g = c.Topology().LVGrids[i]
	}
	f, err := c.StationLoad(g)
	require.NoError(t, err)
	return f
}

func TestStationsRelativeLoadSkipsGridsWithoutResults(t *testing.T) {
	res := testResults(t)
	lvOnly, err := res.SRes.Select([]string{"Line_LV_1", "Trafo_LV_2"})
	require.NoError(t, err)
	res.SRes = lvOnly
	c := New(testTopology(), res, testCases(t), config.Default(), nil)

	rel, err := c.StationsRelativeLoad(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"LVGrid_2_station"}, rel.Columns())
	col, _ := rel.Column("LVGrid_2_station")
	assert.InDelta(t, 0.7/0.63, col[0], 1e-12)
}

func TestLinesRelativeLoadNoReduction(t *testing.T) {
	c := newTestChecker(t)
	rel, err := c.LinesRelativeLoad([]string{"Line_AB"})
	require.NoError(t, err)
	col, _ := rel.Column("Line_AB")
	assert.InDeltaSlice(t, []float64{1.2, 0.8, 1.2, 0.9}, col, 1e-12)
}
