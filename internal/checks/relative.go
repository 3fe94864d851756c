package checks

import (
	"errors"

	"grid-constraints/internal/frame"
	"grid-constraints/internal/model"

	"go.uber.org/zap"
)

// LinesRelativeLoad returns realized over allowed line load per line and
// time step. A nil lines slice covers every line in the power flow results.
func (c *Checker) LinesRelativeLoad(lines []string) (*frame.Frame, error) {
	if c.res.Empty() {
		return nil, errNoResults("relative line load")
	}
	if lines == nil {
		lines = c.defaultLines()
	}
	allowed, err := c.LinesAllowedLoad(lines)
	if err != nil {
		return nil, err
	}
	load, err := c.LinesLoad(lines)
	if err != nil {
		return nil, err
	}
	return frame.Div(load, allowed)
}

// StationsRelativeLoad returns realized over allowed station load per
// station and time step. Stations of grids that were not part of the power
// flow are skipped. A nil grids slice means every LV grid followed by the
// MV grid.
func (c *Checker) StationsRelativeLoad(grids []model.Grid) (*frame.Frame, error) {
	if c.res.Empty() {
		return nil, errNoResults("relative station load")
	}
	if grids == nil {
		grids = c.defaultStationGrids()
	}
	allowed, err := c.StationsAllowedLoad(grids)
	if err != nil {
		return nil, err
	}

	var loads []*frame.Frame
	for _, g := range grids {
		f, err := c.StationLoad(g)
		if errors.Is(err, ErrPrerequisiteMissing) {
			c.log.Debug("station not in power flow results, skipping", zap.String("station", g.StationName()), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		loads = append(loads, f)
	}
	if len(loads) == 0 {
		return frame.Empty(c.res.TimeIndex()), nil
	}
	load, err := frame.Concat(loads...)
	if err != nil {
		return nil, err
	}
	return frame.Div(load, allowed)
}

// ComponentsRelativeLoad returns the relative load of all lines and stations
// in the power flow results, lines first.
func (c *Checker) ComponentsRelativeLoad() (*frame.Frame, error) {
	stations, err := c.StationsRelativeLoad(nil)
	if err != nil {
		return nil, err
	}
	lines, err := c.LinesRelativeLoad(nil)
	if err != nil {
		return nil, err
	}
	return frame.Concat(lines, stations)
}
