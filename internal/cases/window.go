package cases

import (
	"fmt"
	"strings"
	"time"

	"grid-constraints/internal/model"
)

// Window is a simple daily classifier for studies without generation data:
// time steps in [FeedInStart, FeedInEnd) are feed-in case, all others are
// load case.
//
// Times are interpreted in the time zone of each time step.
type Window struct {
	FeedInStart string // "HH:MM"
	FeedInEnd   string // "HH:MM"
}

func (w Window) Name() string { return "window" }

func (w Window) Classify(index []time.Time) (model.CaseSeries, error) {
	start, err := parseHHMM(w.FeedInStart)
	if err != nil {
		return model.CaseSeries{}, err
	}
	end, err := parseHHMM(w.FeedInEnd)
	if err != nil {
		return model.CaseSeries{}, err
	}
	out := make([]model.Case, len(index))
	for i, t := range index {
		mins := t.Hour()*60 + t.Minute()
		if inWindow(mins, start, end) {
			out[i] = model.FeedInCase
		} else {
			out[i] = model.LoadCase
		}
	}
	return model.NewCaseSeries(index, out)
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// start == end is an empty window; start > end wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}
