package cases

import (
	"fmt"
	"time"

	"grid-constraints/internal/model"
)

// ResidualLoad classifies time steps by residual load, that is total load
// minus total generation in MW. A negative residual load means the grid
// feeds back into the overlying level.
type ResidualLoad struct {
	Index    []time.Time `json:"index"`
	Residual []float64   `json:"residual_load"`
}

// NewResidualLoad builds the residual load from per-step load and generation totals.
func NewResidualLoad(index []time.Time, load, generation []float64) (*ResidualLoad, error) {
	if len(load) != len(index) || len(generation) != len(index) {
		return nil, fmt.Errorf("residual load: %d time steps, %d load and %d generation values",
			len(index), len(load), len(generation))
	}
	r := &ResidualLoad{Index: index, Residual: make([]float64, len(index))}
	for i := range index {
		r.Residual[i] = load[i] - generation[i]
	}
	return r, nil
}

func (r *ResidualLoad) Name() string { return "residual_load" }

// Classify returns feed-in case for negative residual load and load case otherwise.
func (r *ResidualLoad) Classify(index []time.Time) (model.CaseSeries, error) {
	pos := make(map[int64]int, len(r.Index))
	for i, t := range r.Index {
		pos[t.UnixNano()] = i
	}
	out := make([]model.Case, len(index))
	for i, t := range index {
		j, ok := pos[t.UnixNano()]
		if !ok {
			return model.CaseSeries{}, fmt.Errorf("no residual load for %s", t.Format(time.RFC3339))
		}
		if r.Residual[j] < 0 {
			out[i] = model.FeedInCase
		} else {
			out[i] = model.LoadCase
		}
	}
	return model.NewCaseSeries(index, out)
}
