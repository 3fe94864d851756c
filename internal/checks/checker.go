package checks

import (
	"time"

	"grid-constraints/internal/config"
	"grid-constraints/internal/model"

	"go.uber.org/zap"
)

// Checker runs the technical constraint checks on one solved snapshot.
// It only reads its inputs, so one Checker may be shared by goroutines
// that fan out per grid.
type Checker struct {
	topo  *model.Topology
	res   *model.Results
	cases *model.CaseSeries
	cfg   *config.Config
	log   *zap.Logger

	casesErr error // set when the case series failed validation
}

// New builds a Checker. A nil logger disables logging.
func New(topo *model.Topology, res *model.Results, cases *model.CaseSeries, cfg *config.Config, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Checker{topo: topo, res: res, cases: cases, cfg: cfg, log: log}
	if cases != nil {
		// build the lookup now so concurrent readers never write it
		if err := cases.Validate(); err != nil {
			log.Warn("invalid case series", zap.Error(err))
			c.casesErr = err
		}
	}
	return c
}

func (c *Checker) Topology() *model.Topology { return c.topo }

func (c *Checker) caseAt(t time.Time) (model.Case, error) {
	if c.cases == nil {
		return "", newError(KindPrerequisiteMissing, "no load/feed-in case classification available")
	}
	if c.casesErr != nil {
		return "", newError(KindInvalidArgument, "invalid case series: %v", c.casesErr)
	}
	cs, ok := c.cases.At(t)
	if !ok {
		return "", newError(KindPrerequisiteMissing, "time step %s has no load/feed-in case", t.Format(time.RFC3339))
	}
	return cs, nil
}

// casesFor resolves the case of every time step in index.
func (c *Checker) casesFor(index []time.Time) ([]model.Case, error) {
	out := make([]model.Case, len(index))
	for i, t := range index {
		cs, err := c.caseAt(t)
		if err != nil {
			return nil, err
		}
		out[i] = cs
	}
	return out, nil
}

func (c *Checker) voltageIndex() []time.Time {
	if c.res == nil || c.res.VMagPU == nil {
		return nil
	}
	return c.res.VMagPU.Index()
}

func (c *Checker) hasVoltages() bool {
	return c.res != nil && !c.res.VMagPU.IsEmpty()
}
