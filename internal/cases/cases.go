package cases

import (
	"time"

	"grid-constraints/internal/model"
)

// Classifier assigns every time step to the load or feed-in case.
type Classifier interface {
	Name() string
	Classify(index []time.Time) (model.CaseSeries, error)
}

// Classify runs c and wraps its result into a validated case series.
func Classify(c Classifier, index []time.Time) (*model.CaseSeries, error) {
	s, err := c.Classify(index)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
