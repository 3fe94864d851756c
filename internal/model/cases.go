package model

import (
	"fmt"
	"time"
)

// Case is the operating regime of a time step.
// Keep these values stable; they are used in config keys.
type Case string

const (
	LoadCase   Case = "load_case"
	FeedInCase Case = "feed-in_case"
)

// Cases lists both cases in the order limits are computed.
var Cases = []Case{FeedInCase, LoadCase}

func (c Case) Valid() bool {
	return c == LoadCase || c == FeedInCase
}

// CaseSeries maps every time step to exactly one case.
type CaseSeries struct {
	Index []time.Time `json:"index"`
	Cases []Case      `json:"cases"`

	lookup map[int64]Case
}

func NewCaseSeries(index []time.Time, cases []Case) (CaseSeries, error) {
	s := CaseSeries{Index: index, Cases: cases}
	if err := s.Validate(); err != nil {
		return CaseSeries{}, err
	}
	return s, nil
}

func (s *CaseSeries) Validate() error {
	if len(s.Index) != len(s.Cases) {
		return fmt.Errorf("case series has %d time steps but %d cases", len(s.Index), len(s.Cases))
	}
	for i, c := range s.Cases {
		if !c.Valid() {
			return fmt.Errorf("time step %s has invalid case %q", s.Index[i].Format(time.RFC3339), c)
		}
	}
	s.lookup = make(map[int64]Case, len(s.Index))
	for i, t := range s.Index {
		s.lookup[t.UnixNano()] = s.Cases[i]
	}
	return nil
}

// At returns the case of time step t.
func (s *CaseSeries) At(t time.Time) (Case, bool) {
	if s.lookup == nil {
		if err := s.Validate(); err != nil {
			return "", false
		}
	}
	c, ok := s.lookup[t.UnixNano()]
	return c, ok
}

func (s CaseSeries) Len() int { return len(s.Index) }
