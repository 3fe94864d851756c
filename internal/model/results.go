package model

import (
	"fmt"
	"time"

	"grid-constraints/internal/frame"
)

// SlackResult is the power injected at the slack bus per time step, in MW/Mvar.
type SlackResult struct {
	P []float64 `json:"p"`
	Q []float64 `json:"q"`
}

// Results is a completed power-flow result set.
// VMagPU holds per-unit voltage magnitudes per bus; SRes holds apparent
// power in MVA per line and transformer.
type Results struct {
	VMagPU *frame.Frame `json:"v_res"`
	SRes   *frame.Frame `json:"s_res"`
	Slack  SlackResult  `json:"pfa_slack"`
}

// Empty reports whether no power flow has been run.
func (r *Results) Empty() bool {
	return r == nil || r.SRes.IsEmpty()
}

// TimeIndex returns the time steps the power flow was run for.
func (r *Results) TimeIndex() []time.Time {
	if r == nil || r.SRes == nil {
		return nil
	}
	return r.SRes.Index()
}

// Validate checks that all parts share the same time index.
func (r *Results) Validate() error {
	if r.Empty() {
		return nil
	}
	n := r.SRes.Rows()
	if r.VMagPU != nil && r.VMagPU.Rows() != n {
		return fmt.Errorf("v_res has %d time steps, s_res has %d", r.VMagPU.Rows(), n)
	}
	if len(r.Slack.P) != 0 && (len(r.Slack.P) != n || len(r.Slack.Q) != n) {
		return fmt.Errorf("pfa_slack has %d/%d time steps, s_res has %d", len(r.Slack.P), len(r.Slack.Q), n)
	}
	return nil
}

// IncludesAny reports whether any of the named components is in SRes.
func (r *Results) IncludesAny(names []string) bool {
	if r.Empty() {
		return false
	}
	for _, n := range names {
		if r.SRes.Has(n) {
			return true
		}
	}
	return false
}
