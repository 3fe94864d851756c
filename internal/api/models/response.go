package models

import (
	"time"

	"grid-constraints/internal/checks"
	"grid-constraints/internal/frame"
)

// CheckResponse represents the result of a check run
type CheckResponse struct {
	ID         string         `json:"id"`
	Snapshot   string         `json:"snapshot,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Clean      bool           `json:"clean"`
	Counts     map[string]int `json:"counts"`
	DurationMS int64          `json:"duration_ms"`
	Result     *checks.Result `json:"result"`
	Rows       []ViolationRow `json:"rows,omitempty"`
}

// ViolationRow is one violating element
type ViolationRow struct {
	Category  string    `json:"category"`
	Grid      string    `json:"grid,omitempty"`
	Element   string    `json:"element"`
	Value     float64   `json:"value"`
	TimeIndex time.Time `json:"time_index"`
}

// RelativeLoadResponse holds relative loading per time step and component
type RelativeLoadResponse struct {
	Components int          `json:"components"`
	TimeSteps  int          `json:"time_steps"`
	Loading    *frame.Frame `json:"loading"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
