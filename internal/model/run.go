package model

import "time"

// RunStatus represents the state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted analysis run: one batch transform over one input set.
type Run struct {
	ID          string         `json:"id"`
	Input       string         `json:"input"`
	Status      RunStatus      `json:"status"`
	Params      map[string]any `json:"params,omitempty"`
	Diagnostics *Diagnostics   `json:"diagnostics,omitempty"`
	Tables      []string       `json:"tables,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
