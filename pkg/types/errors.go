package types

import (
	"fmt"
	"time"
)

// ConfigurationError is fatal and surfaced before any simulation runs.
type ConfigurationError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Param, e.Value, e.Reason)
}

// SequenceError is a programming-level error: a simulator was stepped out of
// chronological order, or with a state that did not come from its Reset.
type SequenceError struct {
	Timestamp time.Time
	Reason    string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence error at %s: %s", e.Timestamp.Format(time.RFC3339), e.Reason)
}

// WarningKind classifies non-fatal conditions recorded alongside a run.
type WarningKind string

const (
	WarningExportMismatch WarningKind = "exportMismatch"
	WarningImportMismatch WarningKind = "importMismatch"
	WarningLargeGap       WarningKind = "largeGap"
)

// Warning is a non-fatal data-quality condition. Warnings are accumulated and
// returned alongside results, never swallowed and never fatal.
type Warning struct {
	Timestamp time.Time   `json:"timestamp"`
	Kind      WarningKind `json:"kind"`
	Message   string      `json:"message"`
}
