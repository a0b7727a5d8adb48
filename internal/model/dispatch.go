package model

import "time"

// DispatchTickResult summarizes one dispatcher tick. Seq is assigned by the
// tick history and increases by one per recorded tick.
type DispatchTickResult struct {
	Seq                int64         `json:"seq"`
	StartedAt          time.Time     `json:"startedAt"`
	Duration           time.Duration `json:"duration"`
	Fetched            int           `json:"fetched"`
	PrimaryAttempts    int           `json:"primaryAttempts"`
	SecondaryAttempts  int           `json:"secondaryAttempts"`
	Delivered          int           `json:"delivered"`
	PrimaryDelivered   int           `json:"primaryDelivered"`
	SecondaryDelivered int           `json:"secondaryDelivered"`
	Rejected           int           `json:"rejected"`
	Deleted            int           `json:"deleted"`
	Remaining          int64         `json:"remaining"`
	Aborted            bool          `json:"aborted"`
	StopReason         string        `json:"stopReason,omitempty"`
	Error              string        `json:"error,omitempty"`
}

const (
	StopSecondaryExhausted = "secondary_budget_exhausted"
	StopSecondaryTransient = "secondary_transient_failure"
	StopTimeout            = "tick_timeout"
	StopFetchFailed        = "fetch_failed"
)
