package models

import "time"

// BatchResult summarizes one normalization run over a record set.
type BatchResult struct {
	RunID      string    `json:"run_id"`
	RecordSet  string    `json:"record_set"`
	Processed  int       `json:"processed"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Errors     int       `json:"errors"`
	Ignored    int       `json:"ignored"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Record set names used in BatchResult and events
const (
	RecordSetPlans      = "plans"
	RecordSetDispatches = "dispatches"
)

// StatusSummary is a per-status row count for one record set.
type StatusSummary struct {
	Status string `json:"status" db:"normalize_status"`
	Count  int    `json:"count" db:"count"`
}

// NormalizeSummary is the response body for a full normalization pass.
type NormalizeSummary struct {
	Plans      *BatchResult `json:"plans,omitempty"`
	Dispatches *BatchResult `json:"dispatches,omitempty"`
}
