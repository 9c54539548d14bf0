package model

import "time"

// ImportStats aggregates the outcome of one import run. It is returned
// to manual trigger callers and logged; only the run history keeps a
// serialized copy.
type ImportStats struct {
	TotalMessages  int            `json:"totalMessages"`
	Processed      int            `json:"processed"`
	NewCustomers   int            `json:"newCustomers"`
	Duplicates     int            `json:"duplicates"`
	Errors         int            `json:"errors"`
	Skipped        int            `json:"skipped"`
	BySource       map[string]int `json:"bySource"`
	StartedAt      time.Time      `json:"startedAt"`
	FinishedAt     time.Time      `json:"finishedAt"`
	ProcessingTime time.Duration  `json:"processingTimeNs"`
}

// RetryItemResult reports the outcome of retrying one FailedImport.
type RetryItemResult struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RetryResult aggregates a retry batch. Per-item failures are reported
// here, never as a batch-fatal error.
type RetryResult struct {
	Processed  int               `json:"processed"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Items      []RetryItemResult `json:"items"`
}

// ImportRun is one persisted entry of the run history.
type ImportRun struct {
	ID         string      `db:"id"`
	Type       string      `db:"type"` // "scheduled", "manual", "retry"
	Folder     string      `db:"folder"`
	Stats      ImportStats `db:"-"`
	StartedAt  time.Time   `db:"started_at"`
	FinishedAt time.Time   `db:"finished_at"`
	Error      string      `db:"error"`
}
