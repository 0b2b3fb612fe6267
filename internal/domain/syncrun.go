package domain

import "time"

// SyncStatus is the state of a sync run in its audit row.
type SyncStatus string

const (
	SyncStatusStarted   SyncStatus = "started"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// Sync trigger kinds recorded on the audit row.
const (
	SyncTypeManual    = "manual"
	SyncTypeScheduled = "scheduled"
)

// SyncRun is the audit record of one adapter-to-storage pipeline execution.
// It is created in the started state when the run begins and transitions
// exactly once to completed or failed.
type SyncRun struct {
	ID           string
	SourceID     int64
	SyncType     string // "manual" or "scheduled"
	Status       SyncStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	Processed    int
	Added        int
	Updated      int
	ErrorMessage string
}

// SyncResult is the per-run counter summary returned to the caller.
type SyncResult struct {
	Processed int `json:"processed"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`
}

// Source is an external platform registered as an ingestible event source.
type Source struct {
	ID       int64
	Name     string
	APIType  Platform
	IsActive bool
}
