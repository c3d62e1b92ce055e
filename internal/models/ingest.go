package models

import "time"

// IngestStatus is the outcome of ingesting one résumé file.
type IngestStatus string

// Ingest outcomes.
const (
	IngestStatusStored    IngestStatus = "stored"
	IngestStatusDuplicate IngestStatus = "duplicate"
	IngestStatusError     IngestStatus = "error"
	IngestStatusQueued    IngestStatus = "queued"
)

// IngestFileResult reports what happened to one uploaded file.
type IngestFileResult struct {
	Filename       string       `json:"filename"`
	Status         IngestStatus `json:"status"`
	Name           string       `json:"name,omitempty"`
	CandidateID    string       `json:"candidate_id,omitempty"`
	ExistingIDs    []string     `json:"existing_ids,omitempty"`
	ErrorKind      string       `json:"error_kind,omitempty"`
	Error          string       `json:"error,omitempty"`
	SummaryPreview string       `json:"summary_preview,omitempty"`
	RawPreview     string       `json:"raw_preview,omitempty"`
	JobID          int64        `json:"job_id,omitempty"`
}

// IngestStats counts outcomes across a batch.
type IngestStats struct {
	TotalUploaded int `json:"total_uploaded"`
	Processed     int `json:"processed"`
	Duplicates    int `json:"duplicates"`
	Errors        int `json:"errors"`
	Queued        int `json:"queued"`
}

// IngestResponse is returned by the upload endpoint.
type IngestResponse struct {
	Results []IngestFileResult `json:"results"`
	Stats   IngestStats        `json:"stats"`
}

// IngestJob is the state of an asynchronous ingestion job.
type IngestJob struct {
	ID          int64      `json:"id"`
	State       string     `json:"state"`
	Filename    string     `json:"filename"`
	Attempt     int        `json:"attempt"`
	MaxAttempts int        `json:"max_attempts"`
	Errors      []string   `json:"errors,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}
