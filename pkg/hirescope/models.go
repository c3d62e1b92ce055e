package hirescope

import "time"

// These mirror the API's JSON bodies so the package can be used outside this module.

// File is one résumé to upload.
type File struct {
	Name string
	Data []byte
}

// UploadRequest is one POST /v1/resumes call (at most MaxFilesPerUpload files).
type UploadRequest struct {
	UploadedBy string
	Files      []File
	// Overwrite lists candidate names or filenames whose existing records may be replaced.
	Overwrite []string
	Async     bool
}

// IngestFileResult reports what happened to one uploaded file.
type IngestFileResult struct {
	Filename       string   `json:"filename"`
	Status         string   `json:"status"`
	Name           string   `json:"name,omitempty"`
	CandidateID    string   `json:"candidate_id,omitempty"`
	ExistingIDs    []string `json:"existing_ids,omitempty"`
	ErrorKind      string   `json:"error_kind,omitempty"`
	Error          string   `json:"error,omitempty"`
	SummaryPreview string   `json:"summary_preview,omitempty"`
	RawPreview     string   `json:"raw_preview,omitempty"`
	JobID          int64    `json:"job_id,omitempty"`
}

// IngestStats counts outcomes across a batch.
type IngestStats struct {
	TotalUploaded int `json:"total_uploaded"`
	Processed     int `json:"processed"`
	Duplicates    int `json:"duplicates"`
	Errors        int `json:"errors"`
	Queued        int `json:"queued"`
}

// IngestResponse is the upload result.
type IngestResponse struct {
	Results []IngestFileResult `json:"results"`
	Stats   IngestStats        `json:"stats"`
}

// IngestJob is the state of a queued upload.
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

// Turn is one prior message sent as query history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is the metadata of a résumé an answer was grounded on.
type Source struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	UploadedBy  string `json:"uploaded_by"`
	UploadedAt  string `json:"uploaded_at,omitempty"`
}

// QueryRequest is a stateless question.
type QueryRequest struct {
	Query   string `json:"query"`
	History []Turn `json:"history,omitempty"`
	TopK    int    `json:"top_k,omitempty"`
}

// QueryResponse is the answer to a QueryRequest.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Outcome   string   `json:"outcome"`
	Relevance string   `json:"relevance"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// Problem is an RFC 7807 error body.
type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind,omitempty"`
}
