// Package jobs defines River job arguments and queue helpers for background résumé ingestion.
package jobs

// IngestQueueName is the River queue that runs résumé ingestion jobs.
const IngestQueueName = "ingest"

// IngestJobArgs carries one extracted résumé through summarize and store.
// The PDF is parsed before enqueueing, so the job holds text rather than file bytes.
type IngestJobArgs struct {
	Filename   string `json:"filename"`
	RawText    string `json:"raw_text"`
	UploadedBy string `json:"uploaded_by"`
	// Overwrite lists candidate names (or this filename) whose existing records may be replaced.
	Overwrite []string `json:"overwrite,omitempty"`
}

// Kind returns the job type identifier for River.
func (IngestJobArgs) Kind() string { return "resume_ingest" }
