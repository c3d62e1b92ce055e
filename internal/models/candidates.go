package models

import "time"

// Candidate is one stored résumé: the LLM summary plus its metadata.
type Candidate struct {
	CandidateID string     `json:"candidate_id"`
	Name        string     `json:"name"`
	UploadedBy  string     `json:"uploaded_by"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty"`
	Summary     string     `json:"summary"`
}

// CandidateMetadata is the metadata stored next to a summary in the vector collection.
// It is also what an answer cites as its sources.
type CandidateMetadata struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	UploadedBy  string `json:"uploaded_by"`
	UploadedAt  string `json:"uploaded_at,omitempty"`
}

// ListCandidatesFilters represents filters for listing candidates.
// Matching is a case-insensitive substring match.
type ListCandidatesFilters struct {
	Query      string `form:"q" validate:"omitempty,no_null_bytes,max=255"`
	Name       string `form:"name" validate:"omitempty,no_null_bytes,max=255"`
	UploadedBy string `form:"uploaded_by" validate:"omitempty,no_null_bytes,max=255"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset     int    `form:"offset" validate:"omitempty,min=0"`
}

// ListCandidatesResponse represents the response for listing candidates
type ListCandidatesResponse struct {
	Data   []Candidate `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// CountCandidatesResponse is the number of stored résumés.
type CountCandidatesResponse struct {
	Count int `json:"count"`
}
