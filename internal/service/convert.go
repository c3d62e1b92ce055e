package service

import (
	"time"

	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/vectorstore"
)

// metadataToModel converts stored metadata to the API shape.
func metadataToModel(md vectorstore.Metadata) models.CandidateMetadata {
	return models.CandidateMetadata{
		CandidateID: md[vectorstore.MetaCandidateID],
		Name:        md[vectorstore.MetaName],
		UploadedBy:  md[vectorstore.MetaUploadedBy],
		UploadedAt:  md[vectorstore.MetaUploadedAt],
	}
}

// SourcesToModel converts answer sources, keeping order. The result is never nil.
func SourcesToModel(sources []vectorstore.Metadata) []models.CandidateMetadata {
	out := make([]models.CandidateMetadata, 0, len(sources))
	for _, md := range sources {
		out = append(out, metadataToModel(md))
	}

	return out
}

// candidateFromRecord converts a stored record. The record id is used when the
// candidate_id metadata is missing.
func candidateFromRecord(rec vectorstore.Record) models.Candidate {
	c := models.Candidate{
		CandidateID: rec.Metadata[vectorstore.MetaCandidateID],
		Name:        rec.Metadata[vectorstore.MetaName],
		UploadedBy:  rec.Metadata[vectorstore.MetaUploadedBy],
		Summary:     rec.Document,
	}

	if c.CandidateID == "" {
		c.CandidateID = rec.ID
	}

	if ts, err := time.Parse(time.RFC3339, rec.Metadata[vectorstore.MetaUploadedAt]); err == nil {
		c.UploadedAt = &ts
	}

	return c
}
