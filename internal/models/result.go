package models

import (
	"time"

	"github.com/google/uuid"
)

type AggregateReport struct {
	ID              uuid.UUID          `json:"id"`
	GeneratedAt     time.Time          `json:"generated_at"`
	RubricVersion   string             `json:"rubric_version"`
	TotalScore      float64            `json:"total_score"`
	MaxScore        int                `json:"max_score"`
	TotalPercentage int                `json:"total_percentage"`
	Sections        []EvaluationResult `json:"sections"`
}

// Lookup returns the result recorded for a section id.
func (r *AggregateReport) Lookup(id string) (EvaluationResult, bool) {
	for _, res := range r.Sections {
		if res.Section == id {
			return res, true
		}
	}
	return EvaluationResult{}, false
}

type EvaluateSectionRequest struct {
	Section string `json:"section"`
	Content string `json:"content"`
}

type EvaluateDocumentRequest struct {
	Sections DocumentSections `json:"sections"`
}

type SectionInfo struct {
	SectionDefinition
	Aliases []string `json:"header_aliases"`
}

type SectionsResponse struct {
	RubricVersion  string        `json:"rubric_version"`
	TotalMaxPoints int           `json:"total_max_points"`
	Sections       []SectionInfo `json:"sections"`
}
