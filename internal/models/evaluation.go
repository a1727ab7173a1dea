package models

type EvaluationStatus string

const (
	StatusSuccess        EvaluationStatus = "success"
	StatusMissingContent EvaluationStatus = "missing_content"
	StatusError          EvaluationStatus = "error"
)

// Detail keys that carry bookkeeping rather than a criterion breakdown.
const (
	DetailError  = "error"
	DetailStatus = "status"
)

type EvaluationResult struct {
	Section        string            `json:"section"`
	DisplayName    string            `json:"display_name"`
	Score          float64           `json:"score"`
	MaxPoints      int               `json:"max_points"`
	Rationale      string            `json:"rationale"`
	Evidence       string            `json:"evidence"`
	Recommendation string            `json:"recommendation"`
	Details        map[string]string `json:"details,omitempty"`
	Status         EvaluationStatus  `json:"status"`
}

// Failed reports whether the judge call behind this result failed.
func (r EvaluationResult) Failed() bool {
	return r.Status == StatusError
}
