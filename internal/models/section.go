package models

// ScoringMode selects how a section is evaluated.
type ScoringMode string

const (
	ModePresence     ScoringMode = "presence"
	ModeHeuristic    ScoringMode = "heuristic"
	ModeLLMBinary2Pt ScoringMode = "llm_binary_2pt"
	ModeLLMRubricNPt ScoringMode = "llm_rubric_npt"
)

// IsLLM reports whether sections in this mode are scored by the judge.
func (m ScoringMode) IsLLM() bool {
	return m == ModeLLMBinary2Pt || m == ModeLLMRubricNPt
}

// Space groups sections for presentation only.
type Space string

const (
	SpaceProblem  Space = "problem"
	SpaceSolution Space = "solution"
)

type SectionDefinition struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Space       Space       `json:"space"`
	Mode        ScoringMode `json:"scoring_mode"`
	MaxPoints   int         `json:"max_points"`

	// Headers are the lowercase header-line variants that open this section
	// in an uploaded brief.
	Headers []string `json:"-"`

	// Criteria lists the breakdown keys of an N-point rubric.
	Criteria []string `json:"criteria,omitempty"`

	// MaxLength is an advisory character limit (0 means none).
	MaxLength int `json:"max_length,omitempty"`
}
