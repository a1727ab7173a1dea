// Package registry holds the static catalog of experiment-brief sections,
// their scoring modes and their point scales.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

var ErrSectionNotFound = errors.New("section not found")

// Sections in presentation order. Max points sum to 88.
var sections = []models.SectionDefinition{
	{ID: "outcome", DisplayName: "Outcome", Space: models.SpaceProblem, Mode: models.ModePresence, MaxPoints: 10,
		Headers: []string{"outcome"}},
	{ID: "trunkProblem", DisplayName: "Trunk Problem", Space: models.SpaceProblem, Mode: models.ModePresence, MaxPoints: 10,
		Headers: []string{"trunk problem"}},
	{ID: "branchProblem", DisplayName: "Branch Problem", Space: models.SpaceProblem, Mode: models.ModePresence, MaxPoints: 10,
		Headers: []string{"branch problem"}},
	{ID: "rootCause", DisplayName: "Root Cause", Space: models.SpaceProblem, Mode: models.ModeLLMRubricNPt, MaxPoints: 10,
		Headers:  []string{"root cause statement", "root cause", "root cause problem statement"},
		Criteria: []string{"length", "format", "focus", "clarity"}},
	{ID: "supportingData", DisplayName: "Supporting Data", Space: models.SpaceProblem, Mode: models.ModeLLMRubricNPt, MaxPoints: 10,
		Headers:  []string{"supporting data", "why"},
		Criteria: []string{"structure", "relevance", "clarity", "sources"}},
	{ID: "hypothesis", DisplayName: "Hypothesis", Space: models.SpaceProblem, Mode: models.ModeLLMRubricNPt, MaxPoints: 10,
		Headers:  []string{"hypothesis statement", "hypothesis"},
		Criteria: []string{"belief", "reason", "falsifiability", "insights"}},
	{ID: "prediction", DisplayName: "Prediction", Space: models.SpaceSolution, Mode: models.ModeLLMRubricNPt, MaxPoints: 10,
		Headers:  []string{"prediction", "prediction statement"},
		Criteria: []string{"format", "solution", "testability", "flexibility"}},
	{ID: "testTitle", DisplayName: "Test Title", Space: models.SpaceSolution, Mode: models.ModePresence, MaxPoints: 0,
		Headers: []string{"test title"}, MaxLength: 50},
	{ID: "shortDescription", DisplayName: "Short Description", Space: models.SpaceSolution, Mode: models.ModePresence, MaxPoints: 0,
		Headers: []string{"short description"}},
	{ID: "learningObjective", DisplayName: "Test Learning Objective", Space: models.SpaceSolution, Mode: models.ModeLLMBinary2Pt, MaxPoints: 2,
		Headers: []string{"test learning objective", "learning objective"}},
	{ID: "testType", DisplayName: "Test Type", Space: models.SpaceSolution, Mode: models.ModePresence, MaxPoints: 0,
		Headers: []string{"test type"}},
	{ID: "testVariant", DisplayName: "Test Variant Description", Space: models.SpaceSolution, Mode: models.ModeLLMBinary2Pt, MaxPoints: 2,
		Headers: []string{"test variant description", "test variant"}},
	{ID: "controlVariant", DisplayName: "Control Variant Description", Space: models.SpaceSolution, Mode: models.ModeLLMBinary2Pt, MaxPoints: 2,
		Headers: []string{"control variant description", "control variant"}},
	{ID: "audience", DisplayName: "Audience", Space: models.SpaceSolution, Mode: models.ModeLLMBinary2Pt, MaxPoints: 2,
		Headers: []string{"audience"}},
	{ID: "duration", DisplayName: "Duration", Space: models.SpaceSolution, Mode: models.ModeHeuristic, MaxPoints: 2,
		Headers: []string{"duration"}},
	{ID: "successCriteria", DisplayName: "Success Criteria", Space: models.SpaceSolution, Mode: models.ModeHeuristic, MaxPoints: 2,
		Headers: []string{"success criteria"}},
	{ID: "dataRequirements", DisplayName: "Data Requirements", Space: models.SpaceSolution, Mode: models.ModeHeuristic, MaxPoints: 2,
		Headers: []string{"data requirements"}},
	{ID: "considerations", DisplayName: "Considerations", Space: models.SpaceSolution, Mode: models.ModeHeuristic, MaxPoints: 2,
		Headers: []string{"consideration or investigative requirements", "considerations and investigation requirements", "considerations"}},
	{ID: "whatNext", DisplayName: "What Next", Space: models.SpaceSolution, Mode: models.ModeHeuristic, MaxPoints: 2,
		Headers: []string{"what next"}},
}

var (
	byID     = map[string]int{}
	byHeader = map[string]string{}
)

func init() {
	for i, s := range sections {
		if _, dup := byID[s.ID]; dup {
			panic(fmt.Sprintf("registry: duplicate section id %q", s.ID))
		}
		byID[s.ID] = i
		for _, h := range s.Headers {
			if prev, dup := byHeader[h]; dup {
				panic(fmt.Sprintf("registry: header %q claimed by %q and %q", h, prev, s.ID))
			}
			byHeader[h] = s.ID
		}
	}
}

// Lookup returns the definition for id, or ErrSectionNotFound.
func Lookup(id string) (models.SectionDefinition, error) {
	i, ok := byID[id]
	if !ok {
		return models.SectionDefinition{}, fmt.Errorf("%w: %q", ErrSectionNotFound, id)
	}
	return clone(sections[i]), nil
}

// All returns every definition in registry order.
func All() []models.SectionDefinition {
	out := make([]models.SectionDefinition, len(sections))
	for i, s := range sections {
		out[i] = clone(s)
	}
	return out
}

// BySpace returns the definitions of one space in registry order.
func BySpace(space models.Space) []models.SectionDefinition {
	var out []models.SectionDefinition
	for _, s := range sections {
		if s.Space == space {
			out = append(out, clone(s))
		}
	}
	return out
}

// TotalMaxPoints is the denominator of the total percentage.
func TotalMaxPoints() int {
	total := 0
	for _, s := range sections {
		total += s.MaxPoints
	}
	return total
}

// MatchHeader reports which section a line opens, if any. Leading bullet
// markers and a trailing colon or period are ignored, as is case.
func MatchHeader(line string) (string, bool) {
	id, ok := byHeader[NormalizeHeader(line)]
	return id, ok
}

// NormalizeHeader reduces a candidate header line to its lookup key.
func NormalizeHeader(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "•-* \t")
	s = strings.TrimRight(s, " \t")
	s = strings.TrimSuffix(s, ":")
	s = strings.TrimSuffix(s, ".")
	return strings.ToLower(strings.TrimSpace(s))
}

func clone(s models.SectionDefinition) models.SectionDefinition {
	s.Headers = append([]string(nil), s.Headers...)
	s.Criteria = append([]string(nil), s.Criteria...)
	return s
}
