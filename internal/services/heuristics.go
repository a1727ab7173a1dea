package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

type predicate func(text string) bool

func matches(re *regexp.Regexp) predicate {
	return re.MatchString
}

func minWords(n int) predicate {
	return func(text string) bool {
		return len(strings.Fields(text)) >= n
	}
}

// heuristic scores a section from a fixed pair of predicates. Feedback is
// indexed by the resulting score on a 0/1/2 scale.
type heuristic struct {
	name           string
	first, second  predicate
	feedback       [3]string
	recommendation [2]string
}

var heuristics = map[string]heuristic{
	"duration": {
		name:   "duration",
		first:  matches(regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s*-?\s*(days?|weeks?|months?)\b|\buntil\b`)),
		second: matches(regexp.MustCompile(`(?i)\b(because|due to|based on|expect\w*|need\w*|requir\w*)\b`)),
		feedback: [3]string{
			"Duration is unclear or missing rationale",
			"Duration needs more justification",
			"Clear duration with supporting rationale",
		},
		recommendation: [2]string{
			"State an explicit run length (e.g. 4 weeks) and explain why it is long enough, such as the traffic needed for statistical power.",
			"Add the reason for the chosen duration, or make the timeframe explicit.",
		},
	},
	"successCriteria": {
		name:   "success criteria",
		first:  matches(regexp.MustCompile(`(?i)\b(increase\w*|decrease\w*|improv\w*|reduc\w*|ratio|rates?)\b|\d+(\.\d+)?\s*%`)),
		second: matches(regexp.MustCompile(`(?i)\b(significan\w*|p-value|confidence|statistical\w*|threshold\w*)\b`)),
		feedback: [3]string{
			"Success criteria lack clear metrics or thresholds",
			"Success criteria needs more specific thresholds",
			"Clear success metrics and thresholds",
		},
		recommendation: [2]string{
			"Name the metric that must move, the expected direction and size of change, and the significance threshold that decides the result.",
			"Pair the target metric with a statistical threshold (e.g. 95% confidence).",
		},
	},
	"dataRequirements": {
		name:   "data requirements",
		first:  matches(regexp.MustCompile(`(?i)\b(metrics?|events?|propert(y|ies)|attributes?|track\w*)\b`)),
		second: matches(regexp.MustCompile(`(?i)\b(collect\w*|measur\w*|record\w*|captur\w*|stor\w*)\b`)),
		feedback: [3]string{
			"Data requirements are unclear or incomplete",
			"Data requirements need more detail",
			"Clear metrics and collection methods specified",
		},
		recommendation: [2]string{
			"List the events and properties to track and describe how each will be collected.",
			"Describe both what will be tracked and how it will be captured.",
		},
	},
	"considerations": {
		name:   "considerations",
		first:  matches(regexp.MustCompile(`(?i)\b(risks?|concerns?|challenges?|limitations?|dependenc(y|ies))\b`)),
		second: minWords(20),
		feedback: [3]string{
			"Considerations are missing or lack depth",
			"Considerations need more detail",
			"Thorough consideration of risks and dependencies",
		},
		recommendation: [2]string{
			"Describe the risks, limitations and dependencies of the test and how each will be handled.",
			"Expand on the named risks or dependencies and their mitigations.",
		},
	},
	"whatNext": {
		name:   "what next",
		first:  matches(regexp.MustCompile(`(?i)\b(succe(ss|ed)\w*|pass\w*|achiev\w*|meets?|exceed\w*)\b`)),
		second: matches(regexp.MustCompile(`(?i)\b(fail\w*|not|below|miss\w*|alternative\w*)\b`)),
		feedback: [3]string{
			"What next section is incomplete or missing scenarios",
			"What next section needs more scenarios",
			"Clear plans for both success and failure scenarios",
		},
		recommendation: [2]string{
			"Describe the next step if the test succeeds and the next step if it fails.",
			"Cover both the success and the failure outcome.",
		},
	},
}

// scoreHeuristic applies the section's predicate pair: both true earns full
// marks, exactly one earns half (rounded), neither earns zero.
func scoreHeuristic(def models.SectionDefinition, text string) models.EvaluationResult {
	res := models.EvaluationResult{
		Section:     def.ID,
		DisplayName: def.DisplayName,
		MaxPoints:   def.MaxPoints,
		Status:      models.StatusSuccess,
	}

	h, ok := heuristics[def.ID]
	if !ok {
		res.Status = models.StatusError
		res.Rationale = "Error evaluating section"
		res.Details = map[string]string{models.DetailError: "no heuristic registered for section"}
		return res
	}

	text = strings.TrimSpace(text)
	if text == "" {
		res.Status = models.StatusMissingContent
		res.Rationale = "Missing " + h.name
		res.Recommendation = h.recommendation[0]
		return res
	}

	satisfied := 0
	if h.first(text) {
		satisfied++
	}
	if h.second(text) {
		satisfied++
	}

	var score int
	switch satisfied {
	case 2:
		score = def.MaxPoints
	case 1:
		score = int(math.Round(float64(def.MaxPoints) / 2))
	}

	res.Score = float64(score)
	res.Rationale = h.feedback[satisfied]
	if satisfied < 2 {
		res.Recommendation = h.recommendation[satisfied]
	}
	return res
}

// scorePresence awards full marks for any non-empty text.
func scorePresence(def models.SectionDefinition, text string) models.EvaluationResult {
	res := models.EvaluationResult{
		Section:     def.ID,
		DisplayName: def.DisplayName,
		MaxPoints:   def.MaxPoints,
		Status:      models.StatusSuccess,
	}

	text = strings.TrimSpace(text)
	if text == "" {
		res.Status = models.StatusMissingContent
		res.Rationale = "Missing"
		res.Recommendation = "Add the " + def.DisplayName + " section."
		return res
	}

	res.Score = float64(def.MaxPoints)
	res.Rationale = "Present"
	if def.MaxLength > 0 && len([]rune(text)) > def.MaxLength {
		res.Recommendation = fmt.Sprintf("Shorten the title to be under %d characters", def.MaxLength)
	}
	return res
}
