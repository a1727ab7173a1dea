package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/metrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

// EvaluateFunctionName is the structured-output function every judge call
// is forced to invoke.
const EvaluateFunctionName = "evaluate_section"

const smokePrompt = `Say "API is working correctly!"`

type JudgeRequest struct {
	Section           models.SectionDefinition
	SystemInstruction string
	Prompt            string
}

// Judge scores one section through an external language model.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (*Verdict, error)
	Ping(ctx context.Context) (string, error)
	Provider() string
	Model() string
}

type JudgeOptions struct {
	Model string
	// Temperature is sent as given; zero is a valid setting. The 0.3
	// default lives in config.
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Metrics     *metrics.GenAI

	// BaseURL overrides the provider endpoint, e.g. for a proxy.
	BaseURL string
}

func (o *JudgeOptions) setDefaults(model string) {
	if o.Model == "" {
		o.Model = model
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 1000
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewGenAI("experiment-evaluator.judge")
	}
}

type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
	FailureMalformed FailureKind = "malformed"
	FailureSchema    FailureKind = "schema"
	FailureNoCall    FailureKind = "no_call"
)

// JudgeFailure is returned for every judge call that did not yield a valid
// verdict. It is never retried.
type JudgeFailure struct {
	Kind    FailureKind
	Section string
	Err     error
}

func (f *JudgeFailure) Error() string {
	return fmt.Sprintf("judge %s failure for section %s: %v", f.Kind, f.Section, f.Err)
}

func (f *JudgeFailure) Unwrap() error { return f.Err }

func newFailure(kind FailureKind, section string, format string, args ...any) *JudgeFailure {
	return &JudgeFailure{Kind: kind, Section: section, Err: fmt.Errorf(format, args...)}
}

// BinaryVerdict is the 2-point response shape.
type BinaryVerdict struct {
	Score          float64 `json:"score"`
	Reason         string  `json:"reason"`
	Evidence       string  `json:"evidence"`
	Recommendation string  `json:"recommendation"`
}

// RubricVerdict is the N-point response shape with a per-criterion breakdown.
type RubricVerdict struct {
	Score          float64           `json:"score"`
	Summary        string            `json:"summary"`
	Details        map[string]string `json:"details"`
	Recommendation string            `json:"recommendation,omitempty"`
}

// Verdict holds exactly one of the two shapes.
type Verdict struct {
	Binary *BinaryVerdict
	Rubric *RubricVerdict
}

func (v *Verdict) Score() float64 {
	if v.Binary != nil {
		return v.Binary.Score
	}
	if v.Rubric != nil {
		return v.Rubric.Score
	}
	return 0
}

// MarshalJSON emits the raw verdict shape the model returned.
func (v *Verdict) MarshalJSON() ([]byte, error) {
	switch {
	case v.Binary != nil:
		return json.Marshal(v.Binary)
	case v.Rubric != nil:
		return json.Marshal(v.Rubric)
	default:
		return []byte("null"), nil
	}
}

// ToResult copies the verdict into an Evaluation Result unchanged.
func (v *Verdict) ToResult(def models.SectionDefinition) models.EvaluationResult {
	res := models.EvaluationResult{
		Section:     def.ID,
		DisplayName: def.DisplayName,
		MaxPoints:   def.MaxPoints,
		Status:      models.StatusSuccess,
	}
	switch {
	case v.Binary != nil:
		res.Score = v.Binary.Score
		res.Rationale = v.Binary.Reason
		res.Evidence = v.Binary.Evidence
		res.Recommendation = v.Binary.Recommendation
	case v.Rubric != nil:
		res.Score = v.Rubric.Score
		res.Rationale = v.Rubric.Summary
		res.Recommendation = v.Rubric.Recommendation
		res.Details = make(map[string]string, len(v.Rubric.Details))
		for k, d := range v.Rubric.Details {
			res.Details[k] = d
		}
	}
	return res
}

// ParseVerdict validates the arguments of an evaluate_section call against
// the shape expected for the section's scoring mode.
func ParseVerdict(def models.SectionDefinition, args []byte) (*Verdict, error) {
	args = bytes.TrimSpace(args)
	if len(args) == 0 {
		return nil, newFailure(FailureMalformed, def.ID, "empty function arguments")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return nil, newFailure(FailureMalformed, def.ID, "decode function arguments: %w", err)
	}
	if fields == nil {
		return nil, newFailure(FailureMalformed, def.ID, "function arguments are not an object")
	}

	score, err := scoreField(fields, def.MaxPoints)
	if err != nil {
		return nil, &JudgeFailure{Kind: FailureSchema, Section: def.ID, Err: err}
	}

	switch def.Mode {
	case models.ModeLLMBinary2Pt:
		reason, err := stringField(fields, "reason", true)
		if err != nil {
			return nil, &JudgeFailure{Kind: FailureSchema, Section: def.ID, Err: err}
		}
		evidence, err := stringField(fields, "evidence", false)
		if err != nil {
			return nil, &JudgeFailure{Kind: FailureSchema, Section: def.ID, Err: err}
		}
		rec, err := stringField(fields, "recommendation", false)
		if err != nil {
			return nil, &JudgeFailure{Kind: FailureSchema, Section: def.ID, Err: err}
		}
		return &Verdict{Binary: &BinaryVerdict{
			Score:          score,
			Reason:         reason,
			Evidence:       evidence,
			Recommendation: rec,
		}}, nil

	case models.ModeLLMRubricNPt:
		summary, err := stringField(fields, "summary", false)
		if err != nil {
			return nil, &JudgeFailure{Kind: FailureSchema, Section: def.ID, Err: err}
		}
		raw, ok := fields["details"]
		if !ok || isNull(raw) {
			return nil, newFailure(FailureSchema, def.ID, "missing required field %q", "details")
		}
		var details map[string]string
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, newFailure(FailureSchema, def.ID, "field %q must be an object of strings: %w", "details", err)
		}
		v := &RubricVerdict{Score: score, Summary: summary, Details: details}
		if _, ok := fields["recommendation"]; ok {
			if v.Recommendation, err = stringField(fields, "recommendation", false); err != nil {
				return nil, &JudgeFailure{Kind: FailureSchema, Section: def.ID, Err: err}
			}
		}
		return &Verdict{Rubric: v}, nil

	default:
		return nil, newFailure(FailureSchema, def.ID, "section is not judged by the model (mode %s)", def.Mode)
	}
}

func scoreField(fields map[string]json.RawMessage, max int) (float64, error) {
	raw, ok := fields["score"]
	if !ok || isNull(raw) {
		return 0, errors.New(`missing required field "score"`)
	}
	var score float64
	if err := json.Unmarshal(raw, &score); err != nil {
		return 0, fmt.Errorf(`field "score" must be numeric, got %s`, raw)
	}
	if score < 0 || score > float64(max) {
		return 0, fmt.Errorf(`field "score" = %v outside [0, %d]`, score, max)
	}
	return score, nil
}

func stringField(fields map[string]json.RawMessage, name string, nonEmpty bool) (string, error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("missing required field %q", name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q must be a string", name)
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("field %q must not be empty", name)
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// callTimeout bounds a single judge call.
func callTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
