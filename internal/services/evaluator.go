package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/metrics"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/registry"
)

// ErrNotJudged is returned when a judge call is requested for a section
// scored locally.
var ErrNotJudged = errors.New("section is not judged by the model")

const errorRationale = "Error evaluating section"

type EvaluatorService interface {
	// Evaluate scores every registered section and aggregates the total.
	// It always returns a complete report.
	Evaluate(ctx context.Context, sections models.DocumentSections) *models.AggregateReport
	// EvaluateSection scores one section with the same dispatch Evaluate uses.
	EvaluateSection(ctx context.Context, sectionID, content string) (models.EvaluationResult, error)
	// JudgeSection returns the raw verdict of an LLM-judged section.
	JudgeSection(ctx context.Context, sectionID, content string) (*Verdict, error)
	RubricVersion() string
}

type evaluatorService struct {
	judge         Judge
	promptBuilder *PromptBuilder
	concurrency   int
	now           func() time.Time
}

func NewEvaluatorService(judge Judge, promptBuilder *PromptBuilder, concurrency int) EvaluatorService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &evaluatorService{
		judge:         judge,
		promptBuilder: promptBuilder,
		concurrency:   concurrency,
		now:           time.Now,
	}
}

var missingRecommendations = map[string]string{
	"rootCause":         "Add a root cause statement in the form \"[trunk problem] because [reason]\".",
	"supportingData":    "Add bullet-pointed supporting data with clear sources.",
	"hypothesis":        "Add a present-tense, falsifiable hypothesis grounded in the root cause.",
	"prediction":        "Add a prediction in the form \"If ..., then ...\" with a measurable outcome.",
	"learningObjective": "Add a clear learning objective framed as a question tied to user behavior or outcomes.",
	"testVariant":       "Add a clear test variant description that explains how it differs from control.",
	"controlVariant":    "Add a clear control variant description that references the existing experience.",
	"audience":          "Add a clear audience definition with targeting criteria, split and randomization method.",
}

func (e *evaluatorService) RubricVersion() string {
	return e.promptBuilder.RubricVersion()
}

func (e *evaluatorService) Evaluate(ctx context.Context, sections models.DocumentSections) *models.AggregateReport {
	log := clog.FromContext(ctx)
	defs := registry.All()
	log.With("sections", len(defs), "concurrency", e.concurrency).Info("Starting evaluation run")

	results := runSectionTasks(ctx, defs, e.concurrency, func(ctx context.Context, def models.SectionDefinition) models.EvaluationResult {
		return e.evaluate(ctx, def, sections.Text(def.ID))
	})

	report := &models.AggregateReport{
		ID:            uuid.New(),
		GeneratedAt:   e.now().UTC(),
		RubricVersion: e.RubricVersion(),
		Sections:      results,
	}
	report.TotalScore, report.MaxScore, report.TotalPercentage = Aggregate(results)
	metrics.SetTotalPercentage(report.TotalPercentage)

	log.With("report_id", report.ID, "total_percentage", report.TotalPercentage).Info("Evaluation run complete")
	return report
}

func (e *evaluatorService) EvaluateSection(ctx context.Context, sectionID, content string) (models.EvaluationResult, error) {
	def, err := registry.Lookup(sectionID)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	return e.evaluate(ctx, def, content), nil
}

func (e *evaluatorService) JudgeSection(ctx context.Context, sectionID, content string) (*Verdict, error) {
	def, err := registry.Lookup(sectionID)
	if err != nil {
		return nil, err
	}
	if !def.Mode.IsLLM() {
		return nil, fmt.Errorf("%w: %q", ErrNotJudged, sectionID)
	}
	return e.callJudge(ctx, def, content)
}

func (e *evaluatorService) evaluate(ctx context.Context, def models.SectionDefinition, text string) models.EvaluationResult {
	var res models.EvaluationResult
	switch def.Mode {
	case models.ModePresence:
		res = scorePresence(def, text)
	case models.ModeHeuristic:
		res = scoreHeuristic(def, text)
	case models.ModeLLMBinary2Pt, models.ModeLLMRubricNPt:
		res = e.evaluateWithJudge(ctx, def, text)
	default:
		res = errorResult(def, fmt.Errorf("unknown scoring mode %q", def.Mode))
	}
	metrics.SectionEvaluated(def.ID, string(def.Mode), string(res.Status))
	return res
}

func (e *evaluatorService) evaluateWithJudge(ctx context.Context, def models.SectionDefinition, text string) models.EvaluationResult {
	if strings.TrimSpace(text) == "" {
		return missingContentResult(def)
	}

	verdict, err := e.callJudge(ctx, def, text)
	if err != nil {
		kind := "unknown"
		var failure *JudgeFailure
		if errors.As(err, &failure) {
			kind = string(failure.Kind)
		}
		metrics.JudgeFailed(def.ID, kind)
		clog.FromContext(ctx).With("section", def.ID, "kind", kind, "error", err).Warn("Judge failed, recording zero score")
		return errorResult(def, err)
	}
	return verdict.ToResult(def)
}

func (e *evaluatorService) callJudge(ctx context.Context, def models.SectionDefinition, content string) (*Verdict, error) {
	prompt, err := e.promptBuilder.BuildSectionPrompt(def.ID, content)
	if err != nil {
		return nil, err
	}
	return e.judge.Judge(ctx, JudgeRequest{
		Section:           def,
		SystemInstruction: e.promptBuilder.SystemInstruction(),
		Prompt:            prompt,
	})
}

func missingContentResult(def models.SectionDefinition) models.EvaluationResult {
	rec, ok := missingRecommendations[def.ID]
	if !ok {
		rec = fmt.Sprintf("Add content for the %s section.", def.DisplayName)
	}
	return models.EvaluationResult{
		Section:        def.ID,
		DisplayName:    def.DisplayName,
		MaxPoints:      def.MaxPoints,
		Rationale:      fmt.Sprintf("Missing content: the %s section is empty.", def.DisplayName),
		Recommendation: rec,
		Status:         models.StatusMissingContent,
	}
}

func errorResult(def models.SectionDefinition, err error) models.EvaluationResult {
	return models.EvaluationResult{
		Section:     def.ID,
		DisplayName: def.DisplayName,
		MaxPoints:   def.MaxPoints,
		Rationale:   errorRationale,
		Details:     map[string]string{models.DetailError: err.Error()},
		Status:      models.StatusError,
	}
}

// Aggregate sums scores and computes round(100*total/maxScore) clamped to
// [0, 100]. A zero denominator yields 0.
func Aggregate(results []models.EvaluationResult) (total float64, maxScore int, pct int) {
	for _, r := range results {
		total += r.Score
		maxScore += r.MaxPoints
	}
	if maxScore <= 0 {
		return total, maxScore, 0
	}
	pct = int(math.Round(100 * total / float64(maxScore)))
	return total, maxScore, min(100, max(0, pct))
}
