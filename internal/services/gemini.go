package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/metrics"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type geminiJudge struct {
	client *genai.Client
	opts   JudgeOptions
}

// NewGeminiJudge creates a judge backed by the Gemini API.
func NewGeminiJudge(ctx context.Context, apiKey string, opts JudgeOptions) (Judge, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	opts.setDefaults(DefaultGeminiModel)

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiJudge{client: client, opts: opts}, nil
}

func (g *geminiJudge) Provider() string { return "gemini" }

func (g *geminiJudge) Model() string { return g.opts.Model }

// Judge implements Judge.
func (g *geminiJudge) Judge(ctx context.Context, req JudgeRequest) (*Verdict, error) {
	log := clog.FromContext(ctx).With("section", req.Section.ID, "model", g.opts.Model)
	ctx, cancel := callTimeout(ctx, g.opts.Timeout)
	defer cancel()

	temperature := float32(g.opts.Temperature)
	// Thinking tokens count against MaxOutputTokens; the whole budget goes
	// to the evaluate_section call.
	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(g.opts.MaxTokens),
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: &thinkingBudget,
		},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		},
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        EvaluateFunctionName,
				Description: fmt.Sprintf("Evaluates the %s section of an experiment brief", req.Section.DisplayName),
				Parameters:  schemaToGenai(VerdictSchema(req.Section)),
			}},
		}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{EvaluateFunctionName},
			},
		},
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, genai.Text(req.Prompt), config)
	metrics.ObserveJudgeDuration(req.Section.ID, time.Since(start).Seconds())
	if err != nil {
		log.With("error", err).Warn("Gemini judge call failed")
		return nil, classifyGeminiError(req.Section.ID, err)
	}
	if resp == nil {
		return nil, newFailure(FailureNoCall, req.Section.ID, "nil response")
	}
	if resp.UsageMetadata != nil {
		g.opts.Metrics.RecordTokens(ctx, g.opts.Model, req.Section.ID,
			int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	for _, call := range resp.FunctionCalls() {
		if call == nil || call.Name != EvaluateFunctionName {
			continue
		}
		g.opts.Metrics.RecordFunctionCall(ctx, g.opts.Model, call.Name)
		args, err := json.Marshal(call.Args)
		if err != nil {
			return nil, newFailure(FailureMalformed, req.Section.ID, "encode function arguments: %w", err)
		}
		log.With("args_length", len(args)).Info("Received evaluate_section call")
		return ParseVerdict(req.Section, args)
	}

	return nil, newFailure(FailureNoCall, req.Section.ID, "response contained no %s call", EvaluateFunctionName)
}

// Ping implements Judge.
func (g *geminiJudge) Ping(ctx context.Context) (string, error) {
	ctx, cancel := callTimeout(ctx, g.opts.Timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, genai.Text(smokePrompt), &genai.GenerateContentConfig{
		MaxOutputTokens: 20,
	})
	if err != nil {
		return "", fmt.Errorf("gemini smoke test failed: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini smoke test returned no response")
	}
	return strings.TrimSpace(resp.Text()), nil
}

func classifyGeminiError(section string, err error) *JudgeFailure {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErr) || errors.As(err, &apiErrPtr) {
		return &JudgeFailure{Kind: FailureStatus, Section: section, Err: err}
	}
	return &JudgeFailure{Kind: FailureTransport, Section: section, Err: err}
}
