package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/metrics"
)

const DefaultClaudeModel = "claude-sonnet-4-5"

type claudeJudge struct {
	client anthropic.Client
	opts   JudgeOptions
}

// NewClaudeJudge creates a judge backed by the Anthropic Messages API.
// Client-side retries are disabled: one attempt per section per run.
func NewClaudeJudge(apiKey string, opts JudgeOptions) (Judge, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	opts.setDefaults(DefaultClaudeModel)

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &claudeJudge{
		client: anthropic.NewClient(clientOpts...),
		opts:   opts,
	}, nil
}

func (c *claudeJudge) Provider() string { return "claude" }

func (c *claudeJudge) Model() string { return c.opts.Model }

// Judge implements Judge.
func (c *claudeJudge) Judge(ctx context.Context, req JudgeRequest) (*Verdict, error) {
	log := clog.FromContext(ctx).With("section", req.Section.ID, "model", c.opts.Model)
	ctx, cancel := callTimeout(ctx, c.opts.Timeout)
	defer cancel()

	schema, err := schemaToMap(VerdictSchema(req.Section))
	if err != nil {
		return nil, newFailure(FailureMalformed, req.Section.ID, "encode tool schema: %w", err)
	}
	properties, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]any)
	requiredNames := make([]string, 0, len(required))
	for _, r := range required {
		if s, ok := r.(string); ok {
			requiredNames = append(requiredNames, s)
		}
	}

	tool := anthropic.ToolParam{
		Name:        EvaluateFunctionName,
		Description: anthropic.String(fmt.Sprintf("Evaluates the %s section of an experiment brief", req.Section.DisplayName)),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: properties,
			Required:   requiredNames,
		},
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: int64(c.opts.MaxTokens),
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(req.Prompt),
			},
		}},
		Tools: []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: EvaluateFunctionName},
		},
	}
	params.Temperature = anthropic.Float(c.opts.Temperature)
	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	metrics.ObserveJudgeDuration(req.Section.ID, time.Since(start).Seconds())
	if err != nil {
		log.With("error", err).Warn("Claude judge call failed")
		return nil, classifyClaudeError(req.Section.ID, err)
	}
	if message == nil {
		return nil, newFailure(FailureNoCall, req.Section.ID, "nil response")
	}
	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		c.opts.Metrics.RecordTokens(ctx, c.opts.Model, req.Section.ID, message.Usage.InputTokens, message.Usage.OutputTokens)
	}

	for _, content := range message.Content {
		if content.Type != "tool_use" || content.Name != EvaluateFunctionName {
			continue
		}
		c.opts.Metrics.RecordFunctionCall(ctx, c.opts.Model, content.Name)
		log.With("args_length", len(content.Input)).Info("Received evaluate_section call")
		return ParseVerdict(req.Section, content.Input)
	}

	return nil, newFailure(FailureNoCall, req.Section.ID, "response contained no %s call", EvaluateFunctionName)
}

// Ping implements Judge.
func (c *claudeJudge) Ping(ctx context.Context) (string, error) {
	ctx, cancel := callTimeout(ctx, c.opts.Timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: 20,
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(smokePrompt)},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("claude smoke test failed: %w", err)
	}

	var parts []string
	for _, content := range message.Content {
		if content.Type == "text" {
			parts = append(parts, content.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}

func classifyClaudeError(section string, err error) *JudgeFailure {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &JudgeFailure{Kind: FailureStatus, Section: section, Err: err}
	}
	return &JudgeFailure{Kind: FailureTransport, Section: section, Err: err}
}
