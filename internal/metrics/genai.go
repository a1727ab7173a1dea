package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI counts judge token usage and evaluate_section calls per model.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	functionCalls    metric.Int64Counter
}

// NewGenAI registers the judge counters on the global meter provider. A
// counter the provider rejects is swapped for a no-op.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	return &GenAI{
		promptTokens: int64Counter(meter, meterName, "judge.tokens.input",
			"Input tokens sent to the judge", "{tokens}"),
		completionTokens: int64Counter(meter, meterName, "judge.tokens.output",
			"Output tokens returned by the judge", "{tokens}"),
		functionCalls: int64Counter(meter, meterName, "judge.function_calls",
			"evaluate_section calls returned by the judge", "{calls}"),
	}
}

func int64Counter(meter metric.Meter, meterName, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Judge counter unavailable, recording nothing for it", "counter", name, "meter", meterName, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

// RecordTokens adds the token counts of one judge call.
func (m *GenAI) RecordTokens(ctx context.Context, model, section string, prompt, completion int64) {
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("section", section),
	)
	m.promptTokens.Add(ctx, prompt, attrs)
	m.completionTokens.Add(ctx, completion, attrs)
}

func (m *GenAI) RecordFunctionCall(ctx context.Context, model, name string) {
	m.functionCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("function", name),
	))
}
