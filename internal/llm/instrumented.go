package llm

import (
	"context"
	"time"

	"career_coach_backend/pkg/logger"
	"career_coach_backend/pkg/monitoring"
	"career_coach_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentedProvider records every call: a zap log line, Prometheus
// latency and token metrics, and an OpenTelemetry span.
type InstrumentedProvider struct {
	inner    Provider
	provider string
}

// WithInstrumentation wraps a Provider. name is the vendor label used in
// metrics ("openai", "anthropic", ...).
func WithInstrumentation(p Provider, name string) Provider {
	return &InstrumentedProvider{inner: p, provider: name}
}

func (l *InstrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)

	ctx, span := tracing.Tracer.Start(ctx, "llm.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", l.provider),
			attribute.String("llm.model", l.inner.ModelID()),
			attribute.String("llm.purpose", purpose),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	monitoring.LLMRequestDuration.WithLabelValues(l.provider, purpose, outcome).Observe(elapsed.Seconds())

	fields := []zap.Field{
		zap.String("provider", l.provider),
		zap.String("model", l.inner.ModelID()),
		zap.String("purpose", purpose),
		zap.Duration("latency", elapsed),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Warn("LLM request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	monitoring.LLMTokens.WithLabelValues(l.provider, "input").Add(float64(resp.Usage.InputTokens))
	monitoring.LLMTokens.WithLabelValues(l.provider, "output").Add(float64(resp.Usage.OutputTokens))
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
		attribute.String("llm.stop_reason", resp.StopReason),
	)

	logger.Log.Info("LLM request completed", append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("stop_reason", resp.StopReason),
	)...)

	return resp, nil
}

func (l *InstrumentedProvider) ModelID() string {
	return l.inner.ModelID()
}
