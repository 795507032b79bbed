package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var assessmentResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "truskill",
	Subsystem: "ai",
	Name:      "assessment_results_total",
	Help:      "Number of essay assessments by result status",
}, []string{"status"})

// Assessor runs one grading prompt through a Generator and always yields a Result.
type Assessor struct {
	generator Generator
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewAssessor wraps the generator. A nil generator makes every assessment an APIFailure.
func NewAssessor(generator Generator, logger zerolog.Logger) *Assessor {
	return &Assessor{
		generator: generator,
		tracer:    otel.Tracer("github.com/noah-isme/truskill-essay-api/pkg/ai/assessor"),
		logger:    logger.With().Str("component", "ai_assessor").Logger(),
	}
}

// Assess calls the model once. Failures are returned as ParseFailure or APIFailure, never as errors or panics.
func (a *Assessor) Assess(parent context.Context, prompt string) (result Result) {
	ctx, span := a.tracer.Start(parent, "ai.assess")
	defer func() {
		if recovered := recover(); recovered != nil {
			result = APIFailure{Message: fmt.Sprintf("AI API error: %v", recovered)}
		}
		span.SetAttributes(attribute.String("assessment.status", string(result.Status())))
		if result.Status() != StatusOK {
			span.SetStatus(codes.Error, string(result.Status()))
		}
		assessmentResults.WithLabelValues(string(result.Status())).Inc()
		span.End()
	}()

	if a.generator == nil {
		return APIFailure{Message: "AI evaluator is not configured"}
	}

	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		a.logger.Warn().Err(err).Msg("model invocation failed")
		return APIFailure{Message: fmt.Sprintf("AI API error: %v", err)}
	}

	if strings.TrimSpace(text) == "" {
		a.logger.Warn().Msg("model returned an empty reply")
		return ParseFailure{Message: "AI response text is empty or missing", RawResponse: text}
	}

	result = ParseAssessment(text)
	if failure, ok := result.(ParseFailure); ok {
		a.logger.Warn().Str("error", failure.Message).Int("raw_length", len(text)).Msg("model reply could not be parsed")
	}
	return result
}
