package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "truskill",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of AI generation requests",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "truskill",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of AI generation failures",
	}, []string{"model"})
)

// ErrEmptyCompletion is returned when the model answers without any choice.
var ErrEmptyCompletion = errors.New("no choices returned from model")

// ErrContentFiltered is returned when the provider's safety filter blocked the reply.
var ErrContentFiltered = errors.New("response blocked by content filter")

// OpenAIConfig defines configuration options for the OpenAI-compatible generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	// JSONMode asks the provider to constrain the reply to a JSON object.
	JSONMode bool
	Logger   zerolog.Logger
}

// OpenAIGenerator implements Generator against the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/truskill-essay-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// Model reports the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.cfg.Model
}

// Generate sends the prompt as a single user message and returns the reply text.
func (g *OpenAIGenerator) Generate(parent context.Context, prompt string) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if g.cfg.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", g.fail(span, fmt.Errorf("chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", g.fail(span, ErrEmptyCompletion)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", g.fail(span, ErrContentFiltered)
	}

	g.logger.Debug().
		Str("model", g.cfg.Model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Str("finish_reason", string(choice.FinishReason)).
		Msg("generation completed")

	return strings.TrimSpace(choice.Message.Content), nil
}

func (g *OpenAIGenerator) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(g.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
