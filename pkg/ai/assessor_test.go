package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAssessorGradesFencedReply(t *testing.T) {
	var seenPrompt string
	assessor := NewAssessor(GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return "Sure! ```json\n" + gradedReply + "\n```", nil
	}), zerolog.Nop())

	result := assessor.Assess(context.Background(), "grade me")
	require.Equal(t, "grade me", seenPrompt)
	require.Equal(t, StatusOK, result.Status())
	require.Equal(t, float64(78), *OverallRating(result))
}

func TestAssessorCapturesModelErrors(t *testing.T) {
	assessor := NewAssessor(GeneratorFunc(func(context.Context, string) (string, error) {
		return "", context.DeadlineExceeded
	}), zerolog.Nop())

	result := assessor.Assess(context.Background(), "prompt")
	failure, ok := result.(APIFailure)
	require.True(t, ok)
	require.Contains(t, failure.Message, "deadline exceeded")
	require.Nil(t, OverallRating(result))
}

func TestAssessorCapturesContentFilter(t *testing.T) {
	assessor := NewAssessor(GeneratorFunc(func(context.Context, string) (string, error) {
		return "", ErrContentFiltered
	}), zerolog.Nop())

	result := assessor.Assess(context.Background(), "prompt")
	require.Equal(t, StatusAPIError, result.Status())
}

func TestAssessorRecoversFromPanics(t *testing.T) {
	assessor := NewAssessor(GeneratorFunc(func(context.Context, string) (string, error) {
		panic("sdk exploded")
	}), zerolog.Nop())

	result := assessor.Assess(context.Background(), "prompt")
	failure, ok := result.(APIFailure)
	require.True(t, ok)
	require.True(t, strings.Contains(failure.Message, "sdk exploded"))
}

func TestAssessorEmptyReplyIsParseFailure(t *testing.T) {
	assessor := NewAssessor(GeneratorFunc(func(context.Context, string) (string, error) {
		return "   ", nil
	}), zerolog.Nop())

	result := assessor.Assess(context.Background(), "prompt")
	require.Equal(t, StatusParseError, result.Status())
}

func TestAssessorWithoutGenerator(t *testing.T) {
	result := NewAssessor(nil, zerolog.Nop()).Assess(context.Background(), "prompt")
	require.Equal(t, StatusAPIError, result.Status())
}

func TestAssessorMalformedJSONKeepsRawText(t *testing.T) {
	raw := "```json\n{\"overall_rating\": }\n```"
	assessor := NewAssessor(GeneratorFunc(func(context.Context, string) (string, error) {
		return raw, nil
	}), zerolog.Nop())

	result := assessor.Assess(context.Background(), "prompt")
	failure, ok := result.(ParseFailure)
	require.True(t, ok)
	require.Equal(t, raw, failure.RawResponse)
}
