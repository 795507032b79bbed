package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, finishReason openai.FinishReason, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.Messages, 1)
		require.Equal(t, openai.ChatMessageRoleUser, request.Messages[0].Role)

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Model:  request.Model,
			Choices: []openai.ChatCompletionChoice{
				{
					Index:        0,
					Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
					FinishReason: finishReason,
				},
			},
			Usage: openai.Usage{TotalTokens: 42},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAIGeneratorReturnsReply(t *testing.T) {
	server := completionServer(t, openai.FinishReasonStop, "  {\"overall_rating\": 78}  ")
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/", Model: "gemini-1.5-flash"})
	require.NoError(t, err)
	require.Equal(t, "gemini-1.5-flash", generator.Model())

	text, err := generator.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, `{"overall_rating": 78}`, text)
}

func TestOpenAIGeneratorContentFilter(t *testing.T) {
	server := completionServer(t, openai.FinishReasonContentFilter, "")
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(), "prompt")
	require.True(t, errors.Is(err, ErrContentFiltered))
}

func TestOpenAIGeneratorAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded", "type": "rate_limit"}}`))
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(), "prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestOpenAIGeneratorTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(), "prompt")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	require.Error(t, err)
}
