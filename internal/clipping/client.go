package clipping

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lfpaiva/jornal-agent/internal/config"
)

// RateLimitError is the one provider failure worth retrying.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("llm rate limit: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// LLMError covers every other provider failure; it is fatal to the chunk
// and thus to the run.
type LLMError struct {
	Err error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm request failed: %v", e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// Completer issues one chat completion for a rendered prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint;
// a custom base URL switches providers without code changes.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg *config.RunConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.LLMAPIKey)}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLMBaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client, model: cfg.LLMModel}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(4000),
		// Low temperature keeps the reply close to the mandated format.
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
			return "", &RateLimitError{Err: err}
		}
		return "", &LLMError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &LLMError{Err: errors.New("empty response from provider")}
	}
	return resp.Choices[0].Message.Content, nil
}
