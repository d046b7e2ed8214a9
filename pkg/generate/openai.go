package generate

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	go_openai "github.com/sashabaranov/go-openai"

	"github.com/matzehuels/promptree/pkg/errors"
)

// Defaults for [OpenAIConfig].
const (
	DefaultModel = go_openai.GPT3Dot5Turbo
	DefaultTopP  = 0.8
)

// OpenAIConfig configures an [OpenAI] generator.
type OpenAIConfig struct {
	APIKey    string  // Required
	BaseURL   string  // Optional, e.g. a local OpenAI compatible server
	Model     string  // Defaults to DefaultModel
	TopP      float64 // Defaults to DefaultTopP
	MaxTokens int     // 0 leaves the limit to the server

	// Attempts bounds calls per response; rate limits and server errors
	// are retried. Defaults to DefaultAttempts.
	Attempts   int
	RetryDelay time.Duration // Defaults to DefaultRetryDelay
}

// OpenAI generates responses with the chat completions API.
type OpenAI struct {
	client *go_openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates a generator for cfg. It fails with
// [errors.ErrCodeUnauthorized] when no API key is configured.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "no API key configured")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TopP == 0 {
		cfg.TopP = DefaultTopP
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	config := go_openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAI{client: go_openai.NewClientWithConfig(config), cfg: cfg}, nil
}

// Model returns the configured model name.
func (o *OpenAI) Model() string { return o.cfg.Model }

// Generate sends prompt as a single user message and returns the content of
// the first choice.
func (o *OpenAI) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	req := go_openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []go_openai.ChatCompletionMessage{
			{Role: go_openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
		TopP:        float32(o.cfg.TopP),
		MaxTokens:   o.cfg.MaxTokens,
	}

	var resp go_openai.ChatCompletionResponse
	err := Retry(ctx, o.cfg.Attempts, o.cfg.RetryDelay, func() error {
		var err error
		resp, err = o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		var apiErr *go_openai.APIError
		if stderrors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return "", errors.Wrap(errors.ErrCodeUnauthorized, err, "generation service rejected the API key")
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeInternal, "generation service returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
