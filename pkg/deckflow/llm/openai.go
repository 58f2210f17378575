package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
)

// OpenAIConfig configures the OpenAI-compatible client.
type OpenAIConfig struct {
	// APIKey authenticates against the API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Optional; useful for proxies
	// and OpenAI-compatible servers.
	BaseURL string

	// Model is the default model for requests that don't set one.
	Model string

	// MaxTokens is the default response cap. Zero means no explicit cap.
	MaxTokens int
}

// OpenAIClient generates structured objects via the OpenAI chat API.
// JSON mode is requested so the model emits a bare JSON document.
type OpenAIClient struct {
	client *openai.Client
	config OpenAIConfig
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for OpenAI or any compatible endpoint.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
	}, nil
}

// GenerateObject runs a JSON-mode chat completion and decodes the result.
func (c *OpenAIClient) GenerateObject(ctx context.Context, req ObjectRequest, out any) error {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: buildPrompt(req),
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return dferrors.Malformed(ErrNoObject, "openai completion")
	}

	return decodeObject(resp.Choices[0].Message.Content, out)
}

// mapOpenAIError converts SDK errors into categorized pipeline errors.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		httpErr := &dferrors.HTTPError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Endpoint:   "chat/completions",
		}
		switch dferrors.Categorize(httpErr) {
		case dferrors.CategoryTransient:
			return dferrors.Transient(httpErr, "openai completion")
		default:
			return dferrors.Permanent(httpErr, "openai completion")
		}
	}
	// Network failures and timeouts without an API response.
	return dferrors.Transient(err, "openai completion")
}
