package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
)

// ClaudeConfig configures the Anthropic client.
type ClaudeConfig struct {
	// APIKey authenticates against the API. Required.
	APIKey string

	// Model is the default model for requests that don't set one.
	Model string

	// MaxTokens is the default response cap. The messages API requires
	// a positive value; zero falls back to 4096.
	MaxTokens int
}

// ClaudeClient generates structured objects via the Anthropic messages API.
// Anthropic has no JSON response mode, so the prompt instructs the model
// to emit JSON and the response is fence-stripped before decoding.
type ClaudeClient struct {
	client *anthropic.Client
	config ClaudeConfig
}

var _ Client = (*ClaudeClient)(nil)

// NewClaudeClient creates a client for the Anthropic messages API.
func NewClaudeClient(cfg ClaudeConfig) (*ClaudeClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaude3Dot5SonnetLatest)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	return &ClaudeClient{
		client: anthropic.NewClient(cfg.APIKey),
		config: cfg,
	}, nil
}

// GenerateObject runs a messages request and decodes the JSON response.
func (c *ClaudeClient) GenerateObject(ctx context.Context, req ObjectRequest, out any) error {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	msgReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(buildPrompt(req)),
		},
	}
	if req.SystemPrompt != "" {
		msgReq.System = req.SystemPrompt
	}
	if req.Temperature != 0 {
		temp := req.Temperature
		msgReq.Temperature = &temp
	}

	resp, err := c.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return mapClaudeError(err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return dferrors.Malformed(ErrNoObject, "claude messages")
	}

	return decodeObject(text, out)
}

// mapClaudeError converts SDK errors into categorized pipeline errors.
// The SDK surfaces API failures with the status embedded in the message,
// so classification is by substring.
func mapClaudeError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "529"):
		return dferrors.Transient(err, "claude messages")
	case strings.Contains(msg, "authentication"),
		strings.Contains(msg, "401"),
		strings.Contains(msg, "permission"),
		strings.Contains(msg, "403"):
		return dferrors.Permanent(err, "claude messages")
	default:
		return dferrors.Transient(err, "claude messages")
	}
}
