// Package llm provides structured object generation on top of chat
// completion APIs.
//
// Stages describe the shape they want back (a JSON schema fragment plus
// instructions), the client asks the model for JSON, and the response is
// decoded into a caller-supplied struct. Parse and schema failures are
// surfaced as categorized errors so callers can decide whether to retry.
package llm

import (
	"context"
	"errors"
)

// ErrNoObject indicates the model returned no usable content.
var ErrNoObject = errors.New("no object produced")

// ObjectRequest configures a structured generation call.
type ObjectRequest struct {
	// SystemPrompt sets the model's role. Optional.
	SystemPrompt string

	// Prompt is the user instruction. Required.
	Prompt string

	// Schema is a JSON description of the expected output shape.
	// It is embedded in the instruction; the response is decoded against
	// the caller's target type, which is the real contract.
	Schema string

	// Model overrides the client's default model. Optional.
	Model string

	// Temperature controls sampling. Zero means the provider default.
	Temperature float32

	// MaxTokens caps the response length. Zero means the provider default.
	MaxTokens int
}

// Client generates schema-shaped objects from prompts.
// Implementations must be safe for concurrent use.
type Client interface {
	// GenerateObject runs a completion and decodes the JSON response into out.
	// out must be a non-nil pointer. Returns ErrNoObject (possibly wrapped)
	// when the model produced no content, and a categorized JSONParseError
	// when the content is not valid JSON for the target type.
	GenerateObject(ctx context.Context, req ObjectRequest, out any) error
}
