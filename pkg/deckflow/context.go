package deckflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/deckflow/pkg/deckflow/images"
	"github.com/randalmurphal/deckflow/pkg/deckflow/llm"
	"github.com/randalmurphal/deckflow/pkg/deckflow/store"
)

// Context provides execution context to stages.
// It extends context.Context with pipeline services and metadata.
//
// Context is immutable after creation. The executor creates derived contexts
// for each stage with updated StageID and enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and stage context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// LLM returns the model client, or nil if not configured.
	// Stages should check for nil before using.
	LLM() llm.Client

	// Images returns the image resolver, or nil if not configured.
	// Stages should check for nil before using.
	Images() images.Resolver

	// Projects returns the project store, or nil if not configured.
	// Stages should check for nil before using.
	Projects() store.Store

	// Metadata

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// StageID returns the current stage being executed.
	// Empty string before execution starts.
	StageID() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger   *slog.Logger
	llm      llm.Client
	images   images.Resolver
	projects store.Store
	runID    string
	stageID  string
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// LLM returns the model client.
func (c *executionContext) LLM() llm.Client {
	return c.llm
}

// Images returns the image resolver.
func (c *executionContext) Images() images.Resolver {
	return c.images
}

// Projects returns the project store.
func (c *executionContext) Projects() store.Store {
	return c.projects
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// StageID returns the current stage identifier.
func (c *executionContext) StageID() string {
	return c.stageID
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id and stage during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithLLM sets the model client for the context.
func WithLLM(client llm.Client) ContextOption {
	return func(c *executionContext) {
		c.llm = client
	}
}

// WithImages sets the image resolver for the context.
func WithImages(resolver images.Resolver) ContextOption {
	return func(c *executionContext) {
		c.images = resolver
	}
}

// WithProjects sets the project store for the context.
func WithProjects(s store.Store) ContextOption {
	return func(c *executionContext) {
		c.projects = s
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The returned Context wraps the provided context.Context and adds
// pipeline services and metadata.
//
// Example:
//
//	ctx := deckflow.NewContext(context.Background(),
//	    deckflow.WithLogger(myLogger),
//	    deckflow.WithLLM(client))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withStageID returns a new context with the given stage ID set.
// Used internally by the executor to enrich the context per-stage.
func (c *executionContext) withStageID(stageID string) *executionContext {
	return &executionContext{
		Context:  c.Context,
		logger:   c.logger.With("run_id", c.runID, "stage", stageID),
		llm:      c.llm,
		images:   c.images,
		projects: c.projects,
		runID:    c.runID,
		stageID:  stageID,
	}
}
