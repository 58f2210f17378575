package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/deckflow/pkg/deckflow"
	"github.com/randalmurphal/deckflow/pkg/deckflow/document"
	dferrors "github.com/randalmurphal/deckflow/pkg/deckflow/errors"
	"github.com/randalmurphal/deckflow/pkg/deckflow/images"
	"github.com/randalmurphal/deckflow/pkg/deckflow/llm"
	"github.com/randalmurphal/deckflow/pkg/deckflow/observability"
	"github.com/randalmurphal/deckflow/pkg/deckflow/store"
)

// ErrUnauthenticated indicates the requesting user is not registered.
var ErrUnauthenticated = errors.New("user not authenticated")

// ErrForbidden indicates the requesting user does not own the project.
var ErrForbidden = errors.New("project not owned by user")

// maxTitleLen caps the project title taken from the topic.
const maxTitleLen = 100

// Config configures a Generator.
type Config struct {
	// Store persists projects. Required.
	Store store.Store

	// LLM generates outlines, content, layouts, and image queries. Required.
	LLM llm.Client

	// Images resolves image queries. Defaults to the stock resolver.
	Images images.Resolver

	// Logger receives run and stage logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records pipeline metrics. Defaults to no-op.
	Metrics observability.MetricsRecorder

	// Spans, when set, enables tracing of runs and stages.
	Spans observability.SpanManager

	// Retry applies to model calls. Defaults to errors.DefaultRetry.
	Retry dferrors.RetryConfig

	// IterativeContent writes slide content one slide at a time instead
	// of a single bulk call. Slower but keeps each request small.
	IterativeContent bool

	// OnProgress, when set, is invoked after each progress checkpoint
	// with the step description and percent complete.
	OnProgress func(step string, percent int)

	// MaxIterations bounds stage executions per run. Defaults to 150,
	// which leaves room for image fetch loops.
	MaxIterations int
}

// Request describes one generation run.
type Request struct {
	// UserID is the external (authentication provider) user ID. Required.
	UserID string

	// Topic is the presentation subject. Required.
	Topic string

	// AdditionalContext optionally steers generation.
	AdditionalContext string

	// Theme is the visual theme name. Defaults to "light".
	Theme string

	// ProjectID, when set, regenerates into an existing project instead
	// of creating a new one. The user must own the project.
	ProjectID string
}

// Result is the outcome of a generation run.
type Result struct {
	Success    bool             `json:"success"`
	ProjectID  string           `json:"projectId,omitempty"`
	Slides     []document.Slide `json:"slides,omitempty"`
	Outlines   []string         `json:"outlines,omitempty"`
	SlideCount int              `json:"slideCount,omitempty"`
	Progress   int              `json:"progress,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Generator runs the presentation generation pipeline.
// Safe for concurrent use; each Generate call is an independent run.
type Generator struct {
	cfg      Config
	compiled *deckflow.CompiledPipeline[GenerationState]
}

// New creates a Generator and compiles its stage graph.
func New(cfg Config) (*Generator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline: store is required")
	}
	if cfg.LLM == nil {
		return nil, fmt.Errorf("pipeline: llm client is required")
	}
	if cfg.Images == nil {
		cfg.Images = images.NewStockResolver()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = dferrors.DefaultRetry
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 150
	}

	g := &Generator{cfg: cfg}

	p := deckflow.NewPipeline[GenerationState]().
		AddStage(StageInitialize, g.initialize).
		AddStage(StageOutline, g.generateOutline).
		AddStage(StageContent, g.writeContent).
		AddStage(StageLayout, g.selectLayouts).
		AddStage(StageImageQuery, g.generateImageQueries).
		AddStage(StageImageFetch, g.fetchImages).
		AddStage(StageCompile, g.compileDocument).
		AddStage(StagePersist, g.persist).
		AddEdge(StageInitialize, StageOutline).
		AddEdge(StageOutline, StageContent).
		AddEdge(StageContent, StageLayout).
		AddEdge(StageLayout, StageImageQuery).
		AddEdge(StageImageQuery, StageImageFetch).
		AddConditionalEdge(StageImageFetch, g.imageRouter).
		AddEdge(StageCompile, StagePersist).
		AddEdge(StagePersist, deckflow.END).
		SetEntry(StageInitialize)

	compiled, err := p.Compile()
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile stage graph: %w", err)
	}
	g.compiled = compiled

	return g, nil
}

// Generate runs the full pipeline for one request.
// Failures are reported in the Result rather than as an error return;
// the returned Result always describes the outcome.
//
// Authentication and project ownership are checked once, up front; no
// stage runs if either check fails.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	theme := req.Theme
	if theme == "" {
		theme = "light"
	}

	userID, err := g.cfg.Store.FindUserByExternalID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			err = fmt.Errorf("%w: no user for ID %q", ErrUnauthenticated, req.UserID)
		}
		g.cfg.Logger.Warn("generation rejected", "error", err.Error())
		return Result{Success: false, Error: err.Error()}
	}

	if req.ProjectID != "" {
		owner, err := g.cfg.Store.FindProjectOwner(ctx, req.ProjectID)
		if err != nil || owner != userID {
			if err == nil {
				err = fmt.Errorf("%w: project %s", ErrForbidden, req.ProjectID)
			}
			g.cfg.Logger.Warn("generation rejected", "error", err.Error())
			return Result{Success: false, Error: err.Error()}
		}
	}

	state := GenerationState{
		ExternalUserID:    req.UserID,
		Topic:             req.Topic,
		AdditionalContext: req.AdditionalContext,
		Theme:             theme,
		UserID:            userID,
		ProjectID:         req.ProjectID,
		CurrentStep:       "Initializing",
	}

	dfCtx := deckflow.NewContext(ctx,
		deckflow.WithLogger(g.cfg.Logger),
		deckflow.WithLLM(g.cfg.LLM),
		deckflow.WithImages(g.cfg.Images),
		deckflow.WithProjects(g.cfg.Store),
	)

	opts := []deckflow.RunOption{
		deckflow.WithPipelineName("presentation"),
		deckflow.WithRunLogger(g.cfg.Logger),
		deckflow.WithMetrics(g.cfg.Metrics),
		deckflow.WithMaxIterations(g.cfg.MaxIterations),
	}
	if g.cfg.Spans != nil {
		opts = append(opts, deckflow.WithTracing(g.cfg.Spans))
	}

	final, err := g.compiled.Run(dfCtx, state, opts...)
	if err != nil {
		msg := final.Err
		if msg == "" {
			msg = err.Error()
		}
		return Result{
			Success:   false,
			Error:     msg,
			ProjectID: final.ProjectID,
		}
	}

	if final.ProjectID == "" || len(final.Document) == 0 {
		return Result{
			Success:   false,
			Error:     "presentation generation incomplete - missing data",
			ProjectID: final.ProjectID,
		}
	}

	return Result{
		Success:    true,
		ProjectID:  final.ProjectID,
		Slides:     final.Document,
		Outlines:   final.Outlines,
		SlideCount: len(final.Document),
		Progress:   final.Progress,
	}
}

// report records a progress checkpoint on the state and notifies the
// configured callback.
func (g *Generator) report(ctx deckflow.Context, state *GenerationState, step string, percent int) {
	state.CurrentStep = step
	state.Progress = percent
	observability.LogProgress(ctx.Logger(), step, percent)
	if g.cfg.OnProgress != nil {
		g.cfg.OnProgress(step, percent)
	}
}

// fail records the failure message on the state and returns the error,
// halting the run with the state preserved for inspection.
func fail(state GenerationState, msg string, err error) (GenerationState, error) {
	state.Err = fmt.Sprintf("%s: %v", msg, err)
	return state, err
}

// generateObject calls the model with retry, decoding into out.
func (g *Generator) generateObject(ctx deckflow.Context, req llm.ObjectRequest, out any) error {
	res := dferrors.WithRetry(ctx, g.cfg.Retry, func(c context.Context) (struct{}, error) {
		return struct{}{}, ctx.LLM().GenerateObject(c, req, out)
	})
	g.cfg.Metrics.RecordModelCall(ctx, res.Attempts, res.Duration, res.Err)
	return res.Err
}

// projectTitle derives the project title from the topic.
func projectTitle(topic string) string {
	title := strings.TrimSpace(topic)
	if len(title) > maxTitleLen {
		title = strings.TrimSpace(title[:maxTitleLen])
	}
	return title
}
