package deckflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/deckflow/pkg/deckflow/observability"
)

// Run executes the pipeline with the given initial state.
// Returns the final state and any error encountered.
//
// On success, returns the state after the last stage executed before END.
// On error, returns the state at the point of failure (useful for debugging).
//
// Execution flow:
//  1. Start at the entry point stage
//  2. Check for cancellation
//  3. Execute the current stage
//  4. Determine the next stage (via simple or conditional edge)
//  5. Repeat until END is reached or an error occurs
//
// Example:
//
//	ctx := deckflow.NewContext(context.Background())
//	result, err := compiled.Run(ctx, initialState)
//	if err != nil {
//	    // result contains state at point of failure
//	}
func (cp *CompiledPipeline[S]) Run(ctx Context, state S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = ctx.Logger()
	}

	runID := ctx.RunID()
	startTime := time.Now()

	observability.LogRunStart(cfg.logger, runID, cfg.pipelineName)

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, cfg.pipelineName, runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var stageCount int
	result, stageCount, runErr = cp.execute(execCtx, ctx, state, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())

	cfg.metrics.RecordRun(ctx, runErr == nil, duration)

	if runErr != nil {
		lastStage := ""
		switch e := runErr.(type) {
		case *StageError:
			lastStage = e.StageID
		case *MaxIterationsError:
			lastStage = e.LastStageID
		case *CancellationError:
			lastStage = e.StageID
		case *PanicError:
			lastStage = e.StageID
		}
		observability.LogRunError(cfg.logger, runID, runErr, durationMs, lastStage)
	} else {
		observability.LogRunComplete(cfg.logger, runID, durationMs, stageCount)
	}

	return result, runErr
}

// execute runs the stage loop from the entry point.
// tracingCtx carries span context; dfCtx is the pipeline Context.
// Returns the final state, stage count, and any error.
func (cp *CompiledPipeline[S]) execute(tracingCtx context.Context, dfCtx Context, state S, cfg *runConfig) (S, int, error) {
	current := cp.entryPoint
	iterations := 0
	stageCount := 0

	for current != END {
		iterations++
		if iterations > cfg.maxIterations {
			return state, stageCount, &MaxIterationsError{
				Max:         cfg.maxIterations,
				LastStageID: current,
				State:       state,
			}
		}

		// Check for cancellation before executing the stage
		select {
		case <-dfCtx.Done():
			return state, stageCount, &CancellationError{
				StageID: current,
				State:   state,
				Cause:   dfCtx.Err(),
			}
		default:
		}

		observability.LogStageStart(cfg.logger, current)

		stageTracingCtx := tracingCtx
		var stageSpan trace.Span
		if cfg.tracingEnabled {
			stageTracingCtx, stageSpan = cfg.spans.StartStageSpan(tracingCtx, current)
		}

		stageStart := time.Now()

		var stageErr error
		state, stageErr = cp.executeStage(dfCtx, current, state)

		stageDuration := time.Since(stageStart)
		stageDurationMs := float64(stageDuration.Milliseconds())

		cfg.metrics.RecordStageExecution(stageTracingCtx, current, stageDuration, stageErr)

		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(stageSpan, stageErr)
		}

		if stageErr != nil {
			observability.LogStageError(cfg.logger, current, stageErr)
			return state, stageCount, stageErr
		}
		observability.LogStageComplete(cfg.logger, current, stageDurationMs)
		stageCount++

		next, err := cp.nextStage(dfCtx, state, current)
		if err != nil {
			return state, stageCount, err
		}

		current = next
	}

	return state, stageCount, nil
}

// executeStage executes a single stage with panic recovery.
// Returns the new state and any error (including wrapped panics).
func (cp *CompiledPipeline[S]) executeStage(ctx Context, stageID string, state S) (result S, err error) {
	fn, exists := cp.getStage(stageID)
	if !exists {
		// Shouldn't happen if compilation was successful
		return state, &StageError{
			StageID: stageID,
			Op:      "lookup",
			Err:     fmt.Errorf("stage not found: %s", stageID),
		}
	}

	// Create stage-specific context with enriched logger
	stageCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		stageCtx = ec.withStageID(stageID)
	}

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{
				StageID: stageID,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()

	result, err = fn(stageCtx, state)
	if err != nil {
		return result, &StageError{
			StageID: stageID,
			Op:      "execute",
			Err:     err,
		}
	}

	return result, nil
}

// nextStage determines the next stage to execute.
// Checks conditional edges first, then simple edges.
func (cp *CompiledPipeline[S]) nextStage(ctx Context, state S, current string) (string, error) {
	if router, exists := cp.getRouter(current); exists {
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withStageID(current)
		}

		next := router(routerCtx, state)

		if next == "" {
			return "", &RouterError{
				FromStage: current,
				Returned:  next,
				Err:       ErrInvalidRouterResult,
			}
		}

		if next != END {
			if _, exists := cp.getStage(next); !exists {
				return "", &RouterError{
					FromStage: current,
					Returned:  next,
					Err:       ErrRouterTargetNotFound,
				}
			}
		}

		return next, nil
	}

	edges := cp.getEdges(current)
	if len(edges) == 0 {
		// Shouldn't happen if compilation was successful
		return "", &StageError{
			StageID: current,
			Op:      "routing",
			Err:     fmt.Errorf("no outgoing edge from stage %s", current),
		}
	}

	// A stage follows its first simple edge; multiple simple edges from
	// one stage are not supported.
	return edges[0], nil
}
