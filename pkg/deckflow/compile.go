package deckflow

import (
	"errors"
	"fmt"
	"log/slog"
)

// Compile validates the pipeline and creates an executable CompiledPipeline.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks (in order):
//  1. Entry point must be set
//  2. Entry point must reference an existing stage
//  3. All edge sources must reference existing stages
//  4. All edge targets must reference existing stages or END
//  5. All stages must have a path to END
//
// Unreachable stages (not reachable from entry) are logged as warnings
// but do not cause compilation to fail.
func (p *Pipeline[S]) Compile() (*CompiledPipeline[S], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var errs []error

	if p.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := p.stages[p.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, p.entryPoint))
	}

	for from, targets := range p.edges {
		// Edge sources must exist unless covered by a conditional edge.
		if from != END {
			if _, exists := p.stages[from]; !exists {
				if _, hasConditional := p.conditionalEdges[from]; !hasConditional {
					errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrStageNotFound, from))
				}
			}
		}

		for _, to := range targets {
			if to != END {
				if _, exists := p.stages[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrStageNotFound, to))
				}
			}
		}
	}

	for from := range p.conditionalEdges {
		if _, exists := p.stages[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrStageNotFound, from))
		}
	}

	if p.entryPoint != "" {
		if _, exists := p.stages[p.entryPoint]; exists {
			if !p.hasPathToEnd() {
				errs = append(errs, ErrNoPathToEnd)
			}
		}
	}

	p.warnUnreachableStages()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return p.buildCompiledPipeline(), nil
}

// hasPathToEnd checks if there's a path from entry to END using reverse
// reachability. Stages with conditional edges are assumed to potentially
// reach END, since the router might return it.
func (p *Pipeline[S]) hasPathToEnd() bool {
	canReachEnd := make(map[string]bool)
	canReachEnd[END] = true

	changed := true
	for changed {
		changed = false

		for from, targets := range p.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}

		for from := range p.conditionalEdges {
			if !canReachEnd[from] {
				canReachEnd[from] = true
				changed = true
			}
		}
	}

	return canReachEnd[p.entryPoint]
}

// warnUnreachableStages logs warnings for stages not reachable from entry.
func (p *Pipeline[S]) warnUnreachableStages() {
	if p.entryPoint == "" {
		return
	}

	reachable := p.findReachableStages()

	for id := range p.stages {
		if !reachable[id] {
			slog.Warn("stage is unreachable from entry", "stage", id)
		}
	}
}

// findReachableStages returns the set of stages reachable from the entry point.
func (p *Pipeline[S]) findReachableStages() map[string]bool {
	reachable := make(map[string]bool)

	if p.entryPoint == "" {
		return reachable
	}

	queue := []string{p.entryPoint}
	reachable[p.entryPoint] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range p.edges[current] {
			if target != END && !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}

		// Conditional targets depend on runtime state; the router could
		// return any stage ID, so assume all stages are reachable.
		if _, hasConditional := p.conditionalEdges[current]; hasConditional {
			for id := range p.stages {
				if !reachable[id] {
					reachable[id] = true
					queue = append(queue, id)
				}
			}
		}
	}

	return reachable
}

// buildCompiledPipeline creates the immutable CompiledPipeline from the builder state.
func (p *Pipeline[S]) buildCompiledPipeline() *CompiledPipeline[S] {
	stages := make(map[string]StageFunc[S], len(p.stages))
	for id, fn := range p.stages {
		stages[id] = fn
	}

	edges := make(map[string][]string, len(p.edges))
	for from, targets := range p.edges {
		edges[from] = make([]string, len(targets))
		copy(edges[from], targets)
	}

	conditionalEdges := make(map[string]RouterFunc[S], len(p.conditionalEdges))
	for from, router := range p.conditionalEdges {
		conditionalEdges[from] = router
	}

	isConditional := make(map[string]bool)
	for from := range conditionalEdges {
		isConditional[from] = true
	}

	return &CompiledPipeline[S]{
		stages:           stages,
		edges:            edges,
		conditionalEdges: conditionalEdges,
		entryPoint:       p.entryPoint,
		isConditional:    isConditional,
	}
}
