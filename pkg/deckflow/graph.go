package deckflow

import (
	"fmt"
	"strings"
	"sync"
)

// Pipeline accumulates stages and edges before compilation. Build it on
// one goroutine, then Compile into an immutable CompiledPipeline that
// may be shared freely.
//
// A minimal two-stage pipeline:
//
//	p := deckflow.NewPipeline[DeckState]().
//	    AddStage("outline", outlineStage).
//	    AddStage("content", contentStage).
//	    AddEdge("outline", "content").
//	    AddEdge("content", deckflow.END).
//	    SetEntry("outline")
//
//	compiled, err := p.Compile()
type Pipeline[S any] struct {
	mu               sync.RWMutex
	stages           map[string]StageFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
}

// NewPipeline returns an empty builder whose stages operate on state
// type S.
func NewPipeline[S any]() *Pipeline[S] {
	return &Pipeline[S]{
		stages:           make(map[string]StageFunc[S]),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string]RouterFunc[S]),
	}
}

// AddStage registers fn under the given id and returns the pipeline for
// chaining. Stage ids must be unique, non-empty, free of whitespace,
// and must not collide with the END sentinel. Violations are programmer
// errors and panic rather than surfacing at Compile time.
func (p *Pipeline[S]) AddStage(id string, fn StageFunc[S]) *Pipeline[S] {
	switch {
	case id == "":
		panic("deckflow: empty stage ID")
	case strings.EqualFold(id, "end") || strings.EqualFold(id, "__end__"):
		panic(fmt.Sprintf("deckflow: stage ID %q collides with the END sentinel", id))
	case strings.ContainsAny(id, " \t\n\r"):
		panic(fmt.Sprintf("deckflow: stage ID %q contains whitespace", id))
	case fn == nil:
		panic(fmt.Sprintf("deckflow: nil StageFunc for stage %q", id))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.stages[id]; exists {
		panic(fmt.Sprintf("deckflow: stage %q registered twice", id))
	}

	p.stages[id] = fn
	return p
}

// AddEdge records an unconditional edge from one stage to another. The
// target may be a stage ID or deckflow.END. Endpoints are checked at
// Compile, not here, so edges may reference stages added later.
func (p *Pipeline[S]) AddEdge(from, to string) *Pipeline[S] {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.edges[from] = append(p.edges[from], to)
	return p
}

// AddConditionalEdge attaches a router to a stage. After the stage
// runs, the router inspects the resulting state and names the next
// stage (or deckflow.END). An unknown or empty return is a runtime
// error during execution.
//
// A conditional edge overrides any plain edges on the same stage.
func (p *Pipeline[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Pipeline[S] {
	if router == nil {
		panic(fmt.Sprintf("deckflow: nil RouterFunc for stage %q", from))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.conditionalEdges[from] = router
	return p
}

// SetEntry names the stage execution starts from. Compile rejects a
// pipeline whose entry point is unset or unknown.
func (p *Pipeline[S]) SetEntry(id string) *Pipeline[S] {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entryPoint = id
	return p
}
