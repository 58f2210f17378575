package deckflow

// CompiledPipeline is an immutable, executable pipeline.
// It is created by calling Compile() on a Pipeline builder.
//
// CompiledPipeline is thread-safe and can be used concurrently for multiple
// Run() calls. The structure cannot be modified after compilation.
type CompiledPipeline[S any] struct {
	stages           map[string]StageFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
	isConditional    map[string]bool
}

// EntryPoint returns the entry stage ID.
func (cp *CompiledPipeline[S]) EntryPoint() string {
	return cp.entryPoint
}

// StageIDs returns all stage identifiers in the pipeline.
// The order is not guaranteed.
func (cp *CompiledPipeline[S]) StageIDs() []string {
	ids := make([]string, 0, len(cp.stages))
	for id := range cp.stages {
		ids = append(ids, id)
	}
	return ids
}

// HasStage checks if a stage exists in the pipeline.
func (cp *CompiledPipeline[S]) HasStage(id string) bool {
	_, exists := cp.stages[id]
	return exists
}

// Successors returns the stage IDs reachable from the given stage
// via simple (non-conditional) edges.
// Returns nil for END or unknown stages.
// Does not include targets of conditional edges (those are runtime-determined).
func (cp *CompiledPipeline[S]) Successors(id string) []string {
	if id == END {
		return nil
	}
	return cp.edges[id]
}

// IsConditional returns true if the stage has a conditional edge.
func (cp *CompiledPipeline[S]) IsConditional(id string) bool {
	return cp.isConditional[id]
}

// getStage returns the stage function for the given ID.
// Used internally by the executor.
func (cp *CompiledPipeline[S]) getStage(id string) (StageFunc[S], bool) {
	fn, exists := cp.stages[id]
	return fn, exists
}

// getRouter returns the router function for the given stage.
// Used internally by the executor.
func (cp *CompiledPipeline[S]) getRouter(id string) (RouterFunc[S], bool) {
	router, exists := cp.conditionalEdges[id]
	return router, exists
}

// getEdges returns the simple edge targets for the given stage.
// Used internally by the executor.
func (cp *CompiledPipeline[S]) getEdges(id string) []string {
	return cp.edges[id]
}
