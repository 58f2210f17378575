package deckflow

import (
	"context"
)

// Test state types used across tests

// Counter is a simple state for testing incrementing.
type Counter struct {
	Value int
}

// TestState is a more complex state for testing various scenarios.
type TestState struct {
	Step     int
	Trace    []string
	Initial  string
	Done     bool
	GoLeft   bool
	Pending  int
	Progress int
}

// Helper stage functions

// increment is a stage that increments the counter.
func increment(ctx Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

// makeTrackingStage creates a stage that records its execution.
func makeTrackingStage(name string, tracker *[]string) StageFunc[TestState] {
	return func(ctx Context, s TestState) (TestState, error) {
		*tracker = append(*tracker, name)
		s.Trace = append(s.Trace, name)
		return s, nil
	}
}

// makeFailingStage creates a stage that returns the given error.
func makeFailingStage(err error) StageFunc[TestState] {
	return func(ctx Context, s TestState) (TestState, error) {
		return s, err
	}
}

// makePanicStage creates a stage that panics with the given value.
func makePanicStage(value any) StageFunc[TestState] {
	return func(ctx Context, s TestState) (TestState, error) {
		panic(value)
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
