package errors

import "fmt"

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// JSONParseError indicates failure to parse JSON from model output.
type JSONParseError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *JSONParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Message)
}

// ValidationError indicates a validation failure in generated output,
// such as an item count that does not match the expected slide count.
type ValidationError struct {
	Stage    string
	Expected int
	Actual   int
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("validation error in %s: expected %d items, got %d",
		e.Stage, e.Expected, e.Actual)
}

// TimeoutError indicates an operation timed out.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}

// CountMismatch builds the standard validation error for stages whose
// output length must equal the planned slide count.
func CountMismatch(stage string, expected, actual int) *ValidationError {
	return &ValidationError{Stage: stage, Expected: expected, Actual: actual}
}
