package model

import "fmt"

// InvalidIdentifierError reports an identifying name that cannot be turned
// into a tag.
type InvalidIdentifierError struct {
	Name   string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Name, e.Reason)
}

// UnrecognizedOperationError reports an explicit operation field outside the
// intent enum. Ambiguous free text never produces this; it falls back to
// raw_query instead.
type UnrecognizedOperationError struct {
	Operation string
}

func (e *UnrecognizedOperationError) Error() string {
	return fmt.Sprintf("unrecognized operation %q", e.Operation)
}

// ValidationError reports a hard field that failed its constraint. Field
// names the offender so the presentation layer can render field-specific
// guidance.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MissingParameterError reports a required payload parameter absent for the
// selected intent.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Parameter)
}

// MalformedResultError reports a backend payload missing a field the
// formatter needs for the given intent. Surfaced rather than defaulted: a
// wrong statistic is worse than a visible error.
type MalformedResultError struct {
	Intent  Intent
	Tag     string
	Missing string
}

func (e *MalformedResultError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("malformed %s result: %s missing %q", e.Intent, e.Tag, e.Missing)
	}
	return fmt.Sprintf("malformed %s result: missing %q", e.Intent, e.Missing)
}

// BackendUnavailableError wraps a failed backend call. The core assumes no
// partial application: if a store fails, none of its fields are considered
// applied.
type BackendUnavailableError struct {
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable: %v", e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }
