package core

import (
	"errors"
	"fmt"
)

// Error kinds returned by a conversion run. Every one of them is fatal to the
// run that produced it; use errors.Is to classify.
var (
	// ErrInvalidSourceHeader is returned when the observed source header does
	// not match the expected header, or a name mapping references a field the
	// header does not contain.
	ErrInvalidSourceHeader = errors.New("invalid source header")

	// ErrInvalidSourceRow is returned when a data row has the wrong width or a
	// mapper reads past the end of a row.
	ErrInvalidSourceRow = errors.New("invalid source row")

	// ErrMapping is returned when a target field cannot be resolved.
	ErrMapping = errors.New("mapping failed")

	// ErrConfiguration is returned for invalid converter setup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrStream is returned when the row source or target fails.
	ErrStream = errors.New("stream error")

	// ErrHook is returned when a lifecycle hook returns an error.
	ErrHook = errors.New("hook failed")

	// ErrAlreadyRun is returned when a converter is used for a second run.
	ErrAlreadyRun = fmt.Errorf("%w: converter already used", ErrConfiguration)

	// ErrFieldNotFound is returned when a name mapping references a field the
	// source header does not contain. It matches both ErrMapping and
	// ErrInvalidSourceHeader.
	ErrFieldNotFound = fmt.Errorf("%w: %w: source field not found", ErrMapping, ErrInvalidSourceHeader)

	// ErrUnknownDefinition is returned for a mapping name that is not registered.
	ErrUnknownDefinition = errors.New("unknown mapping")

	// ErrRunNotFound is returned when a run id has no history entry.
	ErrRunNotFound = errors.New("run not found")
)

// RowError attaches the row ordinal (rows processed so far, header included)
// and, when known, the target field to a row-scoped failure.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: field %q: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
