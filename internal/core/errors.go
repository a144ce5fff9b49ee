package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a field list names an identifier
	// that is not in the registry or not allowed for the operation.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidFieldSpec is returned for field lists with duplicates or
	// without the fields an import needs.
	ErrInvalidFieldSpec = errors.New("invalid field list")

	// ErrEntityExists is returned by Store.CreateEntity when another writer
	// created the same natural key first.
	ErrEntityExists = errors.New("entity already exists")

	// ErrEmptyName guards the resolver; empty names are a validation failure.
	ErrEmptyName = errors.New("entity name is empty")

	// ErrQueueFull is returned when the deferred import queue has no room.
	ErrQueueFull = errors.New("import queue is full")

	// ErrRunnerClosed is returned for submissions after shutdown started.
	ErrRunnerClosed = errors.New("import runner is shutting down")

	// ErrJobNotFound is returned for unknown or expired job IDs.
	ErrJobNotFound = errors.New("import job not found")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// PipelineFatalError means the file could not be read, so no row was
// attempted. It is the only error that escapes an import.
type PipelineFatalError struct {
	FileName string
	Err      error
}

func (e *PipelineFatalError) Error() string {
	if e.FileName == "" {
		return fmt.Sprintf("cannot import file: %v", e.Err)
	}
	return fmt.Sprintf("cannot import %q: %v", e.FileName, e.Err)
}

func (e *PipelineFatalError) Unwrap() error {
	return e.Err
}

// ResolutionError is an infrastructure failure while looking up or creating
// a category or supplier. It becomes a row rejection.
type ResolutionError struct {
	Kind EntityKind
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failure saving the material itself. It becomes a
// row rejection.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save material: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
