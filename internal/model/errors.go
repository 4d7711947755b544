package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrConfiguration is returned when an operation kind is unknown or its descriptor is malformed.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation is returned when the input of a bulk run is missing or invalid.
	ErrValidation = errors.New("validation error")
	// ErrConcurrency is returned when a bulk run is started while another one is active.
	ErrConcurrency = errors.New("a bulk job is already running")
	// ErrNoUndoableOperation is returned when there is nothing that can be undone.
	ErrNoUndoableOperation = errors.New("no undoable operation")
	// ErrUndo is returned when an undo could only be partially applied.
	ErrUndo = errors.New("undo error")
)
