package lib

import (
	"errors"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantlist"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/bulk"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// Plant is a tracked plant.
type Plant = model.Plant

// PlantStatus is the lifecycle status of a plant.
type PlantStatus = model.PlantStatus

// PlantStage is the growth stage of a plant.
type PlantStage = model.PlantStage

// PlantFilter selects plants by their attributes, empty fields match everything.
type PlantFilter = plantlist.Filter

// OperationKind identifies a bulk operation.
type OperationKind = model.OperationKind

// OperationDescriptor describes a bulk operation of the catalog.
type OperationDescriptor = model.OperationDescriptor

// OperationInput is the input of a bulk operation.
type OperationInput = model.OperationInput

// JobProgress is the observable state of a bulk job.
type JobProgress = model.JobProgress

// JobState is the state of a bulk job.
type JobState = model.JobState

// HistoryEntry is the record of a finished bulk job.
type HistoryEntry = model.HistoryEntry

// ProgressHook receives a copy of the job progress on every change.
type ProgressHook = bulk.ProgressHook

// Plant statuses.
const (
	PlantStatusActive    = model.PlantStatusActive
	PlantStatusHarvested = model.PlantStatusHarvested
	PlantStatusCulled    = model.PlantStatusCulled
	PlantStatusArchived  = model.PlantStatusArchived
)

// Operation kinds of the built-in catalog.
const (
	OperationKindUpdateStatus  = model.OperationKindUpdateStatus
	OperationKindUpdateStage   = model.OperationKindUpdateStage
	OperationKindMoveLocation  = model.OperationKindMoveLocation
	OperationKindRecordMetrics = model.OperationKindRecordMetrics
	OperationKindAddNote       = model.OperationKindAddNote
	OperationKindHarvest       = model.OperationKindHarvest
	OperationKindClone         = model.OperationKindClone
	OperationKindDelete        = model.OperationKindDelete
)

// Job states.
const (
	JobStateRunning   = model.JobStateRunning
	JobStateCompleted = model.JobStateCompleted
	JobStateCancelled = model.JobStateCancelled
)

var (
	// ErrNotFound is returned when a plant or job doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when importing a plant that already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid arguments.
	ErrNotValid = errors.New("not valid")
	// ErrValidation is returned when a bulk run is rejected before starting.
	ErrValidation = errors.New("validation error")
	// ErrConcurrency is returned when a bulk job is already running.
	ErrConcurrency = errors.New("a bulk job is already running")
	// ErrNoUndoableOperation is returned when there is nothing to undo.
	ErrNoUndoableOperation = errors.New("no undoable operation")
	// ErrUndo is returned when an undo could only be partially applied. The undo can
	// be retried.
	ErrUndo = errors.New("undo error")
)

var errorMappings = []struct {
	internal error
	public   error
}{
	{model.ErrNotFound, ErrNotFound},
	{model.ErrAlreadyExists, ErrAlreadyExists},
	{model.ErrNotValid, ErrNotValid},
	{model.ErrValidation, ErrValidation},
	{model.ErrConcurrency, ErrConcurrency},
	{model.ErrNoUndoableOperation, ErrNoUndoableOperation},
	{model.ErrUndo, ErrUndo},
}

// mapError adds the public sentinel to internal errors keeping the original chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.internal) {
			return errors.Join(err, m.public)
		}
	}

	return err
}
