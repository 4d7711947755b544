package model

import (
	"maps"
	"slices"
	"time"
)

// OperationKind identifies a bulk operation.
type OperationKind string

const (
	OperationKindUpdateStatus  OperationKind = "update_status"
	OperationKindUpdateStage   OperationKind = "update_stage"
	OperationKindMoveLocation  OperationKind = "move_location"
	OperationKindRecordMetrics OperationKind = "record_metrics"
	OperationKindAddNote       OperationKind = "add_note"
	OperationKindHarvest       OperationKind = "harvest"
	OperationKindClone         OperationKind = "clone"
	OperationKindDelete        OperationKind = "delete"
)

// InputShape describes what the validated input of an operation looks like.
type InputShape string

const (
	InputShapeNone     InputShape = "none"
	InputShapeSelector InputShape = "selector"
	InputShapeText     InputShape = "text"
	InputShapeMetrics  InputShape = "metrics"
	InputShapeCount    InputShape = "count"
)

// OperationDescriptor is the immutable contract of one operation kind.
type OperationDescriptor struct {
	Kind OperationKind
	Name string
	// BatchSize is the max number of items processed concurrently in a wave.
	BatchSize int
	// EstimatedCost is the per item time estimate, only used for ETA display.
	EstimatedCost time.Duration
	RequiresInput bool
	InputShape    InputShape
	// Options are the allowed values for selector inputs.
	Options []string
	// Undoable operations produce an undo patch for each successful item.
	Undoable bool
	// Destructive is advisory, callers decide if they want confirmation.
	Destructive bool
}

// Copy returns a deep copy of the descriptor.
func (d OperationDescriptor) Copy() OperationDescriptor {
	d.Options = slices.Clone(d.Options)
	return d
}

// OperationInput is the input data of a bulk run. Which part is used depends on the
// input shape of the operation.
type OperationInput struct {
	// Value is used by selector and text shapes.
	Value string
	// Metrics is used by metrics shapes.
	Metrics map[string]float64
	// Count is used by count shapes.
	Count int
}

// IsZero returns true if no input has been set.
func (i OperationInput) IsZero() bool {
	return i.Value == "" && len(i.Metrics) == 0 && i.Count == 0
}

// Copy returns a deep copy of the input.
func (i OperationInput) Copy() OperationInput {
	i.Metrics = maps.Clone(i.Metrics)
	return i
}
