package metrics

import (
	"context"
	"time"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// Item results.
const (
	ItemResultSuccess = "success"
	ItemResultFailure = "failure"
)

// Undo results.
const (
	UndoResultSuccess = "success"
	UndoResultPartial = "partial"
	UndoResultNothing = "nothing"
)

// Recorder knows how to record the bulk engine metrics.
type Recorder interface {
	ObserveJob(ctx context.Context, kind model.OperationKind, state model.JobState, duration time.Duration)
	AddItems(ctx context.Context, kind model.OperationKind, result string, n int)
	IncUndo(ctx context.Context, result string)
}

// Noop is a recorder that doesn't record anything.
const Noop = noop(0)

type noop int

func (noop) ObserveJob(context.Context, model.OperationKind, model.JobState, time.Duration) {}
func (noop) AddItems(context.Context, model.OperationKind, string, int)                     {}
func (noop) IncUndo(context.Context, string)                                                 {}

var _ Recorder = Noop
