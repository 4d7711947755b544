package model

import (
	"slices"
	"time"
)

// JobState is the state of a bulk job.
type JobState string

const (
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateCancelled JobState = "cancelled"
)

// CompletedItem is an item that was processed successfully.
type CompletedItem struct {
	ID        string
	UndoPatch *UndoPatch
}

// FailedItem is an item whose processing failed.
type FailedItem struct {
	ID    string
	Error string
}

// JobProgress is the progress of one bulk job. Observers only receive copies.
//
// At any moment len(Completed)+len(Failed)+len(Processing) <= Total, and once the
// job is terminal len(Completed)+len(Failed) == Total.
type JobProgress struct {
	JobID          string
	OperationKind  OperationKind
	State          JobState
	Total          int
	CurrentBatch   int
	TotalBatches   int
	Completed      []CompletedItem
	Failed         []FailedItem
	Processing     []string
	StartedAt      time.Time
	EstimatedEndAt time.Time
	FinishedAt     time.Time
}

// Settled returns the number of items that finished processing, successfully or not.
func (j JobProgress) Settled() int {
	return len(j.Completed) + len(j.Failed)
}

// Percent returns the settled percentage (0-100).
func (j JobProgress) Percent() float64 {
	if j.Total == 0 {
		return 0
	}
	return float64(j.Settled()) / float64(j.Total) * 100
}

// IsTerminal returns true when the job will not change anymore.
func (j JobProgress) IsTerminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateCancelled
}

// Copy returns a deep copy of the progress.
func (j JobProgress) Copy() JobProgress {
	j.Completed = slices.Clone(j.Completed)
	for i, c := range j.Completed {
		if c.UndoPatch != nil {
			p := c.UndoPatch.Copy()
			j.Completed[i].UndoPatch = &p
		}
	}
	j.Failed = slices.Clone(j.Failed)
	j.Processing = slices.Clone(j.Processing)
	return j
}
