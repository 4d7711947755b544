package bulk

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/catalog"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/metrics"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/operation"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

const (
	// DefaultThrottleDelay is the default pause between batches.
	DefaultThrottleDelay = 100 * time.Millisecond

	// ErrMsgCancelled is the failure recorded for the items that were never dispatched
	// because the job was cancelled.
	ErrMsgCancelled = "job cancelled before item was dispatched"
)

// HistoryPusher receives the history entry of every finished job.
type HistoryPusher interface {
	Push(ctx context.Context, entry model.HistoryEntry)
}

// ProgressHook is called with a copy of the job progress after every change. Calls
// are serialized.
type ProgressHook func(model.JobProgress)

// ExecutorConfig is the configuration of the executor.
type ExecutorConfig struct {
	// Catalog is the operation catalog, by default catalog.Default().
	Catalog *catalog.Catalog
	// Effects are the operation effects, by default operation.DefaultTable().
	Effects operation.Table
	Store   storage.PlantRepository
	History HistoryPusher
	// JobRepository journals the jobs, optional.
	JobRepository storage.JobRepository
	// ThrottleDelay is the pause between batches, by default DefaultThrottleDelay.
	ThrottleDelay time.Duration
	// GracePeriod is the time the job slot is kept after a job finishes, 0 releases it
	// right away.
	GracePeriod     time.Duration
	Clock           clockwork.Clock
	ProgressHook    ProgressHook
	MetricsRecorder metrics.Recorder
	Logger          log.Logger
	IDGenerator     func() string
}

func (c *ExecutorConfig) defaults() error {
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}

	if c.Effects == nil {
		c.Effects = operation.DefaultTable()
	}

	if c.Store == nil {
		return fmt.Errorf("store is required")
	}

	if c.History == nil {
		return fmt.Errorf("history is required")
	}

	if c.ThrottleDelay == 0 {
		c.ThrottleDelay = DefaultThrottleDelay
	}
	if c.ThrottleDelay < 0 {
		return fmt.Errorf("throttle delay can't be negative")
	}

	if c.GracePeriod < 0 {
		return fmt.Errorf("grace period can't be negative")
	}

	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}

	if c.MetricsRecorder == nil {
		c.MetricsRecorder = metrics.Noop
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "bulk.Executor"})

	if c.IDGenerator == nil {
		c.IDGenerator = func() string { return ulid.Make().String() }
	}

	return nil
}

// Executor runs bulk operations over plant selections in sequential batches of
// concurrent items. Only one job runs at a time on the same executor.
type Executor struct {
	catalog  *catalog.Catalog
	effects  operation.Table
	store    storage.PlantRepository
	history  HistoryPusher
	jobRepo  storage.JobRepository
	throttle time.Duration
	grace    time.Duration
	clock    clockwork.Clock
	hook     ProgressHook
	metrics  metrics.Recorder
	logger   log.Logger
	newID    func() string

	// mu guards the job slot and the progress.
	mu       sync.Mutex
	busy     bool
	progress *model.JobProgress
	// hookMu serializes the progress changes with their hook calls.
	hookMu sync.Mutex
}

// NewExecutor returns a new executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if missing := cfg.Effects.Missing(cfg.Catalog.Kinds()); len(missing) > 0 {
		return nil, fmt.Errorf("operations without effect %v: %w", missing, model.ErrConfiguration)
	}

	return &Executor{
		catalog:  cfg.Catalog,
		effects:  cfg.Effects,
		store:    cfg.Store,
		history:  cfg.History,
		jobRepo:  cfg.JobRepository,
		throttle: cfg.ThrottleDelay,
		grace:    cfg.GracePeriod,
		clock:    cfg.Clock,
		hook:     cfg.ProgressHook,
		metrics:  cfg.MetricsRecorder,
		logger:   cfg.Logger,
		newID:    cfg.IDGenerator,
	}, nil
}

// Request is a bulk run request.
type Request struct {
	Kind  model.OperationKind
	Input model.OperationInput
	// Selection are the plant IDs, duplicates are ignored.
	Selection []string
}

// Job is the result of a finished bulk job.
type Job struct {
	Entry model.HistoryEntry
	// Progress is the terminal progress of this job.
	Progress model.JobProgress
}

// Run executes the operation over the selection and returns the history entry of
// the job. Item failures are recorded on the job, only precondition errors are
// returned. Cancelling the context stops starting new batches, the items of the
// running batch always settle.
func (e *Executor) Run(ctx context.Context, req Request) (*model.HistoryEntry, error) {
	job, err := e.RunJob(ctx, req)
	if err != nil {
		return nil, err
	}
	return &job.Entry, nil
}

// RunJob is like Run but also returns the terminal progress of the job, taken
// before the job slot is released.
func (e *Executor) RunJob(ctx context.Context, req Request) (*Job, error) {
	ids := unique(req.Selection)
	if len(ids) == 0 {
		return nil, fmt.Errorf("selection is empty: %w", model.ErrValidation)
	}

	desc, err := e.catalog.Get(req.Kind)
	if err != nil {
		return nil, err
	}

	if err := e.catalog.ValidateInput(req.Kind, req.Input); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !e.acquire() {
		return nil, model.ErrConcurrency
	}

	return e.run(ctx, desc, req.Input.Copy(), ids), nil
}

// Progress returns a copy of the progress of the running job or the last one.
func (e *Executor) Progress() (model.JobProgress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.progress == nil {
		return model.JobProgress{}, false
	}
	return e.progress.Copy(), true
}

// Busy returns true while the job slot is taken.
func (e *Executor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.busy
}

func (e *Executor) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy {
		return false
	}
	e.busy = true
	return true
}

func (e *Executor) release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.busy = false
}

func (e *Executor) run(ctx context.Context, desc model.OperationDescriptor, input model.OperationInput, ids []string) *Job {
	// Store calls are never cancelled, the in flight items must settle.
	storeCtx := context.WithoutCancel(ctx)

	total := len(ids)
	batches := (total + desc.BatchSize - 1) / desc.BatchSize
	startedAt := e.clock.Now().UTC()
	jobID := e.newID()
	logger := e.logger.WithValues(log.Kv{"job": jobID, "operation": desc.Kind})

	e.update(func(p *model.JobProgress) {
		*p = model.JobProgress{
			JobID:          jobID,
			OperationKind:  desc.Kind,
			State:          model.JobStateRunning,
			Total:          total,
			TotalBatches:   batches,
			StartedAt:      startedAt,
			EstimatedEndAt: startedAt.Add(time.Duration(total) * desc.EstimatedCost),
		}
	})
	e.saveJob(storeCtx, logger)
	logger.Infof("Bulk job started on %d plants in %d batches", total, batches)

	env := operation.Env{
		Store: e.store,
		Now:   e.clock.Now,
		NewID: e.newID,
	}

	cancelled := false
	for i := 0; i < batches; i++ {
		if i > 0 && !e.wait(ctx) {
			cancelled = true
		}
		if ctx.Err() != nil {
			cancelled = true
		}

		start := i * desc.BatchSize
		if cancelled {
			rest := ids[start:]
			e.update(func(p *model.JobProgress) {
				for _, id := range rest {
					p.Failed = append(p.Failed, model.FailedItem{ID: id, Error: ErrMsgCancelled})
				}
			})
			logger.Warningf("Bulk job cancelled before batch %d/%d, %d plants not processed", i+1, batches, len(rest))
			break
		}

		batch := ids[start:min(start+desc.BatchSize, total)]
		e.update(func(p *model.JobProgress) {
			p.CurrentBatch = i + 1
			p.Processing = append(p.Processing, batch...)
		})
		logger.Debugf("Running batch %d/%d with %d plants", i+1, batches, len(batch))

		var g errgroup.Group
		g.SetLimit(desc.BatchSize)
		for _, id := range batch {
			g.Go(func() error {
				patch, err := e.process(storeCtx, env, desc, input, id)
				if err != nil {
					logger.Warningf("Plant %s failed: %s", id, err)
				}
				e.settle(id, desc, patch, err)
				return nil
			})
		}
		_ = g.Wait()
	}

	finishedAt := e.clock.Now().UTC()
	state := model.JobStateCompleted
	if cancelled {
		state = model.JobStateCancelled
	}

	// The history is pushed before the terminal state is visible.
	progress, _ := e.Progress()
	entry := historyEntry(e.newID(), progress, desc, input, finishedAt)
	e.history.Push(storeCtx, entry)

	e.update(func(p *model.JobProgress) {
		p.State = state
		p.FinishedAt = finishedAt
	})
	e.saveJob(storeCtx, logger)
	final, _ := e.Progress()

	e.metrics.ObserveJob(storeCtx, desc.Kind, state, finishedAt.Sub(startedAt))
	e.metrics.AddItems(storeCtx, desc.Kind, metrics.ItemResultSuccess, entry.SuccessCount)
	e.metrics.AddItems(storeCtx, desc.Kind, metrics.ItemResultFailure, entry.FailureCount)
	logger.Infof("Bulk job %s: %d succeeded, %d failed", state, entry.SuccessCount, entry.FailureCount)

	if e.grace == 0 {
		e.release()
	} else {
		e.clock.AfterFunc(e.grace, e.release)
	}

	return &Job{Entry: entry, Progress: final}
}

// wait blocks the throttle delay, it returns false if the context is done before.
func (e *Executor) wait(ctx context.Context) bool {
	timer := e.clock.NewTimer(e.throttle)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Executor) process(ctx context.Context, env operation.Env, desc model.OperationDescriptor, input model.OperationInput, id string) (patch *model.UndoPatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			patch = nil
			err = fmt.Errorf("panic processing plant: %v", r)
		}
	}()

	plant, err := e.store.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}

	return e.effects.Apply(ctx, env, desc.Kind, *plant, input)
}

func (e *Executor) settle(id string, desc model.OperationDescriptor, patch *model.UndoPatch, err error) {
	e.update(func(p *model.JobProgress) {
		if i := slices.Index(p.Processing, id); i >= 0 {
			p.Processing = slices.Delete(p.Processing, i, i+1)
		}

		if err != nil {
			p.Failed = append(p.Failed, model.FailedItem{ID: id, Error: err.Error()})
			return
		}

		item := model.CompletedItem{ID: id}
		if desc.Undoable && patch != nil {
			item.UndoPatch = patch
		}
		p.Completed = append(p.Completed, item)
	})
}

// update mutates the progress and notifies the hook with a copy.
func (e *Executor) update(fn func(p *model.JobProgress)) {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()

	e.mu.Lock()
	if e.progress == nil {
		e.progress = &model.JobProgress{}
	}
	fn(e.progress)
	snapshot := e.progress.Copy()
	e.mu.Unlock()

	if e.hook != nil {
		e.hook(snapshot)
	}
}

func (e *Executor) saveJob(ctx context.Context, logger log.Logger) {
	if e.jobRepo == nil {
		return
	}

	progress, _ := e.Progress()
	if err := e.jobRepo.SaveJob(ctx, progress); err != nil {
		logger.Errorf("Could not save job: %s", err)
	}
}

func historyEntry(id string, p model.JobProgress, desc model.OperationDescriptor, input model.OperationInput, at time.Time) model.HistoryEntry {
	entry := model.HistoryEntry{
		ID:            id,
		JobID:         p.JobID,
		OperationKind: desc.Kind,
		Timestamp:     at,
		ItemCount:     p.Total,
		SuccessCount:  len(p.Completed),
		FailureCount:  len(p.Failed),
		Input:         input.Copy(),
		Undoable:      desc.Undoable,
	}

	if desc.Undoable {
		for _, c := range p.Completed {
			if c.UndoPatch == nil {
				continue
			}
			entry.UndoPatches = append(entry.UndoPatches, model.EntityUndoPatch{EntityID: c.ID, Patch: c.UndoPatch.Copy()})
		}
	}

	return entry
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
