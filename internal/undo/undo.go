package undo

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/metrics"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// DefaultCapacity is the default number of history entries kept.
const DefaultCapacity = 10

// Error is returned when an undo could only be partially applied. The history
// entry is kept so the undo can be retried.
type Error struct {
	EntryID     string
	Restored    []string
	NotRestored map[string]error
}

func (e *Error) Error() string {
	ids := make([]string, 0, len(e.NotRestored))
	for id := range e.NotRestored {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	msgs := make([]string, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, fmt.Sprintf("%s: %s", id, e.NotRestored[id]))
	}

	return fmt.Sprintf("%s: %d entities of %s could not be restored: %s",
		model.ErrUndo, len(e.NotRestored), e.EntryID, strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() error { return model.ErrUndo }

// LogConfig is the configuration of the undo log.
type LogConfig struct {
	// Capacity is the max number of entries kept, by default DefaultCapacity.
	Capacity int
	// Repository persists the history, optional.
	Repository      storage.HistoryRepository
	MetricsRecorder metrics.Recorder
	Logger          log.Logger
}

func (c *LogConfig) defaults() error {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be positive")
	}

	if c.MetricsRecorder == nil {
		c.MetricsRecorder = metrics.Noop
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "undo.Log"})

	return nil
}

// Log is the bounded history of bulk jobs, newest first.
type Log struct {
	mu       sync.Mutex
	entries  []model.HistoryEntry
	capacity int
	repo     storage.HistoryRepository
	metrics  metrics.Recorder
	logger   log.Logger
}

// NewLog returns a new undo log.
func NewLog(cfg LogConfig) (*Log, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Log{
		capacity: cfg.Capacity,
		repo:     cfg.Repository,
		metrics:  cfg.MetricsRecorder,
		logger:   cfg.Logger,
	}, nil
}

// Load replaces the in memory history with the persisted one.
func (l *Log) Load(ctx context.Context) error {
	if l.repo == nil {
		return nil
	}

	entries, err := l.repo.ListHistory(ctx)
	if err != nil {
		return fmt.Errorf("could not load history: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(entries) > l.capacity {
		entries = entries[:l.capacity]
	}
	l.entries = entries
	l.logger.Debugf("Loaded %d history entries", len(entries))

	return nil
}

// Push adds an entry to the front of the history dropping the oldest when the
// capacity is exceeded. Persistence errors are logged, the entry is kept in memory.
func (l *Log) Push(ctx context.Context, entry model.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = slices.Insert(l.entries, 0, entry.Copy())
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}

	l.persist(ctx)
}

// Peek returns the most recent entry.
func (l *Log) Peek() (model.HistoryEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return model.HistoryEntry{}, false
	}
	return l.entries[0].Copy(), true
}

// List returns all the entries, newest first.
func (l *Log) List() []model.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.HistoryEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Copy())
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// PopAndApply reverts the most recent entry applying its undo patches to the store.
// On success the entry is removed and returned. If some entities can't be restored
// an *Error is returned and the entry is kept, a retry skips the entities already
// restored.
func (l *Log) PopAndApply(ctx context.Context, store storage.PlantRepository) (*model.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 || !l.entries[0].CanUndo() {
		l.metrics.IncUndo(ctx, metrics.UndoResultNothing)
		return nil, model.ErrNoUndoableOperation
	}

	entry := &l.entries[0]
	restored := make(map[string]bool, len(entry.Restored))
	for _, id := range entry.Restored {
		restored[id] = true
	}

	notRestored := map[string]error{}
	for _, p := range entry.UndoPatches {
		if restored[p.EntityID] {
			continue
		}

		if err := apply(ctx, store, p); err != nil {
			l.logger.Warningf("Could not restore %s: %s", p.EntityID, err)
			notRestored[p.EntityID] = err
			continue
		}

		restored[p.EntityID] = true
		entry.Restored = append(entry.Restored, p.EntityID)
	}

	if len(notRestored) > 0 {
		l.persist(ctx)
		l.metrics.IncUndo(ctx, metrics.UndoResultPartial)
		return nil, &Error{
			EntryID:     entry.ID,
			Restored:    slices.Clone(entry.Restored),
			NotRestored: notRestored,
		}
	}

	undone := entry.Copy()
	l.entries = slices.Delete(l.entries, 0, 1)
	l.persist(ctx)
	l.metrics.IncUndo(ctx, metrics.UndoResultSuccess)
	l.logger.Infof("Undone %s on %d entities", undone.OperationKind, len(undone.UndoPatches))

	return &undone, nil
}

func apply(ctx context.Context, store storage.PlantRepository, p model.EntityUndoPatch) error {
	if err := p.Patch.Validate(); err != nil {
		return err
	}

	if p.Patch.IsSnapshot() {
		return store.CreatePlant(ctx, *p.Patch.FullSnapshot)
	}

	return store.UpdatePlant(ctx, p.EntityID, model.Patch{p.Patch.Field: p.Patch.OldValue})
}

// persist must be called with the lock held.
func (l *Log) persist(ctx context.Context) {
	if l.repo == nil {
		return
	}

	if err := l.repo.ReplaceHistory(ctx, l.entries); err != nil {
		l.logger.Errorf("Could not persist history: %s", err)
	}
}
