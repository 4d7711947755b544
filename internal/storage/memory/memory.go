package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
	// TimeNow is used to set the update timestamps, by default time.Now.
	TimeNow func() time.Time
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	return nil
}

// Repository is an in-memory implementation of the storage repositories.
type Repository struct {
	plants  map[string]model.Plant
	logs    map[string][]model.LogEntry
	history []model.HistoryEntry
	jobs    map[string]model.JobProgress
	mu      sync.RWMutex
	logger  log.Logger
	timeNow func() time.Time
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		plants:  make(map[string]model.Plant),
		logs:    make(map[string][]model.LogEntry),
		jobs:    make(map[string]model.JobProgress),
		logger:  cfg.Logger,
		timeNow: cfg.TimeNow,
	}, nil
}

// CreatePlant creates a new plant in the repository.
func (r *Repository) CreatePlant(ctx context.Context, p model.Plant) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid plant: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plants[p.ID]; ok {
		return fmt.Errorf("plant with id %s: %w", p.ID, model.ErrAlreadyExists)
	}

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	r.plants[p.ID] = p
	r.logger.Debugf("Created plant in repository: %s", p.ID)

	return nil
}

// GetPlant retrieves a plant by ID.
func (r *Repository) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plant, ok := r.plants[id]
	if !ok {
		return nil, fmt.Errorf("plant %s: %w", id, model.ErrNotFound)
	}

	// Return a copy
	plantCopy := plant
	return &plantCopy, nil
}

// ListPlants returns all plants sorted by creation time, newest first.
func (r *Repository) ListPlants(ctx context.Context) ([]model.Plant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plants := make([]model.Plant, 0, len(r.plants))
	for _, plant := range r.plants {
		plants = append(plants, plant)
	}

	sort.SliceStable(plants, func(i, j int) bool {
		if plants[i].CreatedAt.Equal(plants[j].CreatedAt) {
			return plants[i].ID < plants[j].ID
		}
		return plants[i].CreatedAt.After(plants[j].CreatedAt)
	})

	return plants, nil
}

// UpdatePlant applies a partial update to an existing plant.
func (r *Repository) UpdatePlant(ctx context.Context, id string, patch model.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plant, ok := r.plants[id]
	if !ok {
		return fmt.Errorf("plant %s: %w", id, model.ErrNotFound)
	}

	updated, err := plant.Apply(patch)
	if err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	updated.UpdatedAt = r.timeNow().UTC()

	r.plants[id] = updated
	r.logger.Debugf("Updated plant in repository: %s", id)

	return nil
}

// DeletePlant deletes a plant. The plant logs are kept so a re-created plant recovers them.
func (r *Repository) DeletePlant(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plants[id]; !ok {
		return fmt.Errorf("plant %s: %w", id, model.ErrNotFound)
	}

	delete(r.plants, id)
	r.logger.Debugf("Deleted plant from repository: %s", id)

	return nil
}

// AppendLog appends an entry to one of the sub-logs of a plant.
func (r *Repository) AppendLog(ctx context.Context, plantID string, collection model.LogCollection, entry model.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plants[plantID]; !ok {
		return fmt.Errorf("plant %s: %w", plantID, model.ErrNotFound)
	}

	entry = entry.Copy()
	entry.PlantID = plantID
	entry.Collection = collection
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.timeNow().UTC()
	}

	r.logs[plantID] = append(r.logs[plantID], entry)
	r.logger.Debugf("Appended %s log entry to plant: %s", collection, plantID)

	return nil
}

// ListLogs returns the entries of a plant sub-log in append order.
func (r *Repository) ListLogs(ctx context.Context, plantID string, collection model.LogCollection) ([]model.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []model.LogEntry
	for _, e := range r.logs[plantID] {
		if e.Collection == collection {
			entries = append(entries, e.Copy())
		}
	}

	return entries, nil
}

// ReplaceHistory stores the full bulk job history.
func (r *Repository) ReplaceHistory(ctx context.Context, entries []model.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := make([]model.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.Copy())
	}
	r.history = history

	return nil
}

// ListHistory returns the stored bulk job history, newest first.
func (r *Repository) ListHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := make([]model.HistoryEntry, 0, len(r.history))
	for _, e := range r.history {
		history = append(history, e.Copy())
	}

	return history, nil
}

// SaveJob stores the progress of a job, replacing any previous version.
func (r *Repository) SaveJob(ctx context.Context, job model.JobProgress) error {
	if job.JobID == "" {
		return fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.JobID] = job.Copy()
	return nil
}

// GetJob retrieves a job by ID.
func (r *Repository) GetJob(ctx context.Context, id string) (*model.JobProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}

	jobCopy := job.Copy()
	return &jobCopy, nil
}

// LatestJob returns the most recently started job.
func (r *Repository) LatestJob(ctx context.Context) (*model.JobProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.jobs) == 0 {
		return nil, fmt.Errorf("job: %w", model.ErrNotFound)
	}

	jobs := make([]model.JobProgress, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	latest := slices.MaxFunc(jobs, func(a, b model.JobProgress) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.JobID, b.JobID)
	})

	jobCopy := latest.Copy()
	return &jobCopy, nil
}
