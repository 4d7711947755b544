package undo

import (
	"context"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

// History is the undoable job history.
type History interface {
	Peek() (model.HistoryEntry, bool)
	PopAndApply(ctx context.Context, store storage.PlantRepository) (*model.HistoryEntry, error)
}

var _ History = &undo.Log{}

// ServiceConfig is the configuration for the undo service.
type ServiceConfig struct {
	History    History
	Repository storage.PlantRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.History == nil {
		return fmt.Errorf("history is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "undo.Service"})

	return nil
}

// Service reverts the most recent bulk job.
type Service struct {
	history History
	repo    storage.PlantRepository
	logger  log.Logger
}

// NewService creates a new undo service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		history: cfg.History,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the undo request parameters.
type Request struct {
	// DryRun returns the entry that would be undone without applying it.
	DryRun bool
}

// Run undoes the most recent history entry and returns it. A partial undo returns an
// *undo.Error and keeps the entry so the undo can be retried.
func (s *Service) Run(ctx context.Context, req Request) (*model.HistoryEntry, error) {
	if req.DryRun {
		entry, ok := s.history.Peek()
		if !ok || !entry.CanUndo() {
			return nil, model.ErrNoUndoableOperation
		}
		return &entry, nil
	}

	entry, err := s.history.PopAndApply(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Undone job %s (%s) on %d plants", entry.JobID, entry.OperationKind, len(entry.UndoPatches))
	return entry, nil
}
