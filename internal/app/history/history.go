package history

import (
	"context"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// History lists the job history, newest first.
type History interface {
	List() []model.HistoryEntry
}

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	History History
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.History == nil {
		return fmt.Errorf("history is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists the bulk job history.
type Service struct {
	history History
	logger  log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		history: cfg.History,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	// Limit is the max number of entries returned, 0 returns all.
	Limit int
	// UndoableOnly only returns the entries that can be undone.
	UndoableOnly bool
}

// Run returns the history entries, newest first.
func (s *Service) Run(_ context.Context, req Request) ([]model.HistoryEntry, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	entries := s.history.List()
	out := make([]model.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if req.UndoableOnly && !e.CanUndo() {
			continue
		}
		out = append(out, e)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}

	return out, nil
}
