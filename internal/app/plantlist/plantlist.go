package plantlist

import (
	"context"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// ServiceConfig is the configuration for the plant list service.
type ServiceConfig struct {
	Repository storage.PlantRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "plantlist.Service"})

	return nil
}

// Service lists plants with optional filtering.
type Service struct {
	repo   storage.PlantRepository
	logger log.Logger
}

// NewService creates a new plant list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Filter is the plant filter, zero values match everything.
type Filter struct {
	Status   model.PlantStatus
	Stage    model.PlantStage
	Location string
	Strain   string
}

// Match returns true if the plant matches all the set filter fields.
func (f Filter) Match(p model.Plant) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Stage != "" && p.Stage != f.Stage {
		return false
	}
	if f.Location != "" && p.Location != f.Location {
		return false
	}
	if f.Strain != "" && p.Strain != f.Strain {
		return false
	}
	return true
}

// IsZero returns true when the filter matches everything.
func (f Filter) IsZero() bool { return f == Filter{} }

// Request represents the plant list request parameters.
type Request struct {
	Filter Filter
}

// Run lists all plants, newest first, optionally filtered.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Plant, error) {
	plants, err := s.repo.ListPlants(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list plants: %w", err)
	}

	if req.Filter.IsZero() {
		return plants, nil
	}

	filtered := make([]model.Plant, 0, len(plants))
	for _, p := range plants {
		if req.Filter.Match(p) {
			filtered = append(filtered, p)
		}
	}

	s.logger.Debugf("%d of %d plants match the filter", len(filtered), len(plants))
	return filtered, nil
}
