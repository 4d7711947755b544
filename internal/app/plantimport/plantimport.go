package plantimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// PlantLoader loads the plants to import from a source path.
type PlantLoader interface {
	GetPlants(ctx context.Context, path string) ([]model.Plant, error)
}

// ServiceConfig is the configuration for the plant import service.
type ServiceConfig struct {
	Loader      PlantLoader
	Repository  storage.PlantRepository
	TimeNow     func() time.Time
	IDGenerator func() string
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Loader == nil {
		return fmt.Errorf("loader is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	if c.IDGenerator == nil {
		c.IDGenerator = func() string { return ulid.Make().String() }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "plantimport.Service"})

	return nil
}

// Service imports plant records into the store.
type Service struct {
	loader  PlantLoader
	repo    storage.PlantRepository
	timeNow func() time.Time
	newID   func() string
	logger  log.Logger
}

// NewService creates a new plant import service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		loader:  cfg.Loader,
		repo:    cfg.Repository,
		timeNow: cfg.TimeNow,
		newID:   cfg.IDGenerator,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the plant import request parameters.
type Request struct {
	Path string
	// SkipExisting ignores the plants whose ID is already on the store instead of failing.
	SkipExisting bool
}

// Result is the result of an import.
type Result struct {
	Imported []model.Plant
	Skipped  []string
}

// Run loads the plants from the request path and creates them. Plants without ID get
// a new one. The import stops on the first error, the plants already created are kept.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path is required: %w", model.ErrNotValid)
	}

	plants, err := s.loader.GetPlants(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("could not load plants: %w", err)
	}

	now := s.timeNow().UTC()
	res := &Result{Imported: []model.Plant{}, Skipped: []string{}}
	for _, p := range plants {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}

		err := s.repo.CreatePlant(ctx, p)
		if err != nil {
			if req.SkipExisting && errors.Is(err, model.ErrAlreadyExists) {
				s.logger.Warningf("Plant %s already exists, skipping", p.ID)
				res.Skipped = append(res.Skipped, p.ID)
				continue
			}
			return res, fmt.Errorf("could not create plant %q: %w", p.Name, err)
		}

		res.Imported = append(res.Imported, p)
	}

	s.logger.Infof("Imported %d plants from %s", len(res.Imported), req.Path)
	return res, nil
}
