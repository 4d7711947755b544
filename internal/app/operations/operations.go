package operations

import (
	"context"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/catalog"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/selection"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// ServiceConfig is the configuration for the operations service.
type ServiceConfig struct {
	Catalog    *catalog.Catalog
	Repository storage.PlantRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "operations.Service"})

	return nil
}

// Service lists the bulk operations.
type Service struct {
	catalog *catalog.Catalog
	repo    storage.PlantRepository
	logger  log.Logger
}

// NewService creates a new operations service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		catalog: cfg.Catalog,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the operations request parameters.
type Request struct {
	// Selection are plant IDs, when set only the operations available for them are returned.
	Selection []string
}

// Run returns the catalog operations, or the ones available for the selected plants.
// Selected IDs that don't exist are ignored.
func (s *Service) Run(ctx context.Context, req Request) ([]model.OperationDescriptor, error) {
	if len(req.Selection) == 0 {
		return s.catalog.List(), nil
	}

	plants, err := s.repo.ListPlants(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list plants: %w", err)
	}

	selected := selection.New(req.Selection...).Resolve(plants)
	if len(selected) < len(req.Selection) {
		s.logger.Warningf("%d selected plants don't exist", len(req.Selection)-len(selected))
	}

	return s.catalog.AvailableFor(selected), nil
}
