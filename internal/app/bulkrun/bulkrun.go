package bulkrun

import (
	"context"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantlist"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/bulk"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/catalog"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/selection"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// Executor runs bulk jobs.
type Executor interface {
	RunJob(ctx context.Context, req bulk.Request) (*bulk.Job, error)
}

var _ Executor = &bulk.Executor{}

// ServiceConfig is the configuration for the bulk run service.
type ServiceConfig struct {
	Executor   Executor
	Catalog    *catalog.Catalog
	Repository storage.PlantRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Executor == nil {
		return fmt.Errorf("executor is required")
	}

	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "bulkrun.Service"})

	return nil
}

// Service runs a bulk operation over a plant selection.
type Service struct {
	executor Executor
	catalog  *catalog.Catalog
	repo     storage.PlantRepository
	logger   log.Logger
}

// NewService creates a new bulk run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		executor: cfg.Executor,
		catalog:  cfg.Catalog,
		repo:     cfg.Repository,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the bulk run request parameters.
type Request struct {
	Kind  model.OperationKind
	Input model.OperationInput
	// IDs are the explicitly selected plants.
	IDs []string
	// Where selects the plants matching the filter, added to the IDs. A zero filter
	// selects nothing unless All is set.
	Where plantlist.Filter
	// All selects every plant matching Where.
	All bool
	// Confirmed must be set to run destructive operations.
	Confirmed bool
}

// Result is the result of a bulk run.
type Result struct {
	Entry    model.HistoryEntry
	Progress model.JobProgress
}

// Run resolves the selection and executes the operation over it.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	desc, err := s.catalog.Get(req.Kind)
	if err != nil {
		return nil, err
	}

	if desc.Destructive && !req.Confirmed {
		return nil, fmt.Errorf("operation %q is destructive and requires confirmation: %w", desc.Kind, model.ErrValidation)
	}

	ids, err := s.selection(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("Running %s on %d plants", desc.Kind, len(ids))

	job, err := s.executor.RunJob(ctx, bulk.Request{
		Kind:      req.Kind,
		Input:     req.Input,
		Selection: ids,
	})
	if err != nil {
		return nil, fmt.Errorf("could not run %s: %w", desc.Kind, err)
	}

	return &Result{Entry: job.Entry, Progress: job.Progress}, nil
}

func (s *Service) selection(ctx context.Context, req Request) ([]string, error) {
	set := selection.New()
	if req.All || !req.Where.IsZero() {
		plants, err := s.repo.ListPlants(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not list plants: %w", err)
		}
		set.SelectWhere(plants, req.Where.Match)
	}

	for _, id := range req.IDs {
		if !set.Has(id) {
			set.Toggle(id)
		}
	}

	return set.IDs(), nil
}
