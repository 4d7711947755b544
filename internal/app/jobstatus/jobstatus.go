package jobstatus

import (
	"context"
	"errors"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// ServiceConfig is the configuration for the job status service.
type ServiceConfig struct {
	Repository storage.JobRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service gets the journaled progress of bulk jobs.
type Service struct {
	repo   storage.JobRepository
	logger log.Logger
}

// NewService creates a new job status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the job status request parameters.
type Request struct {
	// JobID is the job to get, empty gets the latest one.
	JobID string
}

// Run returns the progress of the requested job.
func (s *Service) Run(ctx context.Context, req Request) (*model.JobProgress, error) {
	var (
		job *model.JobProgress
		err error
	)
	if req.JobID == "" {
		job, err = s.repo.LatestJob(ctx)
	} else {
		job, err = s.repo.GetJob(ctx, req.JobID)
	}

	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("job not found: %w", model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get job: %w", err)
	}

	return job, nil
}
