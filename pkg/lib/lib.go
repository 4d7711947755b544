package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/bulkrun"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/history"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/jobstatus"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/operations"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantimport"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantlist"
	appundo "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/undo"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/bulk"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/catalog"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/conventions"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/sqlite"
	storageio "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/io"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

// Config configures the SDK client.
//
// All fields are optional, an empty Config{} uses ~/.phenohunter/phenohunter.db
// for storage and the built-in operation catalog.
type Config struct {
	// DBPath is the SQLite database path.
	// Default: ~/.phenohunter/phenohunter.db.
	DBPath string

	// CatalogPath is a YAML operation catalog that replaces the built-in one.
	CatalogPath string

	// ThrottleDelay is the pause between the batches of a bulk job.
	// Default: 100ms.
	ThrottleDelay time.Duration

	// GracePeriod is the time the job slot is kept after a bulk job finishes.
	GracePeriod time.Duration

	// ProgressHook receives the progress of the bulk jobs while they run.
	ProgressHook ProgressHook

	// Logger receives the SDK log output.
	// Default: noop.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.DBPath(home)
	}

	if c.ThrottleDelay < 0 {
		return fmt.Errorf("throttle delay can't be negative")
	}

	if c.GracePeriod < 0 {
		return fmt.Errorf("grace period can't be negative")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo     *sqlite.Repository
	jobs     *sqlite.JobRepository
	catalog  *catalog.Catalog
	history  *undo.Log
	executor *bulk.Executor
	logger   log.Logger
}

// New creates a new SDK client backed by a SQLite database. The persisted undo
// history is loaded on creation.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cat, err := loadCatalog(ctx, cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	c, err := newClient(ctx, cfg, repo, cat)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	return c, nil
}

func newClient(ctx context.Context, cfg Config, repo *sqlite.Repository, cat *catalog.Catalog) (*Client, error) {
	historyRepo, err := sqlite.NewHistoryRepository(sqlite.HistoryRepositoryConfig{DB: repo.DB(), Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create history repository: %w", err)
	}

	jobs, err := sqlite.NewJobRepository(sqlite.JobRepositoryConfig{DB: repo.DB(), Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create job repository: %w", err)
	}

	hist, err := undo.NewLog(undo.LogConfig{Repository: historyRepo, Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create undo log: %w", err)
	}
	if err := hist.Load(ctx); err != nil {
		return nil, err
	}

	ex, err := bulk.NewExecutor(bulk.ExecutorConfig{
		Catalog:       cat,
		Store:         repo,
		History:       hist,
		JobRepository: jobs,
		ThrottleDelay: cfg.ThrottleDelay,
		GracePeriod:   cfg.GracePeriod,
		ProgressHook:  cfg.ProgressHook,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create executor: %w", err)
	}

	return &Client{
		repo:     repo,
		jobs:     jobs,
		catalog:  cat,
		history:  hist,
		executor: ex,
		logger:   cfg.Logger,
	}, nil
}

func loadCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}

	loader := storageio.NewCatalogYAMLRepository(os.DirFS(filepath.Dir(path)))
	descs, err := loader.GetDescriptors(ctx, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("could not load catalog %s: %w", path, err)
	}

	cat, err := catalog.New(descs...)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	return cat, nil
}

// Close releases the database connection. After Close returns, the client must
// not be used.
func (c *Client) Close() error {
	return c.repo.Close()
}

// ListPlants returns the plants matching the filter, newest first.
func (c *Client) ListPlants(ctx context.Context, filter PlantFilter) ([]Plant, error) {
	svc, err := plantlist.NewService(plantlist.ServiceConfig{Repository: c.repo, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	plants, err := svc.Run(ctx, plantlist.Request{Filter: filter})
	return plants, mapError(err)
}

// ImportPlants creates the plants of a YAML file. With skipExisting the plants
// already stored are ignored, otherwise the import fails with [ErrAlreadyExists].
func (c *Client) ImportPlants(ctx context.Context, path string, skipExisting bool) ([]Plant, error) {
	svc, err := plantimport.NewService(plantimport.ServiceConfig{
		Loader:     storageio.NewPlantYAMLRepository(os.DirFS(filepath.Dir(path))),
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, plantimport.Request{Path: filepath.Base(path), SkipExisting: skipExisting})
	if err != nil {
		return nil, mapError(err)
	}

	return res.Imported, nil
}

// Operations returns the catalog operations. When plant IDs are passed only the
// operations available for them are returned.
func (c *Client) Operations(ctx context.Context, ids ...string) ([]OperationDescriptor, error) {
	svc, err := operations.NewService(operations.ServiceConfig{Catalog: c.catalog, Repository: c.repo, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	ops, err := svc.Run(ctx, operations.Request{Selection: ids})
	return ops, mapError(err)
}

// RunBulkOpts are the options of a bulk run.
type RunBulkOpts struct {
	Kind  OperationKind
	Input OperationInput
	// IDs are the explicitly selected plants.
	IDs []string
	// Where adds the plants matching the filter to the selection.
	Where PlantFilter
	// All selects every plant matching Where.
	All bool
	// Confirmed is required to run destructive operations.
	Confirmed bool
}

// RunBulk runs a bulk operation and blocks until the job finishes. Item failures
// don't fail the run, they are on the returned progress.
func (c *Client) RunBulk(ctx context.Context, opts RunBulkOpts) (*JobProgress, error) {
	svc, err := bulkrun.NewService(bulkrun.ServiceConfig{
		Executor:   c.executor,
		Catalog:    c.catalog,
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, bulkrun.Request{
		Kind:      opts.Kind,
		Input:     opts.Input,
		IDs:       opts.IDs,
		Where:     opts.Where,
		All:       opts.All,
		Confirmed: opts.Confirmed,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &res.Progress, nil
}

// Progress returns the progress of the running or last job of this client.
func (c *Client) Progress() (JobProgress, bool) {
	return c.executor.Progress()
}

// Undo reverts the most recent bulk job. With dryRun the entry that would be
// undone is returned without applying it.
func (c *Client) Undo(ctx context.Context, dryRun bool) (*HistoryEntry, error) {
	svc, err := appundo.NewService(appundo.ServiceConfig{History: c.history, Repository: c.repo, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	entry, err := svc.Run(ctx, appundo.Request{DryRun: dryRun})
	return entry, mapError(err)
}

// History returns the bulk job history, newest first. A zero limit returns all
// the entries.
func (c *Client) History(ctx context.Context, limit int, undoableOnly bool) ([]HistoryEntry, error) {
	svc, err := history.NewService(history.ServiceConfig{History: c.history, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	entries, err := svc.Run(ctx, history.Request{Limit: limit, UndoableOnly: undoableOnly})
	return entries, mapError(err)
}

// Job returns a journaled job, the latest one when the ID is empty.
func (c *Client) Job(ctx context.Context, id string) (*JobProgress, error) {
	svc, err := jobstatus.NewService(jobstatus.ServiceConfig{Repository: c.jobs, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	job, err := svc.Run(ctx, jobstatus.Request{JobID: id})
	return job, mapError(err)
}
