package storage

import (
	"context"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// PlantRepository is the entity store for plant records. All the calls are for a
// single plant, implementations are not required to give multi item atomicity.
type PlantRepository interface {
	GetPlant(ctx context.Context, id string) (*model.Plant, error)
	ListPlants(ctx context.Context) ([]model.Plant, error)
	CreatePlant(ctx context.Context, p model.Plant) error
	UpdatePlant(ctx context.Context, id string, patch model.Patch) error
	DeletePlant(ctx context.Context, id string) error
	AppendLog(ctx context.Context, plantID string, collection model.LogCollection, entry model.LogEntry) error
	ListLogs(ctx context.Context, plantID string, collection model.LogCollection) ([]model.LogEntry, error)
}

// HistoryRepository persists the bulk job history, newest first.
type HistoryRepository interface {
	// ReplaceHistory stores the full history replacing the previous one.
	ReplaceHistory(ctx context.Context, entries []model.HistoryEntry) error
	ListHistory(ctx context.Context) ([]model.HistoryEntry, error)
}

// JobRepository persists the terminal progress of bulk jobs with their per item results.
type JobRepository interface {
	SaveJob(ctx context.Context, job model.JobProgress) error
	GetJob(ctx context.Context, id string) (*model.JobProgress, error)
	// LatestJob returns the most recently started job.
	LatestJob(ctx context.Context) (*model.JobProgress, error)
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name PlantRepository --structname MockPlantRepository
//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name HistoryRepository --structname MockHistoryRepository
//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name JobRepository --structname MockJobRepository
