package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// JobRepositoryConfig is the configuration for the SQLite job repository.
type JobRepositoryConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *JobRepositoryConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.JobRepository"})
	return nil
}

// JobRepository is a SQLite implementation of storage.JobRepository.
type JobRepository struct {
	db     *sql.DB
	logger log.Logger
}

// NewJobRepository creates a new SQLite job repository.
func NewJobRepository(cfg JobRepositoryConfig) (*JobRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &JobRepository{
		db:     cfg.DB,
		logger: cfg.Logger,
	}, nil
}

type jobItemStatus string

const (
	jobItemStatusDone       jobItemStatus = "done"
	jobItemStatusFailed     jobItemStatus = "failed"
	jobItemStatusProcessing jobItemStatus = "processing"
)

// SaveJob stores the progress of a job with all its items, replacing any previous version.
func (r *JobRepository) SaveJob(ctx context.Context, job model.JobProgress) error {
	if job.JobID == "" {
		return fmt.Errorf("job id is required: %w", model.ErrNotValid)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var finishedAt *int64
	if !job.FinishedAt.IsZero() {
		u := job.FinishedAt.Unix()
		finishedAt = &u
	}

	upsert := `
		INSERT INTO jobs (
			id, operation_kind, state, total, current_batch, total_batches,
			started_at, estimated_end_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			current_batch = excluded.current_batch,
			finished_at = excluded.finished_at
	`
	_, err = tx.ExecContext(ctx, upsert,
		job.JobID,
		job.OperationKind,
		job.State,
		job.Total,
		job.CurrentBatch,
		job.TotalBatches,
		job.StartedAt.Unix(),
		job.EstimatedEndAt.Unix(),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("could not upsert job: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_items WHERE job_id = ?`, job.JobID); err != nil {
		return fmt.Errorf("could not clear job items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO job_items (job_id, sequence, item_id, status, error, undo_patch)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	sequence := 0
	insert := func(itemID string, status jobItemStatus, errMsg string, patch *model.UndoPatch) error {
		sequence++
		var rawPatch *string
		if patch != nil {
			data, err := json.Marshal(undoPatchToJSON(*patch))
			if err != nil {
				return fmt.Errorf("could not marshal undo patch: %w", err)
			}
			s := string(data)
			rawPatch = &s
		}

		if _, err := stmt.ExecContext(ctx, job.JobID, sequence, itemID, status, errMsg, rawPatch); err != nil {
			return fmt.Errorf("could not insert job item: %w", err)
		}
		return nil
	}

	for _, c := range job.Completed {
		if err := insert(c.ID, jobItemStatusDone, "", c.UndoPatch); err != nil {
			return err
		}
	}
	for _, f := range job.Failed {
		if err := insert(f.ID, jobItemStatusFailed, f.Error, nil); err != nil {
			return err
		}
	}
	for _, id := range job.Processing {
		if err := insert(id, jobItemStatusProcessing, "", nil); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Saved job %s with %d items", job.JobID, sequence)
	return nil
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*model.JobProgress, error) {
	return r.getJob(ctx, `WHERE id = ?`, id)
}

// LatestJob returns the most recently started job.
func (r *JobRepository) LatestJob(ctx context.Context) (*model.JobProgress, error) {
	return r.getJob(ctx, `ORDER BY started_at DESC, id DESC LIMIT 1`)
}

func (r *JobRepository) getJob(ctx context.Context, filter string, args ...any) (*model.JobProgress, error) {
	query := `
		SELECT
			id, operation_kind, state, total, current_batch, total_batches,
			started_at, estimated_end_at, finished_at
		FROM jobs
	` + filter

	var job model.JobProgress
	var startedAt, estimatedEndAt int64
	var finishedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&job.JobID,
		&job.OperationKind,
		&job.State,
		&job.Total,
		&job.CurrentBatch,
		&job.TotalBatches,
		&startedAt,
		&estimatedEndAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job: %w", model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query job: %w", err)
	}

	job.StartedAt = timeFromUnix(startedAt)
	job.EstimatedEndAt = timeFromUnix(estimatedEndAt)
	if finishedAt.Valid {
		job.FinishedAt = timeFromUnix(finishedAt.Int64)
	}

	if err := r.loadItems(ctx, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

func (r *JobRepository) loadItems(ctx context.Context, job *model.JobProgress) error {
	query := `
		SELECT item_id, status, error, undo_patch
		FROM job_items
		WHERE job_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, job.JobID)
	if err != nil {
		return fmt.Errorf("could not query job items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, errMsg string
		var status jobItemStatus
		var rawPatch sql.NullString
		if err := rows.Scan(&itemID, &status, &errMsg, &rawPatch); err != nil {
			return fmt.Errorf("could not scan row: %w", err)
		}

		switch status {
		case jobItemStatusDone:
			item := model.CompletedItem{ID: itemID}
			if rawPatch.Valid {
				var p undoPatchJSON
				if err := json.Unmarshal([]byte(rawPatch.String), &p); err != nil {
					return fmt.Errorf("could not unmarshal undo patch: %w", err)
				}
				patch := p.toModel()
				item.UndoPatch = &patch
			}
			job.Completed = append(job.Completed, item)
		case jobItemStatusFailed:
			job.Failed = append(job.Failed, model.FailedItem{ID: itemID, Error: errMsg})
		case jobItemStatusProcessing:
			job.Processing = append(job.Processing, itemID)
		default:
			return fmt.Errorf("unknown job item status %q: %w", status, model.ErrNotValid)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	return nil
}
