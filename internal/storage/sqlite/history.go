package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// HistoryRepositoryConfig is the configuration for the SQLite history repository.
type HistoryRepositoryConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *HistoryRepositoryConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.HistoryRepository"})
	return nil
}

// HistoryRepository is a SQLite implementation of storage.HistoryRepository.
type HistoryRepository struct {
	db     *sql.DB
	logger log.Logger
}

// NewHistoryRepository creates a new SQLite history repository.
func NewHistoryRepository(cfg HistoryRepositoryConfig) (*HistoryRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HistoryRepository{
		db:     cfg.DB,
		logger: cfg.Logger,
	}, nil
}

// ReplaceHistory stores the full history, newest first, replacing the previous one.
func (r *HistoryRepository) ReplaceHistory(ctx context.Context, entries []model.HistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries`); err != nil {
		return fmt.Errorf("could not clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO history_entries (id, position, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		payload, err := json.Marshal(historyEntryToJSON(e))
		if err != nil {
			return fmt.Errorf("could not marshal history entry %s: %w", e.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, e.ID, i, string(payload)); err != nil {
			return fmt.Errorf("could not insert history entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Stored %d history entries", len(entries))
	return nil
}

// ListHistory returns the stored history, newest first.
func (r *HistoryRepository) ListHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM history_entries ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not query history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}

		var e historyEntryJSON
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("could not unmarshal history entry: %w", err)
		}
		entries = append(entries, e.toModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

type historyEntryJSON struct {
	ID            string                `json:"id"`
	JobID         string                `json:"job_id"`
	OperationKind string                `json:"operation_kind"`
	Timestamp     time.Time             `json:"timestamp"`
	ItemCount     int                   `json:"item_count"`
	SuccessCount  int                   `json:"success_count"`
	FailureCount  int                   `json:"failure_count"`
	Input         inputJSON             `json:"input"`
	Undoable      bool                  `json:"undoable"`
	UndoPatches   []entityUndoPatchJSON `json:"undo_patches,omitempty"`
	Restored      []string              `json:"restored,omitempty"`
}

type inputJSON struct {
	Value   string             `json:"value,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Count   int                `json:"count,omitempty"`
}

type entityUndoPatchJSON struct {
	EntityID string        `json:"entity_id"`
	Patch    undoPatchJSON `json:"patch"`
}

type undoPatchJSON struct {
	Field        string     `json:"field,omitempty"`
	OldValue     string     `json:"old_value,omitempty"`
	FullSnapshot *plantJSON `json:"full_snapshot,omitempty"`
}

type plantJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Strain    string    `json:"strain"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Location  string    `json:"location"`
	MotherID  string    `json:"mother_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func historyEntryToJSON(e model.HistoryEntry) historyEntryJSON {
	out := historyEntryJSON{
		ID:            e.ID,
		JobID:         e.JobID,
		OperationKind: string(e.OperationKind),
		Timestamp:     e.Timestamp,
		ItemCount:     e.ItemCount,
		SuccessCount:  e.SuccessCount,
		FailureCount:  e.FailureCount,
		Input: inputJSON{
			Value:   e.Input.Value,
			Metrics: e.Input.Metrics,
			Count:   e.Input.Count,
		},
		Undoable: e.Undoable,
		Restored: e.Restored,
	}

	for _, p := range e.UndoPatches {
		out.UndoPatches = append(out.UndoPatches, entityUndoPatchJSON{
			EntityID: p.EntityID,
			Patch:    undoPatchToJSON(p.Patch),
		})
	}

	return out
}

func (e historyEntryJSON) toModel() model.HistoryEntry {
	out := model.HistoryEntry{
		ID:            e.ID,
		JobID:         e.JobID,
		OperationKind: model.OperationKind(e.OperationKind),
		Timestamp:     e.Timestamp,
		ItemCount:     e.ItemCount,
		SuccessCount:  e.SuccessCount,
		FailureCount:  e.FailureCount,
		Input: model.OperationInput{
			Value:   e.Input.Value,
			Metrics: e.Input.Metrics,
			Count:   e.Input.Count,
		},
		Undoable: e.Undoable,
		Restored: e.Restored,
	}

	for _, p := range e.UndoPatches {
		out.UndoPatches = append(out.UndoPatches, model.EntityUndoPatch{
			EntityID: p.EntityID,
			Patch:    p.Patch.toModel(),
		})
	}

	return out
}

func undoPatchToJSON(p model.UndoPatch) undoPatchJSON {
	out := undoPatchJSON{
		Field:    string(p.Field),
		OldValue: p.OldValue,
	}

	if s := p.FullSnapshot; s != nil {
		out.FullSnapshot = &plantJSON{
			ID:        s.ID,
			Name:      s.Name,
			Strain:    s.Strain,
			Status:    string(s.Status),
			Stage:     string(s.Stage),
			Location:  s.Location,
			MotherID:  s.MotherID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
	}

	return out
}

func (p undoPatchJSON) toModel() model.UndoPatch {
	out := model.UndoPatch{
		Field:    model.Field(p.Field),
		OldValue: p.OldValue,
	}

	if s := p.FullSnapshot; s != nil {
		out.FullSnapshot = &model.Plant{
			ID:        s.ID,
			Name:      s.Name,
			Strain:    s.Strain,
			Status:    model.PlantStatus(s.Status),
			Stage:     model.PlantStage(s.Stage),
			Location:  s.Location,
			MotherID:  s.MotherID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
	}

	return out
}
