package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
	// TimeNow is used to set the update timestamps, by default time.Now.
	TimeNow func() time.Time
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	return nil
}

// Repository is a SQLite implementation of storage.PlantRepository.
type Repository struct {
	db      *sql.DB
	logger  log.Logger
	timeNow func() time.Time
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	// Bulk jobs write concurrently, busy timeout lets writers wait for the lock instead of failing.
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	version, _, err := migrator.Version(ctx)
	if err != nil {
		cfg.Logger.Warningf("Could not get schema version: %s", err)
	}
	cfg.Logger.Debugf("SQLite repository initialized at %s (schema v%d)", cfg.DBPath, version)

	return &Repository{db: db, logger: cfg.Logger, timeNow: cfg.TimeNow}, nil
}

// DB returns the underlying database connection.
func (r *Repository) DB() *sql.DB { return r.db }

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreatePlant creates a new plant in the repository.
func (r *Repository) CreatePlant(ctx context.Context, p model.Plant) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid plant: %w", err)
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = p.CreatedAt
	}

	query := `
		INSERT INTO plants (
			id, name, strain, status, stage, location, mother_id,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		p.ID,
		p.Name,
		p.Strain,
		p.Status,
		p.Stage,
		p.Location,
		p.MotherID,
		p.CreatedAt.Unix(),
		updatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: plants.") {
			return fmt.Errorf("plant with id %s: %w", p.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert plant: %w", err)
	}

	r.logger.Debugf("Created plant in repository: %s", p.ID)
	return nil
}

// GetPlant retrieves a plant by ID.
func (r *Repository) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	query := `
		SELECT
			id, name, strain, status, stage, location, mother_id,
			created_at, updated_at
		FROM plants
		WHERE id = ?
	`

	plant, err := scanPlant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plant %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query plant: %w", err)
	}

	return &plant, nil
}

// ListPlants returns all plants, newest first.
func (r *Repository) ListPlants(ctx context.Context) ([]model.Plant, error) {
	query := `
		SELECT
			id, name, strain, status, stage, location, mother_id,
			created_at, updated_at
		FROM plants
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query plants: %w", err)
	}
	defer rows.Close()

	var plants []model.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		plants = append(plants, plant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return plants, nil
}

// patchColumns maps the patchable fields to their columns. Only these columns
// are ever interpolated in update queries.
var patchColumns = map[model.Field]string{
	model.FieldName:     "name",
	model.FieldStrain:   "strain",
	model.FieldStatus:   "status",
	model.FieldStage:    "stage",
	model.FieldLocation: "location",
}

// UpdatePlant applies a partial update to an existing plant.
func (r *Repository) UpdatePlant(ctx context.Context, id string, patch model.Patch) error {
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}

	// Sorted fields keep the generated query stable.
	fields := make([]model.Field, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		sets = append(sets, patchColumns[f]+" = ?")
		args = append(args, patch[f])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.timeNow().UTC().Unix(), id)

	query := fmt.Sprintf(`UPDATE plants SET %s WHERE id = ?`, strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("could not update plant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("plant %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Updated plant in repository: %s", id)
	return nil
}

// DeletePlant deletes a plant. The plant logs are kept.
func (r *Repository) DeletePlant(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete plant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("plant %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted plant from repository: %s", id)
	return nil
}

// AppendLog appends an entry to one of the sub-logs of a plant.
func (r *Repository) AppendLog(ctx context.Context, plantID string, collection model.LogCollection, entry model.LogEntry) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plants WHERE id = ?`, plantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("could not query plant: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("plant %s: %w", plantID, model.ErrNotFound)
	}

	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.timeNow().UTC()
	}

	data := entry.Data
	if data == nil {
		data = map[string]string{}
	}
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("could not marshal log data: %w", err)
	}

	query := `
		INSERT INTO plant_logs (id, plant_id, collection, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, entry.ID, plantID, collection, string(rawData), entry.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: plant_logs.") {
			return fmt.Errorf("log entry %s: %w", entry.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert log entry: %w", err)
	}

	r.logger.Debugf("Appended %s log entry to plant: %s", collection, plantID)
	return nil
}

// ListLogs returns the entries of a plant sub-log in append order.
func (r *Repository) ListLogs(ctx context.Context, plantID string, collection model.LogCollection) ([]model.LogEntry, error) {
	query := `
		SELECT id, plant_id, collection, data, created_at
		FROM plant_logs
		WHERE plant_id = ? AND collection = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, plantID, collection)
	if err != nil {
		return nil, fmt.Errorf("could not query logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var rawData string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.PlantID, &e.Collection, &rawData, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(rawData), &e.Data); err != nil {
			return nil, fmt.Errorf("could not unmarshal log data: %w", err)
		}
		e.CreatedAt = timeFromUnix(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlant(s scanner) (model.Plant, error) {
	var p model.Plant
	var createdAt, updatedAt int64

	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Strain,
		&p.Status,
		&p.Stage,
		&p.Location,
		&p.MotherID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Plant{}, err
	}

	p.CreatedAt = timeFromUnix(createdAt)
	p.UpdatedAt = timeFromUnix(updatedAt)

	return p, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
