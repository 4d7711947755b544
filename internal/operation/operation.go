package operation

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage"
)

// Env is what an effect can use to apply itself.
type Env struct {
	Store storage.PlantRepository
	Now   func() time.Time
	NewID func() string
}

func (e *Env) defaults() error {
	if e.Store == nil {
		return fmt.Errorf("store is required")
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.NewID == nil {
		e.NewID = func() string { return ulid.Make().String() }
	}
	return nil
}

// Effect applies an operation to a single plant. On success it returns the undo
// patch that reverses it, nil when the effect can't be reversed.
type Effect func(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error)

// Table maps each operation kind to its effect.
type Table map[model.OperationKind]Effect

// DefaultTable returns the effects of the built-in operations.
func DefaultTable() Table {
	return Table{
		model.OperationKindUpdateStatus:  updateStatus,
		model.OperationKindUpdateStage:   updateStage,
		model.OperationKindMoveLocation:  moveLocation,
		model.OperationKindRecordMetrics: recordMetrics,
		model.OperationKindAddNote:       addNote,
		model.OperationKindHarvest:       harvest,
		model.OperationKindClone:         clone,
		model.OperationKindDelete:        remove,
	}
}

// Missing returns the kinds that don't have an effect on the table, sorted.
func (t Table) Missing(kinds []model.OperationKind) []model.OperationKind {
	var missing []model.OperationKind
	for _, k := range kinds {
		if _, ok := t[k]; !ok {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	return missing
}

// Apply runs the effect of a kind.
func (t Table) Apply(ctx context.Context, env Env, kind model.OperationKind, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	if err := env.defaults(); err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}

	effect, ok := t[kind]
	if !ok {
		return nil, fmt.Errorf("no effect for operation %q: %w", kind, model.ErrConfiguration)
	}

	return effect(ctx, env, plant, input)
}

// setField patches a single field and returns the undo patch of the old value.
func setField(ctx context.Context, env Env, plant model.Plant, field model.Field, value string) (*model.UndoPatch, error) {
	old, err := plant.Get(field)
	if err != nil {
		return nil, err
	}

	if err := env.Store.UpdatePlant(ctx, plant.ID, model.Patch{field: value}); err != nil {
		return nil, fmt.Errorf("could not update %s: %w", field, err)
	}

	return &model.UndoPatch{Field: field, OldValue: old}, nil
}

// setFieldAndLog patches a field and appends a log entry. If the log can't be
// appended the field is reverted so the item fails as a whole.
func setFieldAndLog(ctx context.Context, env Env, plant model.Plant, field model.Field, value string, collection model.LogCollection, data map[string]string) (*model.UndoPatch, error) {
	undo, err := setField(ctx, env, plant, field, value)
	if err != nil {
		return nil, err
	}

	err = env.Store.AppendLog(ctx, plant.ID, collection, model.LogEntry{Data: data, CreatedAt: env.Now().UTC()})
	if err != nil {
		if rerr := env.Store.UpdatePlant(ctx, plant.ID, model.Patch{field: undo.OldValue}); rerr != nil {
			return nil, fmt.Errorf("could not append %s log: %w (revert failed: %s)", collection, err, rerr)
		}
		return nil, fmt.Errorf("could not append %s log: %w", collection, err)
	}

	return undo, nil
}

func updateStatus(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	return setFieldAndLog(ctx, env, plant, model.FieldStatus, input.Value, model.LogCollectionStatusChanges, map[string]string{
		"from": string(plant.Status),
		"to":   input.Value,
	})
}

func updateStage(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	return setFieldAndLog(ctx, env, plant, model.FieldStage, input.Value, model.LogCollectionStageTransitions, map[string]string{
		"from": string(plant.Stage),
		"to":   input.Value,
		"at":   env.Now().UTC().Format(time.RFC3339),
	})
}

func moveLocation(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	return setField(ctx, env, plant, model.FieldLocation, input.Value)
}

func recordMetrics(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	err := env.Store.AppendLog(ctx, plant.ID, model.LogCollectionMetrics, model.LogEntry{
		Data:      metricsData(input.Metrics),
		CreatedAt: env.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not append metrics log: %w", err)
	}

	return nil, nil
}

func addNote(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	err := env.Store.AppendLog(ctx, plant.ID, model.LogCollectionNotes, model.LogEntry{
		Data:      map[string]string{"text": input.Value},
		CreatedAt: env.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not append note: %w", err)
	}

	return nil, nil
}

func harvest(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	if plant.Status == model.PlantStatusHarvested {
		return nil, fmt.Errorf("plant %s is already harvested: %w", plant.ID, model.ErrNotValid)
	}

	data := metricsData(input.Metrics)
	data["stage"] = string(plant.Stage)
	return setFieldAndLog(ctx, env, plant, model.FieldStatus, string(model.PlantStatusHarvested), model.LogCollectionHarvests, data)
}

func clone(ctx context.Context, env Env, plant model.Plant, input model.OperationInput) (*model.UndoPatch, error) {
	now := env.Now().UTC()
	for n := 1; n <= input.Count; n++ {
		c := model.Plant{
			ID:        env.NewID(),
			Name:      fmt.Sprintf("%s #%d", plant.Name, n),
			Strain:    plant.Strain,
			Status:    model.PlantStatusActive,
			Stage:     model.PlantStageGermination,
			Location:  plant.Location,
			MotherID:  plant.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := env.Store.CreatePlant(ctx, c); err != nil {
			return nil, fmt.Errorf("could not create clone %d of %d: %w", n, input.Count, err)
		}
	}

	return nil, nil
}

func remove(ctx context.Context, env Env, plant model.Plant, _ model.OperationInput) (*model.UndoPatch, error) {
	snapshot := plant
	if err := env.Store.DeletePlant(ctx, plant.ID); err != nil {
		return nil, fmt.Errorf("could not delete plant: %w", err)
	}

	return &model.UndoPatch{FullSnapshot: &snapshot}, nil
}

func metricsData(metrics map[string]float64) map[string]string {
	data := make(map[string]string, len(metrics))
	for k, v := range metrics {
		data[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return data
}
