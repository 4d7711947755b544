package undo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/memory"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/storagemock"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func plantFixture(id string) model.Plant {
	return model.Plant{
		ID:        id,
		Name:      "plant-" + id,
		Status:    model.PlantStatusActive,
		Stage:     model.PlantStageVegetative,
		Location:  "tent-a",
		CreatedAt: t0,
		UpdatedAt: t0,
	}
}

func entry(id string, undoable bool, patches ...model.EntityUndoPatch) model.HistoryEntry {
	return model.HistoryEntry{
		ID:            id,
		OperationKind: model.OperationKindUpdateStage,
		Timestamp:     t0,
		ItemCount:     len(patches),
		SuccessCount:  len(patches),
		Undoable:      undoable,
		UndoPatches:   patches,
	}
}

func stagePatch(id string, old model.PlantStage) model.EntityUndoPatch {
	return model.EntityUndoPatch{EntityID: id, Patch: model.UndoPatch{Field: model.FieldStage, OldValue: string(old)}}
}

func TestLogPushIsBoundedNewestFirst(t *testing.T) {
	ctx := context.Background()
	l, err := undo.NewLog(undo.LogConfig{})
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		l.Push(ctx, entry(fmt.Sprintf("h%02d", i), true))
	}

	entries := l.List()
	require.Len(t, entries, undo.DefaultCapacity)
	assert.Equal(t, 10, l.Len())
	assert.Equal(t, "h11", entries[0].ID)
	assert.Equal(t, "h02", entries[9].ID)

	peek, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, "h11", peek.ID)
}

func TestLogPushCopiesEntries(t *testing.T) {
	ctx := context.Background()
	l, err := undo.NewLog(undo.LogConfig{})
	require.NoError(t, err)

	e := entry("h1", true, stagePatch("p1", model.PlantStageVegetative))
	l.Push(ctx, e)
	e.UndoPatches[0].EntityID = "mutated"

	got := l.List()
	got[0].UndoPatches[0].EntityID = "mutated-too"

	peek, _ := l.Peek()
	assert.Equal(t, "p1", peek.UndoPatches[0].EntityID)
}

func TestNewLogInvalidConfig(t *testing.T) {
	_, err := undo.NewLog(undo.LogConfig{Capacity: -1})
	assert.Error(t, err)
}

func TestLogPopAndApply(t *testing.T) {
	tests := map[string]struct {
		plants     []model.Plant
		entries    []model.HistoryEntry
		expErr     error
		expEntryID string
		expLen     int
		expPlants  map[string]*model.Plant
	}{
		"An empty log should have nothing to undo.": {
			expErr: model.ErrNoUndoableOperation,
		},

		"A non undoable front entry should have nothing to undo.": {
			entries: []model.HistoryEntry{
				entry("h1", true, stagePatch("p1", model.PlantStageSeedling)),
				entry("h2", false),
			},
			expErr: model.ErrNoUndoableOperation,
			expLen: 2,
		},

		"An undoable entry without patches should have nothing to undo.": {
			entries: []model.HistoryEntry{entry("h1", true)},
			expErr:  model.ErrNoUndoableOperation,
			expLen:  1,
		},

		"Field patches should restore the old values.": {
			plants: []model.Plant{
				func() model.Plant { p := plantFixture("p1"); p.Stage = model.PlantStageFlowering; return p }(),
				func() model.Plant { p := plantFixture("p2"); p.Stage = model.PlantStageFlowering; return p }(),
			},
			entries: []model.HistoryEntry{
				entry("h0", true, stagePatch("p1", model.PlantStageGermination)),
				entry("h1", true, stagePatch("p1", model.PlantStageVegetative), stagePatch("p2", model.PlantStageSeedling)),
			},
			expEntryID: "h1",
			expLen:     1,
			expPlants: map[string]*model.Plant{
				"p1": func() *model.Plant { p := plantFixture("p1"); p.Stage = model.PlantStageVegetative; return &p }(),
				"p2": func() *model.Plant { p := plantFixture("p2"); p.Stage = model.PlantStageSeedling; return &p }(),
			},
		},

		"Snapshot patches should re-create the plants.": {
			entries: []model.HistoryEntry{
				entry("h1", true, model.EntityUndoPatch{
					EntityID: "p1",
					Patch:    model.UndoPatch{FullSnapshot: func() *model.Plant { p := plantFixture("p1"); return &p }()},
				}),
			},
			expEntryID: "h1",
			expPlants: map[string]*model.Plant{
				"p1": func() *model.Plant { p := plantFixture("p1"); return &p }(),
			},
		},

		"A missing plant should keep the entry and report the partial undo.": {
			plants: []model.Plant{
				func() model.Plant { p := plantFixture("p1"); p.Stage = model.PlantStageFlowering; return p }(),
			},
			entries: []model.HistoryEntry{
				entry("h1", true, stagePatch("p1", model.PlantStageVegetative), stagePatch("p2", model.PlantStageSeedling)),
			},
			expErr: model.ErrUndo,
			expLen: 1,
			expPlants: map[string]*model.Plant{
				"p1": func() *model.Plant { p := plantFixture("p1"); p.Stage = model.PlantStageVegetative; return &p }(),
				"p2": nil,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			store, err := memory.NewRepository(memory.RepositoryConfig{TimeNow: func() time.Time { return t0 }})
			require.NoError(err)
			for _, p := range test.plants {
				require.NoError(store.CreatePlant(ctx, p))
			}

			l, err := undo.NewLog(undo.LogConfig{})
			require.NoError(err)
			for _, e := range test.entries {
				l.Push(ctx, e)
			}

			got, err := l.PopAndApply(ctx, store)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				assert.Nil(got)
			} else if assert.NoError(err) {
				assert.Equal(test.expEntryID, got.ID)
			}
			assert.Equal(test.expLen, l.Len())

			for id, exp := range test.expPlants {
				p, err := store.GetPlant(ctx, id)
				if exp == nil {
					assert.ErrorIs(err, model.ErrNotFound)
					continue
				}
				require.NoError(err)
				assert.Equal(*exp, *p)
			}
		})
	}
}

func TestLogPopAndApplyRetryConverges(t *testing.T) {
	ctx := context.Background()
	m := &storagemock.MockPlantRepository{}

	l, err := undo.NewLog(undo.LogConfig{})
	require.NoError(t, err)
	l.Push(ctx, entry("h1", true,
		stagePatch("p1", model.PlantStageVegetative),
		stagePatch("p2", model.PlantStageSeedling),
	))

	// First attempt: p1 restored, p2 fails.
	m.On("UpdatePlant", mock.Anything, "p1", model.Patch{model.FieldStage: "vegetative"}).Once().Return(nil)
	m.On("UpdatePlant", mock.Anything, "p2", model.Patch{model.FieldStage: "seedling"}).Once().Return(fmt.Errorf("locked"))

	_, err = l.PopAndApply(ctx, m)
	var uerr *undo.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "h1", uerr.EntryID)
	assert.Equal(t, []string{"p1"}, uerr.Restored)
	require.Contains(t, uerr.NotRestored, "p2")
	assert.Contains(t, uerr.Error(), "p2: locked")

	peek, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, []string{"p1"}, peek.Restored)

	// Retry: only p2 is applied.
	m.On("UpdatePlant", mock.Anything, "p2", model.Patch{model.FieldStage: "seedling"}).Once().Return(nil)

	got, err := l.PopAndApply(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.ID)
	assert.Equal(t, []string{"p1", "p2"}, got.Restored)
	assert.Equal(t, 0, l.Len())

	m.AssertExpectations(t)
}

func TestLogPersistence(t *testing.T) {
	ctx := context.Background()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	l1, err := undo.NewLog(undo.LogConfig{Repository: repo})
	require.NoError(t, err)
	l1.Push(ctx, entry("h1", false))
	l1.Push(ctx, entry("h2", true, stagePatch("p1", model.PlantStageVegetative)))

	// A new log loads the same history.
	l2, err := undo.NewLog(undo.LogConfig{Repository: repo, Capacity: 1})
	require.NoError(t, err)
	require.NoError(t, l2.Load(ctx))
	entries := l2.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "h2", entries[0].ID)
}

func TestLogPersistenceErrorsAreNotFatal(t *testing.T) {
	ctx := context.Background()
	m := &storagemock.MockHistoryRepository{}
	m.On("ReplaceHistory", mock.Anything, mock.Anything).Once().Return(fmt.Errorf("disk full"))
	m.On("ListHistory", mock.Anything).Once().Return(nil, fmt.Errorf("disk full"))

	l, err := undo.NewLog(undo.LogConfig{Repository: m})
	require.NoError(t, err)

	l.Push(ctx, entry("h1", false))
	assert.Equal(t, 1, l.Len())

	assert.Error(t, l.Load(ctx))
	assert.Equal(t, 1, l.Len())

	m.AssertExpectations(t)
}
