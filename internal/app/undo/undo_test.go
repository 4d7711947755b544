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

	appundo "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/undo"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/storagemock"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

func statusEntry(id string, patches ...model.EntityUndoPatch) model.HistoryEntry {
	return model.HistoryEntry{
		ID:            id,
		JobID:         "job-" + id,
		OperationKind: model.OperationKindUpdateStatus,
		Timestamp:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ItemCount:     len(patches),
		SuccessCount:  len(patches),
		Undoable:      true,
		UndoPatches:   patches,
	}
}

func statusPatch(id string) model.EntityUndoPatch {
	return model.EntityUndoPatch{EntityID: id, Patch: model.UndoPatch{Field: model.FieldStatus, OldValue: "active"}}
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock       func(m *storagemock.MockPlantRepository)
		entries    []model.HistoryEntry
		req        appundo.Request
		expEntryID string
		expErrIs   error
		expPartial bool
		expLen     int
	}{
		"An empty history should have nothing to undo.": {
			mock:     func(m *storagemock.MockPlantRepository) {},
			expErrIs: model.ErrNoUndoableOperation,
		},

		"The last entry should be undone.": {
			mock: func(m *storagemock.MockPlantRepository) {
				m.On("UpdatePlant", mock.Anything, "p1", model.Patch{model.FieldStatus: "active"}).Once().Return(nil)
			},
			entries:    []model.HistoryEntry{statusEntry("h0"), statusEntry("h1", statusPatch("p1"))},
			expEntryID: "h1",
			expLen:     1,
		},

		"A dry run should not apply anything.": {
			mock:       func(m *storagemock.MockPlantRepository) {},
			entries:    []model.HistoryEntry{statusEntry("h1", statusPatch("p1"))},
			req:        appundo.Request{DryRun: true},
			expEntryID: "h1",
			expLen:     1,
		},

		"A dry run without undoable entries should fail.": {
			mock:     func(m *storagemock.MockPlantRepository) {},
			entries:  []model.HistoryEntry{statusEntry("h1")},
			req:      appundo.Request{DryRun: true},
			expErrIs: model.ErrNoUndoableOperation,
			expLen:   1,
		},

		"A partial undo should return the undo error and keep the entry.": {
			mock: func(m *storagemock.MockPlantRepository) {
				m.On("UpdatePlant", mock.Anything, "p1", mock.Anything).Once().Return(nil)
				m.On("UpdatePlant", mock.Anything, "p2", mock.Anything).Once().Return(fmt.Errorf("plant p2: %w", model.ErrNotFound))
			},
			entries:    []model.HistoryEntry{statusEntry("h1", statusPatch("p1"), statusPatch("p2"))},
			expErrIs:   model.ErrUndo,
			expPartial: true,
			expLen:     1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			m := &storagemock.MockPlantRepository{}
			test.mock(m)

			history, err := undo.NewLog(undo.LogConfig{})
			require.NoError(err)
			for _, e := range test.entries {
				history.Push(ctx, e)
			}

			svc, err := appundo.NewService(appundo.ServiceConfig{History: history, Repository: m})
			require.NoError(err)

			got, err := svc.Run(ctx, test.req)
			if test.expErrIs != nil {
				assert.ErrorIs(err, test.expErrIs)
				var uerr *undo.Error
				assert.Equal(test.expPartial, errors.As(err, &uerr))
			} else if assert.NoError(err) {
				assert.Equal(test.expEntryID, got.ID)
			}
			assert.Equal(test.expLen, history.Len())

			m.AssertExpectations(t)
		})
	}
}

func TestNewServiceInvalidConfig(t *testing.T) {
	_, err := appundo.NewService(appundo.ServiceConfig{Repository: &storagemock.MockPlantRepository{}})
	assert.Error(t, err)
}
