package bulkrun_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/bulkrun"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantlist"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/bulk"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/memory"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/storagemock"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *memory.Repository {
	t.Helper()

	store, err := memory.NewRepository(memory.RepositoryConfig{TimeNow: func() time.Time { return t0 }})
	require.NoError(t, err)

	plants := []model.Plant{
		{ID: "p1", Name: "GG4 #1", Strain: "gg4", Status: model.PlantStatusActive, Stage: model.PlantStageFlowering, Location: "tent-a"},
		{ID: "p2", Name: "GG4 #2", Strain: "gg4", Status: model.PlantStatusActive, Stage: model.PlantStageFlowering, Location: "tent-b"},
		{ID: "p3", Name: "Zkittlez #1", Strain: "zkittlez", Status: model.PlantStatusCulled, Stage: model.PlantStageVegetative, Location: "tent-a"},
	}
	for _, p := range plants {
		p.CreatedAt = t0
		require.NoError(t, store.CreatePlant(context.Background(), p))
	}

	return store
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		req          bulkrun.Request
		expErrIs     error
		expCompleted []string
		expFailed    []string
		expLocations map[string]string
	}{
		"Explicit IDs should be moved.": {
			req: bulkrun.Request{
				Kind:  model.OperationKindMoveLocation,
				Input: model.OperationInput{Value: "tent-c"},
				IDs:   []string{"p2", "p1"},
			},
			expCompleted: []string{"p1", "p2"},
			expLocations: map[string]string{"p1": "tent-c", "p2": "tent-c", "p3": "tent-a"},
		},

		"A filter should select the matching plants.": {
			req: bulkrun.Request{
				Kind:  model.OperationKindMoveLocation,
				Input: model.OperationInput{Value: "tent-c"},
				Where: plantlist.Filter{Location: "tent-a"},
			},
			expCompleted: []string{"p1", "p3"},
			expLocations: map[string]string{"p1": "tent-c", "p2": "tent-b", "p3": "tent-c"},
		},

		"A filter should be added to the explicit IDs.": {
			req: bulkrun.Request{
				Kind:  model.OperationKindMoveLocation,
				Input: model.OperationInput{Value: "tent-c"},
				IDs:   []string{"p2", "missing"},
				Where: plantlist.Filter{Status: model.PlantStatusCulled},
			},
			expCompleted: []string{"p2", "p3"},
			expFailed:    []string{"missing"},
			expLocations: map[string]string{"p1": "tent-a", "p2": "tent-c", "p3": "tent-c"},
		},

		"All should select every plant.": {
			req: bulkrun.Request{
				Kind:  model.OperationKindMoveLocation,
				Input: model.OperationInput{Value: "tent-c"},
				All:   true,
			},
			expCompleted: []string{"p1", "p2", "p3"},
			expLocations: map[string]string{"p1": "tent-c", "p2": "tent-c", "p3": "tent-c"},
		},

		"An empty selection should fail.": {
			req: bulkrun.Request{
				Kind:  model.OperationKindMoveLocation,
				Input: model.OperationInput{Value: "tent-c"},
			},
			expErrIs:     model.ErrValidation,
			expLocations: map[string]string{"p1": "tent-a", "p2": "tent-b", "p3": "tent-a"},
		},

		"A destructive operation without confirmation should fail.": {
			req: bulkrun.Request{
				Kind: model.OperationKindDelete,
				IDs:  []string{"p1"},
			},
			expErrIs:     model.ErrValidation,
			expLocations: map[string]string{"p1": "tent-a", "p2": "tent-b", "p3": "tent-a"},
		},

		"A destructive operation with confirmation should run.": {
			req: bulkrun.Request{
				Kind:      model.OperationKindDelete,
				IDs:       []string{"p1"},
				Confirmed: true,
			},
			expCompleted: []string{"p1"},
			expLocations: map[string]string{"p2": "tent-b", "p3": "tent-a"},
		},

		"An unknown operation should fail.": {
			req: bulkrun.Request{
				Kind: "paint",
				IDs:  []string{"p1"},
			},
			expErrIs: model.ErrConfiguration,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			store := newStore(t)
			history, err := undo.NewLog(undo.LogConfig{})
			require.NoError(err)
			ex, err := bulk.NewExecutor(bulk.ExecutorConfig{Store: store, History: history, ThrottleDelay: time.Nanosecond})
			require.NoError(err)

			svc, err := bulkrun.NewService(bulkrun.ServiceConfig{Executor: ex, Repository: store})
			require.NoError(err)

			res, err := svc.Run(ctx, test.req)
			if test.expErrIs != nil {
				assert.ErrorIs(err, test.expErrIs)
				assert.Equal(0, history.Len())
			} else if assert.NoError(err) {
				completed := []string{}
				for _, c := range res.Progress.Completed {
					completed = append(completed, c.ID)
				}
				assert.ElementsMatch(test.expCompleted, completed)

				failed := []string{}
				for _, f := range res.Progress.Failed {
					failed = append(failed, f.ID)
				}
				assert.ElementsMatch(test.expFailed, failed)

				assert.Equal(res.Progress.JobID, res.Entry.JobID)
				assert.Equal(1, history.Len())
			}

			for id, loc := range test.expLocations {
				p, err := store.GetPlant(ctx, id)
				require.NoError(err)
				assert.Equal(loc, p.Location)
			}
		})
	}
}

// interleavingExecutor runs another job on the same executor right after each
// requested one, before returning.
type interleavingExecutor struct {
	*bulk.Executor
}

func (e interleavingExecutor) RunJob(ctx context.Context, req bulk.Request) (*bulk.Job, error) {
	job, err := e.Executor.RunJob(ctx, req)
	if err != nil {
		return nil, err
	}

	_, err = e.Executor.Run(ctx, bulk.Request{
		Kind:      model.OperationKindAddNote,
		Input:     model.OperationInput{Value: "other job"},
		Selection: []string{"p3"},
	})
	if err != nil {
		return nil, err
	}

	return job, nil
}

func TestService_RunResultProgressBelongsToTheRequestedJob(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	store := newStore(t)
	history, err := undo.NewLog(undo.LogConfig{})
	require.NoError(err)
	ex, err := bulk.NewExecutor(bulk.ExecutorConfig{Store: store, History: history, ThrottleDelay: time.Nanosecond})
	require.NoError(err)

	svc, err := bulkrun.NewService(bulkrun.ServiceConfig{Executor: interleavingExecutor{Executor: ex}, Repository: store})
	require.NoError(err)

	res, err := svc.Run(context.Background(), bulkrun.Request{
		Kind:  model.OperationKindMoveLocation,
		Input: model.OperationInput{Value: "tent-c"},
		IDs:   []string{"p1", "p2"},
	})
	require.NoError(err)

	assert.Equal(res.Entry.JobID, res.Progress.JobID)
	assert.Equal(model.OperationKindMoveLocation, res.Progress.OperationKind)
	assert.Equal(2, res.Progress.Total)
	assert.Len(res.Progress.Completed, 2)

	// The executor already moved on to the other job.
	latest, ok := ex.Progress()
	require.True(ok)
	assert.NotEqual(res.Progress.JobID, latest.JobID)
}

func TestService_RunRepositoryError(t *testing.T) {
	m := &storagemock.MockPlantRepository{}
	m.On("ListPlants", mock.Anything).Once().Return(nil, fmt.Errorf("database error"))

	history, err := undo.NewLog(undo.LogConfig{})
	require.NoError(t, err)
	ex, err := bulk.NewExecutor(bulk.ExecutorConfig{Store: m, History: history})
	require.NoError(t, err)

	svc, err := bulkrun.NewService(bulkrun.ServiceConfig{Executor: ex, Repository: m})
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), bulkrun.Request{
		Kind:  model.OperationKindAddNote,
		Input: model.OperationInput{Value: "topped"},
		All:   true,
	})
	assert.Error(t, err)
	assert.False(t, ex.Busy())

	m.AssertExpectations(t)
}

func TestNewServiceInvalidConfig(t *testing.T) {
	_, err := bulkrun.NewService(bulkrun.ServiceConfig{Repository: &storagemock.MockPlantRepository{}})
	assert.Error(t, err)
}
