package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/catalog"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

func TestNew(t *testing.T) {
	valid := model.OperationDescriptor{
		Kind:          "noop",
		BatchSize:     1,
		EstimatedCost: time.Millisecond,
		InputShape:    model.InputShapeNone,
	}

	tests := map[string]struct {
		descs  func() []model.OperationDescriptor
		expErr bool
	}{
		"A valid descriptor should create the catalog.": {
			descs: func() []model.OperationDescriptor { return []model.OperationDescriptor{valid} },
		},

		"No descriptors should fail.": {
			descs:  func() []model.OperationDescriptor { return nil },
			expErr: true,
		},

		"A missing kind should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.Kind = ""
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"A zero batch size should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.BatchSize = 0
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"A zero cost should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.EstimatedCost = 0
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"A selector without options should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.RequiresInput = true
				d.InputShape = model.InputShapeSelector
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"An input shape without requiring input should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.InputShape = model.InputShapeText
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"Requiring input without shape should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.RequiresInput = true
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"An unknown input shape should fail.": {
			descs: func() []model.OperationDescriptor {
				d := valid
				d.InputShape = "colour"
				return []model.OperationDescriptor{d}
			},
			expErr: true,
		},

		"Duplicated kinds should fail.": {
			descs:  func() []model.OperationDescriptor { return []model.OperationDescriptor{valid, valid} },
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := catalog.New(test.descs()...)

			if test.expErr {
				assert.ErrorIs(t, err, model.ErrConfiguration)
				assert.Nil(t, c)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, c)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	c := catalog.Default()

	descs := c.List()
	require.Len(t, descs, 8)

	exp := map[model.OperationKind]struct {
		batch       int
		cost        time.Duration
		shape       model.InputShape
		undoable    bool
		destructive bool
	}{
		model.OperationKindUpdateStatus:  {10, 150 * time.Millisecond, model.InputShapeSelector, true, false},
		model.OperationKindUpdateStage:   {10, 200 * time.Millisecond, model.InputShapeSelector, true, false},
		model.OperationKindMoveLocation:  {10, 150 * time.Millisecond, model.InputShapeText, true, false},
		model.OperationKindRecordMetrics: {5, 250 * time.Millisecond, model.InputShapeMetrics, false, false},
		model.OperationKindAddNote:       {10, 100 * time.Millisecond, model.InputShapeText, false, false},
		model.OperationKindHarvest:       {5, 300 * time.Millisecond, model.InputShapeMetrics, true, false},
		model.OperationKindClone:         {2, 500 * time.Millisecond, model.InputShapeCount, false, false},
		model.OperationKindDelete:        {5, 200 * time.Millisecond, model.InputShapeNone, true, true},
	}

	for i, d := range descs {
		if i > 0 {
			assert.Less(t, descs[i-1].Kind, d.Kind, "descriptors should be sorted")
		}

		e, ok := exp[d.Kind]
		require.True(t, ok, "unexpected kind %s", d.Kind)
		assert.Equal(t, e.batch, d.BatchSize, d.Kind)
		assert.Equal(t, e.cost, d.EstimatedCost, d.Kind)
		assert.Equal(t, e.shape, d.InputShape, d.Kind)
		assert.Equal(t, e.undoable, d.Undoable, d.Kind)
		assert.Equal(t, e.destructive, d.Destructive, d.Kind)
	}
}

func TestCatalogGet(t *testing.T) {
	c := catalog.Default()

	d, err := c.Get(model.OperationKindUpdateStatus)
	require.NoError(t, err)
	assert.Contains(t, d.Options, "harvested")

	// Mutating the returned descriptor doesn't affect the catalog.
	d.Options[0] = "mutated"
	d.BatchSize = 1000
	d2, err := c.Get(model.OperationKindUpdateStatus)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", d2.Options[0])
	assert.Equal(t, 10, d2.BatchSize)

	_, err = c.Get("unknown")
	assert.ErrorIs(t, err, model.ErrConfiguration)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCatalogAvailableFor(t *testing.T) {
	plant := func(status model.PlantStatus, stage model.PlantStage) model.Plant {
		return model.Plant{ID: "p", Name: "p", Status: status, Stage: stage}
	}

	tests := map[string]struct {
		plants   []model.Plant
		expKinds []model.OperationKind
	}{
		"An empty selection should have no operations.": {
			plants:   nil,
			expKinds: []model.OperationKind{},
		},

		"Active plants should have all operations.": {
			plants: []model.Plant{plant(model.PlantStatusActive, model.PlantStageFlowering)},
			expKinds: []model.OperationKind{
				model.OperationKindAddNote,
				model.OperationKindClone,
				model.OperationKindDelete,
				model.OperationKindHarvest,
				model.OperationKindMoveLocation,
				model.OperationKindRecordMetrics,
				model.OperationKindUpdateStage,
				model.OperationKindUpdateStatus,
			},
		},

		"All harvested plants should exclude harvest and clone.": {
			plants: []model.Plant{
				plant(model.PlantStatusHarvested, model.PlantStageDrying),
				plant(model.PlantStatusHarvested, model.PlantStageCuring),
			},
			expKinds: []model.OperationKind{
				model.OperationKindAddNote,
				model.OperationKindDelete,
				model.OperationKindMoveLocation,
				model.OperationKindRecordMetrics,
				model.OperationKindUpdateStage,
				model.OperationKindUpdateStatus,
			},
		},

		"A mixed selection should keep harvest and clone.": {
			plants: []model.Plant{
				plant(model.PlantStatusHarvested, model.PlantStageDrying),
				plant(model.PlantStatusActive, model.PlantStageFlowering),
			},
			expKinds: []model.OperationKind{
				model.OperationKindAddNote,
				model.OperationKindClone,
				model.OperationKindDelete,
				model.OperationKindHarvest,
				model.OperationKindMoveLocation,
				model.OperationKindRecordMetrics,
				model.OperationKindUpdateStage,
				model.OperationKindUpdateStatus,
			},
		},

		"All complete and harvested plants should exclude the stage update.": {
			plants: []model.Plant{plant(model.PlantStatusHarvested, model.PlantStageComplete)},
			expKinds: []model.OperationKind{
				model.OperationKindAddNote,
				model.OperationKindDelete,
				model.OperationKindMoveLocation,
				model.OperationKindRecordMetrics,
				model.OperationKindUpdateStatus,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := catalog.Default()

			got := c.AvailableFor(test.plants)
			kinds := make([]model.OperationKind, 0, len(got))
			for _, d := range got {
				kinds = append(kinds, d.Kind)
			}
			assert.Equal(t, test.expKinds, kinds)

			// Deterministic.
			assert.Equal(t, got, c.AvailableFor(test.plants))
		})
	}
}

func TestCatalogValidateInput(t *testing.T) {
	tests := map[string]struct {
		kind   model.OperationKind
		input  model.OperationInput
		expErr error
	}{
		"A valid status should pass.": {
			kind:  model.OperationKindUpdateStatus,
			input: model.OperationInput{Value: "culled"},
		},

		"A missing status should fail.": {
			kind:   model.OperationKindUpdateStatus,
			expErr: model.ErrValidation,
		},

		"A status outside the options should fail.": {
			kind:   model.OperationKindUpdateStatus,
			input:  model.OperationInput{Value: "sleeping"},
			expErr: model.ErrValidation,
		},

		"A valid stage should pass.": {
			kind:  model.OperationKindUpdateStage,
			input: model.OperationInput{Value: "flowering"},
		},

		"A blank location should fail.": {
			kind:   model.OperationKindMoveLocation,
			input:  model.OperationInput{Value: "   "},
			expErr: model.ErrValidation,
		},

		"A note should pass.": {
			kind:  model.OperationKindAddNote,
			input: model.OperationInput{Value: "smells like lemon"},
		},

		"Metrics should pass.": {
			kind:  model.OperationKindRecordMetrics,
			input: model.OperationInput{Metrics: map[string]float64{"height_cm": 42}},
		},

		"Empty metrics should fail.": {
			kind:   model.OperationKindHarvest,
			input:  model.OperationInput{Metrics: map[string]float64{}},
			expErr: model.ErrValidation,
		},

		"A blank metric name should fail.": {
			kind:   model.OperationKindRecordMetrics,
			input:  model.OperationInput{Metrics: map[string]float64{" ": 1}},
			expErr: model.ErrValidation,
		},

		"A valid clone count should pass.": {
			kind:  model.OperationKindClone,
			input: model.OperationInput{Count: 3},
		},

		"A zero clone count should fail.": {
			kind:   model.OperationKindClone,
			input:  model.OperationInput{Count: 0},
			expErr: model.ErrValidation,
		},

		"A clone count over the max should fail.": {
			kind:   model.OperationKindClone,
			input:  model.OperationInput{Count: catalog.MaxCloneCount + 1},
			expErr: model.ErrValidation,
		},

		"Delete doesn't need input.": {
			kind: model.OperationKindDelete,
		},

		"An unknown kind should fail with configuration error.": {
			kind:   "unknown",
			expErr: model.ErrConfiguration,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := catalog.Default()

			err := c.ValidateInput(test.kind, test.input)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
