package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// MaxCloneCount is the max number of clones that can be taken from a plant in one run.
const MaxCloneCount = 20

// Catalog is the static table of operation descriptors. It's immutable after
// creation, all the descriptors returned are copies.
type Catalog struct {
	descs map[model.OperationKind]model.OperationDescriptor
}

// New returns a catalog with the given descriptors, they are validated and a
// malformed descriptor returns a configuration error.
func New(descs ...model.OperationDescriptor) (*Catalog, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("at least one operation is required: %w", model.ErrConfiguration)
	}

	c := &Catalog{descs: make(map[model.OperationKind]model.OperationDescriptor, len(descs))}
	for _, d := range descs {
		if err := validateDescriptor(d); err != nil {
			return nil, err
		}

		if _, ok := c.descs[d.Kind]; ok {
			return nil, fmt.Errorf("operation %q is duplicated: %w", d.Kind, model.ErrConfiguration)
		}
		c.descs[d.Kind] = d.Copy()
	}

	return c, nil
}

func validateDescriptor(d model.OperationDescriptor) error {
	if d.Kind == "" {
		return fmt.Errorf("operation kind is required: %w", model.ErrConfiguration)
	}

	if d.BatchSize <= 0 {
		return fmt.Errorf("operation %q batch size must be positive: %w", d.Kind, model.ErrConfiguration)
	}

	if d.EstimatedCost <= 0 {
		return fmt.Errorf("operation %q estimated cost must be positive: %w", d.Kind, model.ErrConfiguration)
	}

	switch d.InputShape {
	case model.InputShapeNone:
		if d.RequiresInput {
			return fmt.Errorf("operation %q requires input but has no input shape: %w", d.Kind, model.ErrConfiguration)
		}
	case model.InputShapeSelector:
		if len(d.Options) == 0 {
			return fmt.Errorf("operation %q selector input requires options: %w", d.Kind, model.ErrConfiguration)
		}
		fallthrough
	case model.InputShapeText, model.InputShapeMetrics, model.InputShapeCount:
		if !d.RequiresInput {
			return fmt.Errorf("operation %q has %s input shape but doesn't require input: %w", d.Kind, d.InputShape, model.ErrConfiguration)
		}
	default:
		return fmt.Errorf("operation %q input shape %q is invalid: %w", d.Kind, d.InputShape, model.ErrConfiguration)
	}

	return nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultDescriptors()...)
	if err != nil {
		panic(fmt.Sprintf("invalid default catalog: %s", err))
	}
	return c
}

// DefaultDescriptors returns the descriptors of the built-in catalog.
func DefaultDescriptors() []model.OperationDescriptor {
	statuses := make([]string, 0, len(model.PlantStatuses))
	for _, s := range model.PlantStatuses {
		statuses = append(statuses, string(s))
	}
	stages := make([]string, 0, len(model.PlantStages))
	for _, s := range model.PlantStages {
		stages = append(stages, string(s))
	}

	return []model.OperationDescriptor{
		{
			Kind:          model.OperationKindUpdateStatus,
			Name:          "Update status",
			BatchSize:     10,
			EstimatedCost: 150 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeSelector,
			Options:       statuses,
			Undoable:      true,
		},
		{
			Kind:          model.OperationKindUpdateStage,
			Name:          "Update growth stage",
			BatchSize:     10,
			EstimatedCost: 200 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeSelector,
			Options:       stages,
			Undoable:      true,
		},
		{
			Kind:          model.OperationKindMoveLocation,
			Name:          "Move location",
			BatchSize:     10,
			EstimatedCost: 150 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeText,
			Undoable:      true,
		},
		{
			Kind:          model.OperationKindRecordMetrics,
			Name:          "Record metrics",
			BatchSize:     5,
			EstimatedCost: 250 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeMetrics,
		},
		{
			Kind:          model.OperationKindAddNote,
			Name:          "Add note",
			BatchSize:     10,
			EstimatedCost: 100 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeText,
		},
		{
			Kind:          model.OperationKindHarvest,
			Name:          "Harvest",
			BatchSize:     5,
			EstimatedCost: 300 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeMetrics,
			Undoable:      true,
		},
		{
			Kind:          model.OperationKindClone,
			Name:          "Take clones",
			BatchSize:     2,
			EstimatedCost: 500 * time.Millisecond,
			RequiresInput: true,
			InputShape:    model.InputShapeCount,
		},
		{
			Kind:          model.OperationKindDelete,
			Name:          "Delete",
			BatchSize:     5,
			EstimatedCost: 200 * time.Millisecond,
			InputShape:    model.InputShapeNone,
			Undoable:      true,
			Destructive:   true,
		},
	}
}

// Get returns the descriptor of an operation kind.
func (c *Catalog) Get(kind model.OperationKind) (model.OperationDescriptor, error) {
	d, ok := c.descs[kind]
	if !ok {
		return model.OperationDescriptor{}, fmt.Errorf("operation %q: %w: %w", kind, model.ErrConfiguration, model.ErrNotFound)
	}
	return d.Copy(), nil
}

// Kinds returns all the operation kinds sorted.
func (c *Catalog) Kinds() []model.OperationKind {
	return slices.Sorted(maps.Keys(c.descs))
}

// List returns all the descriptors sorted by kind.
func (c *Catalog) List() []model.OperationDescriptor {
	kinds := c.Kinds()
	out := make([]model.OperationDescriptor, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, c.descs[k].Copy())
	}
	return out
}

// AvailableFor returns the operations that can be applied to the selected plants,
// sorted by kind. An empty selection has no operations available.
func (c *Catalog) AvailableFor(plants []model.Plant) []model.OperationDescriptor {
	if len(plants) == 0 {
		return []model.OperationDescriptor{}
	}

	allHarvested, allComplete := true, true
	for _, p := range plants {
		if p.Status != model.PlantStatusHarvested {
			allHarvested = false
		}
		if p.Stage != model.PlantStageComplete {
			allComplete = false
		}
	}

	out := []model.OperationDescriptor{}
	for _, d := range c.List() {
		switch d.Kind {
		case model.OperationKindHarvest, model.OperationKindClone:
			if allHarvested {
				continue
			}
		case model.OperationKindUpdateStage:
			if allComplete {
				continue
			}
		}
		out = append(out, d)
	}

	return out
}

// ValidateInput checks the input of a run against the operation input shape.
func (c *Catalog) ValidateInput(kind model.OperationKind, input model.OperationInput) error {
	d, err := c.Get(kind)
	if err != nil {
		return err
	}

	if !d.RequiresInput {
		return nil
	}

	switch d.InputShape {
	case model.InputShapeSelector:
		if input.Value == "" {
			return fmt.Errorf("operation %q requires a value: %w", kind, model.ErrValidation)
		}
		if !slices.Contains(d.Options, input.Value) {
			return fmt.Errorf("value %q is not one of %s: %w", input.Value, strings.Join(d.Options, ", "), model.ErrValidation)
		}
	case model.InputShapeText:
		if strings.TrimSpace(input.Value) == "" {
			return fmt.Errorf("operation %q requires a text value: %w", kind, model.ErrValidation)
		}
	case model.InputShapeMetrics:
		if len(input.Metrics) == 0 {
			return fmt.Errorf("operation %q requires at least one metric: %w", kind, model.ErrValidation)
		}
		for k := range input.Metrics {
			if strings.TrimSpace(k) == "" {
				return fmt.Errorf("metric name is required: %w", model.ErrValidation)
			}
		}
	case model.InputShapeCount:
		if input.Count < 1 || input.Count > MaxCloneCount {
			return fmt.Errorf("count must be between 1 and %d, got %d: %w", MaxCloneCount, input.Count, model.ErrValidation)
		}
	}

	return nil
}
