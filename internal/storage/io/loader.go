package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// CatalogYAMLRepository loads operation descriptors from YAML files.
type CatalogYAMLRepository struct {
	fs fs.FS
}

// NewCatalogYAMLRepository creates a new YAML catalog repository.
func NewCatalogYAMLRepository(filesystem fs.FS) *CatalogYAMLRepository {
	return &CatalogYAMLRepository{fs: filesystem}
}

// GetDescriptors loads the operation descriptors from a YAML file. The descriptors
// are only structurally checked here, the catalog validates their contract.
func (r *CatalogYAMLRepository) GetDescriptors(ctx context.Context, path string) ([]model.OperationDescriptor, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if len(cfg.Operations) == 0 {
		return nil, fmt.Errorf("invalid catalog: at least one operation is required")
	}

	descs := make([]model.OperationDescriptor, 0, len(cfg.Operations))
	for i, op := range cfg.Operations {
		d, err := op.toModel()
		if err != nil {
			return nil, fmt.Errorf("invalid catalog: operation %d: %w", i, err)
		}
		descs = append(descs, d)
	}

	return descs, nil
}

// CatalogConfig represents the YAML structure of an operation catalog.
type CatalogConfig struct {
	Operations []OperationConfig `yaml:"operations"`
}

// OperationConfig represents the YAML structure of one operation descriptor.
type OperationConfig struct {
	Kind          string   `yaml:"kind"`
	Name          string   `yaml:"name"`
	BatchSize     int      `yaml:"batch_size"`
	EstimatedCost string   `yaml:"estimated_cost"`
	RequiresInput bool     `yaml:"requires_input"`
	InputShape    string   `yaml:"input_shape"`
	Options       []string `yaml:"options"`
	Undoable      bool     `yaml:"undoable"`
	Destructive   bool     `yaml:"destructive"`
}

func (c OperationConfig) toModel() (model.OperationDescriptor, error) {
	if c.Kind == "" {
		return model.OperationDescriptor{}, fmt.Errorf("kind is required")
	}

	if c.EstimatedCost == "" {
		return model.OperationDescriptor{}, fmt.Errorf("estimated_cost is required")
	}
	cost, err := time.ParseDuration(c.EstimatedCost)
	if err != nil {
		return model.OperationDescriptor{}, fmt.Errorf("estimated_cost: %w", err)
	}

	shape := model.InputShape(c.InputShape)
	if shape == "" {
		shape = model.InputShapeNone
	}

	name := c.Name
	if name == "" {
		name = c.Kind
	}

	return model.OperationDescriptor{
		Kind:          model.OperationKind(c.Kind),
		Name:          name,
		BatchSize:     c.BatchSize,
		EstimatedCost: cost,
		RequiresInput: c.RequiresInput,
		InputShape:    shape,
		Options:       c.Options,
		Undoable:      c.Undoable,
		Destructive:   c.Destructive,
	}, nil
}

// PlantYAMLRepository loads plant records to import from YAML files.
type PlantYAMLRepository struct {
	fs fs.FS
}

// NewPlantYAMLRepository creates a new YAML plant repository.
func NewPlantYAMLRepository(filesystem fs.FS) *PlantYAMLRepository {
	return &PlantYAMLRepository{fs: filesystem}
}

// GetPlants loads plants from a YAML file. Missing status and stage are defaulted,
// the ID and timestamps are left to the caller when not present.
func (r *PlantYAMLRepository) GetPlants(ctx context.Context, path string) ([]model.Plant, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading plants file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var cfg PlantsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	plants := make([]model.Plant, 0, len(cfg.Plants))
	for i, p := range cfg.Plants {
		if p.Name == "" {
			return nil, fmt.Errorf("invalid plants: plant %d: name is required", i)
		}
		plants = append(plants, p.toModel())
	}

	return plants, nil
}

// PlantsConfig represents the YAML structure of a plant import file.
type PlantsConfig struct {
	Plants []PlantConfig `yaml:"plants"`
}

// PlantConfig represents the YAML structure of one plant.
type PlantConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Strain   string `yaml:"strain"`
	Status   string `yaml:"status"`
	Stage    string `yaml:"stage"`
	Location string `yaml:"location"`
	MotherID string `yaml:"mother_id"`
}

func (c PlantConfig) toModel() model.Plant {
	p := model.Plant{
		ID:       c.ID,
		Name:     c.Name,
		Strain:   c.Strain,
		Status:   model.PlantStatus(c.Status),
		Stage:    model.PlantStage(c.Stage),
		Location: c.Location,
		MotherID: c.MotherID,
	}

	if p.Status == "" {
		p.Status = model.PlantStatusActive
	}
	if p.Stage == "" {
		p.Stage = model.PlantStageGermination
	}

	return p
}
