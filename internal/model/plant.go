package model

import (
	"fmt"
	"maps"
	"time"
)

// PlantStatus represents the status of a plant record.
type PlantStatus string

const (
	PlantStatusActive    PlantStatus = "active"
	PlantStatusHarvested PlantStatus = "harvested"
	PlantStatusCulled    PlantStatus = "culled"
	PlantStatusArchived  PlantStatus = "archived"
)

// PlantStatuses are all the known plant statuses.
var PlantStatuses = []PlantStatus{
	PlantStatusActive,
	PlantStatusHarvested,
	PlantStatusCulled,
	PlantStatusArchived,
}

// PlantStage is the growth stage of a plant. The lifecycle semantics of each stage
// are owned by an external evaluator, for this package they are opaque values.
type PlantStage string

const (
	PlantStageGermination PlantStage = "germination"
	PlantStageSeedling    PlantStage = "seedling"
	PlantStageVegetative  PlantStage = "vegetative"
	PlantStageFlowering   PlantStage = "flowering"
	PlantStageDrying      PlantStage = "drying"
	PlantStageCuring      PlantStage = "curing"
	PlantStageComplete    PlantStage = "complete"
)

// PlantStages are all the known growth stages in lifecycle order.
var PlantStages = []PlantStage{
	PlantStageGermination,
	PlantStageSeedling,
	PlantStageVegetative,
	PlantStageFlowering,
	PlantStageDrying,
	PlantStageCuring,
	PlantStageComplete,
}

// Plant is a single plant record, it's the entity snapshot the bulk engine operates on.
type Plant struct {
	ID        string
	Name      string
	Strain    string
	Status    PlantStatus
	Stage     PlantStage
	Location  string
	MotherID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the plant model.
func (p Plant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("plant id is required: %w", ErrNotValid)
	}

	if p.Name == "" {
		return fmt.Errorf("plant name is required: %w", ErrNotValid)
	}

	if !validStatus(p.Status) {
		return fmt.Errorf("plant status %q is invalid: %w", p.Status, ErrNotValid)
	}

	if !validStage(p.Stage) {
		return fmt.Errorf("plant stage %q is invalid: %w", p.Stage, ErrNotValid)
	}

	if p.CreatedAt.IsZero() {
		return fmt.Errorf("created at is required: %w", ErrNotValid)
	}

	return nil
}

// Field is a mutable field of a plant that can be patched.
type Field string

const (
	FieldName     Field = "name"
	FieldStrain   Field = "strain"
	FieldStatus   Field = "status"
	FieldStage    Field = "stage"
	FieldLocation Field = "location"
)

// Valid returns true if the field is a known patchable field.
func (f Field) Valid() bool {
	switch f {
	case FieldName, FieldStrain, FieldStatus, FieldStage, FieldLocation:
		return true
	}
	return false
}

// Patch is a partial update of a plant, field to new value.
type Patch map[Field]string

// Validate validates the patch fields and values.
func (p Patch) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("patch is empty: %w", ErrNotValid)
	}

	for f, v := range p {
		if !f.Valid() {
			return fmt.Errorf("field %q is not patchable: %w", f, ErrNotValid)
		}

		switch f {
		case FieldName:
			if v == "" {
				return fmt.Errorf("plant name is required: %w", ErrNotValid)
			}
		case FieldStatus:
			if !validStatus(PlantStatus(v)) {
				return fmt.Errorf("plant status %q is invalid: %w", v, ErrNotValid)
			}
		case FieldStage:
			if !validStage(PlantStage(v)) {
				return fmt.Errorf("plant stage %q is invalid: %w", v, ErrNotValid)
			}
		}
	}

	return nil
}

// Get returns the current value of a field.
func (p Plant) Get(f Field) (string, error) {
	switch f {
	case FieldName:
		return p.Name, nil
	case FieldStrain:
		return p.Strain, nil
	case FieldStatus:
		return string(p.Status), nil
	case FieldStage:
		return string(p.Stage), nil
	case FieldLocation:
		return p.Location, nil
	}

	return "", fmt.Errorf("field %q is not patchable: %w", f, ErrNotValid)
}

// Apply returns a copy of the plant with the patch applied.
func (p Plant) Apply(patch Patch) (Plant, error) {
	if err := patch.Validate(); err != nil {
		return Plant{}, err
	}

	for f, v := range patch {
		switch f {
		case FieldName:
			p.Name = v
		case FieldStrain:
			p.Strain = v
		case FieldStatus:
			p.Status = PlantStatus(v)
		case FieldStage:
			p.Stage = PlantStage(v)
		case FieldLocation:
			p.Location = v
		}
	}

	return p, nil
}

// LogCollection is the name of a plant sub-log.
type LogCollection string

const (
	LogCollectionStatusChanges    LogCollection = "status_changes"
	LogCollectionStageTransitions LogCollection = "stage_transitions"
	LogCollectionMetrics          LogCollection = "metrics"
	LogCollectionNotes            LogCollection = "notes"
	LogCollectionHarvests         LogCollection = "harvests"
)

// LogEntry is an append-only entry on one of the sub-logs of a plant.
type LogEntry struct {
	ID         string
	PlantID    string
	Collection LogCollection
	Data       map[string]string
	CreatedAt  time.Time
}

// Copy returns a deep copy of the log entry.
func (l LogEntry) Copy() LogEntry {
	l.Data = maps.Clone(l.Data)
	return l
}

func validStatus(s PlantStatus) bool {
	for _, st := range PlantStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func validStage(s PlantStage) bool {
	for _, st := range PlantStages {
		if st == s {
			return true
		}
	}
	return false
}
