package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// JSONPrinter prints information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type plantOutput struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Strain    string    `json:"strain,omitempty"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Location  string    `json:"location,omitempty"`
	MotherID  string    `json:"mother_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type operationOutput struct {
	Kind          string   `json:"kind"`
	Name          string   `json:"name"`
	BatchSize     int      `json:"batch_size"`
	EstimatedCost string   `json:"estimated_cost"`
	RequiresInput bool     `json:"requires_input"`
	InputShape    string   `json:"input_shape"`
	Options       []string `json:"options,omitempty"`
	Undoable      bool     `json:"undoable"`
	Destructive   bool     `json:"destructive"`
}

type progressOutput struct {
	JobID        string  `json:"job_id"`
	Operation    string  `json:"operation"`
	State        string  `json:"state"`
	Percent      float64 `json:"percent"`
	Total        int     `json:"total"`
	CurrentBatch int     `json:"current_batch"`
	TotalBatches int     `json:"total_batches"`
	Completed    int     `json:"completed"`
	Failed       int     `json:"failed"`
	Processing   int     `json:"processing"`
}

type jobOutput struct {
	progressOutput
	CompletedIDs   []string           `json:"completed_ids"`
	FailedItems    []failedItemOutput `json:"failed_items"`
	StartedAt      time.Time          `json:"started_at"`
	EstimatedEndAt time.Time          `json:"estimated_end_at"`
	FinishedAt     *time.Time         `json:"finished_at"`
}

type failedItemOutput struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type historyOutput struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id"`
	Operation    string    `json:"operation"`
	Input        string    `json:"input,omitempty"`
	ItemCount    int       `json:"item_count"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	Undoable     bool      `json:"undoable"`
	Timestamp    time.Time `json:"timestamp"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintPlants prints plants in JSON format.
func (j *JSONPrinter) PrintPlants(plants []model.Plant) error {
	items := make([]plantOutput, len(plants))
	for i, p := range plants {
		items[i] = plantOutput{
			ID:        p.ID,
			Name:      p.Name,
			Strain:    p.Strain,
			Status:    string(p.Status),
			Stage:     string(p.Stage),
			Location:  p.Location,
			MotherID:  p.MotherID,
			CreatedAt: p.CreatedAt.UTC(),
			UpdatedAt: p.UpdatedAt.UTC(),
		}
	}

	return j.encode(items, true)
}

// PrintOperations prints the operation descriptors in JSON format.
func (j *JSONPrinter) PrintOperations(ops []model.OperationDescriptor) error {
	items := make([]operationOutput, len(ops))
	for i, o := range ops {
		items[i] = operationOutput{
			Kind:          string(o.Kind),
			Name:          o.Name,
			BatchSize:     o.BatchSize,
			EstimatedCost: o.EstimatedCost.String(),
			RequiresInput: o.RequiresInput,
			InputShape:    string(o.InputShape),
			Options:       o.Options,
			Undoable:      o.Undoable,
			Destructive:   o.Destructive,
		}
	}

	return j.encode(items, true)
}

// PrintProgress prints the job progress as a single JSON line.
func (j *JSONPrinter) PrintProgress(p model.JobProgress) error {
	return j.encode(newProgressOutput(p), false)
}

// PrintJob prints the detailed job progress in JSON format.
func (j *JSONPrinter) PrintJob(p model.JobProgress) error {
	out := jobOutput{
		progressOutput: newProgressOutput(p),
		CompletedIDs:   make([]string, 0, len(p.Completed)),
		FailedItems:    make([]failedItemOutput, 0, len(p.Failed)),
		StartedAt:      p.StartedAt.UTC(),
		EstimatedEndAt: p.EstimatedEndAt.UTC(),
	}
	for _, c := range p.Completed {
		out.CompletedIDs = append(out.CompletedIDs, c.ID)
	}
	for _, f := range p.Failed {
		out.FailedItems = append(out.FailedItems, failedItemOutput{ID: f.ID, Error: f.Error})
	}
	if !p.FinishedAt.IsZero() {
		finishedAt := p.FinishedAt.UTC()
		out.FinishedAt = &finishedAt
	}

	return j.encode(out, true)
}

// PrintHistory prints the history entries in JSON format.
func (j *JSONPrinter) PrintHistory(entries []model.HistoryEntry) error {
	items := make([]historyOutput, len(entries))
	for i, e := range entries {
		items[i] = historyOutput{
			ID:           e.ID,
			JobID:        e.JobID,
			Operation:    string(e.OperationKind),
			Input:        FormatInput(e.Input),
			ItemCount:    e.ItemCount,
			SuccessCount: e.SuccessCount,
			FailureCount: e.FailureCount,
			Undoable:     e.CanUndo(),
			Timestamp:    e.Timestamp.UTC(),
		}
	}

	return j.encode(items, true)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg}, true)
}

func (j *JSONPrinter) encode(v any, indent bool) error {
	enc := json.NewEncoder(j.writer)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func newProgressOutput(p model.JobProgress) progressOutput {
	return progressOutput{
		JobID:        p.JobID,
		Operation:    string(p.OperationKind),
		State:        string(p.State),
		Percent:      p.Percent(),
		Total:        p.Total,
		CurrentBatch: p.CurrentBatch,
		TotalBatches: p.TotalBatches,
		Completed:    len(p.Completed),
		Failed:       len(p.Failed),
		Processing:   len(p.Processing),
	}
}
