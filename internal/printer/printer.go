package printer

import "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"

// Printer knows how to print plants and bulk job information in different formats.
type Printer interface {
	PrintPlants(plants []model.Plant) error
	PrintOperations(ops []model.OperationDescriptor) error
	// PrintProgress prints a one line progress update of a running job.
	PrintProgress(p model.JobProgress) error
	PrintJob(p model.JobProgress) error
	PrintHistory(entries []model.HistoryEntry) error
	PrintMessage(msg string) error
}

var (
	_ Printer = &TablePrinter{}
	_ Printer = &JSONPrinter{}
)
