package printer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

// TablePrinter prints information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintPlants prints plants in a table format.
func (t *TablePrinter) PrintPlants(plants []model.Plant) error {
	if len(plants) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tSTRAIN\tSTATUS\tSTAGE\tLOCATION\tUPDATED")
	for _, p := range plants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, dash(p.Strain), p.Status, p.Stage, dash(p.Location), TimeAgo(p.UpdatedAt))
	}

	return nil
}

// PrintOperations prints the operation descriptors in a table format.
func (t *TablePrinter) PrintOperations(ops []model.OperationDescriptor) error {
	if len(ops) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "KIND\tNAME\tINPUT\tBATCH\tUNDOABLE\tDESTRUCTIVE")
	for _, o := range ops {
		input := string(o.InputShape)
		if len(o.Options) > 0 {
			input = fmt.Sprintf("%s (%s)", input, strings.Join(o.Options, "|"))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", o.Kind, o.Name, input, o.BatchSize, yesNo(o.Undoable), yesNo(o.Destructive))
	}

	return nil
}

// PrintProgress prints a one line job progress.
func (t *TablePrinter) PrintProgress(p model.JobProgress) error {
	fmt.Fprintf(t.writer, "%s %3.0f%% batch %d/%d: %d ok, %d failed, %d processing (%s)\n",
		ProgressBar(p.Percent(), progressBarWidth), p.Percent(), p.CurrentBatch, p.TotalBatches,
		len(p.Completed), len(p.Failed), len(p.Processing), p.State)
	return nil
}

// PrintJob prints the detailed job progress with the failed items.
func (t *TablePrinter) PrintJob(p model.JobProgress) error {
	fmt.Fprintf(t.writer, "Job:        %s\n", p.JobID)
	fmt.Fprintf(t.writer, "Operation:  %s\n", p.OperationKind)
	fmt.Fprintf(t.writer, "State:      %s\n", p.State)
	fmt.Fprintf(t.writer, "Progress:   %s %d/%d\n", ProgressBar(p.Percent(), progressBarWidth), p.Settled(), p.Total)
	fmt.Fprintf(t.writer, "Batches:    %d/%d\n", p.CurrentBatch, p.TotalBatches)
	fmt.Fprintf(t.writer, "Succeeded:  %d\n", len(p.Completed))
	fmt.Fprintf(t.writer, "Failed:     %d\n", len(p.Failed))
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(p.StartedAt))

	if p.IsTerminal() {
		fmt.Fprintf(t.writer, "Finished:   %s\n", FormatTimestamp(p.FinishedAt))
	} else {
		fmt.Fprintf(t.writer, "ETA:        %s (%s)\n", FormatTimestamp(p.EstimatedEndAt), TimeUntil(p.EstimatedEndAt))
	}

	if len(p.Failed) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "FAILED\tERROR")
	for _, f := range p.Failed {
		fmt.Fprintf(tw, "%s\t%s\n", f.ID, f.Error)
	}

	return nil
}

// PrintHistory prints the history entries in a table format.
func (t *TablePrinter) PrintHistory(entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tOPERATION\tINPUT\tITEMS\tOK\tFAILED\tUNDOABLE\tWHEN")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.ID, e.OperationKind, dash(FormatInput(e.Input)), e.ItemCount, e.SuccessCount, e.FailureCount,
			yesNo(e.CanUndo()), TimeAgo(e.Timestamp))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

// FormatInput returns a short text representation of an operation input.
// Examples: "flowering", "height_cm=40,ph=6.2", "x3".
func FormatInput(in model.OperationInput) string {
	switch {
	case len(in.Metrics) > 0:
		keys := make([]string, 0, len(in.Metrics))
		for k := range in.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		kvs := make([]string, 0, len(keys))
		for _, k := range keys {
			kvs = append(kvs, fmt.Sprintf("%s=%g", k, in.Metrics[k]))
		}
		return strings.Join(kvs, ",")
	case in.Count > 0:
		return fmt.Sprintf("x%d", in.Count)
	default:
		return in.Value
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
