package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/bulkrun"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantlist"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/bulk"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/printer"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kind       string
	selection  []string
	all        bool
	where      plantlist.Filter
	value      string
	metrics    []string
	count      int
	yes        bool
	noProgress bool
	format     string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run a bulk operation over a plant selection.")
	c.Cmd.Arg("operation", "Operation kind (see ops command).").Required().StringVar(&c.kind)
	c.Cmd.Flag("select", "Plant ID to select (repeatable).").Short('s').StringsVar(&c.selection)
	c.Cmd.Flag("all", "Select all the plants matching the where filters.").BoolVar(&c.all)
	filterFlags(c.Cmd, "where-", &c.where)
	c.Cmd.Flag("value", "Value for selector and text operations.").StringVar(&c.value)
	c.Cmd.Flag("metric", "Metric for metric operations as NAME=VALUE (repeatable).").Short('m').StringsVar(&c.metrics)
	c.Cmd.Flag("count", "Count for count operations.").IntVar(&c.count)
	c.Cmd.Flag("yes", "Confirm destructive operations.").Short('y').BoolVar(&c.yes)
	c.Cmd.Flag("no-progress", "Don't print the progress while running.").BoolVar(&c.noProgress)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	metricValues, err := parseMetrics(c.metrics)
	if err != nil {
		return err
	}

	cat, err := c.rootCmd.newCatalog(ctx)
	if err != nil {
		return err
	}

	s, err := c.rootCmd.newStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, pushMetrics := c.rootCmd.newMetrics()
	defer pushMetrics(context.WithoutCancel(ctx))

	history, err := c.rootCmd.newUndoLog(ctx, s, rec)
	if err != nil {
		return err
	}

	var hook bulk.ProgressHook
	if !c.noProgress {
		hook = newProgressPrinter(printer.NewTablePrinter(c.rootCmd.Stderr)).hook
	}

	ex, err := bulk.NewExecutor(bulk.ExecutorConfig{
		Catalog:         cat,
		Store:           s.plants,
		History:         history,
		JobRepository:   s.jobs,
		ThrottleDelay:   c.rootCmd.ThrottleDelay,
		GracePeriod:     c.rootCmd.GracePeriod,
		ProgressHook:    hook,
		MetricsRecorder: rec,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create executor: %w", err)
	}

	svc, err := bulkrun.NewService(bulkrun.ServiceConfig{
		Executor:   ex,
		Catalog:    cat,
		Repository: s.plants,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, bulkrun.Request{
		Kind: model.OperationKind(c.kind),
		Input: model.OperationInput{
			Value:   c.value,
			Metrics: metricValues,
			Count:   c.count,
		},
		IDs:       c.selection,
		Where:     c.where,
		All:       c.all,
		Confirmed: c.yes,
	})
	if err != nil {
		return err
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintJob(res.Progress); err != nil {
		return fmt.Errorf("could not print job: %w", err)
	}

	return nil
}

// progressPrinter prints the job progress once per batch and on the terminal state.
type progressPrinter struct {
	mu      sync.Mutex
	p       printer.Printer
	printed map[string]bool
}

func newProgressPrinter(p printer.Printer) *progressPrinter {
	return &progressPrinter{p: p, printed: map[string]bool{}}
}

func (p *progressPrinter) hook(progress model.JobProgress) {
	if len(progress.Processing) > 0 || progress.CurrentBatch == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := fmt.Sprintf("%s/%d/%s", progress.JobID, progress.CurrentBatch, progress.State)
	if p.printed[key] {
		return
	}
	p.printed[key] = true
	_ = p.p.PrintProgress(progress)
}

// parseMetrics parses NAME=VALUE metrics, later entries override earlier ones.
func parseMetrics(raw []string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]float64, len(raw))
	for _, m := range raw {
		name, value, ok := strings.Cut(m, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid metric %q, must be NAME=VALUE", m)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid metric %q value: %w", m, err)
		}
		out[name] = v
	}

	return out, nil
}
