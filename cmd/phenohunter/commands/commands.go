package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"k8s.io/client-go/util/homedir"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/bulk"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/catalog"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/conventions"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/metrics"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/printer"
	storageio "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/io"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/sqlite"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"

	pushgatewayJob = "phenohunter"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	DBPath         string
	CatalogPath    string
	ThrottleDelay  time.Duration
	GracePeriod    time.Duration
	PushgatewayURL string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := conventions.DBPath(homedir.HomeDir())
	app.Flag("db-path", "Path to the SQLite database file.").Envar("PHENOHUNTER_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("catalog", "Path to a YAML operation catalog, the built-in one is used if empty.").StringVar(&c.CatalogPath)
	app.Flag("throttle", "Pause between bulk batches.").Default(bulk.DefaultThrottleDelay.String()).DurationVar(&c.ThrottleDelay)
	app.Flag("grace-period", "Time the job slot is kept after a bulk job finishes.").Default("0s").DurationVar(&c.GracePeriod)
	app.Flag("pushgateway-url", "Prometheus Pushgateway URL to push the job metrics to, disabled if empty.").StringVar(&c.PushgatewayURL)

	return c
}

// stores are the SQLite repositories sharing the same database.
type stores struct {
	plants  *sqlite.Repository
	history *sqlite.HistoryRepository
	jobs    *sqlite.JobRepository
}

func (s stores) Close() error { return s.plants.Close() }

func (c RootCommand) newStores(ctx context.Context) (*stores, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.DBPath,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	historyRepo, err := sqlite.NewHistoryRepository(sqlite.HistoryRepositoryConfig{
		DB:     repo.DB(),
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create history repository: %w", err)
	}

	jobRepo, err := sqlite.NewJobRepository(sqlite.JobRepositoryConfig{
		DB:     repo.DB(),
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create job repository: %w", err)
	}

	return &stores{plants: repo, history: historyRepo, jobs: jobRepo}, nil
}

func (c RootCommand) newCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if c.CatalogPath == "" {
		return catalog.Default(), nil
	}

	loader := storageio.NewCatalogYAMLRepository(os.DirFS(filepath.Dir(c.CatalogPath)))
	descs, err := loader.GetDescriptors(ctx, filepath.Base(c.CatalogPath))
	if err != nil {
		return nil, fmt.Errorf("could not load catalog %s: %w", c.CatalogPath, err)
	}

	cat, err := catalog.New(descs...)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", c.CatalogPath, err)
	}
	c.Logger.Debugf("Loaded %d operations from %s", len(descs), c.CatalogPath)

	return cat, nil
}

func (c RootCommand) newUndoLog(ctx context.Context, s *stores, rec metrics.Recorder) (*undo.Log, error) {
	l, err := undo.NewLog(undo.LogConfig{
		Repository:      s.history,
		MetricsRecorder: rec,
		Logger:          c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create undo log: %w", err)
	}

	if err := l.Load(ctx); err != nil {
		return nil, err
	}

	return l, nil
}

// newMetrics returns the metrics recorder and a func that pushes the recorded metrics
// to the Pushgateway. Without Pushgateway the recorder is a noop.
func (c RootCommand) newMetrics() (metrics.Recorder, func(ctx context.Context)) {
	if c.PushgatewayURL == "" {
		return metrics.Noop, func(context.Context) {}
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg)
	pushFn := func(ctx context.Context) {
		err := push.New(c.PushgatewayURL, pushgatewayJob).Gatherer(reg).PushContext(ctx)
		if err != nil {
			c.Logger.Warningf("Could not push metrics: %s", err)
			return
		}
		c.Logger.Debugf("Metrics pushed to %s", c.PushgatewayURL)
	}

	return rec, pushFn
}

func newPrinter(format string, w io.Writer) printer.Printer {
	if format == formatJSON {
		return printer.NewJSONPrinter(w)
	}
	return printer.NewTablePrinter(w)
}

func formatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}
