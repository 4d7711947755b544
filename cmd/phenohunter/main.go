package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/cmd/phenohunter/commands"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
	loglogrus "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("phenohunter", "Plant record bulk operations.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	plantCmd := commands.NewPlantCommand(app)
	plantListCmd := commands.NewPlantListCommand(rootCmd, plantCmd)
	plantImportCmd := commands.NewPlantImportCommand(rootCmd, plantCmd)
	opsCmd := commands.NewOpsCommand(rootCmd, app)
	runCmd := commands.NewRunCommand(rootCmd, app)
	undoCmd := commands.NewUndoCommand(rootCmd, app)
	historyCmd := commands.NewHistoryCommand(rootCmd, app)
	jobCmd := commands.NewJobCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		plantListCmd.Name():   plantListCmd,
		plantImportCmd.Name(): plantImportCmd,
		opsCmd.Name():         opsCmd,
		runCmd.Name():         runCmd,
		undoCmd.Name():        undoCmd,
		historyCmd.Name():     historyCmd,
		jobCmd.Name():         jobCmd,
	}

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Commands that only print tables or JSON don't log unless debugging.
	printerCommands := map[string]bool{
		"plant list": true,
		"ops":        true,
		"history":    true,
		"job":        true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	rootCmd.Logger = getLogger(*rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func getLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})
	logger.Debugf("Debug level is enabled")

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
