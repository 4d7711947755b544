package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/history"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/metrics"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	limit        int
	undoableOnly bool
	format       string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List the last bulk operations, newest first.")
	c.Cmd.Flag("limit", "Max number of entries, 0 lists all.").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("undoable", "Only list undoable operations.").BoolVar(&c.undoableOnly)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	s, err := c.rootCmd.newStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	l, err := c.rootCmd.newUndoLog(ctx, s, metrics.Noop)
	if err != nil {
		return err
	}

	svc, err := history.NewService(history.ServiceConfig{
		History: l,
		Logger:  c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	entries, err := svc.Run(ctx, history.Request{
		Limit:        c.limit,
		UndoableOnly: c.undoableOnly,
	})
	if err != nil {
		return fmt.Errorf("could not list history: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintHistory(entries); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}
