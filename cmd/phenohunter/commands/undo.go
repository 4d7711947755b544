package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	appundo "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/undo"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/undo"
)

type UndoCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dryRun bool
	format string
}

// NewUndoCommand returns the undo command.
func NewUndoCommand(rootCmd *RootCommand, app *kingpin.Application) *UndoCommand {
	c := &UndoCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("undo", "Undo the last bulk operation.")
	c.Cmd.Flag("dry-run", "Show what would be undone without applying it.").BoolVar(&c.dryRun)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c UndoCommand) Name() string { return c.Cmd.FullCommand() }

func (c UndoCommand) Run(ctx context.Context) error {
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

	svc, err := appundo.NewService(appundo.ServiceConfig{
		History:    history,
		Repository: s.plants,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	entry, err := svc.Run(ctx, appundo.Request{DryRun: c.dryRun})
	switch {
	case errors.Is(err, model.ErrNoUndoableOperation):
		return p.PrintMessage("Nothing to undo")
	case err != nil:
		var uerr *undo.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("%w (run undo again to retry the %d plants not restored)", err, len(uerr.NotRestored))
		}
		return fmt.Errorf("could not undo: %w", err)
	}

	verb := "Undone"
	if c.dryRun {
		verb = "Would undo"
	}
	msg := fmt.Sprintf("%s %s on %d plants", verb, entry.OperationKind, len(entry.UndoPatches))

	return p.PrintMessage(msg)
}
