package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/operations"
)

type OpsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	selection []string
	format    string
}

// NewOpsCommand returns the ops command.
func NewOpsCommand(rootCmd *RootCommand, app *kingpin.Application) *OpsCommand {
	c := &OpsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("ops", "List the bulk operations, or the ones available for a selection.")
	c.Cmd.Flag("select", "Plant ID to select (repeatable).").Short('s').StringsVar(&c.selection)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c OpsCommand) Name() string { return c.Cmd.FullCommand() }

func (c OpsCommand) Run(ctx context.Context) error {
	cat, err := c.rootCmd.newCatalog(ctx)
	if err != nil {
		return err
	}

	s, err := c.rootCmd.newStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := operations.NewService(operations.ServiceConfig{
		Catalog:    cat,
		Repository: s.plants,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	ops, err := svc.Run(ctx, operations.Request{Selection: c.selection})
	if err != nil {
		return fmt.Errorf("could not list operations: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintOperations(ops); err != nil {
		return fmt.Errorf("could not print operations: %w", err)
	}

	return nil
}
