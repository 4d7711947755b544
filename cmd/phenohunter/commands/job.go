package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/jobstatus"
)

type JobCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobID  string
	format string
}

// NewJobCommand returns the job command.
func NewJobCommand(rootCmd *RootCommand, app *kingpin.Application) *JobCommand {
	c := &JobCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("job", "Show the result of the last bulk job, or a job by ID.")
	c.Cmd.Arg("id", "Job ID.").StringVar(&c.jobID)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c JobCommand) Name() string { return c.Cmd.FullCommand() }

func (c JobCommand) Run(ctx context.Context) error {
	s, err := c.rootCmd.newStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := jobstatus.NewService(jobstatus.ServiceConfig{
		Repository: s.jobs,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	job, err := svc.Run(ctx, jobstatus.Request{JobID: c.jobID})
	if err != nil {
		return err
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintJob(*job); err != nil {
		return fmt.Errorf("could not print job: %w", err)
	}

	return nil
}
