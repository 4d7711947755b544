package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantimport"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/app/plantlist"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
	storageio "github.com/jturner1120/pheno-hunter-alpha-sub001/internal/storage/io"
)

// NewPlantCommand returns the plant parent command.
func NewPlantCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("plant", "Manage plant records.")
}

// filterFlags registers the plant filter flags on a command.
func filterFlags(cmd *kingpin.CmdClause, prefix string, f *plantlist.Filter) {
	statuses := make([]string, 0, len(model.PlantStatuses))
	for _, s := range model.PlantStatuses {
		statuses = append(statuses, string(s))
	}
	stages := make([]string, 0, len(model.PlantStages))
	for _, s := range model.PlantStages {
		stages = append(stages, string(s))
	}

	cmd.Flag(prefix+"status", "Filter by plant status.").EnumVar((*string)(&f.Status), statuses...)
	cmd.Flag(prefix+"stage", "Filter by growth stage.").EnumVar((*string)(&f.Stage), stages...)
	cmd.Flag(prefix+"location", "Filter by location.").StringVar(&f.Location)
	cmd.Flag(prefix+"strain", "Filter by strain.").StringVar(&f.Strain)
}

type PlantListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	filter plantlist.Filter
	format string
}

// NewPlantListCommand returns the plant list command.
func NewPlantListCommand(rootCmd *RootCommand, plantCmd *kingpin.CmdClause) *PlantListCommand {
	c := &PlantListCommand{rootCmd: rootCmd}

	c.Cmd = plantCmd.Command("list", "List plants.")
	filterFlags(c.Cmd, "", &c.filter)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c PlantListCommand) Name() string { return c.Cmd.FullCommand() }

func (c PlantListCommand) Run(ctx context.Context) error {
	s, err := c.rootCmd.newStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := plantlist.NewService(plantlist.ServiceConfig{
		Repository: s.plants,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	plants, err := svc.Run(ctx, plantlist.Request{Filter: c.filter})
	if err != nil {
		return fmt.Errorf("could not list plants: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintPlants(plants); err != nil {
		return fmt.Errorf("could not print plants: %w", err)
	}

	return nil
}

type PlantImportCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	path         string
	skipExisting bool
}

// NewPlantImportCommand returns the plant import command.
func NewPlantImportCommand(rootCmd *RootCommand, plantCmd *kingpin.CmdClause) *PlantImportCommand {
	c := &PlantImportCommand{rootCmd: rootCmd}

	c.Cmd = plantCmd.Command("import", "Import plants from a YAML file.")
	c.Cmd.Arg("file", "YAML file with the plants.").Required().StringVar(&c.path)
	c.Cmd.Flag("skip-existing", "Skip the plants that already exist instead of failing.").BoolVar(&c.skipExisting)

	return c
}

func (c PlantImportCommand) Name() string { return c.Cmd.FullCommand() }

func (c PlantImportCommand) Run(ctx context.Context) error {
	s, err := c.rootCmd.newStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := plantimport.NewService(plantimport.ServiceConfig{
		Loader:     storageio.NewPlantYAMLRepository(os.DirFS(filepath.Dir(c.path))),
		Repository: s.plants,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, plantimport.Request{
		Path:         filepath.Base(c.path),
		SkipExisting: c.skipExisting,
	})
	if err != nil {
		return fmt.Errorf("could not import plants: %w", err)
	}

	msg := fmt.Sprintf("Imported %d plants", len(res.Imported))
	if len(res.Skipped) > 0 {
		msg = fmt.Sprintf("%s, skipped %d existing", msg, len(res.Skipped))
	}

	return newPrinter(formatTable, c.rootCmd.Stdout).PrintMessage(msg)
}
