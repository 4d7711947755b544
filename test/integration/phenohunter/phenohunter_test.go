package phenohunter_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intph "github.com/jturner1120/pheno-hunter-alpha-sub001/test/integration/phenohunter"
)

const plantsYAML = `
plants:
  - id: p1
    name: "GG4 1"
    strain: gg4
    stage: vegetative
    location: tent-a
  - id: p2
    name: "GG4 2"
    strain: gg4
    stage: vegetative
    location: tent-a
  - id: p3
    name: "Zkittlez 1"
    strain: zkittlez
    stage: flowering
    location: tent-b
`

type plantItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Stage    string `json:"stage"`
	Location string `json:"location"`
}

type jobOutput struct {
	JobID        string   `json:"job_id"`
	State        string   `json:"state"`
	Total        int      `json:"total"`
	CompletedIDs []string `json:"completed_ids"`
	FailedItems  []struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	} `json:"failed_items"`
}

type historyItem struct {
	ID       string `json:"id"`
	JobID    string `json:"job_id"`
	Undoable bool   `json:"undoable"`
}

// setup returns a new database path with the fixture plants imported.
func setup(ctx context.Context, t *testing.T, config intph.Config) string {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test-phenohunter.db")
	plantsPath := filepath.Join(dir, "plants.yaml")
	require.NoError(t, os.WriteFile(plantsPath, []byte(plantsYAML), 0o644))

	stdout, stderr, err := intph.Run(ctx, config, dbPath, "plant", "import", plantsPath)
	require.NoError(t, err, "import failed: stdout=%s stderr=%s", stdout, stderr)
	assert.Contains(t, string(stdout), "Imported 3 plants")

	return dbPath
}

func listPlants(ctx context.Context, t *testing.T, config intph.Config, dbPath string) map[string]plantItem {
	t.Helper()

	stdout, stderr, err := intph.Run(ctx, config, dbPath, "plant", "list", "--format", "json")
	require.NoError(t, err, "list failed: stdout=%s stderr=%s", stdout, stderr)

	var items []plantItem
	require.NoError(t, json.Unmarshal(stdout, &items))

	out := map[string]plantItem{}
	for _, p := range items {
		out[p.ID] = p
	}
	return out
}

func TestBulkStageUpdateAndUndo(t *testing.T) {
	config := intph.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbPath := setup(ctx, t, config)

	// Update the tent-a plants plus one that doesn't exist.
	stdout, stderr, err := intph.Run(ctx, config, dbPath,
		"run", "update_stage", "--value", "flowering", "--where-location", "tent-a", "-s", "missing",
		"--no-progress", "--format", "json")
	require.NoError(t, err, "run failed: stdout=%s stderr=%s", stdout, stderr)

	var job jobOutput
	require.NoError(t, json.Unmarshal(stdout, &job))
	assert.Equal(t, "completed", job.State)
	assert.Equal(t, 3, job.Total)
	assert.ElementsMatch(t, []string{"p1", "p2"}, job.CompletedIDs)
	require.Len(t, job.FailedItems, 1)
	assert.Equal(t, "missing", job.FailedItems[0].ID)

	plants := listPlants(ctx, t, config, dbPath)
	assert.Equal(t, "flowering", plants["p1"].Stage)
	assert.Equal(t, "flowering", plants["p2"].Stage)

	// The job is journaled.
	stdout, stderr, err = intph.Run(ctx, config, dbPath, "job", "--format", "json")
	require.NoError(t, err, "job failed: stdout=%s stderr=%s", stdout, stderr)
	var journaled jobOutput
	require.NoError(t, json.Unmarshal(stdout, &journaled))
	assert.Equal(t, job.JobID, journaled.JobID)
	assert.Equal(t, "completed", journaled.State)

	// The history has the undoable entry.
	stdout, stderr, err = intph.Run(ctx, config, dbPath, "history", "--format", "json")
	require.NoError(t, err, "history failed: stdout=%s stderr=%s", stdout, stderr)
	var history []historyItem
	require.NoError(t, json.Unmarshal(stdout, &history))
	require.Len(t, history, 1)
	assert.Equal(t, job.JobID, history[0].JobID)
	assert.True(t, history[0].Undoable)

	// Undo from a new process restores the stages.
	stdout, stderr, err = intph.Run(ctx, config, dbPath, "undo")
	require.NoError(t, err, "undo failed: stdout=%s stderr=%s", stdout, stderr)
	assert.Contains(t, string(stdout), "Undone update_stage on 2 plants")

	plants = listPlants(ctx, t, config, dbPath)
	assert.Equal(t, "vegetative", plants["p1"].Stage)
	assert.Equal(t, "vegetative", plants["p2"].Stage)
	assert.Equal(t, "flowering", plants["p3"].Stage)

	stdout, stderr, err = intph.Run(ctx, config, dbPath, "undo")
	require.NoError(t, err, "second undo failed: stdout=%s stderr=%s", stdout, stderr)
	assert.Contains(t, string(stdout), "Nothing to undo")
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	config := intph.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbPath := setup(ctx, t, config)

	_, _, err := intph.Run(ctx, config, dbPath, "run", "delete", "-s", "p1", "--no-progress")
	require.Error(t, err)
	assert.Len(t, listPlants(ctx, t, config, dbPath), 3)

	stdout, stderr, err := intph.Run(ctx, config, dbPath, "run", "delete", "-s", "p1", "--yes", "--no-progress")
	require.NoError(t, err, "delete failed: stdout=%s stderr=%s", stdout, stderr)
	assert.Len(t, listPlants(ctx, t, config, dbPath), 2)

	// Undo re-creates the deleted plant.
	stdout, stderr, err = intph.Run(ctx, config, dbPath, "undo")
	require.NoError(t, err, "undo failed: stdout=%s stderr=%s", stdout, stderr)
	plants := listPlants(ctx, t, config, dbPath)
	require.Contains(t, plants, "p1")
	assert.Equal(t, "GG4 1", plants["p1"].Name)
}

func TestOperationsAfterHarvest(t *testing.T) {
	config := intph.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbPath := setup(ctx, t, config)

	stdout, stderr, err := intph.Run(ctx, config, dbPath, "run", "harvest", "-s", "p3", "-m", "wet_weight_g=320", "--no-progress")
	require.NoError(t, err, "harvest failed: stdout=%s stderr=%s", stdout, stderr)
	assert.Equal(t, "harvested", listPlants(ctx, t, config, dbPath)["p3"].Status)

	stdout, stderr, err = intph.Run(ctx, config, dbPath, "ops", "-s", "p3", "--format", "json")
	require.NoError(t, err, "ops failed: stdout=%s stderr=%s", stdout, stderr)

	var ops []struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(stdout, &ops))
	kinds := []string{}
	for _, o := range ops {
		kinds = append(kinds, o.Kind)
	}
	assert.NotContains(t, kinds, "harvest")
	assert.NotContains(t, kinds, "clone")
	assert.Contains(t, kinds, "update_status")
}
