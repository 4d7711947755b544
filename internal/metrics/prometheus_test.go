package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/metrics"
	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

func TestPrometheus(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p := metrics.NewPrometheus(reg)

	p.ObserveJob(ctx, model.OperationKindDelete, model.JobStateCompleted, 2*time.Second)
	p.ObserveJob(ctx, model.OperationKindDelete, model.JobStateCompleted, time.Second)
	p.ObserveJob(ctx, model.OperationKindAddNote, model.JobStateCancelled, time.Second)
	p.AddItems(ctx, model.OperationKindDelete, metrics.ItemResultSuccess, 7)
	p.AddItems(ctx, model.OperationKindDelete, metrics.ItemResultFailure, 2)
	p.AddItems(ctx, model.OperationKindDelete, metrics.ItemResultFailure, 0)
	p.IncUndo(ctx, metrics.UndoResultPartial)

	tests := map[string]struct {
		metric prometheus.Collector
		exp    float64
	}{
		"Completed delete jobs.": {
			metric: p.JobsTotal.WithLabelValues("delete", "completed"),
			exp:    2,
		},
		"Cancelled note jobs.": {
			metric: p.JobsTotal.WithLabelValues("add_note", "cancelled"),
			exp:    1,
		},
		"Successful delete items.": {
			metric: p.ItemsTotal.WithLabelValues("delete", "success"),
			exp:    7,
		},
		"Failed delete items.": {
			metric: p.ItemsTotal.WithLabelValues("delete", "failure"),
			exp:    2,
		},
		"Partial undos.": {
			metric: p.UndosTotal.WithLabelValues("partial"),
			exp:    1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, testutil.ToFloat64(test.metric))
		})
	}

	count, err := testutil.GatherAndCount(reg, "phenohunter_bulk_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNoop(t *testing.T) {
	var r metrics.Recorder = metrics.Noop
	r.ObserveJob(context.Background(), model.OperationKindDelete, model.JobStateCompleted, time.Second)
	r.AddItems(context.Background(), model.OperationKindDelete, metrics.ItemResultSuccess, 1)
	r.IncUndo(context.Background(), metrics.UndoResultSuccess)
}
