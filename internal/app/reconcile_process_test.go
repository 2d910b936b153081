package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	runs int32
}

func (c *countingReconciler) Execute(ctx context.Context) (int, error) {
	atomic.AddInt32(&c.runs, 1)
	return 0, nil
}

func TestReconcileProcessRunsOnSchedule(t *testing.T) {
	handler := &countingReconciler{}
	process := NewReconcileProcess(handler, config.Reconcile{Schedule: "@every 1s"})

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	require.NoError(t, process.Run(ctx))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&handler.runs), int32(1))
}

func TestReconcileProcessRejectsBadSchedule(t *testing.T) {
	process := NewReconcileProcess(&countingReconciler{}, config.Reconcile{Schedule: "every minute"})
	assert.Error(t, process.Run(context.Background()))
}
