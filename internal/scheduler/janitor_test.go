package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslabs/paperlens/internal/config"
	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/scheduler"
)

func finishedJob(id string, age time.Duration) *model.Job {
	now := time.Now().UTC()
	return &model.Job{
		ID:        id,
		Kind:      model.KindPipeline,
		Status:    model.StatusDone,
		CreatedAt: now.Add(-age),
		UpdatedAt: now.Add(-age),
	}
}

func TestJanitor_PurgesExpiredJobs(t *testing.T) {
	store := model.NewMemoryJobStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, finishedJob("expired", time.Hour)))

	cfg := &config.Config{
		JanitorEnabled:  true,
		JanitorSchedule: "@every 50ms",
		JobTTL:          time.Minute,
	}

	janitor := scheduler.NewJanitor(cfg, store)
	require.NoError(t, janitor.Start())
	defer janitor.Stop(ctx)

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, "expired")
		return err != nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestJanitor_DisabledDoesNothing(t *testing.T) {
	store := model.NewMemoryJobStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, finishedJob("expired", time.Hour)))

	cfg := &config.Config{
		JanitorEnabled:  false,
		JanitorSchedule: "@every 50ms",
		JobTTL:          time.Minute,
	}

	janitor := scheduler.NewJanitor(cfg, store)
	require.NoError(t, janitor.Start())
	janitor.Stop(ctx)

	time.Sleep(150 * time.Millisecond)
	_, err := store.Get(ctx, "expired")
	assert.NoError(t, err)
}
