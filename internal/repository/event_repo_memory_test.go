package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skycam/edgeagent/internal/model"
)

func putEvent(t *testing.T, repo PendingEventRepository, id, queue string) {
	t.Helper()
	require.NoError(t, repo.Put(context.Background(), &model.PendingSyncEvent{
		ID:      id,
		Queue:   queue,
		Payload: json.RawMessage(`{}`),
	}))
}

func TestMemoryEventRepo_PreservesInsertionOrder(t *testing.T) {
	repo := NewMemoryPendingEventRepository()
	for _, id := range []string{"a", "b", "c"} {
		putEvent(t, repo, id, "events")
	}

	events, err := repo.GetAll(context.Background(), "events")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "b", events[1].ID)
	assert.Equal(t, "c", events[2].ID)
}

func TestMemoryEventRepo_FiltersByQueue(t *testing.T) {
	repo := NewMemoryPendingEventRepository()
	putEvent(t, repo, "a", "events")
	putEvent(t, repo, "b", "telemetry")

	events, err := repo.GetAll(context.Background(), "events")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].ID)
}

func TestMemoryEventRepo_PutIsUpsert(t *testing.T) {
	repo := NewMemoryPendingEventRepository()
	ctx := context.Background()
	putEvent(t, repo, "a", "events")

	require.NoError(t, repo.Put(ctx, &model.PendingSyncEvent{
		ID:        "a",
		Queue:     "events",
		Payload:   json.RawMessage(`{}`),
		FailCount: 2,
	}))

	events, err := repo.GetAll(ctx, "events")
	require.NoError(t, err)
	require.Len(t, events, 1, "upsert must not duplicate")
	assert.Equal(t, 2, events[0].FailCount)
}

func TestMemoryEventRepo_Delete(t *testing.T) {
	repo := NewMemoryPendingEventRepository()
	ctx := context.Background()
	putEvent(t, repo, "a", "events")
	putEvent(t, repo, "b", "events")

	require.NoError(t, repo.Delete(ctx, "a"))

	events, err := repo.GetAll(ctx, "events")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].ID)

	// Deleting an absent ID is a no-op.
	require.NoError(t, repo.Delete(ctx, "missing"))
}

func TestMemoryEventRepo_GetAllReturnsCopies(t *testing.T) {
	repo := NewMemoryPendingEventRepository()
	ctx := context.Background()
	putEvent(t, repo, "a", "events")

	events, err := repo.GetAll(ctx, "events")
	require.NoError(t, err)
	events[0].FailCount = 99

	again, err := repo.GetAll(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, 0, again[0].FailCount, "callers must not mutate stored state")
}
