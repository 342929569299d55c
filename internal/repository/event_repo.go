package repository

import (
	"context"

	"skycam/edgeagent/internal/model"
)

// PendingEventRepository is the durable store for events awaiting delivery.
// GetAll returns events for one queue in stable creation order; drains depend
// on that order being deterministic. Put is an upsert keyed by event ID.
type PendingEventRepository interface {
	GetAll(ctx context.Context, queue string) ([]model.PendingSyncEvent, error)
	Put(ctx context.Context, event *model.PendingSyncEvent) error
	Delete(ctx context.Context, id string) error
}
