package repository

import (
	"context"
	"sync"
	"time"

	"skycam/edgeagent/internal/model"
)

// memoryPendingEventRepository keeps insertion order per queue so drains see
// the same order a database would produce with created_at ordering.
type memoryPendingEventRepository struct {
	mu     sync.Mutex
	order  []string
	events map[string]*model.PendingSyncEvent
}

func NewMemoryPendingEventRepository() PendingEventRepository {
	return &memoryPendingEventRepository{
		events: make(map[string]*model.PendingSyncEvent),
	}
}

func (r *memoryPendingEventRepository) GetAll(_ context.Context, queue string) ([]model.PendingSyncEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.PendingSyncEvent
	for _, id := range r.order {
		ev, ok := r.events[id]
		if !ok || ev.Queue != queue {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (r *memoryPendingEventRepository) Put(_ context.Context, event *model.PendingSyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if _, exists := r.events[event.ID]; !exists {
		r.order = append(r.order, event.ID)
	}
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *memoryPendingEventRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.events, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
