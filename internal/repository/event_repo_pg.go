package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skycam/edgeagent/internal/model"
)

type pgPendingEventRepository struct {
	db *gorm.DB
}

func NewPGPendingEventRepository(db *gorm.DB) PendingEventRepository {
	return &pgPendingEventRepository{db: db}
}

func (r *pgPendingEventRepository) GetAll(ctx context.Context, queue string) ([]model.PendingSyncEvent, error) {
	var events []model.PendingSyncEvent
	if err := r.db.WithContext(ctx).
		Where("queue = ?", queue).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *pgPendingEventRepository) Put(ctx context.Context, event *model.PendingSyncEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(event).Error
}

func (r *pgPendingEventRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Delete(&model.PendingSyncEvent{}, "id = ?", id).Error
}
