package model

import (
	"encoding/json"
	"time"
)

// PendingSyncEvent is an application event that could not reach the backend
// when it happened. Created by the producer, attempted and mutated only by
// the sync drain: deleted on confirmed delivery, or retained with an
// incremented fail_count once its retry budget is spent.
type PendingSyncEvent struct {
	ID           string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	Queue        string          `gorm:"type:varchar(64);index;not null" json:"queue"`
	Payload      json.RawMessage `gorm:"type:jsonb" json:"payload"`
	FailCount    int             `gorm:"not null;default:0" json:"fail_count"`
	LastFailedAt *time.Time      `json:"last_failed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (PendingSyncEvent) TableName() string { return "pending_sync_events" }
