package model

import (
	"time"

	"gorm.io/datatypes"
)

// Refresh triggers
const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// RefreshRun one batch refresh pass; only the latest LastUpdated is consulted
type RefreshRun struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID       string         `gorm:"column:run_id;type:varchar(64);uniqueIndex;not null" json:"runId"`
	Catalog     string         `gorm:"column:catalog;type:varchar(16)" json:"catalog,omitempty"`
	Trigger     string         `gorm:"column:run_trigger;type:varchar(16);not null" json:"trigger"`
	StartedAt   time.Time      `gorm:"column:started_at;type:timestamp" json:"startedAt"`
	LastUpdated time.Time      `gorm:"column:last_updated;type:timestamp;not null;index" json:"lastUpdated"`
	Processed   int            `gorm:"column:processed;default:0" json:"processed"`
	Updated     int            `gorm:"column:updated;default:0" json:"updated"`
	Failed      int            `gorm:"column:failed;default:0" json:"failed"`
	Skipped     int            `gorm:"column:skipped;default:0" json:"skipped"`
	Stats       datatypes.JSON `gorm:"column:stats" json:"stats,omitempty"` // resolution sources per run
}

func (RefreshRun) TableName() string { return "refresh_runs" }
