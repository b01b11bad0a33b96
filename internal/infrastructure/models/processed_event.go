package models

import "time"

// ProcessedEvent dedupes payment webhook deliveries by provider event id.
type ProcessedEvent struct {
	EventID   string `gorm:"type:varchar(255);primaryKey"`
	CreatedAt time.Time
}

func (ProcessedEvent) TableName() string {
	return "processed_events"
}
