package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Heartbeat struct {
	ID             snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	InstallationID snowflake.ID   `gorm:"not null;index:idx_heartbeats_installation_created,priority:1" json:"installationId"`
	Data           datatypes.JSON `json:"data,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index;index:idx_heartbeats_installation_created,priority:2" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updatedAt"`
}

// DayWindow returns the UTC calendar day containing t as the half-open range
// [start, next day's start). Sub-millisecond timestamps near midnight stay
// inside their day.
func DayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
