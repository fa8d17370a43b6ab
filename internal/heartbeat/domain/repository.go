package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, heartbeat *Heartbeat) error
	// FindInWindow returns heartbeats with from <= created_at < to.
	FindInWindow(ctx context.Context, db *gorm.DB, installationID snowflake.ID, from, to time.Time) ([]*Heartbeat, error)
	DeleteAll(ctx context.Context, db *gorm.DB) error
}
