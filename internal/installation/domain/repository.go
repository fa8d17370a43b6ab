package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/pkg/db/pagination"
	"gorm.io/gorm"
)

// DefaultMissingGeoLimit bounds one enrichment page.
const DefaultMissingGeoLimit = 100

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, installation *Installation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Installation, error)
	FindMissingGeo(ctx context.Context, db *gorm.DB, limit int) ([]*Installation, error)
	UpdateGeo(ctx context.Context, db *gorm.DB, update GeoUpdate) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Installation, error)
	DeleteAll(ctx context.Context, db *gorm.DB) error
}
