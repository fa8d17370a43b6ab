package option

import (
	"strconv"
	"time"

	"github.com/mandarons/wapar/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

const (
	defaultPageSize = 10
	maxPageSize     = 250
)

// ApplyPagination applies keyset pagination on (created_at, id), newest first.
// One extra row is fetched so callers can tell whether another page exists.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = defaultPageSize
		}
		if size > maxPageSize {
			size = maxPageSize
		}

		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor != nil && cursor.ID != "" {
				createdAt, perr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
				id, ierr := strconv.ParseInt(cursor.ID, 10, 64)
				if perr == nil && ierr == nil {
					db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
				}
			}
		}

		return db.Limit(size + 1)
	})
}
