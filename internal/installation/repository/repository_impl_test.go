package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/installation/domain"
	"github.com/mandarons/wapar/pkg/db"
	"github.com/mandarons/wapar/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMissingGeoOldestFirstWithLimit(t *testing.T) {
	conn := dbtest.Open(t, &domain.Installation{})
	r := Provide(db.DefaultRetryPolicy())
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	code, region := "US", "CA"
	for i := 1; i <= 5; i++ {
		item := &domain.Installation{
			ID:         snowflake.ID(i),
			AppName:    "app",
			AppVersion: "1.0.0",
			IPAddress:  "10.0.0.1",
			CreatedAt:  base.Add(time.Duration(5-i) * time.Hour),
			UpdatedAt:  base,
		}
		if i == 3 {
			item.CountryCode, item.Region = &code, &region
		}
		require.NoError(t, r.Insert(ctx, conn, item))
	}

	rows, err := r.FindMissingGeo(ctx, conn, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, snowflake.ID(5), rows[0].ID)
	assert.Equal(t, snowflake.ID(4), rows[1].ID)

	all, err := r.FindMissingGeo(ctx, conn, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestUpdateGeoWritesBothColumns(t *testing.T) {
	conn := dbtest.Open(t, &domain.Installation{})
	r := Provide(db.DefaultRetryPolicy())
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Insert(ctx, conn, &domain.Installation{
		ID: 7, AppName: "app", AppVersion: "1", IPAddress: "1.1.1.1", CreatedAt: created, UpdatedAt: created,
	}))

	updated := created.Add(time.Hour)
	require.NoError(t, r.UpdateGeo(ctx, conn, domain.GeoUpdate{ID: 7, CountryCode: "AU", Region: "NSW", UpdatedAt: updated}))

	got, err := r.FindByID(ctx, conn, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AU", *got.CountryCode)
	assert.Equal(t, "NSW", *got.Region)
	assert.True(t, updated.Equal(got.UpdatedAt))

	err = r.UpdateGeo(ctx, conn, domain.GeoUpdate{ID: 99, CountryCode: "AU", Region: "NSW", UpdatedAt: updated})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	conn := dbtest.Open(t, &domain.Installation{})
	r := Provide(db.DefaultRetryPolicy())

	got, err := r.FindByID(context.Background(), conn, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}
