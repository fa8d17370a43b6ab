package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/installation/domain"
	"github.com/mandarons/wapar/internal/installation/repository"
	"github.com/mandarons/wapar/pkg/apperr"
	"github.com/mandarons/wapar/pkg/db"
	"github.com/mandarons/wapar/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	conn := dbtest.Open(t, &domain.Installation{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(fixedNow)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(db.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}),
		Clock: clk,
	}).(*Service)
	return svc, conn, clk
}

func TestCreatePersistsInstallation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CreateInstallationRequest{
		AppName:    " icloud-docker ",
		AppVersion: "1.2.3",
		IPAddress:  "203.0.113.7",
		PreviousID: "legacy-42",
		Data:       json.RawMessage(`{"arch":"arm64"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	got, err := svc.GetByID(ctx, domain.GetInstallationRequest{ID: resp.ID})
	require.NoError(t, err)
	assert.Equal(t, "icloud-docker", got.AppName)
	assert.Equal(t, "1.2.3", got.AppVersion)
	assert.Equal(t, "203.0.113.7", got.IPAddress)
	require.NotNil(t, got.PreviousID)
	assert.Equal(t, "legacy-42", *got.PreviousID)
	assert.JSONEq(t, `{"arch":"arm64"}`, string(got.Data))
	assert.Nil(t, got.CountryCode)
	assert.Nil(t, got.Region)
	assert.True(t, fixedNow.Equal(got.CreatedAt))
}

func TestCreateResolvesIPAddress(t *testing.T) {
	cases := []struct {
		name    string
		req     domain.CreateInstallationRequest
		want    string
		wantErr error
	}{
		{
			name: "reported address wins",
			req:  domain.CreateInstallationRequest{IPAddress: "198.51.100.1", ProxyIP: "192.0.2.1"},
			want: "198.51.100.1",
		},
		{
			name: "proxy address when not reported",
			req:  domain.CreateInstallationRequest{ProxyIP: "192.0.2.1"},
			want: "192.0.2.1",
		},
		{
			name: "placeholder when nothing is known",
			req:  domain.CreateInstallationRequest{},
			want: domain.UnknownIPAddress,
		},
		{
			name:    "malformed reported address",
			req:     domain.CreateInstallationRequest{IPAddress: "not-an-ip"},
			wantErr: domain.ErrInvalidIPAddress,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			tc.req.AppName = "ha-bouncie"
			tc.req.AppVersion = "0.4.0"

			resp, err := svc.Create(context.Background(), tc.req)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := svc.GetByID(context.Background(), domain.GetInstallationRequest{ID: resp.ID})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.IPAddress)
		})
	}
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		req  domain.CreateInstallationRequest
		want error
	}{
		{"missing app name", domain.CreateInstallationRequest{AppVersion: "1.0.0"}, domain.ErrInvalidAppName},
		{"blank app name", domain.CreateInstallationRequest{AppName: "   ", AppVersion: "1.0.0"}, domain.ErrInvalidAppName},
		{"missing version", domain.CreateInstallationRequest{AppName: "app"}, domain.ErrInvalidAppVersion},
		{"country without region", domain.CreateInstallationRequest{AppName: "app", AppVersion: "1", CountryCode: "US"}, domain.ErrInvalidGeo},
		{"bad country code", domain.CreateInstallationRequest{AppName: "app", AppVersion: "1", CountryCode: "USA", Region: "CA"}, domain.ErrInvalidCountryCode},
		{"bad payload", domain.CreateInstallationRequest{AppName: "app", AppVersion: "1", Data: json.RawMessage(`{"a":`)}, domain.ErrInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, conn, _ := newTestService(t)

			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, apperr.Is(err, apperr.KindValidation))

			var count int64
			require.NoError(t, conn.Model(&domain.Installation{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestCreateAcceptsClientGeo(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.Create(context.Background(), domain.CreateInstallationRequest{
		AppName:     "app",
		AppVersion:  "1.0.0",
		CountryCode: "de",
		Region:      "BE",
	})
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), domain.GetInstallationRequest{ID: resp.ID})
	require.NoError(t, err)
	require.NotNil(t, got.CountryCode)
	assert.Equal(t, "DE", *got.CountryCode)
	assert.Equal(t, "BE", *got.Region)
}

func TestGetByIDErrors(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), domain.GetInstallationRequest{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(context.Background(), domain.GetInstallationRequest{ID: "12345"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		resp, err := svc.Create(ctx, domain.CreateInstallationRequest{AppName: "app", AppVersion: "1.0.0"})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
		clk.Advance(time.Minute)
	}
	_, err := svc.Create(ctx, domain.CreateInstallationRequest{AppName: "other", AppVersion: "1.0.0"})
	require.NoError(t, err)

	first, err := svc.List(ctx, domain.ListInstallationRequest{AppName: "app", PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Installations, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, ids[4], first.Installations[0].ID.String())

	second, err := svc.List(ctx, domain.ListInstallationRequest{AppName: "app", PageSize: 3, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Installations, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, ids[1], second.Installations[0].ID.String())
	assert.Equal(t, ids[0], second.Installations[1].ID.String())
}

func TestDeleteAll(t *testing.T) {
	svc, conn, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), domain.CreateInstallationRequest{AppName: "app", AppVersion: "1"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteAll(context.Background()))

	var count int64
	require.NoError(t, conn.Model(&domain.Installation{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingRepo struct {
	domain.Repository
	inserts int
	err     error
}

func (r *failingRepo) Insert(context.Context, *gorm.DB, *domain.Installation) error {
	r.inserts++
	return r.err
}

func TestCreateSurfacesStorageErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	repo := &failingRepo{err: apperr.TransientStorage(errors.New("database is locked"))}
	svc.repo = repo

	_, err := svc.Create(context.Background(), domain.CreateInstallationRequest{AppName: "app", AppVersion: "1"})
	assert.True(t, apperr.Is(err, apperr.KindTransientStorage))
	assert.Equal(t, 1, repo.inserts)
}
