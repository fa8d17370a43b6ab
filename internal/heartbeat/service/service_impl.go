package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/heartbeat/domain"
	installationdomain "github.com/mandarons/wapar/internal/installation/domain"
	obslogger "github.com/mandarons/wapar/internal/observability/logger"
	obsmetrics "github.com/mandarons/wapar/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Repo             domain.Repository
	InstallationRepo installationdomain.Repository
	Clock            clock.Clock
	Metrics          *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	repo             domain.Repository
	installationRepo installationdomain.Repository
	clock            clock.Clock
	metrics          *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("heartbeat.service"),
		genID:            p.GenID,
		repo:             p.Repo,
		installationRepo: p.InstallationRepo,
		clock:            p.Clock,
		metrics:          p.Metrics,
	}
}

// Record stores at most one heartbeat per installation per UTC day.
// Two concurrent first heartbeats of the same day may both be written.
func (s *Service) Record(ctx context.Context, req domain.CreateHeartbeatRequest) (domain.CreateHeartbeatResponse, error) {
	installationID, err := snowflake.ParseString(strings.TrimSpace(req.InstallationID))
	if err != nil || installationID <= 0 {
		return domain.CreateHeartbeatResponse{}, domain.ErrInvalidInstallationID
	}

	data, err := normalizeData(req.Data)
	if err != nil {
		return domain.CreateHeartbeatResponse{}, err
	}

	installation, err := s.installationRepo.FindByID(ctx, s.db, installationID)
	if err != nil {
		return domain.CreateHeartbeatResponse{}, err
	}
	if installation == nil {
		return domain.CreateHeartbeatResponse{}, domain.ErrInstallationNotFound
	}

	now := s.clock.Now().UTC()
	from, to := domain.DayWindow(now)
	existing, err := s.repo.FindInWindow(ctx, s.db, installationID, from, to)
	if err != nil {
		return domain.CreateHeartbeatResponse{}, err
	}

	log := obslogger.WithContext(ctx, s.log).With(
		zap.String("installation_id", installationID.String()),
		zap.String("app_name", installation.AppName),
	)
	resp := domain.CreateHeartbeatResponse{ID: installationID.String()}

	if len(existing) > 0 {
		s.metrics.RecordHeartbeat(ctx, obsmetrics.HeartbeatOutcomeDeduplicated)
		log.Debug("heartbeat already recorded today", zap.Time("day", from))
		return resp, nil
	}

	heartbeat := domain.Heartbeat{
		ID:             s.genID.Generate(),
		InstallationID: installationID,
		Data:           data,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &heartbeat); err != nil {
		return domain.CreateHeartbeatResponse{}, err
	}

	s.metrics.RecordHeartbeat(ctx, obsmetrics.HeartbeatOutcomeCreated)
	log.Debug("heartbeat recorded", zap.String("heartbeat_id", heartbeat.ID.String()))
	resp.Recorded = true
	return resp, nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx, s.db); err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Warn("all heartbeats deleted")
	return nil
}

func normalizeData(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, domain.ErrInvalidPayload
	}
	return datatypes.JSON(trimmed), nil
}
