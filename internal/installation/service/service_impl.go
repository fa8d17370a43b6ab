package service

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/installation/domain"
	obslogger "github.com/mandarons/wapar/internal/observability/logger"
	obsmetrics "github.com/mandarons/wapar/internal/observability/metrics"
	"github.com/mandarons/wapar/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("installation.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInstallationRequest) (domain.CreateInstallationResponse, error) {
	appName, err := requiredField(req.AppName, domain.ErrInvalidAppName)
	if err != nil {
		return domain.CreateInstallationResponse{}, err
	}
	appVersion, err := requiredField(req.AppVersion, domain.ErrInvalidAppVersion)
	if err != nil {
		return domain.CreateInstallationResponse{}, err
	}

	ipAddress, err := s.resolveIP(ctx, req, appName)
	if err != nil {
		return domain.CreateInstallationResponse{}, err
	}

	countryCode, region, err := normalizeGeo(req.CountryCode, req.Region)
	if err != nil {
		return domain.CreateInstallationResponse{}, err
	}

	data, err := normalizeData(req.Data)
	if err != nil {
		return domain.CreateInstallationResponse{}, err
	}

	var previousID *string
	if prev := strings.TrimSpace(req.PreviousID); prev != "" {
		if len(prev) > domain.MaxFieldLength {
			return domain.CreateInstallationResponse{}, domain.ErrInvalidPreviousID
		}
		previousID = &prev
	}

	now := s.clock.Now().UTC()
	installation := domain.Installation{
		ID:          s.genID.Generate(),
		AppName:     appName,
		AppVersion:  appVersion,
		IPAddress:   ipAddress,
		PreviousID:  previousID,
		Data:        data,
		CountryCode: countryCode,
		Region:      region,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &installation); err != nil {
		return domain.CreateInstallationResponse{}, err
	}

	s.metrics.RecordInstallation(ctx, appName)
	obslogger.WithContext(ctx, s.log).Debug("installation created",
		zap.String("installation_id", installation.ID.String()),
		zap.String("app_name", appName),
		zap.String("app_version", appVersion),
	)

	return domain.CreateInstallationResponse{ID: installation.ID.String()}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetInstallationRequest) (domain.Installation, error) {
	id, err := ParseID(req.ID)
	if err != nil {
		return domain.Installation{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Installation{}, err
	}
	if item == nil {
		return domain.Installation{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInstallationRequest) (domain.ListInstallationResponse, error) {
	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		AppName:     strings.TrimSpace(req.AppName),
		CountryCode: strings.TrimSpace(req.CountryCode),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListInstallationResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(item *domain.Installation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	installations := make([]domain.Installation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		installations = append(installations, *item)
	}

	return domain.ListInstallationResponse{
		PageInfo:      pageInfo,
		Installations: installations,
	}, nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx, s.db); err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Warn("all installations deleted")
	return nil
}

// ParseID converts the wire id into a snowflake.
func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// resolveIP prefers the reported address, then the proxy-supplied one,
// then stores the placeholder so the record is still accepted.
func (s *Service) resolveIP(ctx context.Context, req domain.CreateInstallationRequest, appName string) (string, error) {
	if reported := strings.TrimSpace(req.IPAddress); reported != "" {
		if net.ParseIP(reported) == nil {
			return "", domain.ErrInvalidIPAddress
		}
		return reported, nil
	}
	if proxied := strings.TrimSpace(req.ProxyIP); proxied != "" && net.ParseIP(proxied) != nil {
		return proxied, nil
	}

	s.metrics.RecordIPFallback(ctx)
	obslogger.WithContext(ctx, s.log).Warn("installation.ip_fallback",
		zap.String("app_name", appName),
		zap.String("ip_address", domain.UnknownIPAddress),
	)
	return domain.UnknownIPAddress, nil
}

func requiredField(value string, invalid error) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > domain.MaxFieldLength {
		return "", invalid
	}
	return value, nil
}

func normalizeGeo(countryCode, region string) (*string, *string, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	region = strings.TrimSpace(region)
	if countryCode == "" && region == "" {
		return nil, nil, nil
	}
	if countryCode == "" || region == "" {
		return nil, nil, domain.ErrInvalidGeo
	}
	if len(countryCode) != 2 || !isASCIIUpper(countryCode) {
		return nil, nil, domain.ErrInvalidCountryCode
	}
	if len(region) > domain.MaxFieldLength {
		return nil, nil, domain.ErrInvalidGeo
	}
	return &countryCode, &region, nil
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

func isASCIIUpper(value string) bool {
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
