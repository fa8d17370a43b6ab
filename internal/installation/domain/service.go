package domain

import (
	"context"
	"encoding/json"

	"github.com/mandarons/wapar/pkg/apperr"
	"github.com/mandarons/wapar/pkg/db/pagination"
)

type CreateInstallationRequest struct {
	AppName     string          `json:"appName"`
	AppVersion  string          `json:"appVersion"`
	IPAddress   string          `json:"ipAddress,omitempty"`
	PreviousID  string          `json:"previousId,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	CountryCode string          `json:"countryCode,omitempty"`
	Region      string          `json:"region,omitempty"`

	// ProxyIP is filled in by the transport from the proxy header or the peer address.
	ProxyIP string `json:"-"`
}

type CreateInstallationResponse struct {
	ID string `json:"id"`
}

type GetInstallationRequest struct {
	ID string
}

type ListInstallationRequest struct {
	AppName     string
	CountryCode string
	PageToken   string
	PageSize    int32
}

type ListInstallationResponse struct {
	pagination.PageInfo
	Installations []Installation `json:"installations"`
}

type Service interface {
	Create(context.Context, CreateInstallationRequest) (CreateInstallationResponse, error)
	GetByID(context.Context, GetInstallationRequest) (Installation, error)
	List(context.Context, ListInstallationRequest) (ListInstallationResponse, error)
	// DeleteAll purges every installation. Only reachable outside production.
	DeleteAll(context.Context) error
}

const MaxFieldLength = 255

var (
	ErrInvalidAppName      = apperr.Validation("appName", "invalid_app_name")
	ErrInvalidAppVersion   = apperr.Validation("appVersion", "invalid_app_version")
	ErrInvalidIPAddress    = apperr.Validation("ipAddress", "invalid_ip_address")
	ErrInvalidPreviousID   = apperr.Validation("previousId", "invalid_previous_id")
	ErrInvalidCountryCode  = apperr.Validation("countryCode", "invalid_country_code")
	ErrInvalidGeo          = apperr.Validation("region", "country_code_and_region_required_together")
	ErrInvalidPayload      = apperr.Validation("data", "invalid_payload")
	ErrInvalidID           = apperr.Validation("id", "invalid_id")
	ErrNotFound            = apperr.NotFound("installation_not_found")
)
