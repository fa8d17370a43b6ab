package domain

import (
	"context"
	"encoding/json"

	"github.com/mandarons/wapar/pkg/apperr"
)

type CreateHeartbeatRequest struct {
	InstallationID string          `json:"installationId"`
	Data           json.RawMessage `json:"data,omitempty"`
}

type CreateHeartbeatResponse struct {
	ID string `json:"id"`
	// Recorded is false when today's heartbeat already existed.
	Recorded bool `json:"-"`
}

type Service interface {
	Record(context.Context, CreateHeartbeatRequest) (CreateHeartbeatResponse, error)
	DeleteAll(context.Context) error
}

var (
	ErrInvalidInstallationID = apperr.Validation("installationId", "invalid_installation_id")
	ErrInvalidPayload        = apperr.Validation("data", "invalid_payload")
	ErrInstallationNotFound  = apperr.NotFound("installation_not_found")
)
