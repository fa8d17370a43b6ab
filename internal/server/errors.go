package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mandarons/wapar/pkg/apperr"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = apperr.NotFound("not_found")
	ErrInvalidRequest = apperr.Validation("request", "invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// bindError turns a malformed request body into a validation error.
func bindError(err error) error {
	if err == nil {
		return nil
	}
	return &apperr.Error{Kind: apperr.KindValidation, Field: "request", Code: "invalid_request", Err: err}
}

func mapError(err error) (int, errorPayload) {
	appErr, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, errorPayload{
			Type:    string(apperr.KindInternal),
			Message: "internal server error",
		}
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		return http.StatusBadRequest, errorPayload{
			Type:    string(apperr.KindValidation),
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   appErr.Field,
					Code:    appErr.Code,
					Message: validationErrorMessage(appErr.Code),
				},
			},
		}
	case apperr.KindNotFound:
		msg := "not found"
		if appErr.Code == "installation_not_found" {
			msg = "installation not found"
		}
		return http.StatusNotFound, errorPayload{
			Type:    string(apperr.KindNotFound),
			Message: msg,
		}
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests, errorPayload{
			Type:    string(apperr.KindRateLimited),
			Message: "too many requests",
		}
	case apperr.KindTransientStorage, apperr.KindExternalLookup:
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    string(apperr.KindInternal),
			Message: "internal server error",
		}
	}
}

var validationMessages = map[string]string{
	"invalid_request":                           "request body is not valid JSON for this endpoint",
	"invalid_app_name":                          "appName is required and at most 255 characters",
	"invalid_app_version":                       "appVersion is required and at most 255 characters",
	"invalid_ip_address":                        "ipAddress is not an IPv4 or IPv6 address",
	"invalid_previous_id":                       "previousId is at most 255 characters",
	"invalid_country_code":                      "countryCode must be a two-letter code",
	"country_code_and_region_required_together": "countryCode and region must be provided together",
	"invalid_payload":                           "data must be a JSON value",
	"invalid_id":                                "id must be a numeric installation id",
	"invalid_installation_id":                   "installationId must be a numeric installation id",
}

func validationErrorMessage(code string) string {
	if msg, ok := validationMessages[code]; ok {
		return msg
	}
	return "invalid value"
}

// classifyErrorForLog feeds the request log with the same type the client sees.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	appErr, ok := apperr.As(err)
	if !ok {
		return string(apperr.KindInternal), "internal_error"
	}
	var inner *apperr.Error
	if errors.As(appErr.Err, &inner) && inner != nil {
		appErr = inner
	}
	return string(appErr.Kind), appErr.Code
}
