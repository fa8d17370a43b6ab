package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	errMissing := NotFound("installation_not_found")

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: Validation("appName", "invalid_app_name"), want: KindValidation},
		{name: "wrapped not found", err: fmt.Errorf("record heartbeat: %w", errMissing), want: KindNotFound},
		{name: "transient", err: TransientStorage(errors.New("database is locked")), want: KindTransientStorage},
		{name: "lookup", err: ExternalLookup(errors.New("status 502")), want: KindExternalLookup},
		{name: "plain error", err: errors.New("boom"), want: KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestSentinelsMatchWithErrorsIs(t *testing.T) {
	sentinel := Validation("appName", "invalid_app_name")
	wrapped := fmt.Errorf("create installation: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, KindValidation))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "appName", appErr.Field)
	assert.Equal(t, "invalid_app_name", appErr.Error())
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("SQLITE_BUSY")
	err := TransientStorage(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transient_storage: SQLITE_BUSY", err.Error())
}
