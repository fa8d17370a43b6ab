package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mandarons/wapar/pkg/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "lookup_failed",
			err:  apperr.ExternalLookup(errors.New("ip-api: 503")),
			want: SchedulerJobReasonLookupFailed,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  fmt.Errorf("update: %w", &pgconn.PgError{Code: "40001"}),
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "transient_storage",
			err:  apperr.TransientStorage(errors.New("database is locked")),
			want: SchedulerJobReasonTransientStorage,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifySchedulerErrorType(t *testing.T) {
	if got := ClassifySchedulerErrorType(apperr.ExternalLookup(errors.New("down"))); got != SchedulerErrorTypeExternalLookup {
		t.Fatalf("expected external_lookup, got %q", got)
	}
	if got := ClassifySchedulerErrorType(apperr.TransientStorage(errors.New("busy"))); got != SchedulerErrorTypeDB {
		t.Fatalf("expected db, got %q", got)
	}
	if got := ClassifySchedulerErrorType(gorm.ErrRecordNotFound); got != SchedulerErrorTypeBusinessRule {
		t.Fatalf("expected business_rule, got %q", got)
	}
	if IsSchedulerErrorRetryable(errors.New("bad input")) {
		t.Fatalf("expected plain errors to be non-retryable")
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "wapar",
		Environment: "test",
	})

	metrics.AddBatchProcessed("geo_enrichment", "installations", 3)
	metrics.AddBatchProcessed("geo_enrichment", "installations", 0)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("geo_enrichment", "installations"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}
