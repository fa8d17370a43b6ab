package scheduler

import (
	"context"
	"time"

	"github.com/mandarons/wapar/internal/enrichment"
	obscontext "github.com/mandarons/wapar/internal/observability/context"
	obslogger "github.com/mandarons/wapar/internal/observability/logger"
	obsmetrics "github.com/mandarons/wapar/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun is one execution of a job. It rides on the context so nested calls
// log under the same run id and only the outermost call logs start/finish.
type jobRun struct {
	job       string
	runID     string
	batchSize int
	startedAt time.Time

	result  *enrichment.Result
	skipped string
	errored bool
}

type jobRunKey struct{}

func (r *jobRun) record(result enrichment.Result) {
	if r != nil {
		r.result = &result
	}
}

func (r *jobRun) skip(reason string) {
	if r != nil {
		r.skipped = reason
	}
}

func (r *jobRun) fail() {
	if r != nil {
		r.errored = true
	}
}

func (s *Scheduler) ensureJobRun(ctx context.Context, job string, batchSize int) (context.Context, *jobRun, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing := jobRunFromContext(ctx); existing != nil {
		return ctx, existing, false
	}
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		batchSize: batchSize,
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithRequestID(ctx, run.runID)
	ctx = obscontext.WithOperation(ctx, job)
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	return ctx, run, true
}

func jobRunFromContext(ctx context.Context) *jobRun {
	if ctx == nil {
		return nil
	}
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("scheduler.job.start",
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
		zap.Int("batch_size", run.batchSize),
	)
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
	}
	if run.skipped != "" {
		fields = append(fields, zap.String("skipped", run.skipped))
	}
	if r := run.result; r != nil {
		fields = append(fields,
			zap.String("status", string(r.Status)),
			zap.Int("scanned", r.Scanned),
			zap.Int("addresses", r.Addresses),
			zap.Int("updated", r.Updated),
			zap.Int("failed", r.Failed),
			zap.Float64("success_rate", r.SuccessRate),
		)
	}

	log := s.logger(ctx)
	if run.errored || (run.result != nil && run.result.Failed > 0) {
		log.Warn("scheduler.job.finish", fields...)
		return
	}
	log.Info("scheduler.job.finish", fields...)
}

func (s *Scheduler) logSchedulerError(ctx context.Context, run *jobRun, msg string, err error) {
	if err == nil {
		return
	}
	run.fail()
	job := ""
	if run != nil {
		job = run.job
	}
	s.logger(ctx).Error(msg,
		zap.String("job", job),
		zap.String("error_type", obsmetrics.ClassifySchedulerErrorType(err)),
		zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
		zap.Bool("retryable", obsmetrics.IsSchedulerErrorRetryable(err)),
		zap.Error(err),
	)
}
