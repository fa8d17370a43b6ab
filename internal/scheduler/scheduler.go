package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/config"
	"github.com/mandarons/wapar/internal/enrichment"
	obsmetrics "github.com/mandarons/wapar/internal/observability/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

// LockKeyPrefix namespaces the per-job tick locks shared by replicas.
const LockKeyPrefix = "wapar:scheduler:"

// Locker grants at most one holder per key until release or ttl expiry.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

type enrichmentRunner interface {
	Run(ctx context.Context) (enrichment.Result, error)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Enrichment *enrichment.Job
	Holder     *config.EnrichmentConfigHolder
	Locker     Locker `optional:"true"`
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	enrichment enrichmentRunner
	holder     *config.EnrichmentConfigHolder
	locker     Locker
	after      func(time.Duration) <-chan time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Enrichment == nil || p.Holder == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	s := &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        cfg,
		genID:      p.GenID,
		clock:      p.Clock,
		enrichment: p.Enrichment,
		holder:     p.Holder,
		after:      time.After,
	}
	if cfg.LockEnabled {
		s.locker = p.Locker
	}
	return s, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil {
			run.fail()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// a deadline is a soft timeout; the next tick picks the work up again
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job one time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	cfg := s.holder.Get()
	if !cfg.Enabled {
		s.log.Debug("geo enrichment disabled, skipping tick")
		return nil
	}
	return s.runJob(parent, enrichment.JobName, cfg.BatchSize, cfg.Timeout, s.GeoEnrichmentJob)
}

// RunForever runs a tick immediately and then on every activation of the
// configured cron schedule until ctx is cancelled. The schedule is re-read
// after each tick so edits to the enrichment config apply on the next one.
func (s *Scheduler) RunForever(ctx context.Context) {
	schedMetrics := obsmetrics.Scheduler()
	nextRun := s.clock.Now()

	for {
		if lag := s.clock.Now().Sub(nextRun); lag > 0 {
			schedMetrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		wait := s.cfg.RetryDelay
		next, err := s.nextTick(s.clock.Now())
		if err != nil {
			s.log.Error("invalid enrichment schedule", zap.String("schedule", s.holder.Get().Schedule), zap.Error(err))
			nextRun = s.clock.Now().Add(wait)
		} else {
			nextRun = next
			wait = next.Sub(s.clock.Now())
		}

		select {
		case <-ctx.Done():
			return
		case <-s.after(wait):
		}
	}
}

func (s *Scheduler) nextTick(now time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(s.holder.Get().Schedule)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(now), nil
}

// GeoEnrichmentJob runs one enrichment pass, skipping the tick when another
// replica holds the job lock.
func (s *Scheduler) GeoEnrichmentJob(ctx context.Context) error {
	const jobName = enrichment.JobName
	ctx, run, owner := s.ensureJobRun(ctx, jobName, s.holder.Get().BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	schedMetrics := obsmetrics.Scheduler()

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, LockKeyPrefix+jobName, s.cfg.LockTTL)
		switch {
		case err != nil:
			// run unlocked rather than stall enrichment on a redis outage
			s.logger(ctx).Warn("scheduler lock unavailable, running unlocked", zap.String("job", jobName), zap.Error(err))
		case !acquired:
			schedMetrics.IncBatchDeferred(jobName, obsmetrics.SchedulerBatchDeferredReasonLockHeld)
			run.skip(obsmetrics.SchedulerBatchDeferredReasonLockHeld)
			return nil
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.logger(ctx).Warn("release scheduler lock", zap.String("job", jobName), zap.Error(err))
				}
			}()
		}
	}

	result, err := s.enrichment.Run(ctx)
	if err != nil {
		s.logSchedulerError(ctx, run, "geo enrichment failed", err)
		return err
	}

	run.record(result)
	schedMetrics.ObservePass(jobName, s.clock.Now(), result.Scanned, result.SuccessRate)
	schedMetrics.AddBatchProcessed(jobName, "installations", result.Updated)
	if result.Status == enrichment.StatusNothingToEnrich {
		schedMetrics.IncBatchDeferred(jobName, obsmetrics.SchedulerBatchDeferredReasonNoAddresses)
	}
	return nil
}
