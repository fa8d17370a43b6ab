package ratelimit

import (
	"github.com/mandarons/wapar/internal/scheduler"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(NewRedisClient),
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewIngestLimiter),
)

// SchedulerLockModule hands the redis locker to the scheduler. Without redis
// the scheduler gets no locker and runs every tick locally.
var SchedulerLockModule = fx.Module("rate.limit.scheduler_lock",
	fx.Provide(NewLocker),
	fx.Provide(schedulerLocker),
)

func schedulerLocker(l *Locker) scheduler.Locker {
	if l == nil {
		return nil
	}
	return l
}
