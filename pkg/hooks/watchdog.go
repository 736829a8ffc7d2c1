package hooks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jg-phare/hookprio/pkg/priority"
)

// Watchdog periodically releases executions that have run past their timeout
// budget plus grace, so a hung hook cannot hold its exclusivity or
// parallelism slot forever. A Fire waiting on an expired pool execution gets
// an error Result for it; a hook run inline still holds its Fire until it
// returns. Watchdog blocks until ctx is done.
func (r *Runner) Watchdog(ctx context.Context, interval, grace time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.sweep(grace)
		}
	}
}

// sweep expires overdue executions once and returns how many were released.
func (r *Runner) sweep(grace time.Duration) int {
	return len(r.ExpireOverdue(grace))
}

// ExpireStale drops executions outstanding for longer than maxAge and sends
// each waiting Fire an ErrExpired Result for them.
func (r *Runner) ExpireStale(maxAge time.Duration) []*priority.HookExecution {
	return r.release(r.coord.ExpireStale(maxAge))
}

// ExpireOverdue drops executions past their timeout budget plus grace and
// sends each waiting Fire an ErrExpired Result for them.
func (r *Runner) ExpireOverdue(grace time.Duration) []*priority.HookExecution {
	return r.release(r.coord.ExpireOverdue(grace))
}

func (r *Runner) release(expired []*priority.HookExecution) []*priority.HookExecution {
	for _, e := range expired {
		r.logger.Warn("released expired hook execution",
			zap.String("hook", e.HookName),
			zap.String("execution_id", e.ExecutionID),
		)
		r.deliver(Result{
			Hook:        e.HookName,
			ExecutionID: e.ExecutionID,
			Status:      StatusError,
			Error:       fmt.Errorf("%w: %s", ErrExpired, e.HookName).Error(),
		})
	}
	return expired
}
