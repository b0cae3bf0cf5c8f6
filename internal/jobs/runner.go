package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/convivia/school-wellbeing-backend/internal/observability"
)

type Job func(ctx context.Context) error

// Runner drives interval jobs off a single lifetime context. Each tick is
// instrumented and panics are contained per run.
type Runner struct {
	ctx context.Context
}

func New(ctx context.Context) *Runner { return &Runner{ctx: ctx} }

func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				run(r.ctx, name, fn)
			}
		}
	}()
}

func run(ctx context.Context, name string, fn Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			jobErrors.WithLabelValues(name).Inc()
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, rec))
		}
	}()
	if err := fn(ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		observability.CaptureErr(err)
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
