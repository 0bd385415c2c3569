package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
	"github.com/healthbridge/claims-reporter/pkg/metrics"
)

const (
	DefaultLease        = 30 * time.Minute
	DefaultReapInterval = time.Minute
)

// Reaper fails PROCESSING jobs whose lease expired. A worker that crashed
// mid-run leaves its job in PROCESSING forever; the reaper turns that into
// an explicit FAILED outcome instead of letting callers poll a zombie.
type Reaper struct {
	store    store.Store
	lease    time.Duration
	interval time.Duration
}

func NewReaper(s store.Store, lease time.Duration) *Reaper {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Reaper{
		store:    s,
		lease:    lease,
		interval: DefaultReapInterval,
	}
}

func (r *Reaper) Run(ctx context.Context) {
	logger := zap.S().Named("job_reaper")
	logger.Infof("reaping processing jobs older than %s", r.lease)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("job reaper stopped")
			return
		case <-ticker.C:
			if reaped, err := r.ReapOnce(ctx); err != nil {
				logger.Errorw("reap pass failed", "error", err)
			} else if reaped > 0 {
				logger.Warnf("failed %d orphaned processing jobs", reaped)
			}
		}
	}
}

// ReapOnce fails every PROCESSING job past the lease threshold and returns
// how many were reaped. The guarded transition makes it race-safe against a
// slow worker finishing at the same moment: exactly one of the two writes
// lands.
func (r *Reaper) ReapOnce(ctx context.Context) (int, error) {
	stale, err := r.store.ReportJob().ListStale(ctx, time.Now().UTC().Add(-r.lease))
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, job := range stale {
		cause := fmt.Sprintf("processing lease expired after %s, worker presumed dead", r.lease)
		if _, err := r.store.ReportJob().Transition(ctx, job.ID, model.ReportJobStatusFailed, store.WithJobError(cause)); err != nil {
			// lost the race against the worker's own terminal write
			zap.S().Named("job_reaper").Debugw("skipping job", "job_id", job.ID, "error", err)
			continue
		}
		metrics.IncreaseReportJobsTotalMetric(string(model.ReportJobStatusFailed))
		reaped++
	}

	return reaped, nil
}
