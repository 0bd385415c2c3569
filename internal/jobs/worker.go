package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/claims-reporter/internal/artifact"
	"github.com/healthbridge/claims-reporter/internal/events"
	"github.com/healthbridge/claims-reporter/internal/notifier"
	"github.com/healthbridge/claims-reporter/internal/report"
	reportcsv "github.com/healthbridge/claims-reporter/internal/report/csv"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
	"github.com/healthbridge/claims-reporter/pkg/metrics"
)

// ReportWorker executes one report job to a terminal state: claims snapshot,
// aggregation, artifact write, then the COMPLETED or FAILED transition.
// Every status write goes through the store's Transition; the worker never
// touches job fields directly.
type ReportWorker struct {
	store     store.Store
	artifacts artifact.Store
	notifier  *notifier.Notifier
	producer  *events.EventProducer
	renderer  *reportcsv.Renderer
	timeout   time.Duration
}

func NewReportWorker(s store.Store, artifacts artifact.Store, n *notifier.Notifier, producer *events.EventProducer, timeout time.Duration) *ReportWorker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ReportWorker{
		store:     s,
		artifacts: artifacts,
		notifier:  n,
		producer:  producer,
		renderer:  reportcsv.NewRenderer(),
		timeout:   timeout,
	}
}

func (w *ReportWorker) Timeout() time.Duration {
	return w.timeout
}

// Work drives args.JobID to a terminal state. Errors during execution are
// converted into a FAILED record and are not returned: by the time a worker
// runs, the submitter is long gone.
func (w *ReportWorker) Work(ctx context.Context, args ReportArgs) {
	logger := zap.S().Named("report_worker").With("job_id", args.JobID)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	_, err := w.store.ReportJob().Transition(ctx, args.JobID, model.ReportJobStatusProcessing)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			// replay of a job another worker already picked up; drop it
			logger.Warnw("job already picked up, skipping", "error", err)
			return
		}
		logger.Errorw("failed to mark job processing", "error", err)
		return
	}
	metrics.IncreaseReportJobsTotalMetric(string(model.ReportJobStatusProcessing))

	start := time.Now()
	location, runErr := w.run(ctx, args)

	var terminal *model.ReportJob
	if runErr != nil {
		logger.Errorw("report job failed", "error", runErr)
		terminal, err = w.store.ReportJob().Transition(ctx, args.JobID, model.ReportJobStatusFailed, store.WithJobError(runErr.Error()))
	} else {
		terminal, err = w.store.ReportJob().Transition(ctx, args.JobID, model.ReportJobStatusCompleted, store.WithArtifactPath(location))
	}
	if err != nil {
		// the reaper may have failed the job underneath a stuck worker
		logger.Errorw("failed to finalize job", "error", err)
		return
	}

	metrics.IncreaseReportJobsTotalMetric(string(terminal.Status))
	metrics.ObserveReportJobDurationMetric(time.Since(start).Seconds())
	logger.Infow("report job finished", "status", terminal.Status, "duration", time.Since(start))

	w.emitEvent(terminal)
	// completion is already durable; notification failures are logged only
	_ = w.notifier.Notify(ctx, terminal)
}

func (w *ReportWorker) run(ctx context.Context, args ReportArgs) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	claims, err := w.store.Claim().List(ctx)
	if err != nil {
		return "", fmt.Errorf("reading claims snapshot: %w", err)
	}

	content, err := w.renderer.Render(report.Compute(claims))
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	location, err := w.artifacts.Write(ctx, args.JobID, strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}

	return location, nil
}

func (w *ReportWorker) emitEvent(job *model.ReportJob) {
	if w.producer == nil {
		return
	}

	event := events.JobEvent{
		JobID:       job.ID.String(),
		Status:      string(job.Status),
		CompletedAt: job.CompletedAt,
	}
	if job.Error != nil {
		event.Error = *job.Error
	}

	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := w.producer.Write(context.TODO(), events.JobMessageKind, bytes.NewReader(body)); err != nil {
		zap.S().Named("report_worker").Warnw("failed to emit job event", "job_id", job.ID, "error", err)
	}
}
