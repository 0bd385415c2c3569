package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthbridge/claims-reporter/internal/artifact"
	"github.com/healthbridge/claims-reporter/internal/auth"
	"github.com/healthbridge/claims-reporter/internal/jobs"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
	"github.com/healthbridge/claims-reporter/pkg/metrics"
)

// ReportService is the façade every external caller goes through: submit a
// report job, poll it, download its artifact, register a webhook. The Job
// Record Store is the single source of truth for status; this service never
// asks the worker runtime.
type ReportService struct {
	store     store.Store
	queue     *jobs.Queue
	artifacts artifact.Store
}

func NewReportService(s store.Store, queue *jobs.Queue, artifacts artifact.Store) *ReportService {
	return &ReportService{
		store:     s,
		queue:     queue,
		artifacts: artifacts,
	}
}

// CreateReportJob records the job as QUEUED and hands it to the worker
// pool. It returns as soon as the job is enqueued; execution is observed
// through GetReportJob.
func (s *ReportService) CreateReportJob(ctx context.Context, user auth.User) (*model.ReportJob, error) {
	job, err := s.store.ReportJob().Create(ctx, user.Username, user.Organization)
	if err != nil {
		return nil, err
	}

	err = s.queue.Submit(ctx, jobs.ReportArgs{
		JobID:    job.ID,
		Username: job.Username,
		OrgID:    job.OrgID,
	})
	if err != nil {
		// roll the record back so a rejected submission leaves no trace
		if deleteErr := s.store.ReportJob().Delete(ctx, job.ID); deleteErr != nil {
			zap.S().Named("report_service").Errorw("failed to roll back rejected job", "job_id", job.ID, "error", deleteErr)
		}
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, NewErrQueueFull()
		}
		return nil, err
	}

	metrics.IncreaseReportJobsTotalMetric(string(model.ReportJobStatusQueued))
	zap.S().Named("report_service").Infow("report job queued", "job_id", job.ID, "username", user.Username)
	return job, nil
}

func (s *ReportService) GetReportJob(ctx context.Context, id uuid.UUID, user auth.User) (*model.ReportJob, error) {
	job, err := s.store.ReportJob().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	if err := checkAccess(job, user); err != nil {
		return nil, err
	}

	return job, nil
}

// DownloadReport streams the artifact of a COMPLETED job. The caller owns
// closing the reader.
func (s *ReportService) DownloadReport(ctx context.Context, id uuid.UUID, user auth.User) (io.ReadCloser, error) {
	job, err := s.GetReportJob(ctx, id, user)
	if err != nil {
		return nil, err
	}

	if job.Status != model.ReportJobStatusCompleted || job.ArtifactPath == nil {
		return nil, NewErrJobNotReady(id, string(job.Status))
	}

	return s.artifacts.Open(ctx, *job.ArtifactPath)
}

func (s *ReportService) RegisterWebhook(ctx context.Context, user auth.User, url string) error {
	if _, err := s.store.Webhook().Upsert(ctx, user.Username, user.Organization, url); err != nil {
		return err
	}
	zap.S().Named("report_service").Infow("webhook registered", "username", user.Username, "url", url)
	return nil
}

// RequeuePending re-dispatches jobs that were accepted before a restart and
// never picked up.
func (s *ReportService) RequeuePending(ctx context.Context) error {
	queued, err := s.store.ReportJob().ListQueued(ctx)
	if err != nil {
		return err
	}

	for _, job := range queued {
		err := s.queue.Submit(ctx, jobs.ReportArgs{
			JobID:    job.ID,
			Username: job.Username,
			OrgID:    job.OrgID,
		})
		if err != nil {
			zap.S().Named("report_service").Warnw("failed to requeue job", "job_id", job.ID, "error", err)
			continue
		}
		zap.S().Named("report_service").Infow("requeued pending job", "job_id", job.ID)
	}

	return nil
}

func checkAccess(job *model.ReportJob, user auth.User) error {
	if job.Username != user.Username || job.OrgID != user.Organization {
		return NewErrJobAccessForbidden(job.ID)
	}
	return nil
}
