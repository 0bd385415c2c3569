package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/store/model"
)

// legalPredecessor is the enforced transition table:
// QUEUED -> PROCESSING -> {COMPLETED, FAILED}. Terminal states have no
// successors; anything not listed here is rejected.
var legalPredecessor = map[model.ReportJobStatus]model.ReportJobStatus{
	model.ReportJobStatusProcessing: model.ReportJobStatusQueued,
	model.ReportJobStatusCompleted:  model.ReportJobStatusProcessing,
	model.ReportJobStatusFailed:     model.ReportJobStatusProcessing,
}

type TransitionOption func(updates map[string]any)

func WithArtifactPath(path string) TransitionOption {
	return func(updates map[string]any) {
		updates["artifact_path"] = path
	}
}

func WithJobError(message string) TransitionOption {
	return func(updates map[string]any) {
		updates["error"] = message
	}
}

type ReportJob interface {
	Create(ctx context.Context, username, orgID string) (*model.ReportJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ReportJob, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Transition(ctx context.Context, id uuid.UUID, next model.ReportJobStatus, opts ...TransitionOption) (*model.ReportJob, error)
	ListQueued(ctx context.Context) (model.ReportJobList, error)
	ListStale(ctx context.Context, olderThan time.Time) (model.ReportJobList, error)
	InitialMigration() error
}

type ReportJobStore struct {
	db *gorm.DB
}

// Make sure we conform to ReportJob interface
var _ ReportJob = (*ReportJobStore)(nil)

func NewReportJobStore(db *gorm.DB) ReportJob {
	return &ReportJobStore{db: db}
}

func (s *ReportJobStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.ReportJob{})
}

func (s *ReportJobStore) Create(ctx context.Context, username, orgID string) (*model.ReportJob, error) {
	job := model.ReportJob{
		ID:       uuid.New(),
		Status:   model.ReportJobStatusQueued,
		Username: username,
		OrgID:    orgID,
	}
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("creating report job: %w", result.Error)
	}
	return &job, nil
}

func (s *ReportJobStore) Get(ctx context.Context, id uuid.UUID) (*model.ReportJob, error) {
	var job model.ReportJob
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying report job: %w", result.Error)
	}
	return &job, nil
}

// Transition moves the job into next, enforcing the legal-transition table
// with a guarded update: the row is only touched when its current status is
// the legal predecessor, so concurrent writers cannot produce a lost update
// and replays of the same transition are rejected.
func (s *ReportJobStore) Transition(ctx context.Context, id uuid.UUID, next model.ReportJobStatus, opts ...TransitionOption) (*model.ReportJob, error) {
	pred, ok := legalPredecessor[next]
	if !ok {
		return nil, ErrInvalidTransition
	}

	updates := map[string]any{"status": next}
	if next.Terminal() {
		updates["completed_at"] = time.Now().UTC()
	}
	for _, o := range opts {
		o(updates)
	}

	result := s.getDB(ctx).Model(&model.ReportJob{}).
		Where("id = ? AND status = ?", id, pred).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("updating report job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// distinguish an unknown job from an illegal transition
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	return s.Get(ctx, id)
}

// Delete removes a job record. Only the submission path uses it, to roll
// back a record whose enqueue was rejected; jobs are never deleted once
// dispatched.
func (s *ReportJobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Delete(&model.ReportJob{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting report job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListQueued returns QUEUED jobs in creation order. Used at startup to
// re-dispatch jobs that were accepted before a restart.
func (s *ReportJobStore) ListQueued(ctx context.Context) (model.ReportJobList, error) {
	var jobs model.ReportJobList
	result := s.getDB(ctx).
		Where("status = ?", model.ReportJobStatusQueued).
		Order("created_at").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("listing queued report jobs: %w", result.Error)
	}
	return jobs, nil
}

// ListStale returns PROCESSING jobs untouched since olderThan. These are
// jobs whose worker died mid-run; the reaper fails them.
func (s *ReportJobStore) ListStale(ctx context.Context, olderThan time.Time) (model.ReportJobList, error) {
	var jobs model.ReportJobList
	result := s.getDB(ctx).
		Where("status = ? AND updated_at < ?", model.ReportJobStatusProcessing, olderThan).
		Order("updated_at").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("listing stale report jobs: %w", result.Error)
	}
	return jobs, nil
}

func (s *ReportJobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
