package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ReportJobStatus string

const (
	ReportJobStatusQueued     ReportJobStatus = "QUEUED"
	ReportJobStatusProcessing ReportJobStatus = "PROCESSING"
	ReportJobStatusCompleted  ReportJobStatus = "COMPLETED"
	ReportJobStatusFailed     ReportJobStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s ReportJobStatus) Terminal() bool {
	return s == ReportJobStatusCompleted || s == ReportJobStatusFailed
}

type ReportJob struct {
	ID           uuid.UUID       `gorm:"primaryKey"`
	Status       ReportJobStatus `gorm:"type:VARCHAR;size:20;not null;index"`
	Username     string          `gorm:"index:report_jobs_owner_idx;not null"`
	OrgID        string          `gorm:"index:report_jobs_owner_idx;not null"`
	ArtifactPath *string
	Error        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

type ReportJobList []ReportJob

func (j ReportJob) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
