package jobs

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobKind        = "claims_report"
	DefaultTimeout = 30 * time.Minute
)

// ReportArgs identifies one report job handed to the worker pool. The job
// record itself lives in the Job Record Store; the queue only transports
// the reference.
type ReportArgs struct {
	JobID    uuid.UUID `json:"job_id"`
	Username string    `json:"username"`
	OrgID    string    `json:"org_id"`
}

func (ReportArgs) Kind() string {
	return JobKind
}
