// Package artifact provides durable write-once storage for generated
// report exports, addressed by job ID.
package artifact

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Store is the artifact storage contract. Write must be atomic from the
// reader's perspective: a location returned by Write always resolves to the
// complete artifact, never a partial one. Writing the same job ID twice
// overwrites.
type Store interface {
	Write(ctx context.Context, jobID uuid.UUID, content io.Reader) (string, error)
	Exists(ctx context.Context, jobID uuid.UUID) (bool, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Type() string
}

func objectName(jobID uuid.UUID) string {
	return "claims_report_" + jobID.String() + ".csv"
}
