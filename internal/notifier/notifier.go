// Package notifier delivers best-effort webhook callbacks when a report job
// reaches a terminal state. Delivery failures are logged and never surfaced
// into job state.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
	"github.com/healthbridge/claims-reporter/pkg/metrics"
)

const defaultTimeout = 5 * time.Second

// Payload is the JSON body posted to the registered webhook.
type Payload struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Notifier struct {
	store  store.Store
	client *http.Client
}

func New(s store.Store) *Notifier {
	return &Notifier{
		store:  s,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithClient is used by tests to inject a custom HTTP client.
func NewWithClient(s store.Store, client *http.Client) *Notifier {
	return &Notifier{store: s, client: client}
}

// Notify looks up the owner's current webhook registration and posts the
// job outcome to it. A missing registration is a no-op. The returned error
// is informational only; callers must not fail the job on it.
func (n *Notifier) Notify(ctx context.Context, job *model.ReportJob) error {
	webhook, err := n.store.Webhook().Get(ctx, job.Username, job.OrgID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		zap.S().Named("notifier").Errorw("failed to look up webhook registration", "job_id", job.ID, "error", err)
		return err
	}

	payload := Payload{
		JobID:       job.ID.String(),
		Status:      string(job.Status),
		CompletedAt: job.CompletedAt,
	}
	if job.Error != nil {
		payload.Error = *job.Error
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.IncreaseWebhookDeliveriesTotalMetric("error")
		zap.S().Named("notifier").Warnw("webhook delivery failed", "job_id", job.ID, "url", webhook.URL, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.IncreaseWebhookDeliveriesTotalMetric("error")
		zap.S().Named("notifier").Warnw("webhook delivery rejected", "job_id", job.ID, "url", webhook.URL, "status", resp.StatusCode)
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	metrics.IncreaseWebhookDeliveriesTotalMetric("delivered")
	zap.S().Named("notifier").Infow("webhook delivered", "job_id", job.ID, "status", payload.Status)
	return nil
}
