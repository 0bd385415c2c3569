package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/healthbridge/claims-reporter/internal/store/model"
)

type Webhook interface {
	Upsert(ctx context.Context, username, orgID, url string) (*model.Webhook, error)
	Get(ctx context.Context, username, orgID string) (*model.Webhook, error)
	InitialMigration() error
}

type WebhookStore struct {
	db *gorm.DB
}

// Make sure we conform to Webhook interface
var _ Webhook = (*WebhookStore)(nil)

func NewWebhookStore(db *gorm.DB) Webhook {
	return &WebhookStore{db: db}
}

func (s *WebhookStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Webhook{})
}

// Upsert registers url for the owner. Last write wins.
func (s *WebhookStore) Upsert(ctx context.Context, username, orgID, url string) (*model.Webhook, error) {
	webhook := model.Webhook{
		Username: username,
		OrgID:    orgID,
		URL:      url,
	}
	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}, {Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "updated_at"}),
	}).Create(&webhook)
	if result.Error != nil {
		return nil, fmt.Errorf("registering webhook: %w", result.Error)
	}
	return &webhook, nil
}

func (s *WebhookStore) Get(ctx context.Context, username, orgID string) (*model.Webhook, error) {
	var webhook model.Webhook
	result := s.getDB(ctx).First(&webhook, "username = ? AND org_id = ?", username, orgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying webhook: %w", result.Error)
	}
	return &webhook, nil
}

func (s *WebhookStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
