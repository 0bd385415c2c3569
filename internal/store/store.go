package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	ReportJob() ReportJob
	Webhook() Webhook
	Claim() Claim
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db        *gorm.DB
	reportJob ReportJob
	webhook   Webhook
	claim     Claim
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:        db,
		reportJob: NewReportJobStore(db),
		webhook:   NewWebhookStore(db),
		claim:     NewClaimStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) ReportJob() ReportJob {
	return s.reportJob
}

func (s *DataStore) Webhook() Webhook {
	return s.webhook
}

func (s *DataStore) Claim() Claim {
	return s.claim
}

func (s *DataStore) InitialMigration() error {
	if err := s.reportJob.InitialMigration(); err != nil {
		return err
	}
	if err := s.webhook.InitialMigration(); err != nil {
		return err
	}
	return s.claim.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
