package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/store/model"
)

// Claim is the read-only view of the claims table consumed by report jobs.
// The claims CRUD service owns writes.
type Claim interface {
	List(ctx context.Context) (model.ClaimList, error)
	InitialMigration() error
}

type ClaimStore struct {
	db *gorm.DB
}

// Make sure we conform to Claim interface
var _ Claim = (*ClaimStore)(nil)

func NewClaimStore(db *gorm.DB) Claim {
	return &ClaimStore{db: db}
}

func (s *ClaimStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Claim{})
}

// List takes a point-in-time snapshot of all claims in submission order.
func (s *ClaimStore) List(ctx context.Context) (model.ClaimList, error) {
	var claims model.ClaimList
	result := s.getDB(ctx).Order("id").Find(&claims)
	if result.Error != nil {
		return nil, fmt.Errorf("listing claims: %w", result.Error)
	}
	return claims, nil
}

func (s *ClaimStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
