package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusDenied   ClaimStatus = "DENIED"
)

// Claim is a row of the claims table. The report subsystem only ever reads
// claims; writes belong to the claims CRUD service.
type Claim struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	PatientName   string          `gorm:"type:VARCHAR;size:100;not null"`
	DiagnosisCode string          `gorm:"type:VARCHAR;size:20;not null;index"`
	ProcedureCode string          `gorm:"type:VARCHAR;size:20;not null;index"`
	Amount        decimal.Decimal `gorm:"column:claim_amount;type:decimal(10,2);not null"`
	Status        ClaimStatus     `gorm:"type:VARCHAR;size:20;not null;index"`
	SubmittedAt   time.Time       `gorm:"not null"`
}

type ClaimList []Claim
