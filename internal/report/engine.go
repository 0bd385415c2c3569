// Package report computes the claims aggregation exported by report jobs.
// Compute is pure: no I/O, no clock, deterministic for a given snapshot.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/healthbridge/claims-reporter/internal/store/model"
)

// Row is one exported line. GroupTotal is only set on the first row of each
// status group; the remaining rows of the group carry an empty field. This
// print-once layout is deliberate for the flat export.
type Row struct {
	Status        string
	ClaimID       uint
	PatientName   string
	DiagnosisCode string
	ProcedureCode string
	Amount        string
	SubmittedAt   time.Time
	GroupTotal    string
}

type Artifact struct {
	Rows []Row
}

// Compute groups claims by status, preserving the first-seen order of groups
// and the encounter order inside each group, and sums each group's amounts
// with exact decimal arithmetic. Zero claims yield an artifact with no rows.
func Compute(claims model.ClaimList) *Artifact {
	groupOrder := []model.ClaimStatus{}
	groups := map[model.ClaimStatus][]model.Claim{}
	totals := map[model.ClaimStatus]decimal.Decimal{}

	for _, claim := range claims {
		if _, seen := groups[claim.Status]; !seen {
			groupOrder = append(groupOrder, claim.Status)
			totals[claim.Status] = decimal.Zero
		}
		groups[claim.Status] = append(groups[claim.Status], claim)
		totals[claim.Status] = totals[claim.Status].Add(claim.Amount)
	}

	artifact := &Artifact{Rows: make([]Row, 0, len(claims))}
	for _, status := range groupOrder {
		for i, claim := range groups[status] {
			row := Row{
				Status:        string(status),
				ClaimID:       claim.ID,
				PatientName:   claim.PatientName,
				DiagnosisCode: claim.DiagnosisCode,
				ProcedureCode: claim.ProcedureCode,
				Amount:        formatMoney(claim.Amount),
				SubmittedAt:   claim.SubmittedAt,
			}
			if i == 0 {
				row.GroupTotal = formatMoney(totals[status])
			}
			artifact.Rows = append(artifact.Rows, row)
		}
	}

	return artifact
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
