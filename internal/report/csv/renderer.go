package csv

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/healthbridge/claims-reporter/internal/report"
)

const timestampLayout = "2006-01-02 15:04:05"

var header = []string{
	"Status", "Claim ID", "Patient Name", "Diagnosis Code",
	"Procedure Code", "Claim Amount", "Submitted At", "Status Total",
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render serializes the artifact to CSV. An artifact with no rows produces
// a header-only document.
func (r *Renderer) Render(artifact *report.Artifact) (string, error) {
	csvRows := [][]string{header}

	for _, row := range artifact.Rows {
		csvRows = append(csvRows, []string{
			row.Status,
			strconv.FormatUint(uint64(row.ClaimID), 10),
			row.PatientName,
			row.DiagnosisCode,
			row.ProcedureCode,
			row.Amount,
			row.SubmittedAt.UTC().Format(timestampLayout),
			row.GroupTotal,
		})
	}

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) convertRowsToCSV(csvRows [][]string) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(csvRows); err != nil {
		return "", err
	}
	writer.Flush()
	return buf.String(), writer.Error()
}
