package reporter

import (
	"encoding/json"

	"github.com/stackgen-cli/loop-migrate/internal/models"
)

// SchemaVersion identifies the JSON report layout
const SchemaVersion = "1.0"

// JSONReport is the stable JSON output format
type JSONReport struct {
	SchemaVersion string `json:"schema_version"`
	*models.RunReport
}

// ToJSON wraps a RunReport in the stable JSON format
func ToJSON(report *models.RunReport) *JSONReport {
	return &JSONReport{
		SchemaVersion: SchemaVersion,
		RunReport:     report,
	}
}

// MarshalReport renders the JSON report with 2-space indentation
func MarshalReport(report *models.RunReport) ([]byte, error) {
	return json.MarshalIndent(ToJSON(report), "", "  ")
}
