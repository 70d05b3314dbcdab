package domain

import "time"

// EfficiencyScore is the OEE-style composite for one SKU. Sub-scores are
// percentages; Overall = Availability * Performance * Quality / 10000.
// All values are rounded to two decimals.
type EfficiencyScore struct {
	SKU          string    `json:"sku"`
	Availability float64   `json:"availability"`
	Performance  float64   `json:"performance"`
	Quality      float64   `json:"quality"`
	Overall      float64   `json:"overall"`
	Timestamp    time.Time `json:"timestamp"`
}

// ScoredProduct pairs a record with its current efficiency score.
type ScoredProduct struct {
	Product Product         `json:"product"`
	OEE     EfficiencyScore `json:"oee"`
}

const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityWarning  = "WARNING"
)

// ScoreSeverity classifies an overall score for alerting. An empty string
// means no alert.
func ScoreSeverity(overall float64) string {
	switch {
	case overall < 50:
		return SeverityCritical
	case overall < 70:
		return SeverityWarning
	default:
		return ""
	}
}
