package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleResult is the outcome of evaluating one validation rule over the
// full table.
type RuleResult struct {
	Name           string   `json:"name"`
	Severity       Severity `json:"severity"`
	Passed         int      `json:"passed"`
	Violations     int      `json:"violations"`
	FailedHandles  []string `json:"failedHandles,omitempty"`
	Recommendation string   `json:"recommendation"`
	TableWide      bool     `json:"tableWide"`
}

// RunReport is the structured validation summary of a pipeline run.
type RunReport struct {
	RunID            uuid.UUID    `json:"runId"`
	TotalRecords     int          `json:"totalRecords"`
	QualityScore     float64      `json:"qualityScore"`
	Status           GateStatus   `json:"status"`
	Rules            []RuleResult `json:"rules"`
	FailingRecordIDs []string     `json:"failingRecordIds"`
	StartedAt        time.Time    `json:"startedAt"`
	DurationMs       int64        `json:"durationMs"`
}

// FailedRecords counts records whose validation status is FAIL.
func (r *RunReport) FailedRecords() int {
	return len(r.FailingRecordIDs)
}

// ViolatedRulesBySeverity counts how many rules with at least one violation
// carry each severity.
func (r *RunReport) ViolatedRulesBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, rule := range r.Rules {
		if rule.Violations > 0 {
			counts[rule.Severity]++
		}
	}
	return counts
}
