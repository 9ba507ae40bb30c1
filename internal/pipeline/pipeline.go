// Package pipeline implements the catalog enrichment and validation
// pipeline: a deterministic, multi-stage transformation of raw product
// records into validated, business-annotated records, gated by a rule-based
// quality score.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-pipeline/internal/models"
)

// RequiredColumns are the normalized feed columns the pipeline needs.
// Cells may be null; the column itself must exist.
var RequiredColumns = []string{
	"handle",
	"title",
	"body (html)",
	"vendor",
	"product category",
	"tags",
	"published",
	"option1 name",
	"option1 value",
	"option2 name",
	"option3 name",
	"variant price",
	"variant compare at price",
	"cost per item",
	"variant inventory tracker",
	"seo title",
	"seo description",
	"status",
}

// MissingColumnError is the structural precondition failure: the input
// table lacks a required column entirely. It aborts a run before any stage
// executes. Data-quality problems never produce errors.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing from the input table", e.Column)
}

// Pipeline runs the enrichment stages and the validator over an in-memory
// product table. The driver owns the table for the duration of a run; each
// stage completes before the next starts.
type Pipeline struct {
	logger    *logrus.Logger
	validator *Validator
}

// New returns a pipeline with the built-in validation rule set.
func New(logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		logger:    logger,
		validator: NewValidator(),
	}
}

// Validator exposes the rule engine so callers can register extra rules
// before a run.
func (p *Pipeline) Validator() *Validator {
	return p.validator
}

// Run executes the stages in order: pricing, text/SEO, classification,
// validation. The only error is the structural missing-column abort; every
// data-quality problem resolves to derived columns and rule violations, and
// the run always produces a best-effort report otherwise.
func (p *Pipeline) Run(t *models.Table) (*models.RunReport, error) {
	started := time.Now()

	for _, col := range RequiredColumns {
		if !t.HasColumn(col) {
			return nil, &MissingColumnError{Column: col}
		}
	}

	for _, r := range t.Records {
		normalizePricing(r)
	}
	p.stageDone("price normalizer", t)

	for _, r := range t.Records {
		enrichText(r)
	}
	p.stageDone("text/seo enricher", t)

	classifyTable(t)
	p.stageDone("business classifier", t)

	results, failingIDs := p.validator.Run(t)
	score := QualityScore(results)

	report := &models.RunReport{
		RunID:            uuid.New(),
		TotalRecords:     len(t.Records),
		QualityScore:     score,
		Status:           Gate(score),
		Rules:            results,
		FailingRecordIDs: failingIDs,
		StartedAt:        started,
		DurationMs:       time.Since(started).Milliseconds(),
	}

	p.logger.WithFields(logrus.Fields{
		"records":       report.TotalRecords,
		"quality_score": report.QualityScore,
		"status":        report.Status,
		"failed":        len(failingIDs),
		"duration_ms":   report.DurationMs,
	}).Info("pipeline run complete")

	return report, nil
}

func (p *Pipeline) stageDone(stage string, t *models.Table) {
	p.logger.WithFields(logrus.Fields{
		"stage":   stage,
		"records": len(t.Records),
	}).Debug("stage complete")
}
