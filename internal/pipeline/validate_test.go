package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-pipeline/internal/models"
)

// cleanRecord builds a record that passes every built-in rule once the
// enrichment stages have run.
func cleanRecord(handle string, price float64) *models.Record {
	return &models.Record{
		Handle:           handle,
		Title:            "Classic Freshwater Pearl Piece " + handle,
		BodyHTML:         sptr("<p>Hand-knotted freshwater pearls with a sterling silver clasp.</p>"),
		Vendor:           sptr("Perlys"),
		Category:         sptr("Necklaces"),
		Tags:             sptr("pearl, necklace, classic"),
		Published:        bptr(true),
		Status:           sptr("active"),
		InventoryTracker: sptr("shopify"),
		VariantPrice:     fptr(price),
		CostPerItem:      fptr(price * 0.4),
	}
}

func enrich(t *models.Table) {
	for _, r := range t.Records {
		normalizePricing(r)
	}
	for _, r := range t.Records {
		enrichText(r)
	}
	classifyTable(t)
}

func ruleByName(t *testing.T, results []models.RuleResult, name string) models.RuleResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found in results", name)
	return models.RuleResult{}
}

func TestValidator_CleanTableScoresFull(t *testing.T) {
	table := &models.Table{}
	for i := 0; i < 5; i++ {
		table.Records = append(table.Records, cleanRecord(fmt.Sprintf("pearl-%d", i), 45+float64(i)))
	}
	enrich(table)

	v := NewValidator()
	results, failing := v.Run(table)

	for _, result := range results {
		assert.Zerof(t, result.Violations, "rule %q should not be violated", result.Name)
	}
	assert.Empty(t, failing)
	assert.Equal(t, 100.0, QualityScore(results))
	assert.Equal(t, models.GateProductionReady, Gate(100))

	for _, r := range table.Records {
		assert.Equal(t, models.ValidationPass, r.ValidationStatus)
	}
}

func TestValidator_InvalidPriceIsCritical(t *testing.T) {
	table := &models.Table{}
	for i := 0; i < 4; i++ {
		table.Records = append(table.Records, cleanRecord(fmt.Sprintf("pearl-%d", i), 45))
	}
	broken := cleanRecord("broken-price", 45)
	broken.VariantPrice = fptr(0)
	broken.CostPerItem = nil
	table.Records = append(table.Records, broken)
	enrich(table)

	v := NewValidator()
	results, failing := v.Run(table)

	priceRule := ruleByName(t, results, "Valid Price (> 0)")
	assert.Equal(t, models.SeverityCritical, priceRule.Severity)
	assert.Equal(t, 1, priceRule.Violations)
	assert.Equal(t, []string{"broken-price"}, priceRule.FailedHandles)

	publishedRule := ruleByName(t, results, "Published Products Have Valid Prices")
	assert.Equal(t, 1, publishedRule.Violations)

	assert.Contains(t, failing, "broken-price")
	assert.Equal(t, models.ValidationFail, broken.ValidationStatus)
}

func TestValidator_ImpossibleCompareAtPrice(t *testing.T) {
	table := &models.Table{}
	table.Records = append(table.Records, cleanRecord("ok", 45))
	broken := cleanRecord("impossible-discount", 50)
	broken.CompareAtPrice = fptr(40)
	table.Records = append(table.Records, broken)
	enrich(table)

	v := NewValidator()
	results, _ := v.Run(table)

	rule := ruleByName(t, results, "Compare At Price Logic")
	assert.Equal(t, 1, rule.Violations)
	assert.Equal(t, []string{"impossible-discount"}, rule.FailedHandles)
	// the applicability filter only counts records carrying a compare price
	assert.Equal(t, 0, rule.Passed)
}

func TestValidator_SellingAtLoss(t *testing.T) {
	table := &models.Table{}
	table.Records = append(table.Records, cleanRecord("ok", 45))
	loss := cleanRecord("loss-maker", 50)
	loss.CostPerItem = fptr(80)
	table.Records = append(table.Records, loss)
	enrich(table)

	v := NewValidator()
	results, failing := v.Run(table)

	rule := ruleByName(t, results, "Not Selling at Loss")
	assert.Equal(t, 1, rule.Violations)
	assert.Contains(t, failing, "loss-maker")
}

func TestValidator_ExcessiveDiscount(t *testing.T) {
	table := &models.Table{}
	table.Records = append(table.Records, cleanRecord("ok", 45))
	deep := cleanRecord("deep-discount", 10)
	deep.CompareAtPrice = fptr(100)
	table.Records = append(table.Records, deep)
	enrich(table)

	v := NewValidator()
	results, _ := v.Run(table)

	rule := ruleByName(t, results, "Reasonable Discount Percentage")
	assert.Equal(t, 1, rule.Violations)
	assert.Equal(t, []string{"deep-discount"}, rule.FailedHandles)
}

func TestValidator_DuplicateTitles(t *testing.T) {
	table := &models.Table{}
	a := cleanRecord("first", 45)
	b := cleanRecord("second", 55)
	b.Title = a.Title
	table.Records = append(table.Records, a, b, cleanRecord("third", 65))
	enrich(table)

	v := NewValidator()
	results, failing := v.Run(table)

	rule := ruleByName(t, results, "No Duplicate Titles")
	assert.Equal(t, models.SeverityLow, rule.Severity)
	assert.Equal(t, 2, rule.Violations)
	assert.ElementsMatch(t, []string{"first", "second"}, rule.FailedHandles)
	assert.ElementsMatch(t, []string{"first", "second"}, failing)
}

func TestValidator_CategoryOutlierNeedsSampleSize(t *testing.T) {
	table := &models.Table{}
	// five records: below the minimum sample, outlier rules must skip
	for i := 0; i < 4; i++ {
		table.Records = append(table.Records, cleanRecord(fmt.Sprintf("small-%d", i), 50))
	}
	extreme := cleanRecord("small-extreme", 5000)
	table.Records = append(table.Records, extreme)
	enrich(table)

	v := NewValidator()
	results, _ := v.Run(table)

	rule := ruleByName(t, results, "Price Within Category Range")
	assert.Zero(t, rule.Violations)
	assert.Zero(t, rule.Passed, "rule is not applicable to undersized categories")
}

func TestValidator_CategoryPriceOutlier(t *testing.T) {
	table := &models.Table{}
	for i := 0; i < 19; i++ {
		table.Records = append(table.Records, cleanRecord(fmt.Sprintf("normal-%d", i), 50))
	}
	extreme := cleanRecord("price-outlier", 5000)
	table.Records = append(table.Records, extreme)
	enrich(table)

	v := NewValidator()
	results, _ := v.Run(table)

	rule := ruleByName(t, results, "Price Within Category Range")
	assert.Equal(t, []string{"price-outlier"}, rule.FailedHandles)
}

func TestValidator_ZeroVarianceCategoryIsSkipped(t *testing.T) {
	values := []float64{50, 50, 50, 50, 50, 50}
	_, ok := sampleMeanStd(values)
	assert.False(t, ok)
}

func TestSampleMeanStd(t *testing.T) {
	ms, ok := sampleMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.True(t, ok)
	assert.InDelta(t, 5.0, ms.mean, 1e-9)
	// sample standard deviation (n-1 denominator)
	assert.InDelta(t, 2.138, ms.std, 0.001)
}

func TestValidator_TableWideRuleDoesNotFailRecords(t *testing.T) {
	var tableWide Rule
	for _, rule := range builtinRules() {
		if rule.TableWide {
			tableWide = rule
		}
	}
	require.NotEmpty(t, tableWide.Name)

	table := &models.Table{}
	for i := 0; i < 10; i++ {
		r := &models.Record{Handle: fmt.Sprintf("r-%d", i)}
		r.NeedsPricingReview = i < 2
		table.Records = append(table.Records, r)
	}

	v := &Validator{rules: []Rule{tableWide}}
	results, failing := v.Run(table)

	require.Len(t, results, 1)
	result := results[0]
	assert.True(t, result.TableWide)
	assert.Equal(t, 2, result.Violations)
	assert.Zero(t, result.Passed)
	assert.ElementsMatch(t, []string{"r-0", "r-1"}, result.FailedHandles)

	// table-wide failures never mark individual records
	assert.Empty(t, failing)
	for _, r := range table.Records {
		assert.Equal(t, models.ValidationPass, r.ValidationStatus)
	}
}

func TestValidator_AddRule(t *testing.T) {
	table := &models.Table{Records: []*models.Record{cleanRecord("pearl", 45)}}
	enrich(table)

	v := NewValidator()
	v.AddRule(recordRule("Always Fails", models.SeverityLow, "n/a",
		nil,
		func(r *models.Record) bool { return false }))

	results, failing := v.Run(table)
	rule := ruleByName(t, results, "Always Fails")
	assert.Equal(t, 1, rule.Violations)
	assert.Equal(t, []string{"pearl"}, failing)
}

func TestQualityScore(t *testing.T) {
	t.Run("no violations", func(t *testing.T) {
		results := []models.RuleResult{
			{Severity: models.SeverityCritical, Violations: 0},
			{Severity: models.SeverityLow, Violations: 0},
		}
		assert.Equal(t, 100.0, QualityScore(results))
	})

	t.Run("small violation count deducts fractionally", func(t *testing.T) {
		results := []models.RuleResult{
			{Severity: models.SeverityMedium, Violations: 3},
		}
		assert.InDelta(t, 99.7, QualityScore(results), 1e-9)
	})

	t.Run("deduction is capped by severity weight", func(t *testing.T) {
		results := []models.RuleResult{
			{Severity: models.SeverityCritical, Violations: 200},
		}
		assert.InDelta(t, 90.0, QualityScore(results), 1e-9)
	})

	t.Run("deductions accumulate per rule", func(t *testing.T) {
		results := []models.RuleResult{
			{Severity: models.SeverityCritical, Violations: 200}, // -10
			{Severity: models.SeverityHigh, Violations: 100},     // -5
			{Severity: models.SeverityMedium, Violations: 5},     // -0.5
			{Severity: models.SeverityLow, Violations: 2},        // -0.2
		}
		assert.InDelta(t, 84.3, QualityScore(results), 1e-9)
	})

	t.Run("clamped at zero", func(t *testing.T) {
		var results []models.RuleResult
		for i := 0; i < 20; i++ {
			results = append(results, models.RuleResult{Severity: models.SeverityCritical, Violations: 1000})
		}
		assert.Equal(t, 0.0, QualityScore(results))
	})

	t.Run("order independent", func(t *testing.T) {
		forward := []models.RuleResult{
			{Severity: models.SeverityCritical, Violations: 7},
			{Severity: models.SeverityMedium, Violations: 3},
			{Severity: models.SeverityLow, Violations: 12},
		}
		reversed := []models.RuleResult{forward[2], forward[1], forward[0]}
		assert.Equal(t, QualityScore(forward), QualityScore(reversed))
	})
}

func TestGate(t *testing.T) {
	assert.Equal(t, models.GateProductionReady, Gate(100))
	assert.Equal(t, models.GateProductionReady, Gate(90))
	assert.Equal(t, models.GateNeedsReview, Gate(89.99))
	assert.Equal(t, models.GateNeedsReview, Gate(70))
	assert.Equal(t, models.GateCriticalIssues, Gate(69.99))
	assert.Equal(t, models.GateCriticalIssues, Gate(0))
}
