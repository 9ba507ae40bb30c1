package pipeline

import (
	"math"

	"catalog-pipeline/internal/models"
)

// severityWeights caps the penalty a single rule can contribute to the
// aggregate quality score.
var severityWeights = map[models.Severity]float64{
	models.SeverityCritical: 10,
	models.SeverityHigh:     5,
	models.SeverityMedium:   2,
	models.SeverityLow:      1,
}

// minCategorySample is the smallest category for which the mean/stddev
// outlier rules apply.
const minCategorySample = 6

// pricingReviewThreshold is the maximum tolerated share of records flagged
// for pricing review before the table-wide rule fails.
const pricingReviewThreshold = 0.05

// Rule is a named, severity-tagged validation predicate over the record
// table. Per-record rules report the individual records that violate them;
// table-wide rules pass or fail as a single boolean and never flag
// individual records.
type Rule struct {
	Name           string
	Severity       models.Severity
	Recommendation string
	TableWide      bool
	evaluate       func(t *models.Table, s *tableStats) ruleOutcome
}

type ruleOutcome struct {
	applicable  int
	failed      []*models.Record
	tableFailed bool
}

// recordRule builds a per-record rule from an applicability filter and a
// "passes" predicate.
func recordRule(name string, severity models.Severity, recommendation string,
	applies func(*models.Record) bool, passes func(*models.Record) bool) Rule {
	return Rule{
		Name:           name,
		Severity:       severity,
		Recommendation: recommendation,
		evaluate: func(t *models.Table, s *tableStats) ruleOutcome {
			var out ruleOutcome
			for _, r := range t.Records {
				if applies != nil && !applies(r) {
					continue
				}
				out.applicable++
				if !passes(r) {
					out.failed = append(out.failed, r)
				}
			}
			return out
		},
	}
}

type meanStd struct {
	mean float64
	std  float64
}

// tableStats carries the cross-record aggregates the second-pass rules
// need: category price and title-length distributions, title duplication
// counts and the pricing-review tally. Categories below the minimum sample
// size, or with zero variance, are omitted so the outlier rules skip them.
type tableStats struct {
	priceByCategory    map[string]meanStd
	titleLenByCategory map[string]meanStd
	titleCounts        map[string]int
	pricingReviewCount int
}

func computeTableStats(t *models.Table) *tableStats {
	s := &tableStats{
		priceByCategory:    make(map[string]meanStd),
		titleLenByCategory: make(map[string]meanStd),
		titleCounts:        make(map[string]int),
	}

	prices := make(map[string][]float64)
	titleLens := make(map[string][]float64)
	for _, r := range t.Records {
		cat := r.CategoryName()
		if r.VariantPrice != nil {
			prices[cat] = append(prices[cat], *r.VariantPrice)
		}
		titleLens[cat] = append(titleLens[cat], float64(r.TitleLength))
		s.titleCounts[r.Title]++
		if r.NeedsPricingReview {
			s.pricingReviewCount++
		}
	}

	for cat, values := range prices {
		if ms, ok := sampleMeanStd(values); ok {
			s.priceByCategory[cat] = ms
		}
	}
	for cat, values := range titleLens {
		if ms, ok := sampleMeanStd(values); ok {
			s.titleLenByCategory[cat] = ms
		}
	}
	return s
}

// sampleMeanStd returns the mean and sample standard deviation, or ok=false
// when the sample is too small or has zero variance.
func sampleMeanStd(values []float64) (meanStd, bool) {
	if len(values) < minCategorySample {
		return meanStd{}, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	variance := sq / float64(len(values)-1)
	if variance == 0 {
		return meanStd{}, false
	}
	return meanStd{mean: mean, std: math.Sqrt(variance)}, true
}

// builtinRules is the minimum contract rule set. The validator accepts
// additional rules, but these severities and semantics are fixed.
func builtinRules() []Rule {
	rules := []Rule{
		recordRule("Valid Price (> 0)", models.SeverityCritical,
			"Fix pricing immediately - these products cannot be sold",
			nil,
			func(r *models.Record) bool { return r.PriceValid }),

		recordRule("Compare At Price Logic", models.SeverityHigh,
			"Fix discount pricing logic - compare price must be higher than sale price",
			func(r *models.Record) bool { return r.CompareAtPrice != nil },
			func(r *models.Record) bool { return r.DiscountCondition != models.DiscountCondImpossible }),

		recordRule("Not Selling at Loss", models.SeverityHigh,
			"Review pricing strategy - these products lose money on each sale",
			func(r *models.Record) bool { return r.CostPerItem != nil && r.VariantPrice != nil },
			func(r *models.Record) bool { return *r.CostPerItem <= *r.VariantPrice }),

		{
			Name:           "Price Within Category Range",
			Severity:       models.SeverityMedium,
			Recommendation: "Review pricing - significantly different from category average",
			evaluate: func(t *models.Table, s *tableStats) ruleOutcome {
				var out ruleOutcome
				for _, r := range t.Records {
					if r.VariantPrice == nil {
						continue
					}
					ms, ok := s.priceByCategory[r.CategoryName()]
					if !ok {
						continue
					}
					out.applicable++
					if math.Abs(*r.VariantPrice-ms.mean) > 3*ms.std {
						out.failed = append(out.failed, r)
					}
				}
				return out
			},
		},

		recordRule("Title Length (10-200 chars)", models.SeverityCritical,
			"Fix titles - too short or too long for proper display",
			nil,
			func(r *models.Record) bool { return r.TitleLength >= 10 && r.TitleLength <= 200 }),

		recordRule("SEO Title Exists", models.SeverityHigh,
			"Generate SEO titles for search engine optimization",
			nil,
			func(r *models.Record) bool { return r.HasSEOTitle }),

		recordRule("SEO Description Length (50-160)", models.SeverityMedium,
			"Optimize SEO descriptions for search engines",
			nil,
			func(r *models.Record) bool {
				if r.SEODescription == nil {
					return false
				}
				n := len([]rune(*r.SEODescription))
				return n >= 50 && n <= 160
			}),

		recordRule("Premium Products Need Quality Content", models.SeverityHigh,
			"Improve content for premium products - they deserve better presentation",
			isPremiumOrLuxury,
			func(r *models.Record) bool { return r.ContentQualityScore >= 70 }),

		recordRule("Published Products Have Valid Prices", models.SeverityCritical,
			"Published products with invalid prices will break the storefront",
			func(r *models.Record) bool { return r.IsPublished() },
			func(r *models.Record) bool { return r.PriceValid }),

		recordRule("Active Products Have Inventory Tracking", models.SeverityMedium,
			"Enable inventory tracking to prevent overselling",
			func(r *models.Record) bool { return r.Status != nil && *r.Status == "active" },
			func(r *models.Record) bool { return present(r.InventoryTracker) }),

		recordRule("Variants Have Option Names", models.SeverityHigh,
			"Fix variant configuration - option names are required",
			func(r *models.Record) bool { return present(r.Option1Value) },
			func(r *models.Record) bool { return present(r.Option1Name) }),

		recordRule("Valid Vendor", models.SeverityMedium,
			"Assign proper vendors for inventory management",
			nil,
			func(r *models.Record) bool {
				return r.Vendor != nil && *r.Vendor != "" && *r.Vendor != models.UnknownVendor
			}),

		recordRule("Premium Products Categorized", models.SeverityHigh,
			"Categorize premium products for better discoverability",
			isPremiumOrLuxury,
			func(r *models.Record) bool { return r.CategoryName() != models.Uncategorized }),

		recordRule("High-Value Products Have Quality Content", models.SeverityHigh,
			"Improve content for profit drivers - these products deserve priority",
			func(r *models.Record) bool { return r.HighValueProduct },
			func(r *models.Record) bool { return r.ContentQualityScore >= 70 }),

		{
			Name:           "Pricing Review < 5% of Products",
			Severity:       models.SeverityMedium,
			Recommendation: "Too many products need pricing review - audit pricing sources",
			TableWide:      true,
			evaluate: func(t *models.Table, s *tableStats) ruleOutcome {
				out := ruleOutcome{applicable: len(t.Records)}
				threshold := float64(len(t.Records)) * pricingReviewThreshold
				if float64(s.pricingReviewCount) >= threshold {
					out.tableFailed = true
					for _, r := range t.Records {
						if r.NeedsPricingReview {
							out.failed = append(out.failed, r)
						}
					}
				}
				return out
			},
		},

		recordRule("Reasonable Discount Percentage", models.SeverityMedium,
			"Review excessive discounts - may indicate pricing errors",
			nil,
			func(r *models.Record) bool { return r.DiscountPercentage < 80 }),

		{
			Name:           "No Duplicate Titles",
			Severity:       models.SeverityLow,
			Recommendation: "Review duplicate titles - may be data entry errors",
			evaluate: func(t *models.Table, s *tableStats) ruleOutcome {
				out := ruleOutcome{applicable: len(t.Records)}
				for _, r := range t.Records {
					if s.titleCounts[r.Title] > 1 {
						out.failed = append(out.failed, r)
					}
				}
				return out
			},
		},

		{
			Name:           "Title Length Normal for Category",
			Severity:       models.SeverityLow,
			Recommendation: "Review unusual title lengths for consistency",
			evaluate: func(t *models.Table, s *tableStats) ruleOutcome {
				var out ruleOutcome
				for _, r := range t.Records {
					ms, ok := s.titleLenByCategory[r.CategoryName()]
					if !ok {
						continue
					}
					out.applicable++
					if math.Abs(float64(r.TitleLength)-ms.mean) > 3*ms.std {
						out.failed = append(out.failed, r)
					}
				}
				return out
			},
		},
	}
	return rules
}

func isPremiumOrLuxury(r *models.Record) bool {
	return r.PriceTier == models.PriceTierPremium || r.PriceTier == models.PriceTierLuxury
}

// Validator evaluates a rule set once against a fully enriched table.
type Validator struct {
	rules []Rule
}

// NewValidator returns a validator loaded with the built-in rule set.
func NewValidator() *Validator {
	return &Validator{rules: builtinRules()}
}

// AddRule registers an extra rule ahead of a run.
func (v *Validator) AddRule(rule Rule) {
	v.rules = append(v.rules, rule)
}

// Run evaluates every rule over the table, stamps the per-record
// validation status and returns the rule results plus the failing record
// handles. Table-wide rule failures do not mark individual records.
func (v *Validator) Run(t *models.Table) ([]models.RuleResult, []string) {
	stats := computeTableStats(t)

	results := make([]models.RuleResult, 0, len(v.rules))
	failing := make(map[string]bool)

	for _, rule := range v.rules {
		out := rule.evaluate(t, stats)

		result := models.RuleResult{
			Name:           rule.Name,
			Severity:       rule.Severity,
			Recommendation: rule.Recommendation,
			TableWide:      rule.TableWide,
			Violations:     len(out.failed),
			Passed:         out.applicable - len(out.failed),
		}
		if rule.TableWide && out.tableFailed {
			// a failed table-wide rule passes no records
			result.Passed = 0
		}
		for _, r := range out.failed {
			result.FailedHandles = append(result.FailedHandles, r.Handle)
			if !rule.TableWide {
				failing[r.Handle] = true
			}
		}
		results = append(results, result)
	}

	failingIDs := make([]string, 0, len(failing))
	for _, r := range t.Records {
		if failing[r.Handle] {
			r.ValidationStatus = models.ValidationFail
			failingIDs = append(failingIDs, r.Handle)
		} else {
			r.ValidationStatus = models.ValidationPass
		}
	}
	return results, failingIDs
}

// QualityScore reduces 100 by min(severity weight, violations*0.1) for each
// violated rule. Deductions are independent, so the score is a deterministic,
// order-independent function of the violation counts. Clamped at 0.
func QualityScore(results []models.RuleResult) float64 {
	score := 100.0
	for _, r := range results {
		if r.Violations == 0 {
			continue
		}
		score -= math.Min(severityWeights[r.Severity], float64(r.Violations)*0.1)
	}
	if score < 0 {
		return 0
	}
	return score
}

// Gate maps an aggregate quality score to the three-way readiness signal.
func Gate(score float64) models.GateStatus {
	switch {
	case score >= 90:
		return models.GateProductionReady
	case score >= 70:
		return models.GateNeedsReview
	default:
		return models.GateCriticalIssues
	}
}
