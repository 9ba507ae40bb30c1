package pipeline

import "catalog-pipeline/internal/models"

// discountAdoptionThreshold is the minimum share of discounted records a
// category needs before undiscounted peers count as opportunities.
const discountAdoptionThreshold = 0.30

// classifyPriceTier maps a validated price to its tier. Boundaries are
// half-open, lower-inclusive.
func classifyPriceTier(price *float64, priceValid bool) models.PriceTier {
	if !priceValid || price == nil {
		return models.PriceTierInvalid
	}
	switch p := *price; {
	case p < 30:
		return models.PriceTierBudget
	case p < 80:
		return models.PriceTierMidRange
	case p < 150:
		return models.PriceTierPremium
	default:
		return models.PriceTierLuxury
	}
}

// classifyDiscountStrategy maps the discount state to a strategy. All
// non-valid discount conditions, including the impossible one, fall under
// "No Discount" here; the impossible case is surfaced by the validator.
func classifyDiscountStrategy(r *models.Record) models.DiscountStrategy {
	if r.CompareAtPrice == nil || !r.DiscountValid {
		return models.DiscountStrategyNone
	}
	switch pct := r.DiscountPercentage; {
	case pct <= 15:
		return models.DiscountStrategySmall
	case pct <= 30:
		return models.DiscountStrategyMedium
	default:
		return models.DiscountStrategyLarge
	}
}

// classifyProfitCategory maps an optional margin to its bracket.
func classifyProfitCategory(margin *float64) models.ProfitCategory {
	if margin == nil {
		return models.ProfitCategoryNoCostData
	}
	switch m := *margin; {
	case m < 0:
		return models.ProfitCategoryLoss
	case m < 25:
		return models.ProfitCategoryLow
	case m < 50:
		return models.ProfitCategoryHealthy
	default:
		return models.ProfitCategoryHigh
	}
}

// classifyContentTier maps an optional content score to its tier.
func classifyContentTier(score *int) models.ContentTier {
	if score == nil {
		return models.ContentTierUnknown
	}
	switch s := *score; {
	case s >= 90:
		return models.ContentTierExcellent
	case s >= 70:
		return models.ContentTierGood
	case s >= 50:
		return models.ContentTierNeedsWork
	default:
		return models.ContentTierPoor
	}
}

// classifyVariantComplexity maps option presence to a complexity level.
func classifyVariantComplexity(r *models.Record) models.VariantComplexity {
	switch {
	case present(r.Option3Name):
		return models.ComplexityComplex
	case present(r.Option2Name):
		return models.ComplexityMedium
	default:
		return models.ComplexitySimple
	}
}

// inventoryHealthScore sums four 25-point components: tracker present,
// valid price, positive cost, and a non-loss profit category. Missing cost
// data earns half credit on the last component.
func inventoryHealthScore(r *models.Record) int {
	score := 0
	if present(r.InventoryTracker) {
		score += 25
	}
	if r.PriceValid {
		score += 25
	}
	if r.CostPerItem != nil && *r.CostPerItem > 0 {
		score += 25
	}
	switch r.ProfitCategory {
	case models.ProfitCategoryLoss:
	case models.ProfitCategoryNoCostData:
		score += 12
	default:
		score += 25
	}
	return score
}

// classifyRecord derives every per-record classification and flag. The
// cross-record discount_opportunity flag is set separately by classifyTable
// once the table-wide adoption rates exist.
func classifyRecord(r *models.Record) {
	r.PriceTier = classifyPriceTier(r.VariantPrice, r.PriceValid)
	r.DiscountStrategy = classifyDiscountStrategy(r)
	r.ProfitCategory = classifyProfitCategory(r.ProfitMargin)
	r.InventoryHealthScore = inventoryHealthScore(r)
	r.VariantComplexity = classifyVariantComplexity(r)
	score := r.ContentQualityScore
	r.ContentTier = classifyContentTier(&score)

	r.NeedsPricingReview = r.ProfitCategory == models.ProfitCategoryLoss || !r.PriceValid
	r.NeedsContentUpdate = r.ContentQualityScore < 60
	r.HighValueProduct = (r.PriceTier == models.PriceTierPremium || r.PriceTier == models.PriceTierLuxury) &&
		(r.ProfitCategory == models.ProfitCategoryHealthy || r.ProfitCategory == models.ProfitCategoryHigh) &&
		r.ContentQualityScore >= 70
	r.QuickWin = (r.PriceTier == models.PriceTierMidRange || r.PriceTier == models.PriceTierPremium) &&
		r.ContentQualityScore < 70 &&
		r.PriceValid
}

// classifyTable runs the per-record classifier over the table, then the
// second pass that needs the per-category discount-adoption aggregate.
func classifyTable(t *models.Table) {
	for _, r := range t.Records {
		classifyRecord(r)
	}

	adoption := discountAdoptionByCategory(t)
	for _, r := range t.Records {
		r.DiscountOpportunity = r.DiscountStrategy == models.DiscountStrategyNone &&
			adoption[r.CategoryName()] > discountAdoptionThreshold &&
			(r.PriceTier == models.PriceTierMidRange || r.PriceTier == models.PriceTierPremium)
	}
}

// discountAdoptionByCategory computes the share of records with a valid
// discount per category.
func discountAdoptionByCategory(t *models.Table) map[string]float64 {
	totals := make(map[string]int)
	discounted := make(map[string]int)
	for _, r := range t.Records {
		cat := r.CategoryName()
		totals[cat]++
		if r.DiscountValid {
			discounted[cat]++
		}
	}
	rates := make(map[string]float64, len(totals))
	for cat, total := range totals {
		rates[cat] = float64(discounted[cat]) / float64(total)
	}
	return rates
}

func present(s *string) bool {
	return s != nil && *s != ""
}
