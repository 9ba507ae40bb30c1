package pipeline

import "catalog-pipeline/internal/models"

// normalizePricing derives the price validity, discount and margin columns
// for a single record. Invalid numeric states resolve to flags; nothing here
// ever errors, and every ratio is guarded by the matching validity flag so
// division only happens against a known-positive denominator.
func normalizePricing(r *models.Record) {
	r.PriceValid = r.VariantPrice != nil && *r.VariantPrice > 0

	r.DiscountValid = false
	r.DiscountAmount = 0
	r.DiscountPercentage = 0
	r.DiscountCondition = models.DiscountCondNone

	if r.CompareAtPrice != nil && r.VariantPrice != nil {
		switch {
		case !r.PriceValid:
			r.DiscountCondition = models.DiscountCondNone
		case *r.CompareAtPrice > *r.VariantPrice:
			r.DiscountCondition = models.DiscountCondValid
			r.DiscountValid = true
			r.DiscountAmount = *r.CompareAtPrice - *r.VariantPrice
			r.DiscountPercentage = r.DiscountAmount / *r.CompareAtPrice * 100
		case *r.CompareAtPrice == *r.VariantPrice:
			r.DiscountCondition = models.DiscountCondEqual
		default:
			r.DiscountCondition = models.DiscountCondImpossible
		}
	}

	r.ProfitMargin = nil
	if r.PriceValid && r.CostPerItem != nil {
		margin := (*r.VariantPrice - *r.CostPerItem) / *r.VariantPrice * 100
		r.ProfitMargin = &margin
	}
}
