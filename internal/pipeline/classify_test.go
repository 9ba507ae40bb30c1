package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-pipeline/internal/models"
)

func TestClassifyPriceTier_Boundaries(t *testing.T) {
	tests := []struct {
		price float64
		tier  models.PriceTier
	}{
		{0.01, models.PriceTierBudget},
		{29.99, models.PriceTierBudget},
		{30.00, models.PriceTierMidRange},
		{79.99, models.PriceTierMidRange},
		{80.00, models.PriceTierPremium},
		{149.99, models.PriceTierPremium},
		{150.00, models.PriceTierLuxury},
		{9999.99, models.PriceTierLuxury},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.price), func(t *testing.T) {
			assert.Equal(t, tt.tier, classifyPriceTier(fptr(tt.price), true))
		})
	}
}

func TestClassifyPriceTier_Invalid(t *testing.T) {
	assert.Equal(t, models.PriceTierInvalid, classifyPriceTier(fptr(0), false))
	assert.Equal(t, models.PriceTierInvalid, classifyPriceTier(nil, false))
}

func TestClassifyDiscountStrategy(t *testing.T) {
	tests := []struct {
		name     string
		record   models.Record
		strategy models.DiscountStrategy
	}{
		{"no compare price", models.Record{}, models.DiscountStrategyNone},
		{"invalid discount state", models.Record{CompareAtPrice: fptr(40)}, models.DiscountStrategyNone},
		{"small", models.Record{CompareAtPrice: fptr(100), DiscountValid: true, DiscountPercentage: 15}, models.DiscountStrategySmall},
		{"medium", models.Record{CompareAtPrice: fptr(100), DiscountValid: true, DiscountPercentage: 30}, models.DiscountStrategyMedium},
		{"large", models.Record{CompareAtPrice: fptr(100), DiscountValid: true, DiscountPercentage: 30.1}, models.DiscountStrategyLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.strategy, classifyDiscountStrategy(&tt.record))
		})
	}
}

func TestClassifyProfitCategory(t *testing.T) {
	assert.Equal(t, models.ProfitCategoryNoCostData, classifyProfitCategory(nil))
	assert.Equal(t, models.ProfitCategoryLoss, classifyProfitCategory(fptr(-0.1)))
	assert.Equal(t, models.ProfitCategoryLow, classifyProfitCategory(fptr(0)))
	assert.Equal(t, models.ProfitCategoryLow, classifyProfitCategory(fptr(24.9)))
	assert.Equal(t, models.ProfitCategoryHealthy, classifyProfitCategory(fptr(25)))
	assert.Equal(t, models.ProfitCategoryHealthy, classifyProfitCategory(fptr(49.9)))
	assert.Equal(t, models.ProfitCategoryHigh, classifyProfitCategory(fptr(50)))
}

func TestClassifyContentTier(t *testing.T) {
	iptr := func(i int) *int { return &i }

	assert.Equal(t, models.ContentTierUnknown, classifyContentTier(nil))
	assert.Equal(t, models.ContentTierPoor, classifyContentTier(iptr(49)))
	assert.Equal(t, models.ContentTierNeedsWork, classifyContentTier(iptr(50)))
	assert.Equal(t, models.ContentTierNeedsWork, classifyContentTier(iptr(69)))
	assert.Equal(t, models.ContentTierGood, classifyContentTier(iptr(70)))
	assert.Equal(t, models.ContentTierGood, classifyContentTier(iptr(89)))
	assert.Equal(t, models.ContentTierExcellent, classifyContentTier(iptr(90)))
}

func TestClassifyVariantComplexity(t *testing.T) {
	assert.Equal(t, models.ComplexitySimple, classifyVariantComplexity(&models.Record{}))
	assert.Equal(t, models.ComplexityMedium, classifyVariantComplexity(&models.Record{Option2Name: sptr("Color")}))
	assert.Equal(t, models.ComplexityComplex, classifyVariantComplexity(&models.Record{Option2Name: sptr("Color"), Option3Name: sptr("Material")}))
	// option3 alone still counts as complex
	assert.Equal(t, models.ComplexityComplex, classifyVariantComplexity(&models.Record{Option3Name: sptr("Material")}))
}

func TestInventoryHealthScore(t *testing.T) {
	t.Run("full health", func(t *testing.T) {
		r := &models.Record{
			InventoryTracker: sptr("shopify"),
			PriceValid:       true,
			CostPerItem:      fptr(10),
			ProfitCategory:   models.ProfitCategoryHealthy,
		}
		assert.Equal(t, 100, inventoryHealthScore(r))
	})

	t.Run("no cost data earns partial credit", func(t *testing.T) {
		r := &models.Record{
			InventoryTracker: sptr("shopify"),
			PriceValid:       true,
			ProfitCategory:   models.ProfitCategoryNoCostData,
		}
		assert.Equal(t, 62, inventoryHealthScore(r))
	})

	t.Run("loss earns nothing on the margin component", func(t *testing.T) {
		r := &models.Record{
			InventoryTracker: sptr("shopify"),
			PriceValid:       true,
			CostPerItem:      fptr(80),
			ProfitCategory:   models.ProfitCategoryLoss,
		}
		assert.Equal(t, 75, inventoryHealthScore(r))
	})
}

func TestClassifyRecord_LossNeedsPricingReview(t *testing.T) {
	r := &models.Record{VariantPrice: fptr(50), CostPerItem: fptr(80)}
	normalizePricing(r)
	classifyRecord(r)

	assert.Equal(t, models.ProfitCategoryLoss, r.ProfitCategory)
	assert.True(t, r.NeedsPricingReview)
}

func TestClassifyRecord_InvalidPriceNeedsPricingReview(t *testing.T) {
	r := &models.Record{VariantPrice: fptr(0)}
	normalizePricing(r)
	classifyRecord(r)

	assert.Equal(t, models.PriceTierInvalid, r.PriceTier)
	assert.True(t, r.NeedsPricingReview)
}

func TestClassifyRecord_HighValueProduct(t *testing.T) {
	r := &models.Record{VariantPrice: fptr(120), CostPerItem: fptr(40)}
	normalizePricing(r)
	r.ContentQualityScore = 80
	classifyRecord(r)

	// margin 66.7% -> High, tier Premium, content >= 70
	assert.True(t, r.HighValueProduct)
	assert.False(t, r.QuickWin)
}

func TestClassifyRecord_QuickWin(t *testing.T) {
	r := &models.Record{VariantPrice: fptr(45)}
	normalizePricing(r)
	r.ContentQualityScore = 40
	classifyRecord(r)

	assert.True(t, r.QuickWin)
	assert.True(t, r.NeedsContentUpdate)
	assert.False(t, r.HighValueProduct)
}

func TestClassifyTable_DiscountOpportunity(t *testing.T) {
	table := &models.Table{}
	// 18 of 20 ring records carry a real discount; adoption 0.9
	for i := 0; i < 18; i++ {
		table.Records = append(table.Records, &models.Record{
			Handle:         fmt.Sprintf("ring-discounted-%d", i),
			Category:       sptr("Rings"),
			VariantPrice:   fptr(50),
			CompareAtPrice: fptr(70),
		})
	}
	undiscountedMid := &models.Record{
		Handle:       "ring-full-price",
		Category:     sptr("Rings"),
		VariantPrice: fptr(55),
	}
	undiscountedBudget := &models.Record{
		Handle:       "ring-budget",
		Category:     sptr("Rings"),
		VariantPrice: fptr(12),
	}
	table.Records = append(table.Records, undiscountedMid, undiscountedBudget)

	// low-adoption category peer
	necklace := &models.Record{
		Handle:       "necklace-full-price",
		Category:     sptr("Necklaces"),
		VariantPrice: fptr(55),
	}
	table.Records = append(table.Records, necklace)

	for _, r := range table.Records {
		normalizePricing(r)
	}
	classifyTable(table)

	assert.True(t, undiscountedMid.DiscountOpportunity)
	assert.False(t, undiscountedBudget.DiscountOpportunity, "budget tier is excluded")
	assert.False(t, necklace.DiscountOpportunity, "category adoption below threshold")
	for _, r := range table.Records[:18] {
		assert.False(t, r.DiscountOpportunity, "already discounted records are never opportunities")
	}
}

func TestClassifyTable_AdoptionAtThresholdIsNotEnough(t *testing.T) {
	table := &models.Table{}
	// exactly 3 of 10 discounted: adoption == 0.30, strictly-above required
	for i := 0; i < 3; i++ {
		table.Records = append(table.Records, &models.Record{
			Handle:         fmt.Sprintf("d-%d", i),
			Category:       sptr("Rings"),
			VariantPrice:   fptr(50),
			CompareAtPrice: fptr(70),
		})
	}
	for i := 0; i < 7; i++ {
		table.Records = append(table.Records, &models.Record{
			Handle:       fmt.Sprintf("u-%d", i),
			Category:     sptr("Rings"),
			VariantPrice: fptr(50),
		})
	}

	for _, r := range table.Records {
		normalizePricing(r)
	}
	classifyTable(table)

	for _, r := range table.Records {
		assert.False(t, r.DiscountOpportunity)
	}
}
