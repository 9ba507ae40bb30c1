package models

// PriceTier represents the coarse price bracket of a product
type PriceTier string

const (
	PriceTierInvalid  PriceTier = "Invalid"
	PriceTierBudget   PriceTier = "Budget"
	PriceTierMidRange PriceTier = "Mid-Range"
	PriceTierPremium  PriceTier = "Premium"
	PriceTierLuxury   PriceTier = "Luxury"
)

// DiscountStrategy represents the discount sizing of a product
type DiscountStrategy string

const (
	DiscountStrategyNone    DiscountStrategy = "No Discount"
	DiscountStrategyInvalid DiscountStrategy = "Invalid Discount"
	DiscountStrategySmall   DiscountStrategy = "Small Discount"
	DiscountStrategyMedium  DiscountStrategy = "Medium Discount"
	DiscountStrategyLarge   DiscountStrategy = "Large Discount"
)

// DiscountCondition distinguishes the raw compare-at-price states. The
// strategy classifier maps everything but CondValid to "No Discount", but
// the equal and impossible cases must stay reportable on their own.
type DiscountCondition string

const (
	DiscountCondNone       DiscountCondition = "NONE"       // no compare-at price
	DiscountCondValid      DiscountCondition = "VALID"      // compare > price > 0
	DiscountCondEqual      DiscountCondition = "EQUAL"      // compare == price, no actual discount
	DiscountCondImpossible DiscountCondition = "IMPOSSIBLE" // compare < price
)

// ProfitCategory represents the profit-margin bracket of a product
type ProfitCategory string

const (
	ProfitCategoryNoCostData ProfitCategory = "No Cost Data"
	ProfitCategoryLoss       ProfitCategory = "Loss"
	ProfitCategoryLow        ProfitCategory = "Low Margin"
	ProfitCategoryHealthy    ProfitCategory = "Healthy Margin"
	ProfitCategoryHigh       ProfitCategory = "High Margin"
)

// ContentTier represents the content quality bracket of a product
type ContentTier string

const (
	ContentTierUnknown   ContentTier = "Unknown"
	ContentTierPoor      ContentTier = "Poor"
	ContentTierNeedsWork ContentTier = "Needs Work"
	ContentTierGood      ContentTier = "Good"
	ContentTierExcellent ContentTier = "Excellent"
)

// VariantComplexity represents how many option dimensions a product carries
type VariantComplexity string

const (
	ComplexitySimple  VariantComplexity = "Simple"
	ComplexityMedium  VariantComplexity = "Medium"
	ComplexityComplex VariantComplexity = "Complex"
)

// ValidationStatus is the per-record pass/fail outcome of a validation run
type ValidationStatus string

const (
	ValidationPass ValidationStatus = "PASS"
	ValidationFail ValidationStatus = "FAIL"
)

// Severity ranks validation rules by business impact
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// GateStatus is the three-way production-readiness signal of a run
type GateStatus string

const (
	GateProductionReady GateStatus = "production-ready"
	GateNeedsReview     GateStatus = "needs-review"
	GateCriticalIssues  GateStatus = "critical-issues"
)

// Record is one row of the product table: the raw feed fields plus every
// derived column the pipeline appends. Stages only add derived values; raw
// fields are never removed or renamed. Pointer fields are null when the feed
// cell was empty.
type Record struct {
	Row int `json:"row"` // 1-based source row, for error reporting

	// Raw feed fields
	Handle           string   `json:"handle"`
	Title            string   `json:"title"`
	BodyHTML         *string  `json:"bodyHtml,omitempty"`
	Vendor           *string  `json:"vendor,omitempty"`
	Category         *string  `json:"category,omitempty"`
	Tags             *string  `json:"tags,omitempty"`
	Published        *bool    `json:"published,omitempty"`
	Status           *string  `json:"status,omitempty"`
	Option1Name      *string  `json:"option1Name,omitempty"`
	Option1Value     *string  `json:"option1Value,omitempty"`
	Option2Name      *string  `json:"option2Name,omitempty"`
	Option3Name      *string  `json:"option3Name,omitempty"`
	InventoryTracker *string  `json:"inventoryTracker,omitempty"`
	VariantPrice     *float64 `json:"variantPrice,omitempty"`
	CompareAtPrice   *float64 `json:"compareAtPrice,omitempty"`
	CostPerItem      *float64 `json:"costPerItem,omitempty"`
	SEOTitle         *string  `json:"seoTitle,omitempty"`
	SEODescription   *string  `json:"seoDescription,omitempty"`

	// Derived by the price normalizer
	PriceValid         bool              `json:"priceValid"`
	DiscountValid      bool              `json:"discountValid"`
	DiscountCondition  DiscountCondition `json:"discountCondition"`
	DiscountAmount     float64           `json:"discountAmount"`
	DiscountPercentage float64           `json:"discountPercentage"`
	ProfitMargin       *float64          `json:"profitMargin,omitempty"` // null when cost missing or price invalid

	// Derived by the text/SEO enricher
	TitleLength         int  `json:"titleLength"`
	TagCount            int  `json:"tagCount"`
	DescriptionLength   int  `json:"descriptionLength"`
	HasSEOTitle         bool `json:"hasSeoTitle"`
	HasSEODescription   bool `json:"hasSeoDescription"`
	HasTags             bool `json:"hasTags"`
	HasDescription      bool `json:"hasDescription"`
	ContentQualityScore int  `json:"contentQualityScore"`

	// Derived by the business classifier
	PriceTier            PriceTier         `json:"priceTier"`
	DiscountStrategy     DiscountStrategy  `json:"discountStrategy"`
	ProfitCategory       ProfitCategory    `json:"profitCategory"`
	ContentTier          ContentTier       `json:"contentTier"`
	VariantComplexity    VariantComplexity `json:"variantComplexity"`
	InventoryHealthScore int               `json:"inventoryHealthScore"`
	NeedsPricingReview   bool              `json:"needsPricingReview"`
	NeedsContentUpdate   bool              `json:"needsContentUpdate"`
	HighValueProduct     bool              `json:"highValueProduct"`
	QuickWin             bool              `json:"quickWin"`
	DiscountOpportunity  bool              `json:"discountOpportunity"`

	// Derived by the validator
	ValidationStatus ValidationStatus `json:"validationStatus"`
}

// VendorName returns the normalized vendor or the sentinel
func (r *Record) VendorName() string {
	if r.Vendor == nil {
		return UnknownVendor
	}
	return *r.Vendor
}

// CategoryName returns the normalized category or the sentinel
func (r *Record) CategoryName() string {
	if r.Category == nil {
		return Uncategorized
	}
	return *r.Category
}

// IsPublished reports whether the feed marked the record as published
func (r *Record) IsPublished() bool {
	return r.Published != nil && *r.Published
}

// Sentinels substituted by the text enricher for null inputs
const (
	UnknownVendor = "Unknown Vendor"
	Uncategorized = "Uncategorized"
	Untagged      = "untagged"
)

// Table is the in-memory product table handed through the pipeline. The
// driver owns it exclusively for the duration of a run; stages append
// derived values to the records and never mutate raw fields.
type Table struct {
	Columns []string  `json:"columns"` // normalized source column names
	Records []*Record `json:"records"`
}

// HasColumn reports whether the source feed carried the named column,
// independent of per-cell nulls.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
