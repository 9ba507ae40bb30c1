package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Vendor is a normalized vendor row, deduplicated by name during a save.
type Vendor struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_vendors_name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Vendor) TableName() string {
	return "vendors"
}

// Category is a normalized category row, deduplicated by name during a save.
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_categories_name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Category) TableName() string {
	return "categories"
}

// Product is the persisted enriched product. Pricing lives in its own table,
// one row per product per pipeline run.
type Product struct {
	ID                  uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Handle              string            `json:"handle" gorm:"not null;uniqueIndex:idx_products_handle"`
	Title               string            `json:"title" gorm:"not null"`
	VendorID            uuid.UUID         `json:"vendorId" gorm:"type:uuid;not null;index"`
	CategoryID          uuid.UUID         `json:"categoryId" gorm:"type:uuid;not null;index"`
	Status              *string           `json:"status,omitempty"`
	Published           bool              `json:"published"`
	SeoTitle            *string           `json:"seoTitle,omitempty" gorm:"column:seo_title;type:text"`
	SeoDescription      *string           `json:"seoDescription,omitempty" gorm:"column:seo_description;type:text"`
	Tags                *string           `json:"tags,omitempty"`
	TagCount            int               `json:"tagCount"`
	TitleLength         int               `json:"titleLength"`
	DescriptionLength   int               `json:"descriptionLength"`
	ContentQualityScore int               `json:"contentQualityScore"`
	ContentTier         ContentTier       `json:"contentTier" gorm:"index"`
	VariantComplexity   VariantComplexity `json:"variantComplexity"`
	HighValueProduct    bool              `json:"highValueProduct" gorm:"index"`
	QuickWin            bool              `json:"quickWin" gorm:"index"`
	NeedsContentUpdate  bool              `json:"needsContentUpdate"`
	DiscountOpportunity bool              `json:"discountOpportunity"`
	ValidationStatus    ValidationStatus  `json:"validationStatus" gorm:"index"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// Pricing carries the price-derived columns for a product in a given run.
type Pricing struct {
	ID                   uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID            uuid.UUID         `json:"productId" gorm:"type:uuid;not null;index"`
	RunID                uuid.UUID         `json:"runId" gorm:"type:uuid;not null;index"`
	VariantPrice         *float64          `json:"variantPrice,omitempty"`
	CompareAtPrice       *float64          `json:"compareAtPrice,omitempty"`
	CostPerItem          *float64          `json:"costPerItem,omitempty"`
	PriceValid           bool              `json:"priceValid"`
	DiscountValid        bool              `json:"discountValid"`
	DiscountCondition    DiscountCondition `json:"discountCondition"`
	DiscountAmount       float64           `json:"discountAmount"`
	DiscountPercentage   float64           `json:"discountPercentage"`
	ProfitMargin         *float64          `json:"profitMargin,omitempty"`
	PriceTier            PriceTier         `json:"priceTier" gorm:"index"`
	DiscountStrategy     DiscountStrategy  `json:"discountStrategy"`
	ProfitCategory       ProfitCategory    `json:"profitCategory"`
	InventoryHealthScore int               `json:"inventoryHealthScore"`
	NeedsPricingReview   bool              `json:"needsPricingReview" gorm:"index"`
	CreatedAt            time.Time         `json:"createdAt"`
}

func (Pricing) TableName() string {
	return "pricing"
}

// ValidationRun records one pipeline execution and its aggregate outcome.
type ValidationRun struct {
	ID            uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	QualityScore  float64          `json:"qualityScore" gorm:"not null"`
	Status        GateStatus       `json:"status" gorm:"not null"`
	TotalRecords  int              `json:"totalRecords"`
	FailedRecords int              `json:"failedRecords"`
	DurationMs    int64            `json:"durationMs"`
	Results       []RuleResultRow  `json:"results,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func (ValidationRun) TableName() string {
	return "validation_runs"
}

// RuleResultRow is a persisted per-rule validation outcome.
type RuleResultRow struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RunID          uuid.UUID  `json:"runId" gorm:"type:uuid;not null;index"`
	Rule           string     `json:"rule" gorm:"not null"`
	Severity       Severity   `json:"severity" gorm:"not null"`
	Violations     int        `json:"violations"`
	Passed         int        `json:"passed"`
	TableWide      bool       `json:"tableWide"`
	Recommendation string     `json:"recommendation"`
	FailedHandles  *JSONArray `json:"failedHandles,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (RuleResultRow) TableName() string {
	return "validation_rule_results"
}
