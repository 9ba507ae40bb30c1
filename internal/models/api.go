package models

// Error is the structured API error payload
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// ImportResult is the response body for a feed import run.
type ImportResult struct {
	Success      bool       `json:"success"`
	ValidateOnly bool       `json:"validateOnly"`
	TotalRows    int        `json:"totalRows"`
	FailedRows   int        `json:"failedRows"`
	Report       *RunReport `json:"report"`
	ProcessingMs int64      `json:"processingMs"`
}

// ProductView joins a persisted product with its latest pricing row for
// the query endpoints.
type ProductView struct {
	Product
	VendorName         string         `json:"vendorName"`
	CategoryName       string         `json:"categoryName"`
	VariantPrice       *float64       `json:"variantPrice,omitempty"`
	ProfitMargin       *float64       `json:"profitMargin,omitempty"`
	PriceTier          PriceTier      `json:"priceTier"`
	ProfitCategory     ProfitCategory `json:"profitCategory"`
	NeedsPricingReview bool           `json:"needsPricingReview"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []ProductView   `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// CategorySummary aggregates per-category catalog metrics.
type CategorySummary struct {
	CategoryName string   `json:"categoryName"`
	ProductCount int      `json:"productCount"`
	AvgPrice     *float64 `json:"avgPrice,omitempty"`
	MinPrice     *float64 `json:"minPrice,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	AvgMargin    *float64 `json:"avgMargin,omitempty"`
}

// VendorPerformance aggregates per-vendor catalog metrics.
type VendorPerformance struct {
	VendorName     string   `json:"vendorName"`
	TotalProducts  int      `json:"totalProducts"`
	HighValueCount int      `json:"highValueCount"`
	AvgPrice       *float64 `json:"avgPrice,omitempty"`
	AvgMargin      *float64 `json:"avgMargin,omitempty"`
	MinPrice       *float64 `json:"minPrice,omitempty"`
	MaxPrice       *float64 `json:"maxPrice,omitempty"`
}

// ImportTemplateColumn describes one column of the feed import template.
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate describes the expected feed layout.
type ImportTemplate struct {
	Columns []ImportTemplateColumn `json:"columns"`
}

// FeedImportTemplate returns the template definition for product feed files.
func FeedImportTemplate() ImportTemplate {
	return ImportTemplate{
		Columns: []ImportTemplateColumn{
			{Name: "Handle", Description: "Unique product identifier (slug)", Required: true, Type: "string", Example: "pearl-necklace-classic"},
			{Name: "Title", Description: "Product title", Required: true, Type: "string", Example: "Classic Pearl Necklace"},
			{Name: "Body (HTML)", Description: "Product description, HTML allowed", Required: true, Type: "string", Example: "<p>Hand-knotted freshwater pearls.</p>"},
			{Name: "Vendor", Description: "Vendor name", Required: true, Type: "string", Example: "Perlys"},
			{Name: "Product Category", Description: "Product category name", Required: true, Type: "string", Example: "Necklaces"},
			{Name: "Tags", Description: "Comma-separated tags", Required: true, Type: "string", Example: "pearl, necklace, classic"},
			{Name: "Published", Description: "TRUE or FALSE", Required: true, Type: "boolean", Example: "TRUE"},
			{Name: "Option1 Name", Description: "First variant option name", Required: true, Type: "string", Example: "Size"},
			{Name: "Option1 Value", Description: "First variant option value", Required: true, Type: "string", Example: "45cm"},
			{Name: "Option2 Name", Description: "Second variant option name", Required: true, Type: "string", Example: "Clasp"},
			{Name: "Option3 Name", Description: "Third variant option name", Required: true, Type: "string", Example: ""},
			{Name: "Variant Price", Description: "Sale price", Required: true, Type: "number", Example: "89.00"},
			{Name: "Variant Compare At Price", Description: "Pre-discount price", Required: true, Type: "number", Example: "120.00"},
			{Name: "Cost per item", Description: "Unit cost", Required: true, Type: "number", Example: "35.50"},
			{Name: "Variant Inventory Tracker", Description: "Inventory tracking system", Required: true, Type: "string", Example: "shopify"},
			{Name: "SEO Title", Description: "Search engine title", Required: true, Type: "string", Example: ""},
			{Name: "SEO Description", Description: "Search engine description", Required: true, Type: "string", Example: ""},
			{Name: "Status", Description: "active, draft or archived", Required: true, Type: "string", Example: "active"},
		},
	}
}
