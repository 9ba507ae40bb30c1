package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-pipeline/internal/models"
)

// Cache TTL constants
const (
	ProductListCacheTTL = 2 * time.Minute // list queries, refreshed often after imports
	ReportCacheTTL      = 5 * time.Minute // latest validation report
)

const cachePrefix = "catalog:"

// CatalogRepository persists enriched pipeline output into the normalized
// store and serves the query surface, with redis read-through caching on
// the hot list queries.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		db:    db,
		redis: redisClient,
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s%s:%s", cachePrefix, prefix, hex.EncodeToString(hash[:]))
}

func (r *CatalogRepository) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.redis == nil {
		return false
	}
	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (r *CatalogRepository) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.redis == nil {
		return
	}
	if data, err := json.Marshal(value); err == nil {
		_ = r.redis.Set(ctx, key, data, ttl).Err()
	}
}

// invalidateCaches drops every catalog cache entry after a new run lands.
func (r *CatalogRepository) invalidateCaches(ctx context.Context) {
	if r.redis == nil {
		return
	}
	iter := r.redis.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		_ = r.redis.Del(ctx, iter.Val()).Err()
	}
}

// SaveRun persists an enriched table and its validation report in one
// transaction: vendors and categories deduplicated by name, products
// upserted by handle, one pricing row per record for this run, plus the
// run and its per-rule results.
func (r *CatalogRepository) SaveRun(ctx context.Context, table *models.Table, report *models.RunReport) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := models.ValidationRun{
			ID:            report.RunID,
			QualityScore:  report.QualityScore,
			Status:        report.Status,
			TotalRecords:  report.TotalRecords,
			FailedRecords: report.FailedRecords(),
			DurationMs:    report.DurationMs,
		}
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("failed to create validation run: %w", err)
		}

		ruleRows := make([]models.RuleResultRow, 0, len(report.Rules))
		for _, rule := range report.Rules {
			row := models.RuleResultRow{
				RunID:          report.RunID,
				Rule:           rule.Name,
				Severity:       rule.Severity,
				Violations:     rule.Violations,
				Passed:         rule.Passed,
				TableWide:      rule.TableWide,
				Recommendation: rule.Recommendation,
			}
			if len(rule.FailedHandles) > 0 {
				handles := make(models.JSONArray, len(rule.FailedHandles))
				for i, h := range rule.FailedHandles {
					handles[i] = h
				}
				row.FailedHandles = &handles
			}
			ruleRows = append(ruleRows, row)
		}
		if len(ruleRows) > 0 {
			if err := tx.Create(&ruleRows).Error; err != nil {
				return fmt.Errorf("failed to create rule results: %w", err)
			}
		}

		vendorIDs := make(map[string]uuid.UUID)
		categoryIDs := make(map[string]uuid.UUID)

		for _, rec := range table.Records {
			vendorID, err := resolveVendor(tx, vendorIDs, rec.VendorName())
			if err != nil {
				return err
			}
			categoryID, err := resolveCategory(tx, categoryIDs, rec.CategoryName())
			if err != nil {
				return err
			}

			product := models.Product{
				Handle:              rec.Handle,
				Title:               rec.Title,
				VendorID:            vendorID,
				CategoryID:          categoryID,
				Status:              rec.Status,
				Published:           rec.IsPublished(),
				SeoTitle:            rec.SEOTitle,
				SeoDescription:      rec.SEODescription,
				Tags:                rec.Tags,
				TagCount:            rec.TagCount,
				TitleLength:         rec.TitleLength,
				DescriptionLength:   rec.DescriptionLength,
				ContentQualityScore: rec.ContentQualityScore,
				ContentTier:         rec.ContentTier,
				VariantComplexity:   rec.VariantComplexity,
				HighValueProduct:    rec.HighValueProduct,
				QuickWin:            rec.QuickWin,
				NeedsContentUpdate:  rec.NeedsContentUpdate,
				DiscountOpportunity: rec.DiscountOpportunity,
				ValidationStatus:    rec.ValidationStatus,
			}

			var existing models.Product
			res := tx.Where("handle = ?", rec.Handle).First(&existing)
			if res.Error == nil {
				product.ID = existing.ID
				product.CreatedAt = existing.CreatedAt
				if err := tx.Save(&product).Error; err != nil {
					return fmt.Errorf("failed to update product %s: %w", rec.Handle, err)
				}
			} else if res.Error == gorm.ErrRecordNotFound {
				if err := tx.Create(&product).Error; err != nil {
					return fmt.Errorf("failed to create product %s: %w", rec.Handle, err)
				}
			} else {
				return fmt.Errorf("failed to look up product %s: %w", rec.Handle, res.Error)
			}

			pricing := models.Pricing{
				ProductID:            product.ID,
				RunID:                report.RunID,
				VariantPrice:         rec.VariantPrice,
				CompareAtPrice:       rec.CompareAtPrice,
				CostPerItem:          rec.CostPerItem,
				PriceValid:           rec.PriceValid,
				DiscountValid:        rec.DiscountValid,
				DiscountCondition:    rec.DiscountCondition,
				DiscountAmount:       rec.DiscountAmount,
				DiscountPercentage:   rec.DiscountPercentage,
				ProfitMargin:         rec.ProfitMargin,
				PriceTier:            rec.PriceTier,
				DiscountStrategy:     rec.DiscountStrategy,
				ProfitCategory:       rec.ProfitCategory,
				InventoryHealthScore: rec.InventoryHealthScore,
				NeedsPricingReview:   rec.NeedsPricingReview,
			}
			if err := tx.Create(&pricing).Error; err != nil {
				return fmt.Errorf("failed to create pricing for %s: %w", rec.Handle, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateCaches(ctx)
	r.cacheSet(ctx, cachePrefix+"validation:latest", report, ReportCacheTTL)
	return nil
}

func resolveVendor(tx *gorm.DB, cache map[string]uuid.UUID, name string) (uuid.UUID, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	var vendor models.Vendor
	if err := tx.Where("name = ?", name).FirstOrCreate(&vendor, models.Vendor{Name: name}).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve vendor %q: %w", name, err)
	}
	cache[name] = vendor.ID
	return vendor.ID, nil
}

func resolveCategory(tx *gorm.DB, cache map[string]uuid.UUID, name string) (uuid.UUID, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	var category models.Category
	if err := tx.Where("name = ?", name).FirstOrCreate(&category, models.Category{Name: name}).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
	}
	cache[name] = category.ID
	return category.ID, nil
}

// latestRunQuery returns a subquery selecting the most recent run id.
func (r *CatalogRepository) latestRunQuery() *gorm.DB {
	return r.db.Model(&models.ValidationRun{}).Select("id").Order("created_at DESC").Limit(1)
}

// productViewQuery joins products with vendor/category names and the
// pricing row from the latest run.
func (r *CatalogRepository) productViewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Select("products.*, vendors.name AS vendor_name, categories.name AS category_name, " +
			"pricing.variant_price, pricing.profit_margin, pricing.price_tier, " +
			"pricing.profit_category, pricing.needs_pricing_review").
		Joins("JOIN vendors ON vendors.id = products.vendor_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("JOIN pricing ON pricing.product_id = products.id AND pricing.run_id = (?)", r.latestRunQuery())
}

// ListProducts returns a page of enriched products with their latest pricing.
func (r *CatalogRepository) ListProducts(ctx context.Context, page, limit int) ([]models.ProductView, *models.PaginationInfo, error) {
	type listParams struct {
		Page  int
		Limit int
	}
	cacheKey := generateListCacheKey("products:list", listParams{Page: page, Limit: limit})

	type cachedList struct {
		Views      []models.ProductView   `json:"views"`
		Pagination models.PaginationInfo  `json:"pagination"`
	}
	var cached cachedList
	if r.cacheGet(ctx, cacheKey, &cached) {
		return cached.Views, &cached.Pagination, nil
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count products: %w", err)
	}

	var views []models.ProductView
	offset := (page - 1) * limit
	if err := r.productViewQuery(ctx).
		Order("products.title").
		Offset(offset).Limit(limit).
		Scan(&views).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list products: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pagination := models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}

	r.cacheSet(ctx, cacheKey, cachedList{Views: views, Pagination: pagination}, ProductListCacheTTL)
	return views, &pagination, nil
}

// GetProductByHandle returns one enriched product with its latest pricing.
func (r *CatalogRepository) GetProductByHandle(ctx context.Context, handle string) (*models.ProductView, error) {
	var view models.ProductView
	res := r.productViewQuery(ctx).Where("products.handle = ?", handle).Limit(1).Scan(&view)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", handle, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &view, nil
}

// HighValueProducts returns the top high-value products, best margins first.
func (r *CatalogRepository) HighValueProducts(ctx context.Context, limit int) ([]models.ProductView, error) {
	cacheKey := generateListCacheKey("products:high-value", limit)
	var views []models.ProductView
	if r.cacheGet(ctx, cacheKey, &views) {
		return views, nil
	}
	if err := r.productViewQuery(ctx).
		Where("products.high_value_product = ?", true).
		Order("pricing.profit_margin DESC, pricing.variant_price DESC").
		Limit(limit).
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list high-value products: %w", err)
	}
	r.cacheSet(ctx, cacheKey, views, ProductListCacheTTL)
	return views, nil
}

// QuickWins returns quick-win products: priciest first, weakest content first.
func (r *CatalogRepository) QuickWins(ctx context.Context, limit int) ([]models.ProductView, error) {
	cacheKey := generateListCacheKey("products:quick-wins", limit)
	var views []models.ProductView
	if r.cacheGet(ctx, cacheKey, &views) {
		return views, nil
	}
	if err := r.productViewQuery(ctx).
		Where("products.quick_win = ?", true).
		Order("pricing.variant_price DESC, products.content_quality_score ASC").
		Limit(limit).
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list quick wins: %w", err)
	}
	r.cacheSet(ctx, cacheKey, views, ProductListCacheTTL)
	return views, nil
}

// ProductsByTier returns every product in a price tier, priciest first.
func (r *CatalogRepository) ProductsByTier(ctx context.Context, tier models.PriceTier, limit int) ([]models.ProductView, error) {
	var views []models.ProductView
	if err := r.productViewQuery(ctx).
		Where("pricing.price_tier = ?", tier).
		Order("pricing.variant_price DESC").
		Limit(limit).
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list products by tier: %w", err)
	}
	return views, nil
}

// ProductsNeedingReview returns records flagged for pricing review, worst
// margin first.
func (r *CatalogRepository) ProductsNeedingReview(ctx context.Context) ([]models.ProductView, error) {
	var views []models.ProductView
	if err := r.productViewQuery(ctx).
		Where("pricing.needs_pricing_review = ?", true).
		Order("pricing.profit_margin ASC NULLS LAST").
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list products needing review: %w", err)
	}
	return views, nil
}

// ProductsByVendor returns every product of one vendor with its latest
// pricing.
func (r *CatalogRepository) ProductsByVendor(ctx context.Context, vendor string, limit int) ([]models.ProductView, error) {
	var views []models.ProductView
	if err := r.productViewQuery(ctx).
		Where("vendors.name = ?", vendor).
		Order("products.title").
		Limit(limit).
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to list products for vendor %s: %w", vendor, err)
	}
	return views, nil
}

// CategorySummary aggregates count and price/margin stats per category.
func (r *CatalogRepository) CategorySummary(ctx context.Context) ([]models.CategorySummary, error) {
	cacheKey := cachePrefix + "categories:summary"
	var summaries []models.CategorySummary
	if r.cacheGet(ctx, cacheKey, &summaries) {
		return summaries, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.name AS category_name, COUNT(products.id) AS product_count, "+
			"AVG(pricing.variant_price) AS avg_price, MIN(pricing.variant_price) AS min_price, "+
			"MAX(pricing.variant_price) AS max_price, AVG(pricing.profit_margin) AS avg_margin").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Joins("LEFT JOIN pricing ON pricing.product_id = products.id AND pricing.run_id = (?)", r.latestRunQuery()).
		Group("categories.name").
		Order("product_count DESC").
		Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize categories: %w", err)
	}
	r.cacheSet(ctx, cacheKey, summaries, ProductListCacheTTL)
	return summaries, nil
}

// VendorPerformance aggregates counts, prices and margins per vendor.
func (r *CatalogRepository) VendorPerformance(ctx context.Context) ([]models.VendorPerformance, error) {
	cacheKey := cachePrefix + "vendors:performance"
	var perf []models.VendorPerformance
	if r.cacheGet(ctx, cacheKey, &perf) {
		return perf, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Vendor{}).
		Select("vendors.name AS vendor_name, COUNT(products.id) AS total_products, "+
			"COUNT(CASE WHEN products.high_value_product THEN 1 END) AS high_value_count, "+
			"AVG(pricing.variant_price) AS avg_price, AVG(pricing.profit_margin) AS avg_margin, "+
			"MIN(pricing.variant_price) AS min_price, MAX(pricing.variant_price) AS max_price").
		Joins("JOIN products ON products.vendor_id = vendors.id").
		Joins("LEFT JOIN pricing ON pricing.product_id = products.id AND pricing.run_id = (?)", r.latestRunQuery()).
		Group("vendors.name").
		Order("total_products DESC").
		Scan(&perf).Error; err != nil {
		return nil, fmt.Errorf("failed to compute vendor performance: %w", err)
	}
	r.cacheSet(ctx, cacheKey, perf, ProductListCacheTTL)
	return perf, nil
}

// LatestReport returns the most recent validation report, rebuilt from the
// store when the cache is cold.
func (r *CatalogRepository) LatestReport(ctx context.Context) (*models.RunReport, error) {
	cacheKey := cachePrefix + "validation:latest"
	var cached models.RunReport
	if r.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var run models.ValidationRun
	if err := r.db.WithContext(ctx).
		Preload("Results").
		Order("created_at DESC").
		First(&run).Error; err != nil {
		return nil, err
	}

	report := &models.RunReport{
		RunID:        run.ID,
		TotalRecords: run.TotalRecords,
		QualityScore: run.QualityScore,
		Status:       run.Status,
		StartedAt:    run.CreatedAt,
		DurationMs:   run.DurationMs,
	}
	for _, row := range run.Results {
		rule := models.RuleResult{
			Name:           row.Rule,
			Severity:       row.Severity,
			Violations:     row.Violations,
			Passed:         row.Passed,
			TableWide:      row.TableWide,
			Recommendation: row.Recommendation,
		}
		if row.FailedHandles != nil {
			for _, h := range *row.FailedHandles {
				if s, ok := h.(string); ok {
					rule.FailedHandles = append(rule.FailedHandles, s)
				}
			}
		}
		report.Rules = append(report.Rules, rule)
	}

	var failingHandles []string
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("validation_status = ?", models.ValidationFail).
		Pluck("handle", &failingHandles).Error; err != nil {
		return nil, fmt.Errorf("failed to collect failing handles: %w", err)
	}
	report.FailingRecordIDs = failingHandles

	r.cacheSet(ctx, cacheKey, report, ReportCacheTTL)
	return report, nil
}
