package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-pipeline/internal/models"
	"catalog-pipeline/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogHandler serves the enriched catalog query endpoints.
type CatalogHandler struct {
	repo   *repository.CatalogRepository
	logger *logrus.Logger
}

func NewCatalogHandler(repo *repository.CatalogRepository, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:   repo,
		logger: logger,
	}
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// ListProducts godoc
// GET /api/v1/catalog/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, limit := parsePagination(c)

	views, pagination, err := h.repo.ListProducts(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		h.internalError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       views,
		Pagination: pagination,
	})
}

// GetProduct godoc
// GET /api/v1/catalog/products/:handle
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	handle := c.Param("handle")

	view, err := h.repo.GetProductByHandle(c.Request.Context(), handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PRODUCT_NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		h.logger.WithError(err).WithField("handle", handle).Error("Failed to get product")
		h.internalError(c, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    view,
	})
}

// HighValueProducts godoc
// GET /api/v1/catalog/products/high-value
func (h *CatalogHandler) HighValueProducts(c *gin.Context) {
	_, limit := parsePagination(c)

	views, err := h.repo.HighValueProducts(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list high-value products")
		h.internalError(c, "Failed to fetch high-value products")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{Success: true, Data: views})
}

// QuickWins godoc
// GET /api/v1/catalog/products/quick-wins
func (h *CatalogHandler) QuickWins(c *gin.Context) {
	_, limit := parsePagination(c)

	views, err := h.repo.QuickWins(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list quick wins")
		h.internalError(c, "Failed to fetch quick wins")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{Success: true, Data: views})
}

// ProductsByTier godoc
// GET /api/v1/catalog/products/tier/:tier
func (h *CatalogHandler) ProductsByTier(c *gin.Context) {
	tier := models.PriceTier(c.Param("tier"))
	switch tier {
	case models.PriceTierBudget, models.PriceTierMidRange, models.PriceTierPremium, models.PriceTierLuxury, models.PriceTierInvalid:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_TIER",
				Message: "tier must be one of: Budget, Mid-Range, Premium, Luxury, Invalid",
				Field:   "tier",
			},
		})
		return
	}

	_, limit := parsePagination(c)
	views, err := h.repo.ProductsByTier(c.Request.Context(), tier, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products by tier")
		h.internalError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{Success: true, Data: views})
}

// ProductsNeedingReview godoc
// GET /api/v1/catalog/products/needing-review
func (h *CatalogHandler) ProductsNeedingReview(c *gin.Context) {
	views, err := h.repo.ProductsNeedingReview(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products needing review")
		h.internalError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{Success: true, Data: views})
}

// ProductsByVendor godoc
// GET /api/v1/catalog/vendors/:vendor/products
func (h *CatalogHandler) ProductsByVendor(c *gin.Context) {
	_, limit := parsePagination(c)

	views, err := h.repo.ProductsByVendor(c.Request.Context(), c.Param("vendor"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products by vendor")
		h.internalError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{Success: true, Data: views})
}

// CategorySummary godoc
// GET /api/v1/catalog/categories/summary
func (h *CatalogHandler) CategorySummary(c *gin.Context) {
	summaries, err := h.repo.CategorySummary(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to summarize categories")
		h.internalError(c, "Failed to fetch category summary")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: summaries})
}

// VendorPerformance godoc
// GET /api/v1/catalog/vendors/performance
func (h *CatalogHandler) VendorPerformance(c *gin.Context) {
	perf, err := h.repo.VendorPerformance(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute vendor performance")
		h.internalError(c, "Failed to fetch vendor performance")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: perf})
}

// LatestReport godoc
// GET /api/v1/catalog/validation/report
func (h *CatalogHandler) LatestReport(c *gin.Context) {
	report, err := h.repo.LatestReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NO_REPORT",
					Message: "No validation run found. Import a feed first",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to load validation report")
		h.internalError(c, "Failed to fetch validation report")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: report})
}

func (h *CatalogHandler) internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "INTERNAL_ERROR",
			Message: message,
		},
	})
}
