package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-pipeline/internal/ingest"
	"catalog-pipeline/internal/models"
	"catalog-pipeline/internal/pipeline"
	"catalog-pipeline/internal/repository"
)

const maxFeedFileSize = 10 << 20 // 10MB

// FeedHandler handles product feed imports and import templates.
type FeedHandler struct {
	repo            *repository.CatalogRepository
	pipeline        *pipeline.Pipeline
	minQualityScore float64
	logger          *logrus.Logger
}

func NewFeedHandler(repo *repository.CatalogRepository, p *pipeline.Pipeline, minQualityScore float64, logger *logrus.Logger) *FeedHandler {
	return &FeedHandler{
		repo:            repo,
		pipeline:        p,
		minQualityScore: minQualityScore,
		logger:          logger,
	}
}

// ImportFeed godoc
// POST /api/v1/catalog/import
// Accepts a CSV or XLSX product feed, runs the enrichment pipeline and
// returns the validation report. With validateOnly=true nothing is
// persisted.
func (h *FeedHandler) ImportFeed(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FILE",
				Message: "No file provided. Use multipart form field 'file'",
			},
		})
		return
	}
	defer file.Close()

	if header.Size > maxFeedFileSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: "File size exceeds 10MB limit",
			},
		})
		return
	}

	validateOnly := strings.EqualFold(c.Query("validateOnly"), "true")

	minScore := h.minQualityScore
	if raw := c.Query("minQualityScore"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_THRESHOLD",
					Message: "minQualityScore must be a number between 0 and 100",
					Field:   "minQualityScore",
				},
			})
			return
		}
		minScore = parsed
	}

	var table *models.Table
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".csv":
		table, err = ingest.ParseCSV(file)
	case ".xlsx":
		table, err = ingest.ParseXLSX(file)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNSUPPORTED_FORMAT",
				Message: fmt.Sprintf("Unsupported file format %q. Use .csv or .xlsx", ext),
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("Failed to parse file: %v", err),
			},
		})
		return
	}

	started := time.Now()
	report, err := h.pipeline.Run(table)
	if err != nil {
		var missing *pipeline.MissingColumnError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "MISSING_COLUMN",
					Message: missing.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).Error("Feed import pipeline failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PIPELINE_ERROR",
				Message: "Failed to process feed",
			},
		})
		return
	}

	if !validateOnly && report.QualityScore < minScore {
		// below the quality gate nothing is persisted; the caller still
		// gets the full report to act on
		c.JSON(http.StatusUnprocessableEntity, models.ImportResult{
			Success:      false,
			ValidateOnly: false,
			TotalRows:    report.TotalRecords,
			FailedRows:   report.FailedRecords(),
			Report:       report,
			ProcessingMs: time.Since(started).Milliseconds(),
		})
		return
	}

	if !validateOnly {
		if err := h.repo.SaveRun(c.Request.Context(), table, report); err != nil {
			h.logger.WithError(err).Error("Failed to persist feed import")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PERSIST_ERROR",
					Message: "Feed was validated but could not be saved",
				},
			})
			return
		}
	}

	h.logger.WithFields(logrus.Fields{
		"filename":      header.Filename,
		"total_rows":    report.TotalRecords,
		"failed_rows":   report.FailedRecords(),
		"quality_score": report.QualityScore,
		"status":        report.Status,
		"validate_only": validateOnly,
	}).Info("Feed import completed")

	c.JSON(http.StatusOK, models.ImportResult{
		Success:      true,
		ValidateOnly: validateOnly,
		TotalRows:    report.TotalRecords,
		FailedRows:   report.FailedRecords(),
		Report:       report,
		ProcessingMs: time.Since(started).Milliseconds(),
	})
}

// GetImportTemplate godoc
// GET /api/v1/catalog/import/template?format=csv|xlsx|json
// Returns the expected feed layout, either as a downloadable template
// file or as a JSON column description.
func (h *FeedHandler) GetImportTemplate(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	template := models.FeedImportTemplate()

	switch format {
	case "json":
		c.JSON(http.StatusOK, models.SuccessResponse{
			Success: true,
			Data:    template,
		})
	case "csv":
		var buf bytes.Buffer
		if err := ingest.WriteCSVTemplate(&buf, template); err != nil {
			h.logger.WithError(err).Error("Failed to build CSV template")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "TEMPLATE_ERROR",
					Message: "Failed to generate template",
				},
			})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=product_feed_template.csv")
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "xlsx":
		var buf bytes.Buffer
		if err := ingest.WriteXLSXTemplate(&buf, template); err != nil {
			h.logger.WithError(err).Error("Failed to build XLSX template")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "TEMPLATE_ERROR",
					Message: "Failed to generate template",
				},
			})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=product_feed_template.xlsx")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "format must be one of: json, csv, xlsx",
			},
		})
	}
}
