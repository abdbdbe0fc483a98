package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/asset-inventory-backend/middleware"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
	"github.com/yashrajoria/asset-inventory-backend/services"
	"go.uber.org/zap"
)

// DefaultImportTimeout bounds a synchronous import. Documents committed
// before it fires stay committed.
const DefaultImportTimeout = 2 * time.Minute

// AssetImportController exposes the import pipeline over HTTP
type AssetImportController struct {
	importer  services.AssetImportService
	jobs      services.ImportJobService
	validator *RequestValidator
	logger    *zap.Logger
	timeout   time.Duration
}

func NewAssetImportController(
	importer services.AssetImportService,
	jobs services.ImportJobService,
	validator *RequestValidator,
	logger *zap.Logger,
) *AssetImportController {
	return &AssetImportController{
		importer:  importer,
		jobs:      jobs,
		validator: validator,
		logger:    logger,
		timeout:   DefaultImportTimeout,
	}
}

// ImportAssets handles POST /campus/:campusId/assets/import
func (ac *AssetImportController) ImportAssets(c *gin.Context) {
	campusID := c.Param("campusId")

	query, err := ac.validator.ParseImportQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := ac.validator.ImportFile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fh, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer fh.Close()

	data, err := io.ReadAll(fh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	uploader, _ := middleware.GetUserID(c)
	ac.logger.Info("Asset import requested",
		zap.String("campus_id", campusID),
		zap.String("uploaded_by", uploader),
		zap.String("filename", file.Filename),
		zap.Int("bytes", len(data)),
		zap.Bool("async", query.Async),
	)

	ctx, cancel := context.WithTimeout(c.Request.Context(), ac.timeout)
	defer cancel()

	if query.Async {
		ac.enqueue(ctx, c, campusID, data, query.Strict)
		return
	}

	summary, err := ac.importer.Import(ctx, services.ImportRequest{
		CampusID: campusID,
		Data:     data,
		Strict:   query.Strict,
	})
	if err != nil {
		ac.logger.Error("Asset import failed", zap.String("campus_id", campusID), zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, summary.Response())
}

func (ac *AssetImportController) enqueue(ctx context.Context, c *gin.Context, campusID string, data []byte, strict bool) {
	if ac.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async import is not available"})
		return
	}

	job, err := ac.jobs.Enqueue(ctx, campusID, data, strict)
	if err != nil {
		ac.logger.Error("Failed to enqueue asset import", zap.String("campus_id", campusID), zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":   job.ID,
		"message": "Importação enfileirada para processamento",
	})
}

// GetImportJob handles GET /imports/jobs/:id
func (ac *AssetImportController) GetImportJob(c *gin.Context) {
	if ac.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async import is not available"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	job, err := ac.jobs.Status(ctx, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListImports handles GET /campus/:campusId/imports
func (ac *AssetImportController) ListImports(c *gin.Context) {
	query, err := ac.validator.ParseHistoryQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	entries, err := ac.importer.ListHistory(ctx, c.Param("campusId"), query.Limit)
	if err != nil {
		ac.logger.Error("Failed to list imports", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imports": entries})
}
