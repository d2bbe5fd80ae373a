package footprint

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cialabs/carbonrisk/internal/auth"
	"github.com/cialabs/carbonrisk/internal/logging"
	"github.com/cialabs/carbonrisk/internal/validation"
)

// Handler provides HTTP handlers for the footprints API. All routes assume
// auth.RequireAuth ran first.
type Handler struct {
	service        *Service
	maxUploadBytes int64
}

// NewHandler creates a new footprint handler.
func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes sets up the footprint routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.CreateFootprint)
	r.GET("", h.ListFootprints)
	r.GET("/summary", h.GetSummary)
	r.POST("/import", h.ImportCSV)
	r.DELETE("/:id", h.DeleteFootprint)
}

// CreateFootprintRequest is the payload for logging one activity.
type CreateFootprintRequest struct {
	Category    string            `json:"category" binding:"required"`
	Amount      float64           `json:"amount" binding:"required"`
	Unit        string            `json:"unit" binding:"required"`
	Date        string            `json:"date" binding:"required"`
	Description string            `json:"description"`
	Meta        map[string]string `json:"meta"`
}

// CreateFootprint handles POST /api/footprints
func (h *Handler) CreateFootprint(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	var req CreateFootprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "category, amount, unit and date are required",
		})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "amount must be a positive number",
		})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "date must be in YYYY-MM-DD format",
		})
		return
	}

	fp, err := h.service.Create(ctx, auth.AuthenticatedUserID(c), CreateInput{
		Category:    validation.SanitizeString(req.Category, 100),
		Amount:      req.Amount,
		Unit:        validation.SanitizeString(req.Unit, 32),
		Date:        date,
		Description: validation.SanitizeString(req.Description, 500),
		Meta:        req.Meta,
	})
	if err != nil {
		logger.Error("failed to create footprint", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create footprint",
		})
		return
	}

	logger.Info("footprint created",
		"footprint_id", fp.ID,
		"category", fp.Category,
		"co2_kg", fp.CO2Kg,
	)
	c.JSON(http.StatusCreated, fp)
}

// ListFootprints handles GET /api/footprints
func (h *Handler) ListFootprints(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	filter := ListFilter{
		Category: validation.SanitizeString(c.Query("category"), 100),
		Limit:    50,
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "limit must be between 1 and 200",
			})
			return
		}
		filter.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "offset must be a non-negative integer",
			})
			return
		}
		filter.Offset = n
	}

	footprints, total, err := h.service.List(ctx, auth.AuthenticatedUserID(c), filter)
	if err != nil {
		logger.Error("failed to list footprints", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list footprints",
		})
		return
	}
	if footprints == nil {
		footprints = []*Footprint{}
	}

	c.JSON(http.StatusOK, gin.H{
		"footprints": footprints,
		"pagination": gin.H{
			"limit":       filter.Limit,
			"offset":      filter.Offset,
			"count":       len(footprints),
			"total_count": total,
		},
	})
}

// GetSummary handles GET /api/footprints/summary
func (h *Handler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	result, err := h.service.Summary(ctx, auth.AuthenticatedUserID(c), c.Query("period"))
	if err != nil {
		logger.Error("failed to summarize footprints", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to summarize footprints",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ImportCSV handles POST /api/footprints/import
//
// Accepts a multipart upload under the "file" field. Rows import
// independently: the response reports both the imported count and the
// per-row errors.
func (h *Handler) ImportCSV(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "CSV file is required under the \"file\" field",
		})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "file_too_large",
			"message": fmt.Sprintf("File exceeds the %d byte upload limit", h.maxUploadBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("failed to open upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to read uploaded file",
		})
		return
	}
	defer func() { _ = file.Close() }()

	rows, err := ParseCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "invalid_csv",
			"details":        err.Error(),
			"expectedFormat": ExpectedFormat,
		})
		return
	}

	result, err := h.service.Import(ctx, auth.AuthenticatedUserID(c), rows)
	if err != nil {
		logger.Error("csv import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to import footprints",
		})
		return
	}

	logger.Info("csv imported",
		"imported", result.Imported,
		"rejected", len(result.Errors),
		"total_rows", result.TotalRows,
	)
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("Imported %d of %d rows", result.Imported, result.TotalRows),
		"imported":   result.Imported,
		"errors":     result.Errors,
		"total_rows": result.TotalRows,
	})
}

// DeleteFootprint handles DELETE /api/footprints/:id
func (h *Handler) DeleteFootprint(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	id := strings.TrimSpace(c.Param("id"))
	if !validation.IsValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid footprint ID",
		})
		return
	}

	err := h.service.Delete(ctx, auth.AuthenticatedUserID(c), id)
	switch {
	case errors.Is(err, ErrFootprintNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Footprint not found",
		})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Footprint belongs to another user",
		})
	case err != nil:
		logger.Error("failed to delete footprint", "error", err, "footprint_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to delete footprint",
		})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Footprint deleted"})
	}
}
