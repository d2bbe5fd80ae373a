package risk

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cialabs/carbonrisk/internal/auth"
	"github.com/cialabs/carbonrisk/internal/footprint"
	"github.com/cialabs/carbonrisk/internal/logging"
	"github.com/cialabs/carbonrisk/internal/region"
	"github.com/cialabs/carbonrisk/internal/validation"
)

// Handler provides HTTP handlers for the risk API. All routes assume
// auth.RequireAuth ran first.
type Handler struct {
	service *Service
}

// NewHandler creates a new risk handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the risk routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/evaluate", h.Evaluate)
	r.GET("/signals/footprint/:id", h.SignalsByFootprint)
	r.GET("/signals/region/:id", h.SignalsByRegion)
}

// EvaluateRequest names the footprints to pool and the regions to score.
type EvaluateRequest struct {
	FootprintIDs []string `json:"footprint_ids" binding:"required"`
	RegionIDs    []string `json:"region_ids" binding:"required"`
}

// Evaluate handles POST /api/risk/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "footprint_ids and region_ids are required",
		})
		return
	}

	footprintIDs := validation.SanitizeIDs(req.FootprintIDs)
	regionIDs := validation.SanitizeIDs(req.RegionIDs)
	if len(footprintIDs) == 0 || len(regionIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "footprint_ids and region_ids must be non-empty",
		})
		return
	}

	result, err := h.service.Evaluate(ctx, auth.AuthenticatedUserID(c), footprintIDs, regionIDs)
	switch {
	case errors.Is(err, ErrForeignFootprint):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Access denied to some footprints",
		})
	case errors.Is(err, ErrNoValidFootprints):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No valid footprints found",
		})
	case errors.Is(err, ErrNoValidRegions):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No valid regions found",
		})
	case err != nil:
		logger.Error("risk evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to evaluate risk",
		})
	default:
		logger.Info("risk evaluated",
			"signals", len(result.RiskSignals),
			"regions", len(result.Summary),
			"total_people_at_risk", result.TotalPeopleAtRisk,
		)
		c.JSON(http.StatusOK, result)
	}
}

// SignalsByFootprint handles GET /api/risk/signals/footprint/:id
func (h *Handler) SignalsByFootprint(c *gin.Context) {
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

	signals, err := h.service.SignalsByFootprint(ctx, auth.AuthenticatedUserID(c), id)
	switch {
	case errors.Is(err, footprint.ErrFootprintNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Footprint not found",
		})
	case errors.Is(err, footprint.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Footprint belongs to another user",
		})
	case err != nil:
		logger.Error("failed to list signals by footprint", "error", err, "footprint_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list risk signals",
		})
	default:
		if signals == nil {
			signals = []*Signal{}
		}
		c.JSON(http.StatusOK, gin.H{"risk_signals": signals})
	}
}

// SignalsByRegion handles GET /api/risk/signals/region/:id
func (h *Handler) SignalsByRegion(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	id := strings.TrimSpace(c.Param("id"))
	if !validation.IsValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid region ID",
		})
		return
	}

	signals, err := h.service.SignalsByRegion(ctx, id)
	switch {
	case errors.Is(err, region.ErrRegionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Region not found",
		})
	case err != nil:
		logger.Error("failed to list signals by region", "error", err, "region_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list risk signals",
		})
	default:
		if signals == nil {
			signals = []*Signal{}
		}
		c.JSON(http.StatusOK, gin.H{"risk_signals": signals})
	}
}
