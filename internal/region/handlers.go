package region

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/cialabs/carbonrisk/internal/logging"
	"github.com/cialabs/carbonrisk/internal/validation"
)

// Handler provides HTTP handlers for the regions API
type Handler struct {
	store Store
}

// NewHandler creates a new region handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up the region routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.ListRegions)
	r.GET("/:id", h.GetRegion)
}

// ListRegions handles GET /api/regions
//
// Query parameters: search (matches name or ISO code), min_vulnerability,
// max_vulnerability, limit, offset. Results are ordered by vulnerability
// descending so the most at-risk countries lead the list.
func (h *Handler) ListRegions(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.L(ctx)

	filter := ListFilter{
		Search: validation.SanitizeString(c.Query("search"), 100),
		Limit:  50,
	}

	if v := c.Query("min_vulnerability"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "min_vulnerability must be a number between 0 and 1",
			})
			return
		}
		filter.MinVulnerability = &f
	}
	if v := c.Query("max_vulnerability"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "max_vulnerability must be a number between 0 and 1",
			})
			return
		}
		filter.MaxVulnerability = &f
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "limit must be between 1 and 100",
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

	regions, total, err := h.store.List(ctx, filter)
	if err != nil {
		logger.Error("failed to list regions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list regions",
		})
		return
	}

	if regions == nil {
		regions = []*Region{}
	}

	c.JSON(http.StatusOK, gin.H{
		"regions": regions,
		"pagination": gin.H{
			"limit":       filter.Limit,
			"offset":      filter.Offset,
			"total_count": total,
		},
	})
}

// GetRegion handles GET /api/regions/:id
func (h *Handler) GetRegion(c *gin.Context) {
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

	r, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRegionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Region not found",
			})
			return
		}
		logger.Error("failed to get region", "error", err, "region_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to get region",
		})
		return
	}

	c.JSON(http.StatusOK, r)
}
