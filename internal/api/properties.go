package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"makelaardij/server/internal/models"
	"makelaardij/server/internal/search"
	"makelaardij/server/internal/store"
)

// GetProperties lists properties filtered by flat query parameters. Parameters that
// fail to parse are ignored rather than rejected.
func (h *Handler) GetProperties(c *gin.Context) {
	criteria := search.Criteria{
		LocationContains: strings.TrimSpace(c.Query("location")),
		MinPrice:         queryInt64(c, "min_price"),
		MaxPrice:         queryInt64(c, "max_price"),
		MinBedrooms:      queryInt(c, "bedrooms"),
		Status:           strings.TrimSpace(c.Query("status")),
		SortBy:           search.SortOrder(c.DefaultQuery("sort_by", string(search.SortNewest))),
	}

	props, err := h.properties.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch properties"})
		return
	}

	result := search.Apply(props, criteria)

	c.JSON(http.StatusOK, gin.H{
		"properties": result.Properties,
		"total":      result.Total,
		"filters_applied": gin.H{
			"location":  criteria.LocationContains,
			"min_price": criteria.MinPrice,
			"max_price": criteria.MaxPrice,
			"bedrooms":  criteria.MinBedrooms,
			"status":    criteria.Status,
			"sort_by":   criteria.SortBy,
		},
	})
}

func (h *Handler) GetProperty(c *gin.Context) {
	p, err := h.properties.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("property_id", c.Param("id")).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch property"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// SearchProperties runs a free-text query combined with the full filter set
func (h *Handler) SearchProperties(c *gin.Context) {
	var req models.SearchCriteria
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	req.Query = strings.ToLower(strings.TrimSpace(req.Query))

	props, err := h.properties.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to search properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
		return
	}

	result := search.Apply(props, search.FromFilters(req.Query, req.Filters))

	c.JSON(http.StatusOK, gin.H{
		"results": result.Properties,
		"total":   result.Total,
		"query":   req.Query,
		"filters": req.Filters,
	})
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var p models.Property
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.properties.Create(c.Request.Context(), p)
	if err != nil {
		h.writeStoreError(c, err, "Failed to create property")
		return
	}

	h.logger.WithField("property_id", created.ID).Info("Property created")
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Property created successfully",
		"property": created,
	})
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	var patch models.PropertyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	updated, err := h.properties.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeStoreError(c, err, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Property updated successfully",
		"property": updated,
	})
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id := c.Param("id")
	if err := h.properties.Delete(c.Request.Context(), id); err != nil {
		h.writeStoreError(c, err, "Failed to delete property")
		return
	}

	h.logger.WithField("property_id", id).Info("Property deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}

// UpdateCoordinates geocodes every property that has no coordinates yet
func (h *Handler) UpdateCoordinates(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is disabled"})
		return
	}

	result, err := h.geocoder.UpdateMissingCoordinates(c.Request.Context(), h.properties)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update coordinates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coordinates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "Coordinates updated",
		"result": result,
	})
}

// writeStoreError maps property store errors onto responses
func (h *Handler) writeStoreError(c *gin.Context, err error, msg string) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Property with this ID already exists"})
	default:
		h.logger.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
