package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"makelaardij/server/internal/auth"
	"makelaardij/server/internal/database"
	"makelaardij/server/internal/models"
	"makelaardij/server/internal/search"
	"makelaardij/server/internal/store"
)

type SavePropertyRequest struct {
	PropertyID string `json:"property_id"`
	Notes      string `json:"notes"`
}

type SaveSearchRequest struct {
	Name           string                 `json:"name"`
	SearchCriteria *models.SearchCriteria `json:"search_criteria"`
	AlertFrequency string                 `json:"alert_frequency"`
}

// savedPropertyResponse is a saved property with the listing it points to. The
// listing is omitted once it has been removed from the store.
type savedPropertyResponse struct {
	models.SavedProperty
	Property *models.Property `json:"property,omitempty"`
}

func (h *Handler) GetSavedProperties(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	ctx := c.Request.Context()

	saved, err := h.savedProperties.List(ctx, claims.UserID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to get saved properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch saved properties"})
		return
	}

	resp := make([]savedPropertyResponse, 0, len(saved))
	for _, s := range saved {
		item := savedPropertyResponse{SavedProperty: s}
		p, err := h.properties.Get(ctx, s.PropertyID)
		switch {
		case err == nil:
			item.Property = p
		case !errors.Is(err, store.ErrNotFound):
			h.logger.WithError(err).WithField("property_id", s.PropertyID).Warn("Failed to load saved property")
		}
		resp = append(resp, item)
	}

	c.JSON(http.StatusOK, gin.H{"saved_properties": resp})
}

func (h *Handler) SaveProperty(c *gin.Context) {
	var req SavePropertyRequest
	_ = c.ShouldBindJSON(&req)
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	if req.PropertyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Property ID is required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.properties.Get(ctx, req.PropertyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save property"})
		return
	}

	claims := auth.MustGetClaims(c)
	saved := &models.SavedProperty{
		UserID:     claims.UserID,
		PropertyID: req.PropertyID,
		Notes:      req.Notes,
	}
	if err := h.savedProperties.Create(ctx, saved); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Property already saved"})
			return
		}
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to save property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save property"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Property saved successfully",
		"saved_property": saved,
	})
}

func (h *Handler) RemoveSavedProperty(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	removed, err := h.savedProperties.Delete(c.Request.Context(), claims.UserID, c.Param("property_id"))
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to remove saved property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove saved property"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved property not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property removed from saved properties"})
}

func (h *Handler) GetSavedSearches(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	searches, err := h.savedSearches.List(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to get saved searches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch saved searches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved_searches": searches})
}

func (h *Handler) CreateSavedSearch(c *gin.Context) {
	var req SaveSearchRequest
	_ = c.ShouldBindJSON(&req)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.SearchCriteria == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and search criteria are required"})
		return
	}
	if req.AlertFrequency != "" && !models.ValidAlertFrequency(req.AlertFrequency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert frequency"})
		return
	}

	claims := auth.MustGetClaims(c)
	saved := &models.SavedSearch{
		UserID:         claims.UserID,
		Name:           req.Name,
		SearchCriteria: *req.SearchCriteria,
		AlertFrequency: req.AlertFrequency,
	}
	if err := h.savedSearches.Create(c.Request.Context(), saved); err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to save search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save search"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Search saved successfully",
		"saved_search": saved,
	})
}

func (h *Handler) UpdateSavedSearch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved search not found"})
		return
	}

	var patch models.SavedSearchPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	if patch.AlertFrequency != nil && !models.ValidAlertFrequency(*patch.AlertFrequency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert frequency"})
		return
	}

	claims := auth.MustGetClaims(c)
	ctx := c.Request.Context()
	saved, err := h.savedSearches.Get(ctx, claims.UserID, id)
	if err != nil {
		h.logger.WithError(err).WithField("search_id", id).Error("Failed to get saved search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update saved search"})
		return
	}
	if saved == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved search not found"})
		return
	}

	patch.Apply(saved)
	if err := h.savedSearches.Update(ctx, saved); err != nil {
		h.logger.WithError(err).WithField("search_id", id).Error("Failed to update saved search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update saved search"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Saved search updated successfully",
		"saved_search": saved,
	})
}

func (h *Handler) DeleteSavedSearch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved search not found"})
		return
	}

	claims := auth.MustGetClaims(c)
	removed, err := h.savedSearches.Delete(c.Request.Context(), claims.UserID, id)
	if err != nil {
		h.logger.WithError(err).WithField("search_id", id).Error("Failed to delete saved search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete saved search"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved search not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Saved search deleted successfully"})
}

// GetSavedSearchResults runs a saved search against the current listings
func (h *Handler) GetSavedSearchResults(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved search not found"})
		return
	}

	claims := auth.MustGetClaims(c)
	ctx := c.Request.Context()
	saved, err := h.savedSearches.Get(ctx, claims.UserID, id)
	if err != nil {
		h.logger.WithError(err).WithField("search_id", id).Error("Failed to get saved search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run saved search"})
		return
	}
	if saved == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved search not found"})
		return
	}

	props, err := h.properties.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run saved search"})
		return
	}

	criteria := saved.SearchCriteria
	result := search.Apply(props, search.FromFilters(criteria.Query, criteria.Filters))

	c.JSON(http.StatusOK, gin.H{
		"saved_search": saved,
		"results":      result.Properties,
		"total":        result.Total,
	})
}
