package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"makelaardij/server/internal/auth"
	"makelaardij/server/internal/models"
	"makelaardij/server/internal/queue"
	"makelaardij/server/internal/store"
)

type PropertyViewRequest struct {
	PropertyID string `json:"property_id"`
	SessionID  string `json:"session_id"`
	Source     string `json:"source"`
}

// TrackPropertyView records a view of a listing. Views go through the batching queue
// and are written inline when the queue is unavailable or full.
func (h *Handler) TrackPropertyView(c *gin.Context) {
	var req PropertyViewRequest
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track property view"})
		return
	}

	view := &models.PropertyView{
		PropertyID: req.PropertyID,
		SessionID:  strings.TrimSpace(req.SessionID),
		Source:     strings.TrimSpace(req.Source),
		ViewedAt:   h.now(),
	}
	if claims := auth.MustGetClaims(c); claims != nil {
		userID := claims.UserID
		view.UserID = &userID
	}

	if h.viewQueue != nil {
		err := h.viewQueue.Push(view)
		if err == nil {
			c.JSON(http.StatusAccepted, gin.H{"message": "Property view tracked"})
			return
		}
		if !errors.Is(err, queue.ErrQueueFull) && !errors.Is(err, queue.ErrQueueClosed) {
			h.logger.WithError(err).Error("Failed to queue property view")
		} else {
			h.logger.WithError(err).WithField("property_id", view.PropertyID).Warn("View queue unavailable, writing directly")
		}
	}

	if err := h.views.InsertViews(ctx, []*models.PropertyView{view}); err != nil {
		h.logger.WithError(err).WithField("property_id", view.PropertyID).Error("Failed to track property view")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to track property view"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Property view tracked"})
}

// GetPropertyViewStats reports view counts for every listing, most viewed first.
// Listings nobody viewed are included with zero counts.
func (h *Handler) GetPropertyViewStats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.views.Counts(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property view counts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch property view statistics"})
		return
	}

	props, err := h.properties.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch property view statistics"})
		return
	}

	byProperty := make(map[string]models.PropertyViewCounts, len(counts))
	for _, vc := range counts {
		byProperty[vc.PropertyID] = vc
	}

	stats := make([]models.PropertyViewStats, 0, len(props))
	for _, p := range props {
		vc := byProperty[p.ID]
		stats = append(stats, models.PropertyViewStats{
			ID:                 p.ID,
			Title:              p.Title,
			ViewCount:          vc.ViewCount,
			UniqueUserViews:    vc.UniqueUserViews,
			UniqueSessionViews: vc.UniqueSessionViews,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].ViewCount > stats[j].ViewCount
	})

	c.JSON(http.StatusOK, gin.H{"property_view_stats": stats})
}
