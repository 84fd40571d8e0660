package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"makelaardij/server/internal/database"
	"makelaardij/server/internal/models"
)

// GetMarketReports lists published reports. Like the listing endpoint, filters that
// do not parse are ignored.
func (h *Handler) GetMarketReports(c *gin.Context) {
	filter := database.MarketReportFilter{
		Location:     strings.TrimSpace(c.Query("location")),
		ReportType:   strings.TrimSpace(c.Query("type")),
		Year:         queryInt(c, "year"),
		Quarter:      strings.TrimSpace(c.Query("quarter")),
		FeaturedOnly: c.Query("featured") == "true",
		LatestOnly:   c.Query("latest") == "true",
		SortBy:       c.DefaultQuery("sort_by", database.ReportsNewest),
	}

	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get market reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch market reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"total":   len(reports),
	})
}

func (h *Handler) GetMarketReport(c *gin.Context) {
	report, ok := h.findReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// findReport loads the report named by the path and writes the error response itself
func (h *Handler) findReport(c *gin.Context) (*models.MarketReport, bool) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.WithError(err).WithField("report_id", c.Param("id")).Error("Failed to get market report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch market report"})
		return nil, false
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Market report not found"})
		return nil, false
	}
	return report, true
}

func (h *Handler) CreateMarketReport(c *gin.Context) {
	var in models.MarketReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if field := in.MissingField(); field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing required field: %s", field)})
		return
	}

	report, err := in.NewReport(h.now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid publishedAt date"})
		return
	}

	if err := h.reports.Create(c.Request.Context(), &report); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Market report already exists"})
			return
		}
		h.logger.WithError(err).Error("Failed to create market report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create market report"})
		return
	}

	h.logger.WithField("report_id", report.ID).Info("Market report created")
	c.JSON(http.StatusCreated, gin.H{
		"message": "Market report created successfully",
		"report":  report,
	})
}

func (h *Handler) UpdateMarketReport(c *gin.Context) {
	var in models.MarketReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if field := in.EmptiedField(); field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Field %s cannot be empty", field)})
		return
	}

	report, ok := h.findReport(c)
	if !ok {
		return
	}
	if err := in.Apply(report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid publishedAt date"})
		return
	}

	if err := h.reports.Update(c.Request.Context(), report); err != nil {
		h.logger.WithError(err).WithField("report_id", report.ID).Error("Failed to update market report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update market report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Market report updated successfully",
		"report":  report,
	})
}

func (h *Handler) DeleteMarketReport(c *gin.Context) {
	deleted, err := h.reports.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.WithError(err).WithField("report_id", c.Param("id")).Error("Failed to delete market report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete market report"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Market report not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Market report deleted successfully"})
}

// TrackReportDownload counts a download of the report's PDF
func (h *Handler) TrackReportDownload(c *gin.Context) {
	report, err := h.reports.IncrementDownloads(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.WithError(err).WithField("report_id", c.Param("id")).Error("Failed to update download count")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update download count"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Market report not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Download count updated",
		"downloadCount": report.DownloadCount,
	})
}
