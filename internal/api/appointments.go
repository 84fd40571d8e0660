package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"makelaardij/server/internal/mailer"
	"makelaardij/server/internal/models"
)

// ScheduleAppointment books a meeting with the office. Nothing is stored: the office
// is notified and the client receives a confirmation.
func (h *Handler) ScheduleAppointment(c *gin.Context) {
	var req models.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Trim()

	if !req.Complete() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if !models.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}
	at, err := req.ParseTime(h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment date or time"})
		return
	}
	now := h.now().In(h.location)
	if !at.After(now) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Appointment date must be in the future"})
		return
	}

	appointment := models.Appointment{AppointmentRequest: req, At: at}
	office := mailer.Address{Email: h.config.Mail.ToEmail, Name: h.config.Mail.ToName}

	notice, err := mailer.AppointmentNotification(appointment, office, now)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build appointment notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule appointment"})
		return
	}
	confirmation, err := mailer.AppointmentConfirmation(appointment, office, now)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build appointment confirmation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule appointment"})
		return
	}

	// Both messages are attempted even when the first one fails
	delivered, failed := 0, 0
	for _, msg := range []mailer.Message{notice, confirmation} {
		err := h.sender.Send(c.Request.Context(), msg)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, mailer.ErrDisabled):
		default:
			failed++
			h.logger.WithError(err).WithField("category", msg.Category).Error("Failed to send appointment email")
		}
	}
	if failed > 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send confirmation emails"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"meeting_type": req.MeetingType,
		"at":           at.Format("2006-01-02 15:04"),
		"emails_sent":  delivered,
	}).Info("Appointment scheduled")

	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment scheduled successfully",
		"emails_sent": delivered == 2,
	})
}
