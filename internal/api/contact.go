package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"makelaardij/server/internal/export"
	"makelaardij/server/internal/mailer"
	"makelaardij/server/internal/models"
)

const recentContactsLimit = 50

// SubmitContact stores a contact form submission and notifies the office by email.
// A failed notification does not fail the submission.
func (h *Handler) SubmitContact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if field := req.MissingField(); field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Field %s is required", field)})
		return
	}

	contact := req.ToContact()
	if err := h.contacts.Create(c.Request.Context(), &contact); err != nil {
		h.logger.WithError(err).Error("Failed to save contact")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save contact"})
		return
	}

	emailSent := h.notifyContact(c, contact)

	h.logger.WithFields(logrus.Fields{
		"contact_id": contact.ID,
		"email_sent": emailSent,
	}).Info("Contact form submitted")

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Contact form submitted successfully",
		"contact_id": contact.ID,
		"email_sent": emailSent,
	})
}

func (h *Handler) notifyContact(c *gin.Context, contact models.Contact) bool {
	to := mailer.Address{Email: h.config.Mail.ToEmail, Name: h.config.Mail.ToName}
	msg, err := mailer.ContactNotification(contact, to, h.now())
	if err != nil {
		h.logger.WithError(err).Error("Failed to build contact notification")
		return false
	}
	return h.send(c, msg)
}

// send delivers msg and reports whether it went out. A disabled mailer is not an error.
func (h *Handler) send(c *gin.Context, msg mailer.Message) bool {
	err := h.sender.Send(c.Request.Context(), msg)
	if err == nil {
		return true
	}
	if !errors.Is(err, mailer.ErrDisabled) {
		h.logger.WithError(err).WithField("category", msg.Category).Warn("Failed to send email")
	}
	return false
}

func (h *Handler) GetContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context(), recentContactsLimit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get contacts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contacts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts": contacts,
		"total":    len(contacts),
	})
}

// ExportContacts returns every contact submission as an Excel workbook
func (h *Handler) ExportContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context(), 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get contacts for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export contacts"})
		return
	}

	data, err := export.Contacts(contacts)
	if err != nil {
		h.logger.WithError(err).Error("Failed to export contacts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export contacts"})
		return
	}

	filename := fmt.Sprintf("contactaanvragen-%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// TestEmail sends a sample contact notification to the office address
func (h *Handler) TestEmail(c *gin.Context) {
	sample := models.Contact{
		Name:             "Test Gebruiker",
		Email:            "test@example.com",
		Phone:            "06-12345678",
		InquiryType:      "Test",
		PreferredContact: "email",
		Message:          "Dit is een testbericht om de e-mailconfiguratie te controleren.",
		CreatedAt:        h.now(),
	}

	sent := h.notifyContact(c, sample)
	message := "Test email sent successfully"
	if !sent {
		message = "Failed to send test email"
	}

	c.JSON(http.StatusOK, gin.H{
		"test_email_sent": sent,
		"message":         message,
	})
}
