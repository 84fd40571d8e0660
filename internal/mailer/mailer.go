// Package mailer sends transactional email through the Mailtrap sending API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ErrDisabled is returned by senders that do not deliver mail
var ErrDisabled = errors.New("email sending is disabled")

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Message struct {
	To       []Address
	Subject  string
	HTML     string
	Category string
}

// Sender delivers a message or returns why it could not
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type mailtrapPayload struct {
	From     Address   `json:"from"`
	To       []Address `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	Category string    `json:"category,omitempty"`
}

type mailtrapResponse struct {
	Success    bool     `json:"success"`
	MessageIDs []string `json:"message_ids"`
	Errors     []string `json:"errors"`
}

// MailtrapSender posts messages to the Mailtrap API
type MailtrapSender struct {
	client *resty.Client
	from   Address
	logger *logrus.Logger
}

func NewMailtrapSender(baseURL, token string, from Address, logger *logrus.Logger) *MailtrapSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// Retry transport failures and server errors, never client errors
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})

	return &MailtrapSender{client: client, from: from, logger: logger}
}

func (s *MailtrapSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}

	payload := mailtrapPayload{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Category: msg.Category,
	}

	var result mailtrapResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/api/send")
	if err != nil {
		return fmt.Errorf("failed to call Mailtrap API: %w", err)
	}

	if resp.IsError() {
		switch resp.StatusCode() {
		case 401:
			return errors.New("invalid Mailtrap API token")
		default:
			return fmt.Errorf("Mailtrap API error (status %d): %s", resp.StatusCode(), resp.String())
		}
	}

	s.logger.WithFields(logrus.Fields{
		"subject":     msg.Subject,
		"category":    msg.Category,
		"recipients":  len(msg.To),
		"message_ids": result.MessageIDs,
	}).Info("Email sent via Mailtrap")

	return nil
}

// LogSender logs messages instead of delivering them and returns ErrDisabled
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	to := make([]string, len(msg.To))
	for i, a := range msg.To {
		to[i] = a.Email
	}
	s.logger.WithFields(logrus.Fields{
		"to":       to,
		"subject":  msg.Subject,
		"category": msg.Category,
	}).Info("Email sending disabled, message not delivered")
	return ErrDisabled
}
