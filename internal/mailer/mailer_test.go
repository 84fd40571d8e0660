package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makelaardij/server/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestMailtrapSender_Payload(t *testing.T) {
	var received map[string]any
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message_ids":["abc"]}`))
	}))
	defer server.Close()

	sender := NewMailtrapSender(server.URL, "token-123", Address{Email: "noreply@example.nl", Name: "Website"}, testLogger())
	err := sender.Send(context.Background(), Message{
		To:       []Address{{Email: "office@example.nl", Name: "Kantoor"}},
		Subject:  "Hallo",
		HTML:     "<p>Hallo</p>",
		Category: CategoryContact,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-123", authHeader)
	assert.Equal(t, map[string]any{"email": "noreply@example.nl", "name": "Website"}, received["from"])
	assert.Equal(t, []any{map[string]any{"email": "office@example.nl", "name": "Kantoor"}}, received["to"])
	assert.Equal(t, "Hallo", received["subject"])
	assert.Equal(t, "<p>Hallo</p>", received["html"])
	assert.Equal(t, CategoryContact, received["category"])
}

func TestMailtrapSender_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"errors":["bad"]}`))
	}))
	defer server.Close()

	sender := NewMailtrapSender(server.URL, "token", Address{Email: "a@example.nl"}, testLogger())
	err := sender.Send(context.Background(), Message{To: []Address{{Email: "b@example.nl"}}, Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMailtrapSender_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewMailtrapSender(server.URL, "bad", Address{Email: "a@example.nl"}, testLogger())
	err := sender.Send(context.Background(), Message{To: []Address{{Email: "b@example.nl"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Mailtrap API token")
}

func TestMailtrapSender_NoRecipients(t *testing.T) {
	sender := NewMailtrapSender("http://127.0.0.1:1", "token", Address{Email: "a@example.nl"}, testLogger())
	assert.Error(t, sender.Send(context.Background(), Message{Subject: "x"}))
}

func TestLogSender(t *testing.T) {
	err := NewLogSender(testLogger()).Send(context.Background(), Message{To: []Address{{Email: "a@example.nl"}}})
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestContactNotification(t *testing.T) {
	c := models.Contact{
		Name:             "Jan <Jansen>",
		Email:            "jan@example.nl",
		Message:          "Ik wil graag een bezichtiging.",
		InquiryType:      "Bezichtiging",
		PreferredContact: "phone",
	}
	msg, err := ContactNotification(c, Address{Email: "office@example.nl"}, time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "🏠 Nieuwe contactaanvraag van Jan <Jansen> - Bezichtiging", msg.Subject)
	assert.Equal(t, CategoryContact, msg.Category)
	assert.Contains(t, msg.HTML, "Jan &lt;Jansen&gt;")
	assert.Contains(t, msg.HTML, "Niet opgegeven")
	assert.Contains(t, msg.HTML, "Ik wil graag een bezichtiging.")
	assert.Contains(t, msg.HTML, "01-05-2024 om 14:30")

	c.InquiryType = ""
	msg, err = ContactNotification(c, Address{Email: "office@example.nl"}, time.Now())
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "- Algemeen")
}

func TestAccountEmails(t *testing.T) {
	u := models.User{Username: "jan", Email: "jan@example.nl"}

	verify, err := VerificationEmail(u, "https://example.nl/", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "jan@example.nl", verify.To[0].Email)
	assert.Contains(t, verify.HTML, "https://example.nl/verify-email?token=abc123")

	u.FirstName = "Jan"
	reset, err := PasswordResetEmail(u, "https://example.nl", "abc")
	require.NoError(t, err)
	assert.Equal(t, "Jan", reset.To[0].Name)
	assert.Contains(t, reset.HTML, "reset-password?token=abc")
	assert.Contains(t, reset.HTML, "24 uur")
}

func TestSearchAlert(t *testing.T) {
	u := models.User{Username: "jan", Email: "jan@example.nl"}
	s := models.SavedSearch{Name: "Centrum"}
	props := []models.Property{
		{ID: "westeinde-11-d", Title: "Westeinde 11-D", Location: "Den Haag, Centrum", Price: "€525.000 k.k.", Bedrooms: 2},
	}

	msg, err := SearchAlert(u, s, props, "https://example.nl")
	require.NoError(t, err)
	assert.Equal(t, "1 nieuwe woning voor \"Centrum\"", msg.Subject)
	assert.Contains(t, msg.HTML, "https://example.nl/property/westeinde-11-d")
	assert.Contains(t, msg.HTML, "is 1 nieuwe woning")

	props = append(props, models.Property{ID: "groenewegje-76", Title: "Groenewegje 76"})
	msg, err = SearchAlert(u, s, props, "https://example.nl")
	require.NoError(t, err)
	assert.Equal(t, "2 nieuwe woningen voor \"Centrum\"", msg.Subject)
}

func TestAppointmentEmails(t *testing.T) {
	a := models.Appointment{
		AppointmentRequest: models.AppointmentRequest{
			Name:        "Jan Jansen",
			Email:       "jan@example.nl",
			Phone:       "06-12345678",
			MeetingType: "Bezichtiging",
			Date:        "2024-12-24",
			Time:        "9:05",
		},
		At: time.Date(2024, 12, 24, 9, 5, 0, 0, time.UTC),
	}
	office := Address{Email: "office@example.nl", Name: "Kantoor"}

	notice, err := AppointmentNotification(a, office, time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []Address{office}, notice.To)
	assert.Equal(t, "📅 Nieuwe afspraak - Bezichtiging", notice.Subject)
	assert.Contains(t, notice.HTML, "dinsdag 24 december 2024")
	assert.Contains(t, notice.HTML, "09:05")
	assert.Contains(t, notice.HTML, "Niet opgegeven")
	assert.NotContains(t, notice.HTML, "Opmerkingen")

	confirm, err := AppointmentConfirmation(a, office, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "jan@example.nl", confirm.To[0].Email)
	assert.Equal(t, CategoryConfirmation, confirm.Category)
	assert.Contains(t, confirm.HTML, "Beste Jan Jansen")
	assert.Contains(t, confirm.HTML, "mailto:office@example.nl")
}
