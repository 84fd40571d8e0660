package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"makelaardij/server/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ResetTokenValidity is how long a password reset link stays usable
const ResetTokenValidity = 24 * time.Hour

// Mail categories reported to Mailtrap
const (
	CategoryContact      = "Contact Form Submission"
	CategoryVerification = "Email Verification"
	CategoryReset        = "Password Reset"
	CategoryAlert        = "Saved Search Alert"
	CategoryAppointment  = "Appointment Booking"
	CategoryConfirmation = "Appointment Confirmation"
)

var (
	dutchWeekdays = [...]string{"zondag", "maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag"}
	dutchMonths   = [...]string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"}
)

// dutchDate formats t as "maandag 3 juni 2024"
func dutchDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", dutchWeekdays[t.Weekday()], t.Day(), dutchMonths[t.Month()-1], t.Year())
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ContactNotification builds the message sent to the office for a contact submission
func ContactNotification(c models.Contact, to Address, now time.Time) (Message, error) {
	html, err := render("contact.html", struct {
		models.Contact
		SentAt string
	}{c, now.Format("02-01-2006 om 15:04")})
	if err != nil {
		return Message{}, err
	}

	topic := c.InquiryType
	if topic == "" {
		topic = "Algemeen"
	}
	return Message{
		To:       []Address{to},
		Subject:  fmt.Sprintf("🏠 Nieuwe contactaanvraag van %s - %s", c.Name, topic),
		HTML:     html,
		Category: CategoryContact,
	}, nil
}

// VerificationEmail asks a new user to confirm their address
func VerificationEmail(u models.User, baseURL, token string) (Message, error) {
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token))
	html, err := render("verification.html", struct {
		Name string
		Link string
	}{displayName(u), link})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       []Address{{Email: u.Email, Name: displayName(u)}},
		Subject:  "Bevestig uw e-mailadres",
		HTML:     html,
		Category: CategoryVerification,
	}, nil
}

// PasswordResetEmail carries a reset link for u
func PasswordResetEmail(u models.User, baseURL, token string) (Message, error) {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token))
	html, err := render("reset.html", struct {
		Name       string
		Link       string
		ValidHours int
	}{displayName(u), link, int(ResetTokenValidity.Hours())})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       []Address{{Email: u.Email, Name: displayName(u)}},
		Subject:  "Wachtwoord herstellen",
		HTML:     html,
		Category: CategoryReset,
	}, nil
}

// SearchAlert lists new listings matching a saved search
func SearchAlert(u models.User, s models.SavedSearch, props []models.Property, baseURL string) (Message, error) {
	html, err := render("alert.html", struct {
		Name       string
		SearchName string
		BaseURL    string
		Properties []models.Property
	}{displayName(u), s.Name, strings.TrimRight(baseURL, "/"), props})
	if err != nil {
		return Message{}, err
	}

	subject := fmt.Sprintf("%d nieuwe woningen voor \"%s\"", len(props), s.Name)
	if len(props) == 1 {
		subject = fmt.Sprintf("1 nieuwe woning voor \"%s\"", s.Name)
	}
	return Message{
		To:       []Address{{Email: u.Email, Name: displayName(u)}},
		Subject:  subject,
		HTML:     html,
		Category: CategoryAlert,
	}, nil
}

type appointmentView struct {
	models.AppointmentRequest
	Date        string
	Time        string
	OfficeEmail string
	SentAt      string
}

func newAppointmentView(a models.Appointment, office Address, now time.Time) appointmentView {
	return appointmentView{
		AppointmentRequest: a.AppointmentRequest,
		Date:               dutchDate(a.At),
		Time:               a.At.Format("15:04"),
		OfficeEmail:        office.Email,
		SentAt:             now.Format("02-01-2006 om 15:04"),
	}
}

// AppointmentNotification tells the office about a new booking
func AppointmentNotification(a models.Appointment, office Address, now time.Time) (Message, error) {
	html, err := render("appointment.html", newAppointmentView(a, office, now))
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       []Address{office},
		Subject:  fmt.Sprintf("📅 Nieuwe afspraak - %s", a.MeetingType),
		HTML:     html,
		Category: CategoryAppointment,
	}, nil
}

// AppointmentConfirmation confirms a booking to the client
func AppointmentConfirmation(a models.Appointment, office Address, now time.Time) (Message, error) {
	html, err := render("appointment_confirmation.html", newAppointmentView(a, office, now))
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       []Address{{Email: a.Email, Name: a.Name}},
		Subject:  "Afspraakbevestiging - Glodinas Makelaardij",
		HTML:     html,
		Category: CategoryConfirmation,
	}, nil
}

func displayName(u models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
