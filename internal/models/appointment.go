package models

import (
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// AppointmentRequest is the body of an appointment booking from the website
type AppointmentRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	MeetingType string `json:"meetingType"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Message     string `json:"message"`
}

// Trim removes surrounding whitespace from every field
func (r *AppointmentRequest) Trim() {
	for _, f := range []*string{&r.Name, &r.Email, &r.Phone, &r.MeetingType, &r.Date, &r.Time, &r.Location, &r.Message} {
		*f = strings.TrimSpace(*f)
	}
}

// Complete reports whether every required field is filled in
func (r AppointmentRequest) Complete() bool {
	return r.Name != "" && r.Email != "" && r.Phone != "" && r.MeetingType != "" && r.Date != "" && r.Time != ""
}

// ParseTime parses the requested date (YYYY-MM-DD) and time (HH:MM, seconds optional) in loc
func (r AppointmentRequest) ParseTime(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, loc)
	if err != nil {
		return time.ParseInLocation("2006-01-02 15:04:05", r.Date+" "+r.Time, loc)
	}
	return t, nil
}

// Appointment is a validated booking ready to be announced
type Appointment struct {
	AppointmentRequest
	At time.Time
}
