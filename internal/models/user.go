package models

import "time"

type NotificationPreferences struct {
	EmailAlerts       bool `json:"email_alerts"`
	PropertyUpdates   bool `json:"property_updates"`
	SavedSearchAlerts bool `json:"saved_search_alerts"`
	Marketing         bool `json:"marketing"`
}

// DefaultNotificationPreferences are applied to new accounts
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailAlerts:       true,
		PropertyUpdates:   true,
		SavedSearchAlerts: true,
		Marketing:         false,
	}
}

type User struct {
	ID                      uint                    `json:"id" gorm:"primaryKey"`
	Username                string                  `json:"username" gorm:"size:80;uniqueIndex;not null"`
	Email                   string                  `json:"email" gorm:"size:120;uniqueIndex;not null"`
	PasswordHash            string                  `json:"-" gorm:"size:256;not null"`
	FirstName               string                  `json:"first_name" gorm:"size:50"`
	LastName                string                  `json:"last_name" gorm:"size:50"`
	Phone                   string                  `json:"phone" gorm:"size:20"`
	ProfileImage            string                  `json:"profile_image" gorm:"size:255"`
	IsActive                bool                    `json:"is_active" gorm:"not null;default:true"`
	IsVerified              bool                    `json:"is_verified" gorm:"not null;default:false"`
	VerificationToken       *string                 `json:"-" gorm:"size:100;index"`
	ResetToken              *string                 `json:"-" gorm:"size:100;index"`
	ResetTokenExpiry        *time.Time              `json:"-"`
	LastLogin               *time.Time              `json:"last_login,omitempty"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences" gorm:"serializer:json"`
	TokenVersion            int                     `json:"-" gorm:"not null;default:0"`
	CreatedAt               time.Time               `json:"created_at"`
	UpdatedAt               time.Time               `json:"updated_at"`
}

// ProfilePatch lists the profile fields a user may change themselves
type ProfilePatch struct {
	FirstName               *string                  `json:"first_name"`
	LastName                *string                  `json:"last_name"`
	Phone                   *string                  `json:"phone"`
	ProfileImage            *string                  `json:"profile_image"`
	NotificationPreferences *NotificationPreferences `json:"notification_preferences"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.ProfileImage == nil && p.NotificationPreferences == nil
}

// Apply copies the set fields onto u
func (p ProfilePatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.NotificationPreferences != nil {
		u.NotificationPreferences = *p.NotificationPreferences
	}
}
