package models

import "time"

type Contact struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"size:255;not null"`
	Email            string    `json:"email" gorm:"size:255;not null"`
	Phone            string    `json:"phone,omitempty" gorm:"size:50"`
	InquiryType      string    `json:"inquiryType,omitempty" gorm:"size:100"`
	PropertyType     string    `json:"propertyType,omitempty" gorm:"size:100"`
	BudgetRange      string    `json:"budgetRange,omitempty" gorm:"size:100"`
	PreferredContact string    `json:"preferredContact" gorm:"size:50"`
	Message          string    `json:"message" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at" gorm:"index"`
}

// ContactRequest is the body of a contact form submission
type ContactRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Message          string `json:"message"`
	InquiryType      string `json:"inquiryType"`
	PropertyType     string `json:"propertyType"`
	BudgetRange      string `json:"budgetRange"`
	PreferredContact string `json:"preferredContact"`
}

// MissingField returns the first required field that is empty, or ""
func (r ContactRequest) MissingField() string {
	switch {
	case r.Name == "":
		return "name"
	case r.Email == "":
		return "email"
	case r.Message == "":
		return "message"
	}
	return ""
}

// ToContact converts the request into a record ready to be stored
func (r ContactRequest) ToContact() Contact {
	preferred := r.PreferredContact
	if preferred == "" {
		preferred = "email"
	}
	return Contact{
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		Message:          r.Message,
		InquiryType:      r.InquiryType,
		PropertyType:     r.PropertyType,
		BudgetRange:      r.BudgetRange,
		PreferredContact: preferred,
	}
}
