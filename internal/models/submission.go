package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRequest is a free website audit request submitted from the public site.
// Records are create-only.
type AuditRequest struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Email       string    `json:"email" gorm:"not null;index"`
	Website     string    `json:"website" gorm:"not null"`
	Message     *string   `json:"message"`
	SubmittedAt time.Time `json:"submittedAt" gorm:"index"`
	IPAddress   string    `json:"ipAddress"`
}

func (a *AuditRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

// ContactSubmission is a message sent through the public contact form.
// Records are create-only.
type ContactSubmission struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Email       string    `json:"email" gorm:"not null;index"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message" gorm:"type:text"`
	SubmittedAt time.Time `json:"submittedAt" gorm:"index"`
	IPAddress   string    `json:"ipAddress"`
}

func (c *ContactSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
