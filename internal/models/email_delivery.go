package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailKind identifies which notification an outbox row carries.
type EmailKind string

const (
	EmailKindAuditAdmin   EmailKind = "audit_admin"
	EmailKindAuditReply   EmailKind = "audit_reply"
	EmailKindContactAdmin EmailKind = "contact_admin"
	EmailKindContactReply EmailKind = "contact_reply"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// EmailDelivery is an outbox row for a transactional email. Rows are written
// before the send is attempted so failed sends can be retried later.
type EmailDelivery struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Kind      EmailKind      `json:"kind" gorm:"index"`
	SourceID  string         `json:"sourceId" gorm:"index"` // audit request or contact submission id
	From      string         `json:"from"`
	To        string         `json:"to"`
	ReplyTo   string         `json:"replyTo"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body" gorm:"type:text"`
	Status    DeliveryStatus `json:"status" gorm:"index"`
	Attempts  int            `json:"attempts"`
	LastError string         `json:"lastError"`
	SentAt    *time.Time     `json:"sentAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (d *EmailDelivery) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = DeliveryPending
	}
	return
}
