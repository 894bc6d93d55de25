package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/josecyberpro/site/internal/logger"
	"github.com/josecyberpro/site/internal/metrics"
	"github.com/josecyberpro/site/internal/models"
	"github.com/josecyberpro/site/internal/util"
)

// SubmissionListLimit caps the admin submission listings.
const SubmissionListLimit = 100

// AuditInput is the public audit request form.
type AuditInput struct {
	Name    string
	Email   string
	Website string
	Message string
}

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Notifier is the part of NotificationService the submission flow depends on.
type Notifier interface {
	NotifyAuditRequest(ctx context.Context, a *models.AuditRequest) error
	NotifyContactSubmission(ctx context.Context, c *models.ContactSubmission) error
}

// SubmissionService stores public form submissions and hands them to the notifier.
type SubmissionService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewSubmissionService(db *gorm.DB, notifier Notifier) *SubmissionService {
	return &SubmissionService{db: db, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

// SubmitAudit persists an audit request and then notifies. A notification
// failure is logged and does not fail the submission.
func (s *SubmissionService) SubmitAudit(ctx context.Context, in AuditInput, ip string) (*models.AuditRequest, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	website := strings.TrimSpace(in.Website)
	if name == "" || email == "" || website == "" {
		return nil, fmt.Errorf("%w: name, email, and website are required", ErrValidation)
	}

	req := &models.AuditRequest{
		Name:        name,
		Email:       email,
		Website:     website,
		SubmittedAt: s.now(),
		IPAddress:   ip,
	}
	if msg := strings.TrimSpace(in.Message); msg != "" {
		req.Message = &msg
	}

	if err := s.db.Create(req).Error; err != nil {
		return nil, fmt.Errorf("store audit request: %w", err)
	}
	metrics.IncSubmission("audit")

	if s.notifier != nil {
		if err := s.notifier.NotifyAuditRequest(ctx, req); err != nil {
			logger.Log().WithError(err).WithField("audit_request_id", req.ID).Error("audit request notification failed")
		}
	}
	return req, nil
}

// SubmitContact persists a contact message and then notifies, with the same
// best-effort rule as SubmitAudit.
func (s *SubmissionService) SubmitContact(ctx context.Context, in ContactInput, ip string) (*models.ContactSubmission, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || message == "" {
		return nil, fmt.Errorf("%w: name, email, and message are required", ErrValidation)
	}

	sub := &models.ContactSubmission{
		Name:        name,
		Email:       email,
		Subject:     strings.TrimSpace(in.Subject),
		Message:     message,
		SubmittedAt: s.now(),
		IPAddress:   ip,
	}
	if err := s.db.Create(sub).Error; err != nil {
		return nil, fmt.Errorf("store contact submission: %w", err)
	}
	metrics.IncSubmission("contact")

	if s.notifier != nil {
		if err := s.notifier.NotifyContactSubmission(ctx, sub); err != nil {
			logger.Log().WithError(err).WithField("contact_submission_id", sub.ID).Error("contact notification failed")
		}
	}
	return sub, nil
}

// ListAuditRequests returns the newest audit requests first.
func (s *SubmissionService) ListAuditRequests() ([]models.AuditRequest, error) {
	var out []models.AuditRequest
	if err := s.db.Order("submitted_at desc").Limit(SubmissionListLimit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list audit requests: %w", err)
	}
	return out, nil
}

// ListContactSubmissions returns the newest contact messages first.
func (s *SubmissionService) ListContactSubmissions() ([]models.ContactSubmission, error) {
	var out []models.ContactSubmission
	if err := s.db.Order("submitted_at desc").Limit(SubmissionListLimit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	return out, nil
}

// LogDiscard records a honeypot hit without storing anything.
func LogDiscard(kind, ip string) {
	metrics.IncHoneypot(kind)
	logger.Log().WithFields(map[string]interface{}{
		"kind": kind,
		"ip":   util.SanitizeForLog(ip),
	}).Info("discarded submission with filled honeypot")
}
