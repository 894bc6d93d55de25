package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/josecyberpro/site/internal/config"
	"github.com/josecyberpro/site/internal/logger"
	"github.com/josecyberpro/site/internal/metrics"
	"github.com/josecyberpro/site/internal/models"
	"github.com/josecyberpro/site/internal/util"
)

const (
	retryBatchSize = 50
	// pendingGrace keeps the retry job away from rows a request is still delivering.
	pendingGrace = time.Minute
)

var (
	auditAdminTmpl = template.Must(template.New("audit_admin").Parse(`Name: {{.Name}}
Email: {{.Email}}
Website: {{.Website}}

Message:
{{.Message}}

Submitted: {{.Submitted}}
`))
	auditReplyTmpl = template.Must(template.New("audit_reply").Parse(`Hi {{.Name}},

Thanks for requesting a free website audit. I'll review your site and send a summary soon.

— {{.Sender}}
`))
	contactAdminTmpl = template.Must(template.New("contact_admin").Parse(`Name: {{.Name}}
Email: {{.Email}}
Subject: {{.Subject}}

Message:
{{.Message}}

Submitted: {{.Submitted}}
`))
	contactReplyTmpl = template.Must(template.New("contact_reply").Parse(`Hi {{.Name}},

Thanks for getting in touch about "{{.Subject}}". I read every message and will reply shortly.

— {{.Sender}}
`))
)

// NotificationConfig carries addresses and channels used for submission notices.
type NotificationConfig struct {
	FromAddress     string
	OperatorAddress string
	SenderName      string
	ChatURLs        []string
	MaxAttempts     int
}

// NotificationConfigFrom extracts the notification settings from the app config.
func NotificationConfigFrom(cfg config.Config) NotificationConfig {
	return NotificationConfig{
		FromAddress:     cfg.Mail.FromAddress,
		OperatorAddress: cfg.Mail.OperatorAddress,
		SenderName:      cfg.Mail.SenderName,
		ChatURLs:        cfg.NotifyURLs,
		MaxAttempts:     cfg.DeliveryMaxAttempts,
	}
}

// NotificationService turns submissions into outbox emails and chat alerts.
// Delivery is best-effort: failures are recorded on the outbox row and retried
// by the scheduler, never propagated as a failed submission.
type NotificationService struct {
	db       *gorm.DB
	mailer   Mailer
	cfg      NotificationConfig
	sendChat func(url, message string) error
	now      func() time.Time
}

func NewNotificationService(db *gorm.DB, mailer Mailer, cfg NotificationConfig) *NotificationService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &NotificationService{
		db:       db,
		mailer:   mailer,
		cfg:      cfg,
		sendChat: shoutrrr.Send,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NotifyAuditRequest queues the operator notice and the auto-reply for a new
// audit request and attempts both immediately.
func (s *NotificationService) NotifyAuditRequest(ctx context.Context, a *models.AuditRequest) error {
	message := "(none)"
	if a.Message != nil && strings.TrimSpace(*a.Message) != "" {
		message = *a.Message
	}
	data := map[string]string{
		"Name":      a.Name,
		"Email":     a.Email,
		"Website":   a.Website,
		"Message":   message,
		"Submitted": a.SubmittedAt.Format(time.RFC3339),
		"Sender":    s.cfg.SenderName,
	}

	admin, err := s.newDelivery(models.EmailKindAuditAdmin, a.ID, s.cfg.OperatorAddress, a.Email,
		fmt.Sprintf("New Audit Request — %s", a.Website), auditAdminTmpl, data)
	if err != nil {
		return err
	}
	reply, err := s.newDelivery(models.EmailKindAuditReply, a.ID, a.Email, s.cfg.OperatorAddress,
		fmt.Sprintf("Got your audit request for %s", a.Website), auditReplyTmpl, data)
	if err != nil {
		return err
	}

	s.Alert("New audit request", fmt.Sprintf("%s <%s> requested an audit of %s", a.Name, a.Email, a.Website))
	return s.dispatch(ctx, admin, reply)
}

// NotifyContactSubmission queues the operator notice and the auto-reply for a
// contact form message and attempts both immediately.
func (s *NotificationService) NotifyContactSubmission(ctx context.Context, c *models.ContactSubmission) error {
	data := map[string]string{
		"Name":      c.Name,
		"Email":     c.Email,
		"Subject":   c.Subject,
		"Message":   c.Message,
		"Submitted": c.SubmittedAt.Format(time.RFC3339),
		"Sender":    s.cfg.SenderName,
	}

	admin, err := s.newDelivery(models.EmailKindContactAdmin, c.ID, s.cfg.OperatorAddress, c.Email,
		fmt.Sprintf("New Contact Message — %s", c.Subject), contactAdminTmpl, data)
	if err != nil {
		return err
	}
	reply, err := s.newDelivery(models.EmailKindContactReply, c.ID, c.Email, s.cfg.OperatorAddress,
		"Thanks for reaching out", contactReplyTmpl, data)
	if err != nil {
		return err
	}

	s.Alert("New contact message", fmt.Sprintf("%s <%s>: %s", c.Name, c.Email, c.Subject))
	return s.dispatch(ctx, admin, reply)
}

func (s *NotificationService) newDelivery(kind models.EmailKind, sourceID, to, replyTo, subject string, tmpl *template.Template, data map[string]string) (*models.EmailDelivery, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render %s email: %w", kind, err)
	}
	return &models.EmailDelivery{
		Kind:      kind,
		SourceID:  sourceID,
		From:      s.cfg.FromAddress,
		To:        to,
		ReplyTo:   replyTo,
		Subject:   subject,
		Body:      body.String(),
		Status:    models.DeliveryPending,
		CreatedAt: s.now(),
	}, nil
}

// dispatch stores every delivery before sending any, so a crash mid-way still
// leaves retryable rows behind.
func (s *NotificationService) dispatch(ctx context.Context, deliveries ...*models.EmailDelivery) error {
	var errs []error
	queued := deliveries[:0]
	for _, d := range deliveries {
		if err := s.db.Create(d).Error; err != nil {
			errs = append(errs, fmt.Errorf("queue %s email: %w", d.Kind, err))
			continue
		}
		queued = append(queued, d)
	}
	for _, d := range queued {
		if err := s.Deliver(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver makes one send attempt and records the outcome on the row.
func (s *NotificationService) Deliver(ctx context.Context, d *models.EmailDelivery) error {
	sendErr := s.mailer.Send(ctx, Email{
		From:    d.From,
		To:      d.To,
		ReplyTo: d.ReplyTo,
		Subject: d.Subject,
		Text:    d.Body,
	})

	d.Attempts++
	if sendErr != nil {
		d.Status = models.DeliveryFailed
		d.LastError = util.Truncate(sendErr.Error(), 500)
	} else {
		sentAt := s.now()
		d.Status = models.DeliverySent
		d.LastError = ""
		d.SentAt = &sentAt
	}
	metrics.IncEmailDelivery(string(d.Kind), string(d.Status))

	if err := s.db.Model(d).Updates(map[string]interface{}{
		"status":     d.Status,
		"attempts":   d.Attempts,
		"last_error": d.LastError,
		"sent_at":    d.SentAt,
	}).Error; err != nil {
		return fmt.Errorf("record %s delivery: %w", d.Kind, err)
	}

	if sendErr != nil {
		return fmt.Errorf("deliver %s email: %w", d.Kind, sendErr)
	}
	return nil
}

// RetryFailed re-attempts failed deliveries, and pending ones old enough to have
// been abandoned, until they reach MaxAttempts. It returns how many were sent.
func (s *NotificationService) RetryFailed(ctx context.Context) (int, error) {
	var due []models.EmailDelivery
	cutoff := s.now().Add(-pendingGrace)
	err := s.db.
		Where("attempts < ?", s.cfg.MaxAttempts).
		Where("status = ? OR (status = ? AND created_at < ?)", models.DeliveryFailed, models.DeliveryPending, cutoff).
		Order("created_at asc").
		Limit(retryBatchSize).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("load due deliveries: %w", err)
	}

	sent := 0
	for i := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		d := &due[i]
		if err := s.Deliver(ctx, d); err != nil {
			logger.WithFields(map[string]interface{}{
				"delivery_id": d.ID,
				"kind":        d.Kind,
				"attempts":    d.Attempts,
			}).WithError(err).Warn("email delivery retry failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// ListDeliveries returns the newest outbox rows first.
func (s *NotificationService) ListDeliveries(limit int) ([]models.EmailDelivery, error) {
	var deliveries []models.EmailDelivery
	if err := s.db.Order("created_at desc").Limit(limit).Find(&deliveries).Error; err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// StartRetryScheduler runs RetryFailed on the given cron spec until the
// returned scheduler is stopped.
func (s *NotificationService) StartRetryScheduler(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		sent, err := s.RetryFailed(context.Background())
		if err != nil {
			logger.Log().WithError(err).Error("email delivery retry pass failed")
			return
		}
		if sent > 0 {
			logger.Log().WithField("sent", sent).Info("retried email deliveries")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule delivery retry %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// Alert posts a short message to every configured chat URL in the background.
func (s *NotificationService) Alert(title, message string) {
	msg := fmt.Sprintf("%s\n\n%s", title, message)
	for _, url := range s.cfg.ChatURLs {
		go func(u string) {
			if err := s.sendChat(u, msg); err != nil {
				logger.Log().WithError(err).WithField("service", chatService(u)).Warn("failed to send chat alert")
			}
		}(url)
	}
}

// chatService returns the scheme of a shoutrrr URL so logs never carry tokens.
func chatService(url string) string {
	scheme, _, found := strings.Cut(url, "://")
	if !found {
		return "unknown"
	}
	return scheme
}
