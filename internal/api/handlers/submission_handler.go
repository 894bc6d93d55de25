package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/josecyberpro/site/internal/api/middleware"
	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/util"
)

type auditForm struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Website  string      `json:"website"`
	Message  string      `json:"message"`
	Honeypot interface{} `json:"_hp"`
}

type contactForm struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Subject  string      `json:"subject"`
	Message  string      `json:"message"`
	Honeypot interface{} `json:"_hp"`
}

// SubmissionHandler accepts the public audit and contact forms.
type SubmissionHandler struct {
	submissions *services.SubmissionService
}

func NewSubmissionHandler(submissions *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// SendAudit stores an audit request and triggers its notifications. A filled
// honeypot gets the same success answer without any side effect.
func (h *SubmissionHandler) SendAudit(c *gin.Context) {
	var form auditForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}
	ip := util.ClientIP(c.Request.Header)
	if util.Truthy(form.Honeypot) {
		services.LogDiscard("audit", ip)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	_, err := h.submissions.SubmitAudit(c.Request.Context(), services.AuditInput{
		Name:    form.Name,
		Email:   form.Email,
		Website: form.Website,
		Message: form.Message,
	}, ip)
	h.respond(c, err, "failed to store audit request")
}

// SendContact is the contact form counterpart of SendAudit.
func (h *SubmissionHandler) SendContact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}
	ip := util.ClientIP(c.Request.Header)
	if util.Truthy(form.Honeypot) {
		services.LogDiscard("contact", ip)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	_, err := h.submissions.SubmitContact(c.Request.Context(), services.ContactInput{
		Name:    form.Name,
		Email:   form.Email,
		Subject: form.Subject,
		Message: form.Message,
	}, ip)
	h.respond(c, err, "failed to store contact submission")
}

func (h *SubmissionHandler) respond(c *gin.Context, err error, logMsg string) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing required fields"})
	default:
		middleware.GetRequestLogger(c).WithError(err).Error(logMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Failed to submit request"})
	}
}
