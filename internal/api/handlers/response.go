package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/josecyberpro/site/internal/api/middleware"
	"github.com/josecyberpro/site/internal/services"
)

func respondList(c *gin.Context, data interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": count})
}

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondServiceError maps service sentinels to status codes. Anything else is
// logged and reported with the generic fallback message.
func respondServiceError(c *gin.Context, err error, conflictMsg, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondError(c, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, services.ErrSlugConflict):
		respondError(c, http.StatusConflict, conflictMsg)
	case errors.Is(err, services.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "Post not found")
	default:
		middleware.GetRequestLogger(c).WithError(err).Error(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// validationMessage turns "validation failed: title is required" into
// "Title is required".
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
	if msg == services.ErrValidation.Error() {
		return "Invalid request"
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
