package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/util"
)

// BasicAuthRealm is advertised in the WWW-Authenticate challenge.
const BasicAuthRealm = "Admin Area"

// BasicAuth guards admin routes with HTTP Basic credentials checked by v.
func BasicAuth(v services.CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if services.Authorize(v, c.GetHeader("Authorization")) {
			c.Next()
			return
		}
		GetRequestLogger(c).WithField("ip", util.SanitizeForLog(c.ClientIP())).Warn("admin authentication failed")
		c.Header("WWW-Authenticate", `Basic realm="`+BasicAuthRealm+`"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
	}
}
