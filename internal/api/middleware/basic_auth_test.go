package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/josecyberpro/site/internal/services"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestBasicAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BasicAuth(services.StaticSecretVerifier{Username: services.AdminUsername, Secret: "s3cret"}))
	router.GET("/admin", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", basicHeader("admin", "s3cret"), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong password", basicHeader("admin", "nope"), http.StatusUnauthorized},
		{"wrong user", basicHeader("root", "s3cret"), http.StatusUnauthorized},
		{"bearer scheme", "Bearer s3cret", http.StatusUnauthorized},
		{"malformed base64", "Basic !!!", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="Admin Area"`, w.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}
