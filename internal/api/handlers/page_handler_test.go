package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/web"
)

func setupPageRouter(t *testing.T) (*gin.Engine, *services.BlogService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	blogs := services.NewBlogService(OpenTestDB(t))
	h := NewPageHandler(blogs, "Jose Cyber Pro")

	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	r := gin.New()
	r.HTMLRender = renderer
	r.GET("/", h.Home)
	r.GET("/blog", h.BlogList)
	r.GET("/blog/:slug", h.BlogPost)
	r.GET("/admin", h.Admin)
	r.NoRoute(h.NotFound)
	return r, blogs
}

func TestPageHandler_BlogPost(t *testing.T) {
	r, blogs := setupPageRouter(t)
	content := "## Why audits matter\n\nText.\n\n## Next steps\n"
	_, err := blogs.Create(services.CreatePostInput{
		Title: "Audits", Slug: "audits", Content: &content, Status: "published",
		MetaTitle: "Website audits explained",
	})
	require.NoError(t, err)
	_, err = blogs.Create(services.CreatePostInput{Title: "Hidden", Slug: "hidden", Content: &content})
	require.NoError(t, err)

	w := sendJSON(r, http.MethodGet, "/blog/audits", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Website audits explained")
	assert.Contains(t, body, `id="why-audits-matter"`)
	assert.Contains(t, body, `href="#next-steps"`)

	w = sendJSON(r, http.MethodGet, "/blog/hidden", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestPageHandler_HomeAndAdmin(t *testing.T) {
	r, _ := setupPageRouter(t)

	w := sendJSON(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = sendJSON(r, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestPageHandler_NotFound(t *testing.T) {
	r, _ := setupPageRouter(t)

	w := sendJSON(r, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Not found"}`, w.Body.String())

	w = sendJSON(r, http.MethodGet, "/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}
