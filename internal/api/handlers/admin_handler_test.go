package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josecyberpro/site/internal/models"
	"github.com/josecyberpro/site/internal/services"
)

func setupAdminRouter(t *testing.T) (*gin.Engine, *services.BlogService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := OpenTestDB(t)
	blogs := services.NewBlogService(db)
	h := NewAdminHandler(blogs, services.NewSubmissionService(db, nil), services.NewNotificationService(db, nil, services.NotificationConfig{}))

	r := gin.New()
	r.GET("/blogs", h.ListBlogs)
	r.GET("/blogs/:id", h.GetBlog)
	r.POST("/blogs", h.CreateBlog)
	r.PUT("/blogs", h.UpdateBlog)
	r.DELETE("/blogs", h.DeleteBlog)
	r.GET("/audit-requests", h.ListAuditRequests)
	r.GET("/contact-submissions", h.ListContactSubmissions)
	r.GET("/email-deliveries", h.ListEmailDeliveries)
	return r, blogs
}

func sendJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error
}

func TestAdminHandler_CreateBlog(t *testing.T) {
	r, _ := setupAdminRouter(t)

	w := sendJSON(r, http.MethodPost, "/blogs", `{"title":"Hello","slug":"hello","content":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"draft"`)
	assert.Contains(t, w.Body.String(), `"tags":[]`)
	assert.Contains(t, w.Body.String(), `"author":"Admin"`)

	w = sendJSON(r, http.MethodPost, "/blogs", `{"title":"Other","slug":"hello","content":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "A post with this slug already exists", errorOf(t, w))

	w = sendJSON(r, http.MethodPost, "/blogs", `{"title":"No content","slug":"nc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title, slug, and content are required", errorOf(t, w))

	w = sendJSON(r, http.MethodPost, "/blogs", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_UpdateBlog(t *testing.T) {
	r, blogs := setupAdminRouter(t)
	content := "Body"
	post, err := blogs.Create(services.CreatePostInput{Title: "A", Slug: "a", Content: &content, Tags: []string{"seo"}, Author: "Jose"})
	require.NoError(t, err)
	_, err = blogs.Create(services.CreatePostInput{Title: "B", Slug: "b", Content: &content})
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"missing id", `{"title":"x"}`, http.StatusBadRequest, "Post ID is required"},
		{"unknown id", `{"id":"nope","title":"x"}`, http.StatusNotFound, "Post not found"},
		{"slug taken", `{"id":"` + post.ID + `","slug":"b"}`, http.StatusConflict, "Another post with this slug already exists"},
		{"empty title", `{"id":"` + post.ID + `","title":""}`, http.StatusBadRequest, "Title cannot be empty"},
		{"bad status", `{"id":"` + post.ID + `","status":"archived"}`, http.StatusBadRequest, "Status must be draft or published"},
		{"wrong type", `{"id":"` + post.ID + `","title":5}`, http.StatusBadRequest, "Field title must be a string"},
		{"wrong tags type", `{"id":"` + post.ID + `","tags":"seo"}`, http.StatusBadRequest, "Field tags must be a list of strings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sendJSON(r, http.MethodPut, "/blogs", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.msg, errorOf(t, w))
		})
	}

	t.Run("legacy _id and own slug", func(t *testing.T) {
		w := sendJSON(r, http.MethodPut, "/blogs", `{"_id":"`+post.ID+`","slug":"a","status":"published"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"message":"Post updated successfully"`)

		stored, err := blogs.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusPublished, stored.Status)
		assert.Equal(t, models.StringList{"seo"}, stored.Tags, "omitted tags are untouched")
		assert.Equal(t, "Jose", stored.Author)
	})

	t.Run("explicit clear", func(t *testing.T) {
		w := sendJSON(r, http.MethodPut, "/blogs", `{"id":"`+post.ID+`","tags":[],"author":"","excerpt":null}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		stored, err := blogs.GetByID(post.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Tags)
		assert.Equal(t, services.DefaultAuthor, stored.Author)
		assert.Equal(t, "", stored.Excerpt)
	})
}

func TestAdminHandler_ListAndDelete(t *testing.T) {
	r, blogs := setupAdminRouter(t)
	content := "x"
	draft, err := blogs.Create(services.CreatePostInput{Title: "D", Slug: "d", Content: &content})
	require.NoError(t, err)
	_, err = blogs.Create(services.CreatePostInput{Title: "P", Slug: "p", Content: &content, Status: "published"})
	require.NoError(t, err)

	var resp struct {
		Success bool              `json:"success"`
		Data    []models.BlogPost `json:"data"`
		Count   int               `json:"count"`
	}

	w := sendJSON(r, http.MethodGet, "/blogs?status=draft", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "d", resp.Data[0].Slug)

	w = sendJSON(r, http.MethodGet, "/blogs?limit=1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = sendJSON(r, http.MethodGet, "/blogs?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = sendJSON(r, http.MethodGet, "/blogs/"+draft.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = sendJSON(r, http.MethodGet, "/blogs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = sendJSON(r, http.MethodDelete, "/blogs", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Post ID is required", errorOf(t, w))

	w = sendJSON(r, http.MethodDelete, "/blogs?id="+draft.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post deleted successfully")

	w = sendJSON(r, http.MethodDelete, "/blogs?id="+draft.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_SubmissionLists(t *testing.T) {
	r, _ := setupAdminRouter(t)

	for _, path := range []string{"/audit-requests", "/contact-submissions", "/email-deliveries"} {
		w := sendJSON(r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"success":true`, path)
		assert.Contains(t, w.Body.String(), `"count":0`, path)
	}
}

func TestDecodeUpdateInput(t *testing.T) {
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"id":"","_id":"abc","title":"T","tags":null}`), &body))

	in, err := decodeUpdateInput(body)
	require.NoError(t, err)
	assert.Equal(t, "abc", in.ID)
	require.NotNil(t, in.Title)
	assert.Equal(t, "T", *in.Title)
	require.NotNil(t, in.Tags)
	assert.Empty(t, *in.Tags)
	assert.Nil(t, in.Slug)
	assert.Nil(t, in.Content)
}

func TestValidationMessage(t *testing.T) {
	assert.Equal(t, "Title is required", validationMessage(fmt.Errorf("%w: title is required", services.ErrValidation)))
	assert.Equal(t, "Invalid request", validationMessage(services.ErrValidation))
}
