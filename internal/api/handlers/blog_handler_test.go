package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josecyberpro/site/internal/models"
	"github.com/josecyberpro/site/internal/services"
)

func TestBlogHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	blogs := services.NewBlogService(OpenTestDB(t))
	content := "body"
	for _, in := range []services.CreatePostInput{
		{Title: "Draft", Slug: "draft", Content: &content},
		{Title: "SEO", Slug: "seo", Content: &content, Status: "published", Tags: []string{"seo"}},
		{Title: "Speed", Slug: "speed", Content: &content, Status: "published", Tags: []string{"performance"}},
	} {
		_, err := blogs.Create(in)
		require.NoError(t, err)
	}

	r := gin.New()
	r.GET("/api/blogs", NewBlogHandler(blogs).List)

	var list struct {
		Success bool              `json:"success"`
		Data    []models.BlogPost `json:"data"`
		Count   int               `json:"count"`
	}
	w := sendJSON(r, http.MethodGet, "/api/blogs", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.True(t, list.Success)
	assert.Equal(t, 2, list.Count)
	for _, p := range list.Data {
		assert.Equal(t, models.PostStatusPublished, p.Status)
	}

	w = sendJSON(r, http.MethodGet, "/api/blogs?tag=seo", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "seo", list.Data[0].Slug)

	w = sendJSON(r, http.MethodGet, "/api/blogs?slug=speed", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"speed"`)

	w = sendJSON(r, http.MethodGet, "/api/blogs?slug=draft", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", errorOf(t, w))
}
