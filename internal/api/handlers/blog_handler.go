package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/josecyberpro/site/internal/services"
)

// BlogHandler serves the public, unauthenticated blog API.
type BlogHandler struct {
	blogs *services.BlogService
}

func NewBlogHandler(blogs *services.BlogService) *BlogHandler {
	return &BlogHandler{blogs: blogs}
}

// List returns published posts, or a single one when ?slug= is given.
// Drafts are never returned.
func (h *BlogHandler) List(c *gin.Context) {
	if slug := c.Query("slug"); slug != "" {
		post, err := h.blogs.GetPublishedBySlug(slug)
		if err != nil {
			respondServiceError(c, err, "", "Failed to fetch blog post")
			return
		}
		respondData(c, post)
		return
	}

	posts, err := h.blogs.ListPublished(c.Query("tag"), services.ParseLimit(c.Query("limit"), services.DefaultPublicListLimit))
	if err != nil {
		respondServiceError(c, err, "", "Failed to fetch blog posts")
		return
	}
	respondList(c, posts, len(posts))
}
