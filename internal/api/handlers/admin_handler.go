package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/josecyberpro/site/internal/api/middleware"
	"github.com/josecyberpro/site/internal/models"
	"github.com/josecyberpro/site/internal/services"
)

const deliveryListLimit = 100

// AdminHandler serves the Basic-Auth protected dashboard API.
type AdminHandler struct {
	blogs         *services.BlogService
	submissions   *services.SubmissionService
	notifications *services.NotificationService
}

func NewAdminHandler(blogs *services.BlogService, submissions *services.SubmissionService, notifications *services.NotificationService) *AdminHandler {
	return &AdminHandler{blogs: blogs, submissions: submissions, notifications: notifications}
}

func (h *AdminHandler) ListAuditRequests(c *gin.Context) {
	requests, err := h.submissions.ListAuditRequests()
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list audit requests")
		respondError(c, http.StatusInternalServerError, "Failed to fetch audit requests")
		return
	}
	respondList(c, requests, len(requests))
}

func (h *AdminHandler) ListContactSubmissions(c *gin.Context) {
	submissions, err := h.submissions.ListContactSubmissions()
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list contact submissions")
		respondError(c, http.StatusInternalServerError, "Failed to fetch contact submissions")
		return
	}
	respondList(c, submissions, len(submissions))
}

func (h *AdminHandler) ListEmailDeliveries(c *gin.Context) {
	deliveries, err := h.notifications.ListDeliveries(deliveryListLimit)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list email deliveries")
		respondError(c, http.StatusInternalServerError, "Failed to fetch email deliveries")
		return
	}
	respondList(c, deliveries, len(deliveries))
}

// ListBlogs accepts ?status=draft|published and ?limit=.
func (h *AdminHandler) ListBlogs(c *gin.Context) {
	status := models.PostStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "Status must be draft or published")
		return
	}

	posts, err := h.blogs.List(services.PostQuery{
		Status: status,
		Limit:  services.ParseLimit(c.Query("limit"), services.DefaultAdminListLimit),
	})
	if err != nil {
		respondServiceError(c, err, "", "Failed to fetch blog posts")
		return
	}
	respondList(c, posts, len(posts))
}

func (h *AdminHandler) GetBlog(c *gin.Context) {
	post, err := h.blogs.GetByID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "", "Failed to fetch blog post")
		return
	}
	respondData(c, post)
}

func (h *AdminHandler) CreateBlog(c *gin.Context) {
	var in services.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.blogs.Create(in)
	if err != nil {
		respondServiceError(c, err, "A post with this slug already exists", "Failed to create blog post")
		return
	}
	middleware.GetRequestLogger(c).WithField("post_id", post.ID).Info("blog post created")
	respondData(c, post)
}

// UpdateBlog applies only the fields present in the body. The post is
// identified by "id", or "_id" as sent by older dashboard builds.
func (h *AdminHandler) UpdateBlog(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	in, err := decodeUpdateInput(body)
	if err != nil {
		respondError(c, http.StatusBadRequest, capitalize(err.Error()))
		return
	}
	if in.ID == "" {
		respondError(c, http.StatusBadRequest, "Post ID is required")
		return
	}

	post, err := h.blogs.Update(in)
	if err != nil {
		respondServiceError(c, err, "Another post with this slug already exists", "Failed to update blog post")
		return
	}
	middleware.GetRequestLogger(c).WithField("post_id", post.ID).Info("blog post updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post updated successfully", "data": post})
}

func (h *AdminHandler) DeleteBlog(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Post ID is required")
		return
	}
	if err := h.blogs.Delete(id); err != nil {
		respondServiceError(c, err, "", "Failed to delete blog post")
		return
	}
	middleware.GetRequestLogger(c).WithField("post_id", id).Info("blog post deleted")
	respondMessage(c, "Post deleted successfully")
}

// decodeUpdateInput keeps the difference between an absent key (nil pointer)
// and a key sent as "" / [] / null (pointer to the zero value).
func decodeUpdateInput(body map[string]json.RawMessage) (services.UpdatePostInput, error) {
	var in services.UpdatePostInput

	id, err := optionalString(body, "id")
	if err != nil {
		return in, err
	}
	if id == nil || *id == "" {
		if id, err = optionalString(body, "_id"); err != nil {
			return in, err
		}
	}
	if id != nil {
		in.ID = *id
	}

	fields := []struct {
		key string
		dst **string
	}{
		{"title", &in.Title},
		{"slug", &in.Slug},
		{"content", &in.Content},
		{"excerpt", &in.Excerpt},
		{"status", &in.Status},
		{"featuredImage", &in.FeaturedImage},
		{"author", &in.Author},
		{"metaTitle", &in.MetaTitle},
		{"metaDescription", &in.MetaDescription},
	}
	for _, f := range fields {
		if *f.dst, err = optionalString(body, f.key); err != nil {
			return in, err
		}
	}

	if raw, ok := body["tags"]; ok {
		tags := []string{}
		if string(raw) != "null" {
			if err := json.Unmarshal(raw, &tags); err != nil {
				return in, errors.New("field tags must be a list of strings")
			}
		}
		in.Tags = &tags
	}
	return in, nil
}

func optionalString(body map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := body[key]
	if !ok {
		return nil, nil
	}
	s := ""
	if string(raw) != "null" {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("field %s must be a string", key)
		}
	}
	return &s, nil
}
