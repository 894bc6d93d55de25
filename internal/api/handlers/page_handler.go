package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/josecyberpro/site/internal/api/middleware"
	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/web"
)

const homeRecentPosts = 3

// PageHandler renders the public site and the admin dashboard shell.
type PageHandler struct {
	blogs    *services.BlogService
	siteName string
}

func NewPageHandler(blogs *services.BlogService, siteName string) *PageHandler {
	return &PageHandler{blogs: blogs, siteName: siteName}
}

func (h *PageHandler) Home(c *gin.Context) {
	recent, err := h.blogs.ListPublished("", homeRecentPosts)
	if err != nil {
		// The landing page still works without the blog teaser.
		middleware.GetRequestLogger(c).WithError(err).Warn("failed to load recent posts")
	}
	c.HTML(http.StatusOK, web.PageHome, web.NewPage(h.siteName, "", "Free website audits, security and SEO reviews.", recent))
}

// BlogList shows published posts with category chips; ?category= narrows the list.
func (h *PageHandler) BlogList(c *gin.Context) {
	posts, err := h.blogs.ListPublished("", services.MaxListLimit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	active := web.NormalizeCategory(strings.TrimSpace(c.Query("category")))
	c.HTML(http.StatusOK, web.PageBlogList, web.NewPage(h.siteName, "Blog", "Articles on website security, performance and SEO.", web.BlogListData{
		Posts:      web.FilterByCategory(posts, active),
		Categories: web.Categories(posts),
		Active:     active,
	}))
}

func (h *PageHandler) BlogPost(c *gin.Context) {
	post, err := h.blogs.GetPublishedBySlug(c.Param("slug"))
	if errors.Is(err, services.ErrPostNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	article, err := web.RenderMarkdown(post.Content)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.HTML(http.StatusOK, web.PageBlogPost, web.NewPage(h.siteName, post.SEOTitle(), post.SEODescription(), web.BlogPostData{
		Post:    post,
		Article: article,
	}))
}

func (h *PageHandler) Admin(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, web.PageAdmin, web.NewPage(h.siteName, "Admin", "", nil))
}

// NotFound answers JSON under /api and the HTML not found page elsewhere.
func (h *PageHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		respondError(c, http.StatusNotFound, "Not found")
		return
	}
	c.HTML(http.StatusNotFound, web.PageNotFound, web.NewPage(h.siteName, "Page not found",
		"The page you are looking for does not exist or is not published yet.", nil))
}

func (h *PageHandler) serverError(c *gin.Context, err error) {
	middleware.GetRequestLogger(c).WithError(err).Error("failed to render page")
	c.HTML(http.StatusInternalServerError, web.PageNotFound, web.NewPage(h.siteName, "Something went wrong",
		"Please try again in a moment.", nil))
}
