package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/josecyberpro/site/internal/api/handlers"
	"github.com/josecyberpro/site/internal/api/middleware"
	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/web"
)

// Dependencies are the collaborators the HTTP layer needs. They are built once
// by the server and shared across requests.
type Dependencies struct {
	DB            *gorm.DB
	Blogs         *services.BlogService
	Submissions   *services.SubmissionService
	Notifications *services.NotificationService
	Verifier      services.CredentialVerifier
	Throttle      *middleware.Throttle
	Metrics       http.Handler
	SiteName      string
}

// Register wires up the JSON API, the Prometheus endpoint and the HTML pages.
func Register(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.DB)
	admin := handlers.NewAdminHandler(deps.Blogs, deps.Submissions, deps.Notifications)
	blogs := handlers.NewBlogHandler(deps.Blogs)
	forms := handlers.NewSubmissionHandler(deps.Submissions)
	pages := handlers.NewPageHandler(deps.Blogs, deps.SiteName)

	router.GET("/api/health", health.Check)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := router.Group("/api")
	api.GET("/blogs", blogs.List)

	throttled := api.Group("")
	if deps.Throttle != nil {
		throttled.Use(deps.Throttle.Middleware())
	}
	throttled.POST("/send-audit", forms.SendAudit)
	throttled.POST("/send-contact", forms.SendContact)

	protected := api.Group("/admin")
	protected.Use(middleware.BasicAuth(deps.Verifier))
	{
		protected.GET("/audit-requests", admin.ListAuditRequests)
		protected.GET("/contact-submissions", admin.ListContactSubmissions)
		protected.GET("/email-deliveries", admin.ListEmailDeliveries)

		protected.GET("/blogs", admin.ListBlogs)
		protected.GET("/blogs/:id", admin.GetBlog)
		protected.POST("/blogs", admin.CreateBlog)
		protected.PUT("/blogs", admin.UpdateBlog)
		protected.DELETE("/blogs", admin.DeleteBlog)
	}

	router.StaticFS("/static", web.StaticFS())
	router.GET("/", pages.Home)
	router.GET("/blog", pages.BlogList)
	router.GET("/blog/:slug", pages.BlogPost)
	router.GET("/admin", pages.Admin)
	router.NoRoute(pages.NotFound)
}
