package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/middleware"
	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/neolms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/neolms-api/pkg/middleware/requestid"
	"github.com/noah-isme/neolms-api/pkg/response"
)

// TokenValidator resolves bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// RouterConfig carries everything the HTTP surface is assembled from.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	APIPrefix      string
	EnableDocs     bool
	AllowedOrigins []string
	Logger         *zap.Logger
	Tokens         TokenValidator
	Metrics        *MetricsHandler
	RequestMetrics middleware.RequestObserver

	CheckoutLimiter *middleware.RateLimiter
	UploadLimiter   *middleware.RateLimiter

	Health      *HealthHandler
	Auth        *AuthHandler
	Courses     *CourseHandler
	Learning    *LearningHandler
	Enrollments *EnrollmentHandler
	Payments    *PaymentHandler
	Uploads     *UploadHandler
	Objects     *ObjectHandler
	AdminCourse *AdminCourseHandler
	Chapters    *ChapterHandler
	Lessons     *AdminLessonHandler
	Dashboard   *DashboardHandler
}

// NewRouter builds the gin engine with middleware and every route group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	if cfg.CheckoutLimiter == nil {
		cfg.CheckoutLimiter = middleware.NewRateLimiter(0)
	}
	if cfg.UploadLimiter == nil {
		cfg.UploadLimiter = middleware.NewRateLimiter(0)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.RequestMetrics))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "Method not allowed"))
	})

	if cfg.Health != nil {
		r.GET("/", cfg.Health.Root)
		r.GET("/health", cfg.Health.Health)
		r.GET("/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", cfg.Metrics.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authed := api.Group("/")
	admin := api.Group("/admin")
	if cfg.Tokens != nil {
		authed.Use(middleware.JWT(cfg.Tokens))
		admin.Use(middleware.JWT(cfg.Tokens))
	}
	admin.Use(middleware.RequireAdmin())

	// Auth
	if cfg.Auth != nil {
		api.POST("/auth/register", cfg.Auth.Register)
		api.POST("/auth/login", cfg.Auth.Login)
		authed.GET("/auth/session", cfg.Auth.Session)
		admin.GET("/verify", cfg.Auth.VerifyAdmin)
	}

	// Catalog and learning
	if cfg.Courses != nil {
		api.GET("/courses", cfg.Courses.List)
		api.GET("/courses/:slug", cfg.Courses.Get)
		authed.GET("/courses/:slug/sidebar", cfg.Courses.Sidebar)
	}
	if cfg.Learning != nil {
		authed.GET("/lessons/:lessonId", cfg.Learning.Content)
		authed.POST("/lessons/:lessonId/complete", cfg.Learning.Complete)
	}
	if cfg.Enrollments != nil {
		authed.GET("/enrollments", cfg.Enrollments.List)
		authed.GET("/enrollments/check/:courseId", cfg.Enrollments.Check)
	}

	// Payments
	if cfg.Payments != nil {
		authed.POST("/stripe/checkout", cfg.CheckoutLimiter.Handler(), cfg.Payments.Checkout)
		api.POST("/webhooks/stripe", cfg.Payments.Webhook)
		api.POST("/stripe/webhook", cfg.Payments.Webhook)
	}

	// Uploads
	if cfg.Uploads != nil {
		api.GET("/s3/file", cfg.Uploads.File)
		uploads := authed.Group("/s3", middleware.RequireAdmin(), cfg.UploadLimiter.Handler())
		uploads.POST("/upload", cfg.Uploads.Presign)
		uploads.DELETE("/delete", cfg.Uploads.Delete)
	}
	if cfg.Objects != nil {
		api.PUT("/s3/objects/:token", cfg.Objects.Put)
		api.GET("/s3/objects/:token", cfg.Objects.Get)
	}

	// Admin console
	if cfg.AdminCourse != nil {
		admin.GET("/courses", cfg.AdminCourse.List)
		admin.POST("/courses", cfg.AdminCourse.Create)
		admin.GET("/courses/:courseId", cfg.AdminCourse.Get)
		admin.PUT("/courses/:courseId", cfg.AdminCourse.Update)
		admin.DELETE("/courses/:courseId", cfg.AdminCourse.Delete)
		admin.GET("/dashboard/recent-courses", cfg.AdminCourse.Recent)
	}
	if cfg.Chapters != nil {
		admin.POST("/chapters", cfg.Chapters.Create)
		admin.PUT("/chapters/reorder", cfg.Chapters.Reorder)
		admin.DELETE("/chapters/:chapterId", cfg.Chapters.Delete)
	}
	if cfg.Lessons != nil {
		admin.GET("/lessons", cfg.Lessons.ListDates)
		admin.POST("/lessons", cfg.Lessons.Create)
		admin.PUT("/lessons/reorder", cfg.Lessons.Reorder)
		admin.GET("/lessons/:lessonId", cfg.Lessons.Get)
		admin.PUT("/lessons/:lessonId", cfg.Lessons.Update)
		admin.DELETE("/lessons/:lessonId", cfg.Lessons.Delete)
	}
	if cfg.Dashboard != nil {
		admin.GET("/dashboard/stats", cfg.Dashboard.Stats)
		admin.GET("/dashboard/enrollment-stats", cfg.Dashboard.EnrollmentStats)
		admin.GET("/dashboard/enrollment-stats/export", cfg.Dashboard.ExportEnrollmentStats)
	}

	return r
}
