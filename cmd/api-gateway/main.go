package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/api/swagger"
	"github.com/noah-isme/neolms-api/internal/handler"
	"github.com/noah-isme/neolms-api/internal/middleware"
	"github.com/noah-isme/neolms-api/internal/repository"
	"github.com/noah-isme/neolms-api/internal/service"
	"github.com/noah-isme/neolms-api/pkg/cache"
	"github.com/noah-isme/neolms-api/pkg/config"
	"github.com/noah-isme/neolms-api/pkg/database"
	"github.com/noah-isme/neolms-api/pkg/jobs"
	"github.com/noah-isme/neolms-api/pkg/logger"
	"github.com/noah-isme/neolms-api/pkg/payment"
	"github.com/noah-isme/neolms-api/pkg/storage"
)

const (
	version          = "1.0.0"
	shutdownTimeout  = 10 * time.Second
	localUploadLimit = 2 << 30
)

// @title NeoLMS API
// @version 1.0.0
// @description Course catalog, paid enrollment, lesson progress and admin console.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("database migrations applied")
	}

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient)
	}

	store, objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := service.NewValidator()
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	chapters := repository.NewChapterRepository(db)
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	progress := repository.NewProgressRepository(db)
	stats := repository.NewStatsRepository(db)

	media := service.NewMediaCleanupService(store, courses, logr, jobs.QueueConfig{Workers: 2, MaxRetries: 3, RetryDelay: 5 * time.Second})
	media.Start()
	defer media.Stop()

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.EnrollmentCacheTTL, logr, cacheRepo != nil)
	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courses, enrollments, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments)
	learningSvc := service.NewLearningService(lessons, progress, enrollments, logr)
	paymentSvc := service.NewPaymentService(courses, users, enrollments, gateway, metrics, validate, logr, service.PaymentConfig{
		FrontendURL: cfg.FrontendURL,
		CheckoutTTL: cfg.Stripe.CheckoutTTL,
	})
	adminCourseSvc := service.NewAdminCourseService(courses, gateway, validate, logr).WithMediaCleanup(media)
	chapterSvc := service.NewChapterService(chapters, validate, logr)
	lessonSvc := service.NewLessonService(lessons, validate, logr).WithMediaCleanup(media)
	dashboardSvc := service.NewDashboardService(stats, cacheSvc, metrics, logr, service.DashboardConfig{
		StatsTTL:      cfg.Dashboard.StatsCacheTTL,
		EnrollmentTTL: cfg.Dashboard.EnrollmentCacheTTL,
	})
	uploadSvc := service.NewUploadService(store, validate, logr)

	swagger.SwaggerInfo.BasePath = cfg.APIPrefix

	routerCfg := handler.RouterConfig{
		APIPrefix:       cfg.APIPrefix,
		EnableDocs:      cfg.Env != config.EnvProduction,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Logger:          logr,
		Tokens:          authSvc,
		Metrics:         handler.NewMetricsHandler(metrics),
		RequestMetrics:  metrics,
		CheckoutLimiter: middleware.NewRateLimiter(cfg.RateLimit.CheckoutPerMinute),
		UploadLimiter:   middleware.NewRateLimiter(cfg.RateLimit.UploadPerMinute),
		Health:          handler.NewHealthHandler(db, version),
		Auth:            handler.NewAuthHandler(authSvc),
		Courses:         handler.NewCourseHandler(courseSvc),
		Learning:        handler.NewLearningHandler(learningSvc),
		Enrollments:     handler.NewEnrollmentHandler(enrollmentSvc),
		Payments:        handler.NewPaymentHandler(paymentSvc),
		Uploads:         handler.NewUploadHandler(uploadSvc),
		AdminCourse:     handler.NewAdminCourseHandler(adminCourseSvc),
		Chapters:        handler.NewChapterHandler(chapterSvc),
		Lessons:         handler.NewAdminLessonHandler(lessonSvc),
		Dashboard:       handler.NewDashboardHandler(dashboardSvc),
	}
	if objects != nil {
		routerCfg.Objects = handler.NewObjectHandler(objects)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newObjectStore selects the storage driver. The local driver also returns the
// store itself so its signed URLs can be served by this process.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, *storage.LocalStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverGCS:
		store, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile, cfg.Storage.UploadURLTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		signer := storage.NewSignedURLSigner(cfg.Storage.SigningSecret, cfg.Storage.UploadURLTTL)
		objectURL := cfg.PublicBaseURL + cfg.APIPrefix + "/s3/objects"
		store, err := storage.NewLocalStore(cfg.Storage.LocalDir, objectURL, signer, localUploadLimit)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
}
