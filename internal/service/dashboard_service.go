package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/export"
)

const (
	dashboardStatsKey      = "dashboard:stats"
	dashboardEnrollmentKey = "dashboard:enrollment-stats"
	enrollmentWindowDays   = 30
)

type statsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountCourses(ctx context.Context) (int64, error)
	CountLessons(ctx context.Context) (int64, error)
	CompletedRevenue(ctx context.Context) (int64, error)
	EnrollmentDays(ctx context.Context, since time.Time) ([]models.EnrollmentDay, error)
}

type exporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// DashboardConfig controls aggregate cache lifetimes.
type DashboardConfig struct {
	StatsTTL      time.Duration
	EnrollmentTTL time.Duration
}

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// DashboardService computes admin headline figures and the enrollment chart.
type DashboardService struct {
	repo      statsRepository
	cache     *CacheService
	metrics   *MetricsService
	exporters map[string]exporter
	logger    *zap.Logger
	config    DashboardConfig
	now       func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo statsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, config DashboardConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.StatsTTL <= 0 {
		config.StatsTTL = 3 * time.Minute
	}
	if config.EnrollmentTTL <= 0 {
		config.EnrollmentTTL = 2 * time.Minute
	}
	return &DashboardService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		exporters: map[string]exporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// Stats returns the headline figures. The five reads run concurrently.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := readThrough(ctx, s.cache, dashboardStatsKey, s.config.StatsTTL, s.loadStats)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	return &stats, nil
}

func (s *DashboardService) loadStats(ctx context.Context) (models.DashboardStats, error) {
	var (
		stats   models.DashboardStats
		revenue int64
	)
	g, gctx := errgroup.WithContext(ctx)
	s.goCount(gctx, g, "count_users", s.repo.CountUsers, &stats.TotalSignups)
	s.goCount(gctx, g, "count_customers", s.repo.CountCustomers, &stats.TotalCustomers)
	s.goCount(gctx, g, "count_courses", s.repo.CountCourses, &stats.TotalCourses)
	s.goCount(gctx, g, "count_lessons", s.repo.CountLessons, &stats.TotalLessons)
	s.goCount(gctx, g, "sum_revenue", s.repo.CompletedRevenue, &revenue)
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	stats.TotalRevenue = centsToDollars(revenue)
	return stats, nil
}

func (s *DashboardService) goCount(ctx context.Context, g *errgroup.Group, label string, fn func(context.Context) (int64, error), dest *int64) {
	g.Go(func() error {
		start := time.Now()
		n, err := fn(ctx)
		s.metrics.ObserveDBQuery(label, time.Since(start))
		if err != nil {
			return err
		}
		*dest = n
		return nil
	})
}

// EnrollmentStats returns one point per UTC day for the last 30 days, today
// included. Days without Completed enrollments are zero-filled.
func (s *DashboardService) EnrollmentStats(ctx context.Context) ([]models.EnrollmentStatPoint, error) {
	points, err := readThrough(ctx, s.cache, dashboardEnrollmentKey, s.config.EnrollmentTTL, s.loadEnrollmentStats)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment stats")
	}
	return points, nil
}

func (s *DashboardService) loadEnrollmentStats(ctx context.Context) ([]models.EnrollmentStatPoint, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -enrollmentWindowDays)

	start := time.Now()
	days, err := s.repo.EnrollmentDays(ctx, since)
	s.metrics.ObserveDBQuery("enrollment_days", time.Since(start))
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]models.EnrollmentDay, len(days))
	for _, d := range days {
		byDay[d.Day] = d
	}
	points := make([]models.EnrollmentStatPoint, 0, enrollmentWindowDays+1)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		d := byDay[key]
		points = append(points, models.EnrollmentStatPoint{Date: key, Enrollments: d.Enrollments, Revenue: centsToDollars(d.Revenue)})
	}
	return points, nil
}

// ExportEnrollmentStats renders the enrollment chart as csv or pdf.
func (s *DashboardService) ExportEnrollmentStats(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	exp, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "format must be csv or pdf")
	}

	points, err := s.EnrollmentStats(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   "Enrollment statistics (last 30 days)",
		Headers: []string{"date", "enrollments", "revenue"},
		Rows:    make([]map[string]string, 0, len(points)),
		Numeric: map[string]bool{"enrollments": true, "revenue": true},
	}
	for _, p := range points {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"date":        p.Date,
			"enrollments": fmt.Sprintf("%d", p.Enrollments),
			"revenue":     fmt.Sprintf("%.2f", p.Revenue),
		})
	}

	content, err := exp.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("enrollment stats exported", zap.String("format", format), zap.Int("rows", len(points)))
	return &ExportFile{
		FileName:    fmt.Sprintf("enrollment-stats-%s.%s", s.now().UTC().Format("20060102"), exp.Extension()),
		ContentType: exp.ContentType(),
		Content:     content,
	}, nil
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
