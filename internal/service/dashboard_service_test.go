package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
)

type fakeStats struct {
	calls     int32
	failCount error
	days      []models.EnrollmentDay
	since     time.Time
}

func (f *fakeStats) count(v int64) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.failCount != nil {
		return 0, f.failCount
	}
	return v, nil
}

func (f *fakeStats) CountUsers(ctx context.Context) (int64, error)     { return f.count(10) }
func (f *fakeStats) CountCustomers(ctx context.Context) (int64, error) { return f.count(4) }
func (f *fakeStats) CountCourses(ctx context.Context) (int64, error)   { return f.count(3) }
func (f *fakeStats) CountLessons(ctx context.Context) (int64, error)   { return f.count(25) }
func (f *fakeStats) CompletedRevenue(ctx context.Context) (int64, error) {
	return f.count(123456)
}

func (f *fakeStats) EnrollmentDays(ctx context.Context, since time.Time) ([]models.EnrollmentDay, error) {
	f.since = since
	return f.days, nil
}

func newDashboardFixture(cacheEnabled bool) (*DashboardService, *fakeStats) {
	stats := &fakeStats{days: []models.EnrollmentDay{
		{Day: "2026-03-01", Enrollments: 2, Revenue: 9800},
		{Day: "2026-03-30", Enrollments: 1, Revenue: 4900},
	}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, cacheEnabled)
	svc := NewDashboardService(stats, cache, NewMetricsService(), nil, DashboardConfig{})
	svc.now = func() time.Time { return time.Date(2026, 3, 30, 15, 0, 0, 0, time.UTC) }
	return svc, stats
}

func TestDashboardStatsAggregatesAndCaches(t *testing.T) {
	svc, stats := newDashboardFixture(true)

	got, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DashboardStats{TotalSignups: 10, TotalCustomers: 4, TotalCourses: 3, TotalLessons: 25, TotalRevenue: 1234.56}, *got)
	assert.Equal(t, int32(5), stats.calls)

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(5), stats.calls)
}

func TestDashboardStatsFailure(t *testing.T) {
	svc, stats := newDashboardFixture(false)
	stats.failCount = errors.New("db down")

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestEnrollmentStatsFillsThirtyDayWindow(t *testing.T) {
	svc, stats := newDashboardFixture(false)

	points, err := svc.EnrollmentStats(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 31)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), stats.since)
	assert.Equal(t, "2026-02-28", points[0].Date)
	assert.Equal(t, "2026-03-30", points[30].Date)
	assert.Equal(t, models.EnrollmentStatPoint{Date: "2026-03-01", Enrollments: 2, Revenue: 98}, points[1])
	assert.Equal(t, 49.0, points[30].Revenue)
	assert.Zero(t, points[2].Enrollments)
}

func TestExportEnrollmentStats(t *testing.T) {
	svc, _ := newDashboardFixture(false)

	file, err := svc.ExportEnrollmentStats(context.Background(), "CSV")
	require.NoError(t, err)
	assert.Equal(t, "enrollment-stats-20260330.csv", file.FileName)
	assert.Contains(t, string(file.Content), "2026-03-01,2,98.00")

	pdf, err := svc.ExportEnrollmentStats(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Content, []byte("%PDF")))

	_, err = svc.ExportEnrollmentStats(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}
