package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type dashboardRepo interface {
	AdminCounts(ctx context.Context) (*models.AdminDashboard, error)
	LecturerCourseLoads(ctx context.Context, lecturerID string) ([]models.LecturerCourseLoad, error)
}

type financeSummaryReader interface {
	ProgramFeeSummaries(ctx context.Context) ([]models.ProgramFeeSummary, error)
	TotalSalaryBill(ctx context.Context) (float64, error)
}

type ungradedCounter interface {
	CountUngradedByLecturer(ctx context.Context, lecturerID string) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashboardLecturerResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.LecturerDetail, error)
}

const (
	cacheKeyAdminDashboard  = "dashboard:admin"
	cacheKeyBursarDashboard = "dashboard:bursar"
	cacheKeyLecturerPrefix  = "dashboard:lecturer:"
)

// DashboardService assembles the per-role dashboard views. Results are
// cached because the underlying queries aggregate across whole tables.
type DashboardService struct {
	dashboards  dashboardRepo
	finance     financeSummaryReader
	submissions ungradedCounter
	lecturers   dashboardLecturerResolver
	cache       dashboardCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs DashboardService. cache may be nil,
// in which case every call hits the database.
func NewDashboardService(dashboards dashboardRepo, finance financeSummaryReader, submissions ungradedCounter, lecturers dashboardLecturerResolver, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		dashboards:  dashboards,
		finance:     finance,
		submissions: submissions,
		lecturers:   lecturers,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Admin returns institution-wide entity counts.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	var cached models.AdminDashboard
	if s.cacheGet(ctx, cacheKeyAdminDashboard, &cached) {
		return &cached, nil
	}

	counts, err := s.dashboards.AdminCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin dashboard")
	}

	s.cacheSet(ctx, cacheKeyAdminDashboard, counts)
	return counts, nil
}

// Bursar returns the finance aggregates: expected fees per program and
// the total salary bill.
func (s *DashboardService) Bursar(ctx context.Context) (*models.BursarDashboard, error) {
	var cached models.BursarDashboard
	if s.cacheGet(ctx, cacheKeyBursarDashboard, &cached) {
		return &cached, nil
	}

	summaries, err := s.finance.ProgramFeeSummaries(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee summaries")
	}
	salaryBill, err := s.finance.TotalSalaryBill(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary bill")
	}

	dashboard := &models.BursarDashboard{
		TotalSalaryBill:  salaryBill,
		ProgramBreakdown: summaries,
	}
	for _, summary := range summaries {
		dashboard.TotalExpectedFees += summary.ExpectedAmount
	}

	s.cacheSet(ctx, cacheKeyBursarDashboard, dashboard)
	return dashboard, nil
}

// Lecturer returns the teaching load for the lecturer who owns userID.
func (s *DashboardService) Lecturer(ctx context.Context, userID string) (*models.LecturerDashboard, error) {
	lecturer, err := s.lecturers.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrIncompleteProfile, "no lecturer profile for account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}

	key := cacheKeyLecturerPrefix + lecturer.ID
	var cached models.LecturerDashboard
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	loads, err := s.dashboards.LecturerCourseLoads(ctx, lecturer.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course loads")
	}
	pending, err := s.submissions.CountUngradedByLecturer(ctx, lecturer.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending submissions")
	}

	dashboard := &models.LecturerDashboard{Courses: loads, PendingSubmission: pending}
	s.cacheSet(ctx, key, dashboard)
	return dashboard, nil
}

// Invalidate drops every cached dashboard. Callers invoke it after
// writes that change the aggregates (enrollments, grades, fees).
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *DashboardService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
