package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
)

type dashboardRecordRepository interface {
	CountTotal(ctx context.Context) (int, error)
	CountByActivity(ctx context.Context) ([]models.ActivityCount, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	CountDailySince(ctx context.Context, since time.Time) ([]models.DailyCount, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL   time.Duration
	RecentDays int
}

// DashboardService composes the admin landing summary.
type DashboardService struct {
	records dashboardRecordRepository
	cache   *CacheService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(records dashboardRecordRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentDays <= 0 {
		cfg.RecentDays = 14
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		records: records,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Summary returns the dashboard aggregation and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	const cacheKey = "dash:summary"
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	total, err := s.records.CountTotal(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count records")
	}
	byActivity, err := s.records.CountByActivity(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate by activity")
	}
	byStatus, err := s.records.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate by status")
	}
	since := s.now().UTC().AddDate(0, 0, -s.cfg.RecentDays)
	daily, err := s.records.CountDailySince(ctx, since)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate daily counts")
	}

	summary := &models.DashboardSummary{
		TotalRecords: total,
		ByActivity:   byActivity,
		ByStatus:     byStatus,
		RecentDaily:  daily,
		GeneratedAt:  s.now().UTC(),
	}

	if err := s.cache.Set(ctx, cacheKey, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, false, nil
}
