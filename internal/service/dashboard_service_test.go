package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
)

type mockDashboardRepo struct {
	calls int
}

func (m *mockDashboardRepo) CountTotal(ctx context.Context) (int, error) {
	m.calls++
	return 42, nil
}

func (m *mockDashboardRepo) CountByActivity(ctx context.Context) ([]models.ActivityCount, error) {
	return []models.ActivityCount{{ActivityType: models.ActivityPatrolling, Count: 12}}, nil
}

func (m *mockDashboardRepo) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	return []models.StatusCount{{Status: models.RecordStatusPending, Count: 40}}, nil
}

func (m *mockDashboardRepo) CountDailySince(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	return []models.DailyCount{{Day: since.Truncate(24 * time.Hour), Count: 3}}, nil
}

func TestDashboardServiceSummaryComposesAndCaches(t *testing.T) {
	repo := &mockDashboardRepo{}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, zap.NewNop(), DashboardServiceConfig{})

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 42, summary.TotalRecords)
	require.Len(t, summary.ByActivity, 1)
	assert.Equal(t, models.ActivityPatrolling, summary.ByActivity[0].ActivityType)

	again, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, summary.TotalRecords, again.TotalRecords)
	assert.Equal(t, 1, repo.calls)
}
