package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
)

type mockSiteRepo struct {
	site    *models.Site
	sites   []models.Site
	lookups int
}

func (m *mockSiteRepo) FindByGPCode(ctx context.Context, gpCode string) (*models.Site, error) {
	m.lookups++
	if m.site == nil {
		return nil, sql.ErrNoRows
	}
	return m.site, nil
}

func (m *mockSiteRepo) Search(ctx context.Context, filter models.SiteFilter) ([]models.Site, error) {
	m.lookups++
	return m.sites, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = map[string][]byte{}
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = map[string][]byte{}
	return nil
}

func TestSiteServiceLookupCachesResult(t *testing.T) {
	repo := &mockSiteRepo{site: &models.Site{ID: "s-1", GPCode: "GP104", Name: "Rampur", Block: "Sadar", District: "Demo"}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewSiteService(repo, cache, time.Minute, zap.NewNop())

	first, err := svc.Lookup(context.Background(), "GP104")
	require.NoError(t, err)
	assert.Equal(t, "Rampur", first.Name)

	second, err := svc.Lookup(context.Background(), "GP104")
	require.NoError(t, err)
	assert.Equal(t, first.GPCode, second.GPCode)
	assert.Equal(t, 1, repo.lookups)
}

func TestSiteServiceLookupNotFound(t *testing.T) {
	cache := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewSiteService(&mockSiteRepo{}, cache, time.Minute, zap.NewNop())

	_, err := svc.Lookup(context.Background(), "GP999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSiteServiceSearchRequiresQuery(t *testing.T) {
	cache := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewSiteService(&mockSiteRepo{}, cache, time.Minute, zap.NewNop())

	_, err := svc.Search(context.Background(), "   ", 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSiteServiceSearchReturnsMatches(t *testing.T) {
	repo := &mockSiteRepo{sites: []models.Site{{GPCode: "GP104", Name: "Rampur"}, {GPCode: "GP105", Name: "Rampura"}}}
	cache := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewSiteService(repo, cache, time.Minute, zap.NewNop())

	sites, err := svc.Search(context.Background(), "ramp", 0)
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}
