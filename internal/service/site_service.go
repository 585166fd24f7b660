package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
)

type siteRepository interface {
	FindByGPCode(ctx context.Context, gpCode string) (*models.Site, error)
	Search(ctx context.Context, filter models.SiteFilter) ([]models.Site, error)
}

// SiteService serves GP site lookups with a read-through cache. The
// reference dataset changes rarely, so cached entries live long.
type SiteService struct {
	repo   siteRepository
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewSiteService constructs a SiteService.
func NewSiteService(repo siteRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *SiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SiteService{repo: repo, cache: cache, logger: logger, ttl: ttl}
}

// Lookup returns the site for an exact GP code.
func (s *SiteService) Lookup(ctx context.Context, gpCode string) (*models.Site, error) {
	gpCode = strings.TrimSpace(gpCode)
	if gpCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gpCode is required")
	}

	cacheKey := fmt.Sprintf("sites:gp:%s", strings.ToLower(gpCode))
	var cached models.Site
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	site, err := s.repo.FindByGPCode(ctx, gpCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "site not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load site")
	}

	if err := s.cache.Set(ctx, cacheKey, site, s.ttl); err != nil {
		s.logger.Warn("failed to cache site", zap.String("gp_code", gpCode), zap.Error(err))
	}
	return site, nil
}

// Search returns sites matching a code or name fragment.
func (s *SiteService) Search(ctx context.Context, query string, limit int) ([]models.Site, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("sites:q:%s:%d", strings.ToLower(query), limit)
	var cached []models.Site
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	sites, err := s.repo.Search(ctx, models.SiteFilter{Query: query, Limit: limit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search sites")
	}

	if err := s.cache.Set(ctx, cacheKey, sites, s.ttl); err != nil {
		s.logger.Warn("failed to cache site search", zap.String("query", query), zap.Error(err))
	}
	return sites, nil
}
