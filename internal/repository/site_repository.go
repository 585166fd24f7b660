package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// SiteRepository reads the GP site reference dataset.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository constructs the repository.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// FindByGPCode returns a site by its exact GP code.
func (r *SiteRepository) FindByGPCode(ctx context.Context, gpCode string) (*models.Site, error) {
	const query = `SELECT id, gp_code, name, block, district, ring_name, latitude, longitude, created_at FROM sites WHERE gp_code = $1 LIMIT 1`
	var site models.Site
	if err := r.db.GetContext(ctx, &site, query, gpCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find site by gp code: %w", err)
	}
	return &site, nil
}

// Search performs a case-insensitive substring lookup over GP code and
// site name.
func (r *SiteRepository) Search(ctx context.Context, filter models.SiteFilter) ([]models.Site, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	const query = `SELECT id, gp_code, name, block, district, ring_name, latitude, longitude, created_at FROM sites
WHERE LOWER(gp_code) LIKE $1 OR LOWER(name) LIKE $1 ORDER BY gp_code LIMIT $2`
	pattern := "%" + strings.ToLower(filter.Query) + "%"
	var sites []models.Site
	if err := r.db.SelectContext(ctx, &sites, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("search sites: %w", err)
	}
	return sites, nil
}
