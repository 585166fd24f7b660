package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/worktrack-api/internal/models"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
	"github.com/fieldworks/worktrack-api/pkg/response"
)

type siteService interface {
	Lookup(ctx context.Context, gpCode string) (*models.Site, error)
	Search(ctx context.Context, query string, limit int) ([]models.Site, error)
}

// SiteHandler exposes GP site lookup endpoints.
type SiteHandler struct {
	service siteService
}

// NewSiteHandler constructs the handler.
func NewSiteHandler(service siteService) *SiteHandler {
	return &SiteHandler{service: service}
}

// Lookup godoc
// @Summary Lookup a GP site by code
// @Tags Sites
// @Produce json
// @Param gpCode path string true "GP code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sites/{gpCode} [get]
func (h *SiteHandler) Lookup(c *gin.Context) {
	site, err := h.service.Lookup(c.Request.Context(), c.Param("gpCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, site, nil)
}

// Search godoc
// @Summary Search GP sites
// @Description Substring search over GP code and name
// @Tags Sites
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Maximum results"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sites [get]
func (h *SiteHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "q is required"))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer"))
			return
		}
		limit = parsed
	}
	sites, err := h.service.Search(c.Request.Context(), query, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sites, nil)
}
