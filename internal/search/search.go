package search

import (
	"context"
	"html"
	"strings"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Backend is one implementation of the mentor directory
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error)
	IndexProfile(ctx context.Context, p *models.Profile) error
	Remove(ctx context.Context, profileID string) error
}

// Directory searches mentors on the primary backend and falls back to the
// secondary one when the primary fails. Index writes go to the primary only.
type Directory struct {
	primary  Backend
	fallback Backend
}

// NewDirectory creates a directory. primary may be nil, in which case every
// call is served by fallback.
func NewDirectory(primary, fallback Backend) *Directory {
	return &Directory{primary: primary, fallback: fallback}
}

// Search returns at most limit mentors matching query
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error) {
	query = strings.TrimSpace(query)
	if d.primary != nil {
		res, err := d.primary.Search(ctx, query, limit)
		metrics.SearchRequestTotal.WithLabelValues("search", d.primary.Name(), metrics.Status(err)).Inc()
		if err == nil {
			return res, nil
		}
		logger.Warn("Primary search backend failed, using fallback",
			zap.String("backend", d.primary.Name()),
			zap.Error(err))
	}

	res, err := d.fallback.Search(ctx, query, limit)
	metrics.SearchRequestTotal.WithLabelValues("search", d.fallback.Name(), metrics.Status(err)).Inc()
	return res, err
}

// IndexProfile adds or replaces a profile in the index. Profiles that can no
// longer mentor are removed instead.
func (d *Directory) IndexProfile(ctx context.Context, p *models.Profile) error {
	if d.primary == nil {
		return nil
	}
	var err error
	op := "index"
	if p.Role.Includes(models.RoleMentor) {
		err = d.primary.IndexProfile(ctx, p)
	} else {
		op = "remove"
		err = d.primary.Remove(ctx, p.ID)
	}
	metrics.SearchRequestTotal.WithLabelValues(op, d.primary.Name(), metrics.Status(err)).Inc()
	if err != nil {
		logger.Error("Failed to update search index", zap.String("profile_id", p.ID), zap.Error(err))
	}
	return err
}

// Reindex pushes every profile to the primary backend
func (d *Directory) Reindex(ctx context.Context, profiles []*models.Profile) error {
	for _, p := range profiles {
		if err := d.IndexProfile(ctx, p); err != nil {
			return err
		}
	}
	logger.Info("Search index rebuilt", zap.Int("count", len(profiles)))
	return nil
}

var sanitizer = bluemonday.StrictPolicy()

// cleanText strips markup from user-written text before it is indexed
func cleanText(s string) string {
	s = strings.NewReplacer("</p>", " ", "<br>", " ", "<br/>", " ", "</div>", " ").Replace(s)
	s = html.UnescapeString(sanitizer.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// resultFromProfile builds the directory entry of a profile
func resultFromProfile(p *models.Profile) models.MentorSearchResult {
	return models.MentorSearchResult{
		ProfileSummary:  p.Summary(),
		Bio:             cleanText(p.Bio),
		YearsExperience: p.YearsExperience,
		Skills:          p.Skills(),
	}
}
