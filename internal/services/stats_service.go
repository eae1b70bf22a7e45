package services

import (
	"context"
	"math"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"github.com/mentorconnect/mentorconnect-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StatsService computes the dashboard summary
type StatsService struct {
	stats    repository.StatsStore
	profiles repository.ProfileStore
	now      func() time.Time
}

// NewStatsService creates a stats service
func NewStatsService(stats repository.StatsStore, profiles repository.ProfileStore) *StatsService {
	return &StatsService{stats: stats, profiles: profiles, now: time.Now}
}

// ComputeStats runs the aggregate queries concurrently. Any failure fails
// the whole computation; no partial summary is returned.
func (s *StatsService) ComputeStats(ctx context.Context, principal models.Principal, side models.Role) (out *models.Stats, err error) {
	if err := requireSide(principal, side); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "stats.compute",
		attribute.String("principal.id", principal.ID),
		attribute.String("principal.side", string(side)))
	defer func() {
		tracing.EndSpan(span, err)
		metrics.StatsComputations.WithLabelValues(string(side), metrics.Status(err)).Observe(metrics.MeasureDuration(start))
	}()

	var (
		relationships map[models.MentorshipStatus]int
		sessions      *repository.SessionAggregate
		ratings       *repository.RatingAggregate
		skills        []string
	)
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		relationships, err = s.stats.RelationshipCounts(gctx, principal.ID, side)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = s.stats.SessionAggregates(gctx, principal.ID, side, now)
		return err
	})
	g.Go(func() error {
		var err error
		ratings, err = s.stats.RatingAggregate(gctx, principal.ID, side)
		return err
	})
	g.Go(func() error {
		p, err := s.profiles.GetByID(gctx, principal.ID)
		switch {
		case err == nil:
			skills = p.Skills()
		case apperrors.Is(err, apperrors.ErrNotFound):
			skills = models.SplitSkills("")
		default:
			return err
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		logger.Error("Failed to compute stats",
			zap.String("principal_id", principal.ID),
			zap.String("role", string(side)),
			zap.Error(err))
		return nil, err
	}

	return buildStats(side, relationships, sessions, ratings, skills), nil
}

func buildStats(
	side models.Role,
	relationships map[models.MentorshipStatus]int,
	sessions *repository.SessionAggregate,
	ratings *repository.RatingAggregate,
	skills []string,
) *models.Stats {
	avg := 0.0
	if ratings.Count > 0 && !math.IsNaN(ratings.Average) {
		avg = models.RoundTenth(ratings.Average)
	}

	return &models.Stats{
		Role:               side,
		RelationshipCounts: relationships,
		SessionCounts:      sessions.Counts,
		ActiveMentorships:  relationships[models.MentorshipActive],
		CompletedHours:     models.RoundTenth(float64(sessions.CompletedMinutes) / 60),
		AverageRating:      avg,
		RatingCount:        ratings.Count,
		TopSkills:          skills,
		UpcomingSessions:   sessions.Upcoming,
		NextSessionAt:      sessions.NextAt,
	}
}
