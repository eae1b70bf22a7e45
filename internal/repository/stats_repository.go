package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// StatsRepository runs the aggregate queries behind the dashboard summary
type StatsRepository struct {
	db DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// SessionAggregate is the session side of the summary
type SessionAggregate struct {
	Counts           map[models.SessionStatus]int
	CompletedMinutes int
	Upcoming         int
	NextAt           *time.Time
}

// RatingAggregate is the rating side of the summary. Average is 0 when Count is 0.
type RatingAggregate struct {
	Average float64
	Count   int
}

// RelationshipCounts counts pairings by status where principalID occupies side.
// Every known status is present in the result.
func (r *StatsRepository) RelationshipCounts(ctx context.Context, principalID string, side models.Role) (map[models.MentorshipStatus]int, error) {
	start := time.Now()
	op := "statsRelationships"

	own, _ := sideColumns(side)
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT status, COUNT(*) FROM mentorships WHERE %s = $1 GROUP BY status`, own),
		principalID)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "stats", err)
	}
	defer rows.Close()

	counts := make(map[models.MentorshipStatus]int, len(models.AllMentorshipStatuses))
	for _, s := range models.AllMentorshipStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			observe(op, start, err)
			return nil, mapError(op, "stats", err)
		}
		counts[models.MentorshipStatus(status)] = n
	}
	err = rows.Err()
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "stats", err)
	}
	return counts, nil
}

// SessionAggregates counts sessions by status, sums completed minutes and
// finds the next scheduled session after now.
func (r *StatsRepository) SessionAggregates(ctx context.Context, principalID string, side models.Role, now time.Time) (*SessionAggregate, error) {
	start := time.Now()
	op := "statsSessions"

	own, _ := sideColumns(side)
	agg := &SessionAggregate{Counts: map[models.SessionStatus]int{
		models.SessionScheduled: 0,
		models.SessionCompleted: 0,
		models.SessionCancelled: 0,
	}}

	var scheduled, completed, cancelled int
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(duration) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'scheduled' AND scheduled_at > $2),
			MIN(scheduled_at) FILTER (WHERE status = 'scheduled' AND scheduled_at > $2)
		FROM sessions
		WHERE %s = $1`, own), principalID, now,
	).Scan(&scheduled, &completed, &cancelled, &agg.CompletedMinutes, &agg.Upcoming, &agg.NextAt)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "stats", err)
	}

	agg.Counts[models.SessionScheduled] = scheduled
	agg.Counts[models.SessionCompleted] = completed
	agg.Counts[models.SessionCancelled] = cancelled
	return agg, nil
}

// RatingAggregate averages the ratings of sessions where principalID occupies side
func (r *StatsRepository) RatingAggregate(ctx context.Context, principalID string, side models.Role) (*RatingAggregate, error) {
	start := time.Now()
	op := "statsRatings"

	own, _ := sideColumns(side)
	var agg RatingAggregate
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT COALESCE(AVG(r.rating), 0)::float8, COUNT(r.id)
		FROM ratings r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.%s = $1`, own), principalID,
	).Scan(&agg.Average, &agg.Count)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "stats", err)
	}
	return &agg, nil
}
