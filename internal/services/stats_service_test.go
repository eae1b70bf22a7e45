package services_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func zeroRelationshipCounts() map[models.MentorshipStatus]int {
	out := map[models.MentorshipStatus]int{}
	for _, s := range models.AllMentorshipStatuses {
		out[s] = 0
	}
	return out
}

func newStatsService() (*services.StatsService, *MockStatsStore, *MockProfileStore) {
	stats := new(MockStatsStore)
	profiles := new(MockProfileStore)
	return services.NewStatsService(stats, profiles), stats, profiles
}

func TestComputeStats_EmptyPrincipal(t *testing.T) {
	svc, stats, profiles := newStatsService()
	stats.On("RelationshipCounts", mock.Anything, mentee.ID, models.RoleMentee).Return(zeroRelationshipCounts(), nil)
	stats.On("SessionAggregates", mock.Anything, mentee.ID, models.RoleMentee, mock.Anything).
		Return(&repository.SessionAggregate{Counts: map[models.SessionStatus]int{}}, nil)
	stats.On("RatingAggregate", mock.Anything, mentee.ID, models.RoleMentee).
		Return(&repository.RatingAggregate{Average: math.NaN(), Count: 0}, nil)
	profiles.On("GetByID", mock.Anything, mentee.ID).Return(nil, apperrors.NotFoundError("profile"))

	out, err := svc.ComputeStats(context.Background(), mentee, models.RoleMentee)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.CompletedHours)
	assert.Equal(t, 0.0, out.AverageRating)
	assert.False(t, math.IsNaN(out.AverageRating))
	assert.Equal(t, 0, out.ActiveMentorships)
	assert.Equal(t, models.DefaultSkills, out.TopSkills)
	assert.Nil(t, out.NextSessionAt)
	assert.Equal(t, models.RoleMentee, out.Role)
}

func TestComputeStats_Aggregates(t *testing.T) {
	svc, stats, profiles := newStatsService()
	next := time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	counts := zeroRelationshipCounts()
	counts[models.MentorshipActive] = 3
	counts[models.MentorshipPending] = 1

	stats.On("RelationshipCounts", mock.Anything, mentor.ID, models.RoleMentor).Return(counts, nil)
	stats.On("SessionAggregates", mock.Anything, mentor.ID, models.RoleMentor, mock.Anything).
		Return(&repository.SessionAggregate{
			Counts:           map[models.SessionStatus]int{models.SessionCompleted: 3, models.SessionScheduled: 2},
			CompletedMinutes: 135,
			Upcoming:         2,
			NextAt:           &next,
		}, nil)
	stats.On("RatingAggregate", mock.Anything, mentor.ID, models.RoleMentor).
		Return(&repository.RatingAggregate{Average: 13.0 / 3.0, Count: 3}, nil)
	profiles.On("GetByID", mock.Anything, mentor.ID).Return(&models.Profile{ID: mentor.ID, Specialty: "Go, , Kubernetes"}, nil)

	out, err := svc.ComputeStats(context.Background(), mentor, models.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, 3, out.ActiveMentorships)
	assert.Equal(t, 2.3, out.CompletedHours)
	assert.Equal(t, 4.3, out.AverageRating)
	assert.Equal(t, 3, out.RatingCount)
	assert.Equal(t, []string{"Go", "Kubernetes"}, out.TopSkills)
	assert.Equal(t, 2, out.UpcomingSessions)
	assert.Equal(t, &next, out.NextSessionAt)
}

func TestComputeStats_AnyFailureFailsAll(t *testing.T) {
	svc, stats, profiles := newStatsService()
	stats.On("RelationshipCounts", mock.Anything, mentor.ID, models.RoleMentor).Return(zeroRelationshipCounts(), nil).Maybe()
	stats.On("SessionAggregates", mock.Anything, mentor.ID, models.RoleMentor, mock.Anything).
		Return(nil, apperrors.QueryError("sessionAggregates", assert.AnError))
	stats.On("RatingAggregate", mock.Anything, mentor.ID, models.RoleMentor).
		Return(&repository.RatingAggregate{Average: 5, Count: 1}, nil).Maybe()
	profiles.On("GetByID", mock.Anything, mentor.ID).Return(&models.Profile{ID: mentor.ID}, nil).Maybe()

	out, err := svc.ComputeStats(context.Background(), mentor, models.RoleMentor)
	assert.Nil(t, out)
	assert.True(t, apperrors.Is(err, apperrors.ErrQuery))
}

func TestComputeStats_ProfileLookupFailureFailsAll(t *testing.T) {
	svc, stats, profiles := newStatsService()
	stats.On("RelationshipCounts", mock.Anything, mentor.ID, models.RoleMentor).Return(zeroRelationshipCounts(), nil).Maybe()
	stats.On("SessionAggregates", mock.Anything, mentor.ID, models.RoleMentor, mock.Anything).
		Return(&repository.SessionAggregate{Counts: map[models.SessionStatus]int{}}, nil).Maybe()
	stats.On("RatingAggregate", mock.Anything, mentor.ID, models.RoleMentor).
		Return(&repository.RatingAggregate{}, nil).Maybe()
	profiles.On("GetByID", mock.Anything, mentor.ID).Return(nil, apperrors.QueryError("getProfile", assert.AnError))

	_, err := svc.ComputeStats(context.Background(), mentor, models.RoleMentor)
	assert.True(t, apperrors.Is(err, apperrors.ErrQuery))
}

func TestComputeStats_Rejects(t *testing.T) {
	svc, _, _ := newStatsService()
	_, err := svc.ComputeStats(context.Background(), models.Principal{}, models.RoleMentor)
	assert.True(t, apperrors.Is(err, apperrors.ErrAuth))

	_, err = svc.ComputeStats(context.Background(), mentor, models.RoleBoth)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}
