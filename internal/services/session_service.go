package services

import (
	"context"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"go.uber.org/zap"
)

// SessionService implements the session accessor and session ratings
type SessionService struct {
	sessions    repository.SessionStore
	mentorships repository.MentorshipStore
	ratings     repository.RatingStore
	announcer   *Announcer
	now         func() time.Time
}

// NewSessionService creates a session service
func NewSessionService(
	sessions repository.SessionStore,
	mentorships repository.MentorshipStore,
	ratings repository.RatingStore,
	announcer *Announcer,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		mentorships: mentorships,
		ratings:     ratings,
		announcer:   announcer,
		now:         time.Now,
	}
}

// ListSessions returns the principal's sessions on side, soonest first
func (s *SessionService) ListSessions(ctx context.Context, principal models.Principal, side models.Role) ([]models.SessionView, error) {
	if err := requireSide(principal, side); err != nil {
		return nil, err
	}
	views, err := s.sessions.ListForRole(ctx, principal.ID, side)
	if err != nil {
		logger.Error("Failed to list sessions",
			zap.String("principal_id", principal.ID),
			zap.String("role", string(side)),
			zap.Error(err))
		return nil, err
	}
	return views, nil
}

// ListSessionsView lists sessions and applies the all|upcoming|previous selector
func (s *SessionService) ListSessionsView(ctx context.Context, principal models.Principal, side models.Role, view string) ([]models.SessionView, error) {
	switch view {
	case "", models.SessionViewAll, models.SessionViewUpcoming, models.SessionViewPrevious:
	default:
		return nil, apperrors.ValidationError("view", "must be all, upcoming or previous")
	}

	sessions, err := s.ListSessions(ctx, principal, side)
	if err != nil {
		return nil, err
	}
	switch view {
	case models.SessionViewUpcoming:
		return models.UpcomingSessions(sessions, s.now()), nil
	case models.SessionViewPrevious:
		return models.PreviousSessions(sessions), nil
	default:
		return sessions, nil
	}
}

// CreateSession schedules a session with the principal as mentor. The pair
// must have a relationship that is pending or active.
func (s *SessionService) CreateSession(ctx context.Context, principal models.Principal, req *models.CreateSessionRequest) (*models.Session, error) {
	if err := requireActingAs(principal, models.RoleMentor); err != nil {
		return nil, err
	}
	switch {
	case req.Title == "":
		return nil, apperrors.ValidationError("title", "is required")
	case req.ScheduledAt.IsZero():
		return nil, apperrors.ValidationError("scheduledAt", "is required")
	case req.Duration <= 0:
		return nil, apperrors.ValidationError("duration", "must be positive")
	case req.MenteeID == principal.ID:
		return nil, apperrors.ValidationError("menteeId", "cannot schedule with yourself")
	}

	m, err := s.mentorships.GetByPair(ctx, principal.ID, req.MenteeID)
	if err != nil {
		return nil, err
	}
	if m.Status.IsTerminalStatus() {
		return nil, apperrors.ValidationError("menteeId", "relationship is "+string(m.Status))
	}

	created, err := s.sessions.Create(ctx, &models.Session{
		MentorshipID: m.ID,
		MentorID:     principal.ID,
		MenteeID:     req.MenteeID,
		Title:        req.Title,
		Description:  sanitizeText(req.Description),
		ScheduledAt:  req.ScheduledAt.UTC(),
		Duration:     req.Duration,
	})
	if err != nil {
		metrics.SessionOperations.WithLabelValues("create", "error").Inc()
		logger.Error("Failed to create session", zap.String("mentor_id", principal.ID), zap.Error(err))
		s.announcer.Failure(ctx, principal, "Session not scheduled", err)
		return nil, err
	}

	metrics.SessionOperations.WithLabelValues("create", "success").Inc()
	logger.Info("Session scheduled",
		zap.String("session_id", created.ID),
		zap.String("mentor_id", created.MentorID),
		zap.Time("scheduled_at", created.ScheduledAt))

	s.announcer.Notify(ctx, created.MenteeID, realtime.Notification{
		Title:       "Session scheduled",
		Description: created.Title + " on " + created.ScheduledAt.Format(time.RFC1123),
		Variant:     realtime.VariantSuccess,
	})
	s.announcer.SessionCreated(created.ID, principal.ID)
	return created, nil
}

// UpdateSession writes req to a session the principal owns on side. A session
// that is missing or owned by someone else reports Updated=false, not an error.
func (s *SessionService) UpdateSession(ctx context.Context, principal models.Principal, side models.Role, sessionID string, req *models.UpdateSessionRequest) (*models.UpdateSessionResult, error) {
	if err := requireSide(principal, side); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, apperrors.ValidationError("status", "unknown session status")
	}
	if req.Duration != nil && *req.Duration <= 0 {
		return nil, apperrors.ValidationError("duration", "must be positive")
	}

	in := *req
	if in.Description != nil {
		d := sanitizeText(*in.Description)
		in.Description = &d
	}

	updated, ok, err := s.sessions.Update(ctx, principal.ID, side, sessionID, &in)
	if err != nil {
		metrics.SessionOperations.WithLabelValues("update", "error").Inc()
		logger.Error("Failed to update session", zap.String("session_id", sessionID), zap.Error(err))
		s.announcer.Failure(ctx, principal, "Session not updated", err)
		return nil, err
	}
	if !ok {
		metrics.SessionOperations.WithLabelValues("update", "noop").Inc()
		logger.Debug("Session update matched no owned row",
			zap.String("session_id", sessionID),
			zap.String("principal_id", principal.ID))
		return &models.UpdateSessionResult{Updated: false}, nil
	}

	metrics.SessionOperations.WithLabelValues("update", "success").Inc()
	counterpart := updated.MenteeID
	if side == models.RoleMentee {
		counterpart = updated.MentorID
	}
	s.announcer.Notify(ctx, counterpart, realtime.Notification{
		Title:       "Session updated",
		Description: updated.Title,
	})
	return &models.UpdateSessionResult{Updated: true, Session: updated}, nil
}

// RateSession records the mentee's rating of a completed session. Each
// session can be rated once.
func (s *SessionService) RateSession(ctx context.Context, principal models.Principal, sessionID string, req *models.RateSessionRequest) (*models.Rating, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.ValidationError("rating", "must be between 1 and 5")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.MenteeID != principal.ID {
		return nil, apperrors.NotFoundError("session")
	}
	if session.Status != models.SessionCompleted {
		return nil, apperrors.ValidationError("session", "only completed sessions can be rated")
	}

	rating, err := s.ratings.Create(ctx, session.ID, req.Rating, sanitizeText(req.Review))
	if err != nil {
		metrics.RatingsSubmitted.WithLabelValues("error").Inc()
		logger.Error("Failed to rate session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	metrics.RatingsSubmitted.WithLabelValues("success").Inc()
	logger.Info("Session rated", zap.String("session_id", sessionID), zap.Int("rating", rating.Rating))
	s.announcer.Notify(ctx, session.MentorID, realtime.Notification{
		Title:       "New rating",
		Description: session.Title,
	})
	return rating, nil
}
