package services

import (
	"context"
	"fmt"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"go.uber.org/zap"
)

// MentorshipService implements the relationship accessor
type MentorshipService struct {
	mentorships       repository.MentorshipStore
	profiles          repository.ProfileStore
	announcer         *Announcer
	menteeSeesPending bool
}

// NewMentorshipService creates a relationship service. menteeSeesPending
// controls whether mentees list pairings the mentor has not confirmed yet.
func NewMentorshipService(
	mentorships repository.MentorshipStore,
	profiles repository.ProfileStore,
	announcer *Announcer,
	menteeSeesPending bool,
) *MentorshipService {
	return &MentorshipService{
		mentorships:       mentorships,
		profiles:          profiles,
		announcer:         announcer,
		menteeSeesPending: menteeSeesPending,
	}
}

// ListRelationships returns the pairings where the principal occupies side
func (s *MentorshipService) ListRelationships(ctx context.Context, principal models.Principal, side models.Role) ([]models.RelationshipView, error) {
	if err := requireSide(principal, side); err != nil {
		return nil, err
	}

	includePending := side == models.RoleMentor || s.menteeSeesPending
	views, err := s.mentorships.ListForRole(ctx, principal.ID, side, includePending)
	if err != nil {
		logger.Error("Failed to list relationships",
			zap.String("principal_id", principal.ID),
			zap.String("role", string(side)),
			zap.Error(err))
		return nil, err
	}
	return views, nil
}

// AddRelationship opens a pending pairing with the principal as mentor
func (s *MentorshipService) AddRelationship(ctx context.Context, principal models.Principal, counterpartID string) (*models.RelationshipView, error) {
	if err := requireActingAs(principal, models.RoleMentor); err != nil {
		return nil, err
	}
	if counterpartID == principal.ID {
		return nil, apperrors.ValidationError("counterpartId", "cannot pair with yourself")
	}

	counterpart, err := s.profiles.GetByID(ctx, counterpartID)
	if err != nil {
		return nil, err
	}

	m, err := s.mentorships.Create(ctx, principal.ID, counterpart.ID)
	if err != nil {
		metrics.RelationshipOperations.WithLabelValues("add", "error").Inc()
		logger.Error("Failed to add relationship",
			zap.String("mentor_id", principal.ID),
			zap.String("mentee_id", counterpartID),
			zap.Error(err))
		s.announcer.Failure(ctx, principal, "Request not sent", err)
		return nil, err
	}

	metrics.RelationshipOperations.WithLabelValues("add", "success").Inc()
	logger.Info("Relationship requested", zap.String("mentorship_id", m.ID), zap.String("mentor_id", principal.ID))

	s.announcer.Notify(ctx, counterpart.ID, realtime.Notification{
		Title:       "New mentorship request",
		Description: "Someone wants to mentor you.",
	})
	s.announcer.RelationshipChanged(m.ID, principal.ID)

	return s.viewOrBare(ctx, principal, m, counterpart.Summary()), nil
}

// SetRelationshipStatus moves the pairing with counterpartID to status.
// Writing the current status again succeeds without a write.
func (s *MentorshipService) SetRelationshipStatus(ctx context.Context, principal models.Principal, counterpartID string, status models.MentorshipStatus) (*models.RelationshipView, error) {
	if err := requireActingAs(principal, models.RoleMentor); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, apperrors.ValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	m, err := s.mentorships.GetByPair(ctx, principal.ID, counterpartID)
	if err != nil {
		return nil, err
	}

	if m.Status == status {
		return s.view(ctx, principal, m.ID)
	}
	if !m.Status.CanTransitionTo(status) {
		metrics.RelationshipOperations.WithLabelValues("set_status", "rejected").Inc()
		return nil, apperrors.InvalidTransitionError(string(m.Status), string(status))
	}

	updated, err := s.mentorships.UpdateStatus(ctx, m.ID, m.Status, status)
	if err != nil {
		metrics.RelationshipOperations.WithLabelValues("set_status", "error").Inc()
		logger.Error("Failed to update relationship status",
			zap.String("mentorship_id", m.ID),
			zap.String("from", string(m.Status)),
			zap.String("to", string(status)),
			zap.Error(err))
		s.announcer.Failure(ctx, principal, "Status not updated", err)
		return nil, err
	}

	metrics.RelationshipOperations.WithLabelValues("set_status", "success").Inc()
	logger.Info("Relationship status changed",
		zap.String("mentorship_id", updated.ID),
		zap.String("from", string(m.Status)),
		zap.String("to", string(updated.Status)))

	note := statusNotification(updated.Status)
	s.announcer.Notify(ctx, updated.MentorID, note)
	s.announcer.Notify(ctx, updated.MenteeID, note)
	s.announcer.RelationshipChanged(updated.ID, principal.ID)

	return s.view(ctx, principal, updated.ID)
}

func (s *MentorshipService) view(ctx context.Context, principal models.Principal, mentorshipID string) (*models.RelationshipView, error) {
	return s.mentorships.GetView(ctx, principal.ID, models.RoleMentor, mentorshipID)
}

// viewOrBare re-reads the joined view; the write already succeeded, so a
// failed read falls back to the row and counterpart at hand.
func (s *MentorshipService) viewOrBare(ctx context.Context, principal models.Principal, m *models.Mentorship, counterpart models.ProfileSummary) *models.RelationshipView {
	v, err := s.view(ctx, principal, m.ID)
	if err == nil {
		return v
	}
	logger.Warn("Failed to load relationship view after write", zap.String("mentorship_id", m.ID), zap.Error(err))
	return &models.RelationshipView{Mentorship: *m, Counterpart: counterpart}
}

func statusNotification(status models.MentorshipStatus) realtime.Notification {
	switch status {
	case models.MentorshipActive:
		return realtime.Notification{Title: "Mentorship accepted", Description: "The mentorship is now active.", Variant: realtime.VariantSuccess}
	case models.MentorshipRejected:
		return realtime.Notification{Title: "Mentorship declined", Description: "The request was declined."}
	case models.MentorshipCompleted:
		return realtime.Notification{Title: "Mentorship completed", Description: "The mentorship has been marked complete.", Variant: realtime.VariantSuccess}
	case models.MentorshipCancelled:
		return realtime.Notification{Title: "Mentorship cancelled", Description: "The mentorship was cancelled."}
	default:
		return realtime.Notification{Title: "Mentorship updated", Description: "Status: " + string(status)}
	}
}
