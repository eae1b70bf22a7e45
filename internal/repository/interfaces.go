package repository

import (
	"context"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// ProfileStore defines profile persistence
type ProfileStore interface {
	// GetByID fetches one profile
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// GetRole fetches only the role column, used when resolving the principal
	GetRole(ctx context.Context, id string) (models.Role, error)

	// Create inserts the profile of a newly registered principal
	Create(ctx context.Context, id string, req *models.CreateProfileRequest) (*models.Profile, error)

	// Update applies a partial update and returns the stored profile
	Update(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.Profile, error)

	// SetAvatar stores the public URL of an uploaded avatar
	SetAvatar(ctx context.Context, id, url string) error

	// SetPresence flips is_online and stamps last_seen
	SetPresence(ctx context.Context, id string, online bool) error

	// SearchMentors matches mentor profiles by name, specialty or bio
	SearchMentors(ctx context.Context, query string, limit int) ([]*models.Profile, error)

	// ListMentors returns every profile that can act as a mentor
	ListMentors(ctx context.Context) ([]*models.Profile, error)
}

// MentorshipStore defines relationship persistence
type MentorshipStore interface {
	ListForRole(ctx context.Context, principalID string, side models.Role, includePending bool) ([]models.RelationshipView, error)
	GetView(ctx context.Context, principalID string, side models.Role, mentorshipID string) (*models.RelationshipView, error)
	GetByID(ctx context.Context, id string) (*models.Mentorship, error)
	GetByPair(ctx context.Context, mentorID, menteeID string) (*models.Mentorship, error)
	ListInvolving(ctx context.Context, principalID string) ([]models.Mentorship, error)
	Create(ctx context.Context, mentorID, menteeID string) (*models.Mentorship, error)
	UpdateStatus(ctx context.Context, id string, from, to models.MentorshipStatus) (*models.Mentorship, error)
}

// SessionStore defines session persistence
type SessionStore interface {
	ListForRole(ctx context.Context, principalID string, side models.Role) ([]models.SessionView, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, in *models.Session) (*models.Session, error)
	Update(ctx context.Context, principalID string, side models.Role, id string, req *models.UpdateSessionRequest) (*models.Session, bool, error)
}

// RatingStore defines rating persistence
type RatingStore interface {
	Create(ctx context.Context, sessionID string, score int, review string) (*models.Rating, error)
}

// MessageStore defines conversation and message persistence
type MessageStore interface {
	ListForPrincipal(ctx context.Context, principalID string, limit int) ([]models.Message, error)
	CountUnread(ctx context.Context, principalID string) (int, error)
	MarkRead(ctx context.Context, principalID, messageID string) (bool, error)
	EnsureConversation(ctx context.Context, mentorshipID string) (*models.Conversation, error)
	Create(ctx context.Context, id, conversationID, senderID, content string) (*models.Message, error)
	ConversationParticipants(ctx context.Context, conversationID string) (mentorID, menteeID string, err error)
}

// StatsStore defines the aggregate queries of the dashboard
type StatsStore interface {
	RelationshipCounts(ctx context.Context, principalID string, side models.Role) (map[models.MentorshipStatus]int, error)
	SessionAggregates(ctx context.Context, principalID string, side models.Role, now time.Time) (*SessionAggregate, error)
	RatingAggregate(ctx context.Context, principalID string, side models.Role) (*RatingAggregate, error)
}

var (
	_ ProfileStore    = (*ProfileRepository)(nil)
	_ MentorshipStore = (*MentorshipRepository)(nil)
	_ SessionStore    = (*SessionRepository)(nil)
	_ RatingStore     = (*RatingRepository)(nil)
	_ MessageStore    = (*MessageRepository)(nil)
	_ StatsStore      = (*StatsRepository)(nil)
)
