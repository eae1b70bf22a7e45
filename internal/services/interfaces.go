package services

import (
	"context"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// ProfileServiceInterface defines the profile accessor
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetOwnProfile(ctx context.Context, principal models.Principal) (*models.Profile, error)
	CreateProfile(ctx context.Context, principal models.Principal, req *models.CreateProfileRequest) (*models.Profile, error)
	UpdateProfile(ctx context.Context, principal models.Principal, req *models.UpdateProfileRequest) (*models.Profile, error)
	UploadAvatar(ctx context.Context, principal models.Principal, req *models.UploadAvatarRequest) (*models.UploadAvatarResponse, error)
	SetPresence(ctx context.Context, principal models.Principal, online bool) error
	SearchMentors(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error)
}

// MentorshipServiceInterface defines the relationship accessor
type MentorshipServiceInterface interface {
	ListRelationships(ctx context.Context, principal models.Principal, side models.Role) ([]models.RelationshipView, error)
	AddRelationship(ctx context.Context, principal models.Principal, counterpartID string) (*models.RelationshipView, error)
	SetRelationshipStatus(ctx context.Context, principal models.Principal, counterpartID string, status models.MentorshipStatus) (*models.RelationshipView, error)
}

// SessionServiceInterface defines the session accessor
type SessionServiceInterface interface {
	ListSessions(ctx context.Context, principal models.Principal, side models.Role) ([]models.SessionView, error)
	ListSessionsView(ctx context.Context, principal models.Principal, side models.Role, view string) ([]models.SessionView, error)
	CreateSession(ctx context.Context, principal models.Principal, req *models.CreateSessionRequest) (*models.Session, error)
	UpdateSession(ctx context.Context, principal models.Principal, side models.Role, sessionID string, req *models.UpdateSessionRequest) (*models.UpdateSessionResult, error)
	RateSession(ctx context.Context, principal models.Principal, sessionID string, req *models.RateSessionRequest) (*models.Rating, error)
}

// MessageServiceInterface defines the messaging accessor
type MessageServiceInterface interface {
	ListMessages(ctx context.Context, principal models.Principal) (*models.MessageList, error)
	UnreadCount(ctx context.Context, principal models.Principal) (int, error)
	MarkAsRead(ctx context.Context, principal models.Principal, messageID string) (bool, error)
	SendMessage(ctx context.Context, principal models.Principal, mentorshipID string, req *models.SendMessageRequest) (*models.Message, error)
}

// StatsServiceInterface defines the aggregate stats accessor
type StatsServiceInterface interface {
	ComputeStats(ctx context.Context, principal models.Principal, side models.Role) (*models.Stats, error)
}

// Ensure services implement their interfaces
var _ ProfileServiceInterface = (*ProfileService)(nil)
var _ MentorshipServiceInterface = (*MentorshipService)(nil)
var _ SessionServiceInterface = (*SessionService)(nil)
var _ MessageServiceInterface = (*MessageService)(nil)
var _ StatsServiceInterface = (*StatsService)(nil)
