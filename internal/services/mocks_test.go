package services_test

import (
	"context"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore is a mock implementation of repository.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) GetRole(ctx context.Context, id string) (models.Role, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *MockProfileStore) Create(ctx context.Context, id string, req *models.CreateProfileRequest) (*models.Profile, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) Update(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) SetAvatar(ctx context.Context, id, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockProfileStore) SetPresence(ctx context.Context, id string, online bool) error {
	args := m.Called(ctx, id, online)
	return args.Error(0)
}

func (m *MockProfileStore) SearchMentors(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

func (m *MockProfileStore) ListMentors(ctx context.Context) ([]*models.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

// MockMentorshipStore is a mock implementation of repository.MentorshipStore
type MockMentorshipStore struct {
	mock.Mock
}

func (m *MockMentorshipStore) ListForRole(ctx context.Context, principalID string, side models.Role, includePending bool) ([]models.RelationshipView, error) {
	args := m.Called(ctx, principalID, side, includePending)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RelationshipView), args.Error(1)
}

func (m *MockMentorshipStore) GetView(ctx context.Context, principalID string, side models.Role, mentorshipID string) (*models.RelationshipView, error) {
	args := m.Called(ctx, principalID, side, mentorshipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RelationshipView), args.Error(1)
}

func (m *MockMentorshipStore) GetByID(ctx context.Context, id string) (*models.Mentorship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentorship), args.Error(1)
}

func (m *MockMentorshipStore) GetByPair(ctx context.Context, mentorID, menteeID string) (*models.Mentorship, error) {
	args := m.Called(ctx, mentorID, menteeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentorship), args.Error(1)
}

func (m *MockMentorshipStore) ListInvolving(ctx context.Context, principalID string) ([]models.Mentorship, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Mentorship), args.Error(1)
}

func (m *MockMentorshipStore) Create(ctx context.Context, mentorID, menteeID string) (*models.Mentorship, error) {
	args := m.Called(ctx, mentorID, menteeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentorship), args.Error(1)
}

func (m *MockMentorshipStore) UpdateStatus(ctx context.Context, id string, from, to models.MentorshipStatus) (*models.Mentorship, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentorship), args.Error(1)
}

// MockSessionStore is a mock implementation of repository.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) ListForRole(ctx context.Context, principalID string, side models.Role) ([]models.SessionView, error) {
	args := m.Called(ctx, principalID, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionView), args.Error(1)
}

func (m *MockSessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) Create(ctx context.Context, in *models.Session) (*models.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) Update(ctx context.Context, principalID string, side models.Role, id string, req *models.UpdateSessionRequest) (*models.Session, bool, error) {
	args := m.Called(ctx, principalID, side, id, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Session), args.Bool(1), args.Error(2)
}

// MockRatingStore is a mock implementation of repository.RatingStore
type MockRatingStore struct {
	mock.Mock
}

func (m *MockRatingStore) Create(ctx context.Context, sessionID string, score int, review string) (*models.Rating, error) {
	args := m.Called(ctx, sessionID, score, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

// MockMessageStore is a mock implementation of repository.MessageStore
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) ListForPrincipal(ctx context.Context, principalID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, principalID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageStore) CountUnread(ctx context.Context, principalID string) (int, error) {
	args := m.Called(ctx, principalID)
	return args.Int(0), args.Error(1)
}

func (m *MockMessageStore) MarkRead(ctx context.Context, principalID, messageID string) (bool, error) {
	args := m.Called(ctx, principalID, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageStore) EnsureConversation(ctx context.Context, mentorshipID string) (*models.Conversation, error) {
	args := m.Called(ctx, mentorshipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockMessageStore) Create(ctx context.Context, id, conversationID, senderID, content string) (*models.Message, error) {
	args := m.Called(ctx, id, conversationID, senderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageStore) ConversationParticipants(ctx context.Context, conversationID string) (string, string, error) {
	args := m.Called(ctx, conversationID)
	return args.String(0), args.String(1), args.Error(2)
}

// MockStatsStore is a mock implementation of repository.StatsStore
type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) RelationshipCounts(ctx context.Context, principalID string, side models.Role) (map[models.MentorshipStatus]int, error) {
	args := m.Called(ctx, principalID, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.MentorshipStatus]int), args.Error(1)
}

func (m *MockStatsStore) SessionAggregates(ctx context.Context, principalID string, side models.Role, now time.Time) (*repository.SessionAggregate, error) {
	args := m.Called(ctx, principalID, side, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SessionAggregate), args.Error(1)
}

func (m *MockStatsStore) RatingAggregate(ctx context.Context, principalID string, side models.Role) (*repository.RatingAggregate, error) {
	args := m.Called(ctx, principalID, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RatingAggregate), args.Error(1)
}

// MockAvatarStorage is a mock implementation of services.AvatarStorage
type MockAvatarStorage struct {
	mock.Mock
}

func (m *MockAvatarStorage) UploadImage(ctx context.Context, imageData, key, contentType string) (string, error) {
	args := m.Called(ctx, imageData, key, contentType)
	return args.String(0), args.Error(1)
}

// MockDirectory is a mock implementation of services.MentorDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Search(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MentorSearchResult), args.Error(1)
}

func (m *MockDirectory) IndexProfile(ctx context.Context, p *models.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
