package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMessageService() (*services.MessageService, *MockMessageStore, *MockMentorshipStore) {
	messages := new(MockMessageStore)
	mentorships := new(MockMentorshipStore)
	svc := services.NewMessageService(messages, mentorships, newAnnouncer(newRecordingNotifier()), 20)
	return svc, messages, mentorships
}

func TestListMessages(t *testing.T) {
	svc, messages, _ := newMessageService()
	messages.On("ListForPrincipal", mock.Anything, mentee.ID, 20).Return([]models.Message{
		{ID: "msg-1", SenderID: mentor.ID, Content: "Hello"},
	}, nil)
	messages.On("CountUnread", mock.Anything, mentee.ID).Return(1, nil)

	list, err := svc.ListMessages(context.Background(), mentee)
	require.NoError(t, err)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, "Hello", list.Messages[0].Content)
	assert.Equal(t, 1, list.UnreadCount)
}

func TestListMessages_AllOrNothing(t *testing.T) {
	svc, messages, _ := newMessageService()
	messages.On("ListForPrincipal", mock.Anything, mentee.ID, 20).Return([]models.Message{{ID: "msg-1"}}, nil)
	messages.On("CountUnread", mock.Anything, mentee.ID).Return(0, apperrors.QueryError("countUnread", assert.AnError))

	list, err := svc.ListMessages(context.Background(), mentee)
	assert.Nil(t, list)
	assert.True(t, apperrors.Is(err, apperrors.ErrQuery))
}

func TestListMessages_RequiresPrincipal(t *testing.T) {
	svc, _, _ := newMessageService()
	_, err := svc.ListMessages(context.Background(), models.Principal{})
	assert.True(t, apperrors.Is(err, apperrors.ErrAuth))
}

func TestMarkAsRead_Idempotent(t *testing.T) {
	svc, messages, _ := newMessageService()
	messages.On("MarkRead", mock.Anything, mentee.ID, "msg-1").Return(true, nil).Once()
	messages.On("MarkRead", mock.Anything, mentee.ID, "msg-1").Return(false, nil).Once()

	changed, err := svc.MarkAsRead(context.Background(), mentee, "msg-1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.MarkAsRead(context.Background(), mentee, "msg-1")
	require.NoError(t, err)
	assert.False(t, changed)
	messages.AssertExpectations(t)
}

// A mentor sends "Hello"; the mentee then sees one unread message and
// reading it twice leaves the count at zero.
func TestHelloScenario(t *testing.T) {
	svc, messages, mentorships := newMessageService()
	mentorships.On("GetByID", mock.Anything, "m-1").Return(pairing(models.MentorshipActive), nil)
	messages.On("EnsureConversation", mock.Anything, "m-1").Return(&models.Conversation{ID: "c-1", MentorshipID: "m-1"}, nil)
	messages.On("Create", mock.Anything, "", "c-1", mentor.ID, "Hello").
		Return(&models.Message{ID: "msg-1", ConversationID: "c-1", MentorshipID: "m-1", SenderID: mentor.ID, Content: "Hello"}, nil)

	sent, err := svc.SendMessage(context.Background(), mentor, "m-1", &models.SendMessageRequest{Content: "Hello"})
	require.NoError(t, err)
	assert.False(t, sent.IsRead)

	messages.On("CountUnread", mock.Anything, mentee.ID).Return(1, nil).Once()
	unread, err := svc.UnreadCount(context.Background(), mentee)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	messages.On("MarkRead", mock.Anything, mentee.ID, "msg-1").Return(true, nil).Once()
	messages.On("MarkRead", mock.Anything, mentee.ID, "msg-1").Return(false, nil).Once()
	_, err = svc.MarkAsRead(context.Background(), mentee, "msg-1")
	require.NoError(t, err)
	_, err = svc.MarkAsRead(context.Background(), mentee, "msg-1")
	require.NoError(t, err)

	messages.On("CountUnread", mock.Anything, mentee.ID).Return(0, nil).Once()
	unread, err = svc.UnreadCount(context.Background(), mentee)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestSendMessage_SanitizesAndKeepsID(t *testing.T) {
	svc, messages, mentorships := newMessageService()
	mentorships.On("GetByID", mock.Anything, "m-1").Return(pairing(models.MentorshipActive), nil)
	messages.On("EnsureConversation", mock.Anything, "m-1").Return(&models.Conversation{ID: "c-1"}, nil)
	messages.On("Create", mock.Anything, "client-id", "c-1", mentee.ID, "hi there").
		Return(&models.Message{ID: "client-id", SenderID: mentee.ID, Content: "hi there"}, nil)

	msg, err := svc.SendMessage(context.Background(), mentee, "m-1", &models.SendMessageRequest{
		ID:      "client-id",
		Content: "  <img src=x onerror=alert(1)>hi there ",
	})
	require.NoError(t, err)
	assert.Equal(t, "client-id", msg.ID)
	messages.AssertExpectations(t)
}

func TestSendMessage_Rejects(t *testing.T) {
	t.Run("empty after sanitizing", func(t *testing.T) {
		svc, messages, _ := newMessageService()
		_, err := svc.SendMessage(context.Background(), mentor, "m-1", &models.SendMessageRequest{Content: "  <b></b> "})
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
		messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too long", func(t *testing.T) {
		svc, _, _ := newMessageService()
		_, err := svc.SendMessage(context.Background(), mentor, "m-1", &models.SendMessageRequest{Content: strings.Repeat("a", 4001)})
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})

	t.Run("not a participant", func(t *testing.T) {
		svc, messages, mentorships := newMessageService()
		mentorships.On("GetByID", mock.Anything, "m-1").Return(pairing(models.MentorshipActive), nil)
		_, err := svc.SendMessage(context.Background(), both, "m-1", &models.SendMessageRequest{Content: "hi"})
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
		messages.AssertNotCalled(t, "EnsureConversation", mock.Anything, mock.Anything)
	})

	t.Run("reused id", func(t *testing.T) {
		svc, messages, mentorships := newMessageService()
		mentorships.On("GetByID", mock.Anything, "m-1").Return(pairing(models.MentorshipActive), nil)
		messages.On("EnsureConversation", mock.Anything, "m-1").Return(&models.Conversation{ID: "c-1"}, nil)
		messages.On("Create", mock.Anything, "dup", "c-1", mentor.ID, "hi").Return(nil, apperrors.ConflictError("message id already used"))
		_, err := svc.SendMessage(context.Background(), mentor, "m-1", &models.SendMessageRequest{ID: "dup", Content: "hi"})
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})
}
