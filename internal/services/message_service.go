package services

import (
	"context"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxMessageLength = 4000

// MessageService implements the messaging accessor
type MessageService struct {
	messages    repository.MessageStore
	mentorships repository.MentorshipStore
	announcer   *Announcer
	pageSize    int
}

// NewMessageService creates a messaging service that lists pageSize messages
func NewMessageService(
	messages repository.MessageStore,
	mentorships repository.MentorshipStore,
	announcer *Announcer,
	pageSize int,
) *MessageService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &MessageService{
		messages:    messages,
		mentorships: mentorships,
		announcer:   announcer,
		pageSize:    pageSize,
	}
}

// ListMessages returns the newest messages across the principal's
// relationships together with the unread count
func (s *MessageService) ListMessages(ctx context.Context, principal models.Principal) (*models.MessageList, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	var list models.MessageList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		msgs, err := s.messages.ListForPrincipal(gctx, principal.ID, s.pageSize)
		list.Messages = msgs
		return err
	})
	g.Go(func() error {
		n, err := s.messages.CountUnread(gctx, principal.ID)
		list.UnreadCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to list messages", zap.String("principal_id", principal.ID), zap.Error(err))
		return nil, err
	}
	if list.UnreadCount < 0 {
		list.UnreadCount = 0
	}
	return &list, nil
}

// UnreadCount counts the principal's unread incoming messages
func (s *MessageService) UnreadCount(ctx context.Context, principal models.Principal) (int, error) {
	if err := requirePrincipal(principal); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, principal.ID)
}

// MarkAsRead flips is_read on an incoming message. Repeating it is a no-op;
// the result reports whether this call changed the row.
func (s *MessageService) MarkAsRead(ctx context.Context, principal models.Principal, messageID string) (bool, error) {
	if err := requirePrincipal(principal); err != nil {
		return false, err
	}
	changed, err := s.messages.MarkRead(ctx, principal.ID, messageID)
	if err != nil {
		logger.Error("Failed to mark message read",
			zap.String("principal_id", principal.ID),
			zap.String("message_id", messageID),
			zap.Error(err))
		return false, err
	}
	return changed, nil
}

// SendMessage posts content to the conversation of a relationship the
// principal belongs to, creating the conversation on first use. A client
// supplied req.ID makes retries idempotent.
func (s *MessageService) SendMessage(ctx context.Context, principal models.Principal, mentorshipID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	content := sanitizeText(req.Content)
	if content == "" {
		return nil, apperrors.ValidationError("content", "must not be empty")
	}
	if len(content) > maxMessageLength {
		return nil, apperrors.ValidationError("content", "too long")
	}

	m, err := s.mentorships.GetByID(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	if !m.Involves(principal.ID) {
		return nil, apperrors.NotFoundError("relationship")
	}

	conv, err := s.messages.EnsureConversation(ctx, m.ID)
	if err != nil {
		metrics.MessagesSent.WithLabelValues("error").Inc()
		logger.Error("Failed to open conversation", zap.String("mentorship_id", m.ID), zap.Error(err))
		s.announcer.Failure(ctx, principal, "Message not sent", err)
		return nil, err
	}

	msg, err := s.messages.Create(ctx, req.ID, conv.ID, principal.ID, content)
	if err != nil {
		metrics.MessagesSent.WithLabelValues("error").Inc()
		logger.Error("Failed to send message", zap.String("conversation_id", conv.ID), zap.Error(err))
		s.announcer.Failure(ctx, principal, "Message not sent", err)
		return nil, err
	}

	metrics.MessagesSent.WithLabelValues("success").Inc()
	logger.Info("Message sent",
		zap.String("message_id", msg.ID),
		zap.String("conversation_id", conv.ID),
		zap.String("sender_id", principal.ID))
	s.announcer.MessageSent(msg.ID, principal.ID)
	return msg, nil
}
