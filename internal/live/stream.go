package live

import (
	"context"
	"sync"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

// View names used in snapshot frames
const (
	ViewRelationships = "relationships"
	ViewSessions      = "sessions"
	ViewMessages      = "messages"
	ViewStats         = "stats"
)

// Services are the accessors the live views read through
type Services struct {
	Mentorships services.MentorshipServiceInterface
	Sessions    services.SessionServiceInterface
	Messages    services.MessageServiceInterface
	Stats       services.StatsServiceInterface
}

// Options tune a stream
type Options struct {
	// EnableFallback serves sample data, tagged as fallback, when the first
	// fetch of a view fails
	EnableFallback bool
	// Notifier receives the "New message" toast; nil disables it
	Notifier realtime.Notifier
}

// Stream holds the live read models of one principal on one side
type Stream struct {
	hub       *realtime.Hub
	svc       Services
	principal models.Principal
	side      models.Role
	notifier  realtime.Notifier

	Relationships *View[[]models.RelationshipView]
	Sessions      *View[[]models.SessionView]
	Messages      *View[models.MessageList]
	Stats         *View[*models.Stats]
}

// NewStream builds the views. Nothing is fetched until Run.
func NewStream(hub *realtime.Hub, svc Services, principal models.Principal, side models.Role, opts Options, sink Sink) *Stream {
	s := &Stream{
		hub:       hub,
		svc:       svc,
		principal: principal,
		side:      side,
		notifier:  opts.Notifier,
	}

	var (
		relFallback   func() []models.RelationshipView
		sessFallback  func() []models.SessionView
		msgFallback   func() models.MessageList
		statsFallback func() *models.Stats
	)
	if opts.EnableFallback {
		relFallback = fallbackRelationships
		sessFallback = fallbackSessions
		msgFallback = fallbackMessages
		statsFallback = func() *models.Stats { return fallbackStats(side) }
	}

	s.Relationships = NewView(ViewRelationships, func(ctx context.Context) ([]models.RelationshipView, error) {
		return svc.Mentorships.ListRelationships(ctx, principal, side)
	}, relFallback, sink)

	s.Sessions = NewView(ViewSessions, func(ctx context.Context) ([]models.SessionView, error) {
		return svc.Sessions.ListSessions(ctx, principal, side)
	}, sessFallback, sink)

	s.Messages = NewView(ViewMessages, func(ctx context.Context) (models.MessageList, error) {
		list, err := svc.Messages.ListMessages(ctx, principal)
		if err != nil {
			return models.MessageList{}, err
		}
		list.Messages = dedupeMessages(list.Messages)
		return *list, nil
	}, msgFallback, sink)

	s.Stats = NewView(ViewStats, func(ctx context.Context) (*models.Stats, error) {
		return svc.Stats.ComputeStats(ctx, principal, side)
	}, statsFallback, sink)

	return s
}

// Run fetches every view and keeps them current until ctx ends
func (s *Stream) Run(ctx context.Context) {
	pid := s.principal.ID
	relSub := s.hub.Subscribe(realtime.ForPrincipal(pid, realtime.TableMentorships, realtime.TableSessions, realtime.TableProfiles))
	sessSub := s.hub.Subscribe(realtime.ForPrincipal(pid, realtime.TableSessions, realtime.TableRatings, realtime.TableProfiles))
	msgSub := s.hub.Subscribe(realtime.ForPrincipal(pid, realtime.TableMessages, realtime.TableConversations))
	statsSub := s.hub.Subscribe(realtime.ForPrincipal(pid,
		realtime.TableMentorships, realtime.TableSessions, realtime.TableRatings, realtime.TableProfiles))
	defer func() {
		relSub.Close()
		sessSub.Close()
		msgSub.Close()
		statsSub.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); s.Relationships.Follow(ctx, relSub, nil) }()
	go func() { defer wg.Done(); s.Sessions.Follow(ctx, sessSub, nil) }()
	go func() { defer wg.Done(); s.Messages.Follow(ctx, msgSub, s.onMessageEvent) }()
	go func() { defer wg.Done(); s.Stats.Follow(ctx, statsSub, nil) }()
	wg.Wait()
}

func (s *Stream) onMessageEvent(ev realtime.ChangeEvent) {
	if ev.Table != realtime.TableMessages || ev.Op != realtime.OpInsert {
		return
	}
	if ev.Field("sender_id") == s.principal.ID || s.notifier == nil {
		return
	}
	preview := []rune(ev.Field("content"))
	if len(preview) > 80 {
		preview = append(preview[:77], []rune("...")...)
	}
	err := s.notifier.Notify(context.Background(), s.principal.ID, realtime.Notification{
		Title:       "New message",
		Description: string(preview),
		Variant:     realtime.VariantDefault,
	})
	if err != nil {
		logger.Warn("Failed to deliver message notification", zap.String("principal_id", s.principal.ID), zap.Error(err))
	}
}

// MarkRead flips the message locally and then writes it. The unread count
// never drops below zero. A failed write is logged and not rolled back; the
// next re-fetch restores the backend state.
func (s *Stream) MarkRead(ctx context.Context, messageID string) {
	s.Messages.Mutate(func(list *models.MessageList) bool {
		for i, m := range list.Messages {
			if m.ID != messageID || m.IsRead || m.SenderID == s.principal.ID {
				continue
			}
			// emitted snapshots share the old backing array
			msgs := append([]models.Message(nil), list.Messages...)
			msgs[i].IsRead = true
			list.Messages = msgs
			if list.UnreadCount > 0 {
				list.UnreadCount--
			}
			return true
		}
		return false
	})

	if _, err := s.svc.Messages.MarkAsRead(ctx, s.principal, messageID); err != nil {
		logger.Error("Failed to mark message read",
			zap.String("principal_id", s.principal.ID),
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}

// SendMessage sends through the accessor and appends the result locally.
// The re-fetch triggered by the insert de-duplicates by id.
func (s *Stream) SendMessage(ctx context.Context, mentorshipID string, req *models.SendMessageRequest) (*models.Message, error) {
	msg, err := s.svc.Messages.SendMessage(ctx, s.principal, mentorshipID, req)
	if err != nil {
		return nil, err
	}
	s.Messages.Mutate(func(list *models.MessageList) bool {
		for _, m := range list.Messages {
			if m.ID == msg.ID {
				return false
			}
		}
		list.Messages = append([]models.Message{*msg}, list.Messages...)
		return true
	})
	return msg, nil
}

// Snapshots returns the current state of every view keyed by view name
func (s *Stream) Snapshots() map[string]any {
	return map[string]any{
		ViewRelationships: s.Relationships.Snapshot(),
		ViewSessions:      s.Sessions.Snapshot(),
		ViewMessages:      s.Messages.Snapshot(),
		ViewStats:         s.Stats.Snapshot(),
	}
}

// dedupeMessages keeps the first occurrence of each id
func dedupeMessages(msgs []models.Message) []models.Message {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
