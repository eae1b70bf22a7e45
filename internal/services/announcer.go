package services

import (
	"context"
	"time"

	"github.com/mentorconnect/mentorconnect-api/config"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/pkg/httpclient"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/trigger"
	"go.uber.org/zap"
)

// Webhook event types
const (
	EventSessionCreated      = "session.created"
	EventMessageSent         = "message.sent"
	EventRelationshipChanged = "relationship.changed"
)

// Announcer publishes the side effects of successful (and failed) mutations:
// toasts for the affected principals and outbound webhook triggers.
type Announcer struct {
	notifier   realtime.Notifier
	httpClient httpclient.Client
	hooks      config.WebhookConfig
}

// NewAnnouncer creates an announcer. A nil notifier disables toasts.
func NewAnnouncer(notifier realtime.Notifier, httpClient httpclient.Client, hooks config.WebhookConfig) *Announcer {
	return &Announcer{notifier: notifier, httpClient: httpClient, hooks: hooks}
}

// Notify sends a toast; delivery failures are logged only
func (a *Announcer) Notify(ctx context.Context, principalID string, n realtime.Notification) {
	if a == nil || a.notifier == nil || principalID == "" {
		return
	}
	if n.Variant == "" {
		n.Variant = realtime.VariantDefault
	}
	if err := a.notifier.Notify(ctx, principalID, n); err != nil {
		logger.Warn("Failed to deliver notification",
			zap.String("principal_id", principalID),
			zap.String("title", n.Title),
			zap.Error(err))
	}
}

// Failure tells the actor that a mutation failed
func (a *Announcer) Failure(ctx context.Context, principal models.Principal, title string, err error) {
	a.Notify(ctx, principal.ID, realtime.Notification{
		Title:       title,
		Description: err.Error(),
		Variant:     realtime.VariantDestructive,
	})
}

func (a *Announcer) webhook(url, eventType, recordID, actorID string) {
	if a == nil || a.httpClient == nil || url == "" {
		return
	}
	trigger.CallAsync(url, trigger.Event{
		Type:       eventType,
		RecordID:   recordID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}, a.httpClient)
}

// SessionCreated fires the session-created webhook
func (a *Announcer) SessionCreated(sessionID, actorID string) {
	if a == nil {
		return
	}
	a.webhook(a.hooks.SessionCreatedURL, EventSessionCreated, sessionID, actorID)
}

// MessageSent fires the message-sent webhook
func (a *Announcer) MessageSent(messageID, actorID string) {
	if a == nil {
		return
	}
	a.webhook(a.hooks.MessageSentURL, EventMessageSent, messageID, actorID)
}

// RelationshipChanged fires the relationship-changed webhook
func (a *Announcer) RelationshipChanged(mentorshipID, actorID string) {
	if a == nil {
		return
	}
	a.webhook(a.hooks.RelationshipChangedURL, EventRelationshipChanged, mentorshipID, actorID)
}

// requirePrincipal fails with an auth error when no principal is present
func requirePrincipal(p models.Principal) error {
	if p.IsZero() {
		return errNoPrincipal
	}
	return nil
}

// requireSide validates a mentor|mentee selector. Reads on a side the
// principal's role lacks are allowed and simply find nothing.
func requireSide(p models.Principal, side models.Role) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if side != models.RoleMentor && side != models.RoleMentee {
		return errInvalidSide
	}
	return nil
}

// requireActingAs is requireSide plus a role check, used by writes
func requireActingAs(p models.Principal, side models.Role) error {
	if err := requireSide(p, side); err != nil {
		return err
	}
	if !p.CanActAs(side) {
		return errWrongSide(side)
	}
	return nil
}
