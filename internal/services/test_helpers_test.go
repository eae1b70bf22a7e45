package services_test

import (
	"context"
	"sync"

	"github.com/mentorconnect/mentorconnect-api/config"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

var (
	mentor = models.Principal{ID: "11111111-1111-1111-1111-111111111111", Role: models.RoleMentor, EmailVerified: true}
	mentee = models.Principal{ID: "22222222-2222-2222-2222-222222222222", Role: models.RoleMentee, EmailVerified: true}
	both   = models.Principal{ID: "33333333-3333-3333-3333-333333333333", Role: models.RoleBoth, EmailVerified: true}
)

// recordingNotifier captures notifications per principal
type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]realtime.Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: map[string][]realtime.Notification{}}
}

func (r *recordingNotifier) Notify(_ context.Context, principalID string, n realtime.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[principalID] = append(r.sent[principalID], n)
	return nil
}

func (r *recordingNotifier) Subscribe(context.Context, string) (<-chan realtime.Notification, func()) {
	ch := make(chan realtime.Notification)
	return ch, func() {}
}

func (r *recordingNotifier) For(principalID string) []realtime.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Notification(nil), r.sent[principalID]...)
}

func newAnnouncer(n *recordingNotifier) *services.Announcer {
	return services.NewAnnouncer(n, nil, config.WebhookConfig{})
}
