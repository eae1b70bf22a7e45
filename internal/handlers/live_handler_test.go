package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mentorconnect/mentorconnect-api/internal/live"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type wireFrame struct {
	Type    string          `json:"type"`
	View    string          `json:"view"`
	Payload json.RawMessage `json:"payload"`
}

type wireSnapshot struct {
	Data    json.RawMessage `json:"data"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error"`
	Source  string          `json:"source"`
}

type liveFixture struct {
	hub         *realtime.Hub
	notifier    *realtime.LocalNotifier
	messages    *MockMessageService
	mentorships *MockMentorshipService
	conn        *websocket.Conn
}

func newLiveFixture(t *testing.T) *liveFixture {
	t.Helper()
	f := &liveFixture{
		hub:         realtime.NewHub(4),
		notifier:    realtime.NewLocalNotifier(),
		messages:    new(MockMessageService),
		mentorships: new(MockMentorshipService),
	}
	sessions := new(MockSessionService)
	stats := new(MockStatsService)
	profiles := new(MockProfileService)

	f.mentorships.On("ListRelationships", mock.Anything, mentee, models.RoleMentee).
		Return([]models.RelationshipView{{Mentorship: models.Mentorship{ID: "m-1", Status: models.MentorshipActive}}}, nil)
	sessions.On("ListSessions", mock.Anything, mentee, models.RoleMentee).Return([]models.SessionView{}, nil)
	f.messages.On("ListMessages", mock.Anything, mentee).Return(&models.MessageList{
		Messages:    []models.Message{{ID: "msg-1", MentorshipID: "m-1", SenderID: mentor.ID, Content: "Hello"}},
		UnreadCount: 1,
	}, nil)
	stats.On("ComputeStats", mock.Anything, mentee, models.RoleMentee).
		Return(&models.Stats{Role: models.RoleMentee, TopSkills: models.DefaultSkills}, nil)
	profiles.On("SetPresence", mock.Anything, mentee, mock.Anything).Return(nil).Maybe()

	h := NewLiveHandler(f.hub, live.Services{
		Mentorships: f.mentorships,
		Sessions:    sessions,
		Messages:    f.messages,
		Stats:       stats,
	}, profiles, f.notifier, LiveConfig{PingInterval: time.Minute})

	router := gin.New()
	router.Use(asPrincipal(mentee))
	router.GET("/live", h.Serve)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/live", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	f.conn = conn
	return f
}

// readUntil reads frames until match returns true
func (f *liveFixture) readUntil(t *testing.T, match func(wireFrame) bool) wireFrame {
	t.Helper()
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var fr wireFrame
		require.NoError(t, f.conn.ReadJSON(&fr))
		if match(fr) {
			return fr
		}
	}
}

func loadedSnapshot(t *testing.T, fr wireFrame) (wireSnapshot, bool) {
	if fr.Type != FrameSnapshot {
		return wireSnapshot{}, false
	}
	var snap wireSnapshot
	require.NoError(t, json.Unmarshal(fr.Payload, &snap))
	return snap, !snap.Loading
}

func (f *liveFixture) waitForAllViews(t *testing.T) {
	t.Helper()
	seen := map[string]bool{}
	f.readUntil(t, func(fr wireFrame) bool {
		if snap, ok := loadedSnapshot(t, fr); ok {
			assert.Equal(t, "live", snap.Source)
			seen[fr.View] = true
		}
		return len(seen) == len(viewOrder)
	})
}

func TestLive_InitialSnapshots(t *testing.T) {
	f := newLiveFixture(t)
	f.waitForAllViews(t)
}

func TestLive_MarkReadUpdatesMessagesView(t *testing.T) {
	f := newLiveFixture(t)
	marked := make(chan struct{}, 1)
	f.messages.On("MarkAsRead", mock.Anything, mentee, "msg-1").Return(true, nil).
		Run(func(mock.Arguments) { marked <- struct{}{} })
	f.waitForAllViews(t)

	require.NoError(t, f.conn.WriteJSON(ClientFrame{Type: FrameMarkRead, ID: "msg-1"}))

	fr := f.readUntil(t, func(fr wireFrame) bool {
		snap, ok := loadedSnapshot(t, fr)
		return ok && fr.View == live.ViewMessages && strings.Contains(string(snap.Data), `"unreadCount":0`)
	})
	assert.Contains(t, string(fr.Payload), `"isRead":true`)
	select {
	case <-marked:
	case <-time.After(2 * time.Second):
		t.Fatal("MarkAsRead was not written through")
	}
}

func TestLive_ChangeEventTriggersRefetch(t *testing.T) {
	f := newLiveFixture(t)
	f.waitForAllViews(t)

	f.hub.Publish(realtime.ChangeEvent{
		Table: realtime.TableMentorships,
		Op:    realtime.OpUpdate,
		Row:   map[string]any{"mentor_id": mentor.ID, "mentee_id": mentee.ID},
	})

	fr := f.readUntil(t, func(fr wireFrame) bool {
		_, ok := loadedSnapshot(t, fr)
		return ok && fr.View == live.ViewRelationships
	})
	assert.Contains(t, string(fr.Payload), `"id":"m-1"`)
}

func TestLive_ForwardsNotifications(t *testing.T) {
	f := newLiveFixture(t)
	f.waitForAllViews(t)

	require.NoError(t, f.notifier.Notify(context.Background(), mentee.ID, realtime.Notification{
		Title:   "Session scheduled",
		Variant: realtime.VariantSuccess,
	}))

	fr := f.readUntil(t, func(fr wireFrame) bool { return fr.Type == FrameNotification })
	assert.Contains(t, string(fr.Payload), "Session scheduled")
}

func TestLive_UnknownFrameToast(t *testing.T) {
	f := newLiveFixture(t)
	f.waitForAllViews(t)

	require.NoError(t, f.conn.WriteJSON(ClientFrame{Type: "subscribe"}))

	fr := f.readUntil(t, func(fr wireFrame) bool { return fr.Type == FrameNotification })
	assert.Contains(t, string(fr.Payload), "Unknown request")
	assert.Contains(t, string(fr.Payload), string(realtime.VariantDestructive))
}

func TestLive_RequiresPrincipal(t *testing.T) {
	h := NewLiveHandler(realtime.NewHub(1), live.Services{}, nil, nil, LiveConfig{})
	router := gin.New()
	router.GET("/live", h.Serve)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLive_CheckOrigin(t *testing.T) {
	h := NewLiveHandler(realtime.NewHub(1), live.Services{}, nil, nil, LiveConfig{
		AllowedOrigins: []string{"https://app.mentorconnect.dev"},
	})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://app.mentorconnect.dev", true},
		{"HTTPS://APP.MENTORCONNECT.DEV", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/live", http.NoBody)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, h.checkOrigin(r), tt.origin)
	}
}

func TestPendingSnapshots_KeepsNewestPerView(t *testing.T) {
	p := newPendingSnapshots()
	p.put(live.ViewStats, 1)
	p.put(live.ViewStats, 2)
	p.put(live.ViewMessages, "m")

	select {
	case <-p.ready:
	default:
		t.Fatal("expected ready signal")
	}
	assert.Equal(t, map[string]any{live.ViewStats: 2, live.ViewMessages: "m"}, p.take())
	assert.Empty(t, p.take())
}
