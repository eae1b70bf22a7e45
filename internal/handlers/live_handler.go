package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mentorconnect/mentorconnect-api/internal/live"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	maxClientFrameBytes = 16 << 10
	presenceTimeout     = 3 * time.Second
)

// Frame types
const (
	FrameSnapshot     = "snapshot"
	FrameNotification = "notification"
	FrameMarkRead     = "mark_read"
	FrameSendMessage  = "send_message"
)

var viewOrder = []string{live.ViewRelationships, live.ViewSessions, live.ViewMessages, live.ViewStats}

// Frame is a server to client message
type Frame struct {
	Type    string `json:"type"`
	View    string `json:"view,omitempty"`
	Payload any    `json:"payload"`
}

// ClientFrame is a client to server message
type ClientFrame struct {
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	MentorshipID string `json:"mentorship_id,omitempty"`
	Content      string `json:"content,omitempty"`
}

// LiveConfig tunes the WebSocket endpoint
type LiveConfig struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	EnableFallback bool
}

// LiveHandler streams live read models and notifications over a WebSocket
type LiveHandler struct {
	hub      *realtime.Hub
	views    live.Services
	profiles services.ProfileServiceInterface
	notifier realtime.Notifier
	cfg      LiveConfig
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler
func NewLiveHandler(
	hub *realtime.Hub,
	views live.Services,
	profiles services.ProfileServiceInterface,
	notifier realtime.Notifier,
	cfg LiveConfig,
) *LiveHandler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	h := &LiveHandler{hub: hub, views: views, profiles: profiles, notifier: notifier, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts configured browser origins and clients that send none
func (h *LiveHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Serve handles GET /api/v1/live?role=
func (h *LiveHandler) Serve(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	side, ok := sideParam(c, p)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Failed to upgrade live connection", zap.String("principal_id", p.ID), zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.LiveConnections.Inc()
	defer metrics.LiveConnections.Dec()
	logger.Info("Live connection opened", zap.String("principal_id", p.ID), zap.String("role", string(side)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.setPresence(p, true)
	defer h.setPresence(p, false)

	s := &liveSession{
		conn:      conn,
		cfg:       h.cfg,
		principal: p,
		pending:   newPendingSnapshots(),
		toasts:    make(chan realtime.Notification, 8),
	}
	stream := live.NewStream(h.hub, h.views, p, side, live.Options{
		EnableFallback: h.cfg.EnableFallback,
		Notifier:       h.notifier,
	}, s.pending.put)
	s.stream = stream

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stream.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		s.readLoop(ctx)
	}()

	var notifications <-chan realtime.Notification
	if h.notifier != nil {
		ch, unsubscribe := h.notifier.Subscribe(ctx, p.ID)
		defer unsubscribe()
		notifications = ch
	}

	s.writeLoop(ctx, notifications)
	cancel()
	// unblocks readLoop
	_ = conn.Close()
	wg.Wait()
	logger.Info("Live connection closed", zap.String("principal_id", p.ID))
}

func (h *LiveHandler) setPresence(p models.Principal, online bool) {
	if h.profiles == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := h.profiles.SetPresence(ctx, p, online); err != nil {
		logger.Warn("Failed to record presence", zap.String("principal_id", p.ID), zap.Bool("online", online), zap.Error(err))
	}
}

// liveSession is the per-connection state. Only writeLoop writes to conn.
type liveSession struct {
	conn      *websocket.Conn
	cfg       LiveConfig
	principal models.Principal
	stream    *live.Stream
	pending   *pendingSnapshots
	toasts    chan realtime.Notification
}

func (s *liveSession) writeLoop(ctx context.Context, notifications <-chan realtime.Notification) {
	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending.ready:
			snaps := s.pending.take()
			for _, view := range viewOrder {
				snap, ok := snaps[view]
				if !ok {
					continue
				}
				if err := s.write(Frame{Type: FrameSnapshot, View: view, Payload: snap}); err != nil {
					return
				}
			}
		case n, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			if err := s.write(Frame{Type: FrameNotification, Payload: n}); err != nil {
				return
			}
		case n := <-s.toasts:
			if err := s.write(Frame{Type: FrameNotification, Payload: n}); err != nil {
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (s *liveSession) write(f Frame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteJSON(f); err != nil {
		logger.Debug("Live write failed", zap.String("principal_id", s.principal.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *liveSession) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxClientFrameBytes)
	idle := 2 * s.cfg.PingInterval
	_ = s.conn.SetReadDeadline(time.Now().Add(idle))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(idle))
	})

	for {
		var f ClientFrame
		if err := s.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Live connection read failed", zap.String("principal_id", s.principal.ID), zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(idle))
		s.handle(ctx, f)
	}
}

func (s *liveSession) handle(ctx context.Context, f ClientFrame) {
	switch f.Type {
	case FrameMarkRead:
		if f.ID == "" {
			s.toast("Message not marked", "id is required")
			return
		}
		s.stream.MarkRead(ctx, f.ID)
	case FrameSendMessage:
		_, err := s.stream.SendMessage(ctx, f.MentorshipID, &models.SendMessageRequest{ID: f.ID, Content: f.Content})
		if err != nil {
			s.toast("Message not sent", err.Error())
		}
	default:
		s.toast("Unknown request", "unsupported frame type "+f.Type)
	}
}

func (s *liveSession) toast(title, description string) {
	select {
	case s.toasts <- realtime.Notification{Title: title, Description: description, Variant: realtime.VariantDestructive}:
	default:
	}
}

// pendingSnapshots keeps the newest unsent snapshot per view so a slow
// client only ever receives current state
type pendingSnapshots struct {
	mu    sync.Mutex
	views map[string]any
	ready chan struct{}
}

func newPendingSnapshots() *pendingSnapshots {
	return &pendingSnapshots{views: map[string]any{}, ready: make(chan struct{}, 1)}
}

func (p *pendingSnapshots) put(view string, snap any) {
	p.mu.Lock()
	p.views[view] = snap
	p.mu.Unlock()
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *pendingSnapshots) take() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.views
	p.views = map[string]any{}
	return out
}
