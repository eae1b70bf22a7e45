package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"github.com/mentorconnect/mentorconnect-api/pkg/retry"
	"go.uber.org/zap"
)

// State is the listener's connection state
type State string

const (
	StateConnecting   State = "connecting"
	StateListening    State = "listening"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// NotificationConn is the part of *pgx.Conn used for LISTEN
type NotificationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Dialer opens a dedicated connection for the listener
type Dialer func(ctx context.Context) (NotificationConn, error)

// Listener turns pg_notify payloads on one channel into hub events. It
// reconnects with backoff and publishes a resync after every reconnect.
type Listener struct {
	dial    Dialer
	channel string
	hub     *Hub
	retry   retry.Config
	pause   time.Duration
	state   atomic.Value
}

// NewListener creates a listener for channel that publishes into hub
func NewListener(dial Dialer, channel string, hub *Hub) *Listener {
	l := &Listener{
		dial:    dial,
		channel: channel,
		hub:     hub,
		retry:   retry.ListenerConfig(),
		pause:   5 * time.Second,
	}
	l.state.Store(StateConnecting)
	return l
}

// State returns the current connection state
func (l *Listener) State() State {
	return l.state.Load().(State)
}

// Run listens until ctx is cancelled
func (l *Listener) Run(ctx context.Context) {
	defer l.state.Store(StateStopped)

	first := true
	for ctx.Err() == nil {
		conn, err := retry.DoWithResult(ctx, l.retry, "listener.connect", func() (NotificationConn, error) {
			return l.connect(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Change feed unavailable, pausing before next attempt",
				zap.String("channel", l.channel),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.pause):
			}
			continue
		}

		l.state.Store(StateListening)
		logger.Info("Listening for database changes", zap.String("channel", l.channel))
		if !first {
			l.hub.Publish(Resync())
		}
		first = false

		err = l.consume(ctx, conn)
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = conn.Close(closeCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}
		l.state.Store(StateReconnecting)
		metrics.ListenerReconnects.Inc()
		logger.Warn("Change feed connection lost, reconnecting", zap.Error(err))
	}
}

func (l *Listener) connect(ctx context.Context) (NotificationConn, error) {
	conn, err := l.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return conn, nil
}

func (l *Listener) consume(ctx context.Context, conn NotificationConn) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		ev, err := ParseNotification(n.Payload)
		if err != nil {
			logger.Warn("Discarding malformed change notification", zap.Error(err))
			continue
		}
		l.hub.Publish(ev)
	}
}
