package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mentorconnect/mentorconnect-api/pkg/circuitbreaker"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Variant styles a notification on the client
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Notification is a toast shown to one principal
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Notifier delivers notifications to a principal's open connections
type Notifier interface {
	Notify(ctx context.Context, principalID string, n Notification) error
	Subscribe(ctx context.Context, principalID string) (<-chan Notification, func())
}

const notificationBuffer = 16

// LocalNotifier delivers within this process
type LocalNotifier struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan Notification
	nextID uint64
}

var _ Notifier = (*LocalNotifier)(nil)

// NewLocalNotifier creates an in-process notifier
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string]map[uint64]chan Notification)}
}

// Notify delivers n to every subscriber of principalID, dropping on full buffers
func (l *LocalNotifier) Notify(_ context.Context, principalID string, n Notification) error {
	l.deliver(principalID, n)
	metrics.Notifications.WithLabelValues("local", "success").Inc()
	return nil
}

func (l *LocalNotifier) deliver(principalID string, n Notification) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, ch := range l.subs[principalID] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns the principal's notification stream and its cancel func
func (l *LocalNotifier) Subscribe(_ context.Context, principalID string) (<-chan Notification, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	ch := make(chan Notification, notificationBuffer)
	if l.subs[principalID] == nil {
		l.subs[principalID] = make(map[uint64]chan Notification)
	}
	l.subs[principalID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs[principalID], id)
			if len(l.subs[principalID]) == 0 {
				delete(l.subs, principalID)
			}
			close(ch)
		})
	}
}

// PubSub is the broker surface used by RedisNotifier
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, onMsg func([]byte)) (func(), error)
}

// RedisNotifier publishes on a per-principal Redis channel so that every
// instance holding a connection for the principal delivers it. When Redis is
// unavailable it degrades to local delivery.
type RedisNotifier struct {
	broker  PubSub
	prefix  string
	local   *LocalNotifier
	breaker *gobreaker.CircuitBreaker
}

var _ Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier creates a notifier publishing to prefix+principalID
func NewRedisNotifier(broker PubSub, prefix string) *RedisNotifier {
	return &RedisNotifier{
		broker:  broker,
		prefix:  prefix,
		local:   NewLocalNotifier(),
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("redis")),
	}
}

func (r *RedisNotifier) Notify(ctx context.Context, principalID string, n Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	err = circuitbreaker.Run(r.breaker, func() error {
		return r.broker.Publish(ctx, r.prefix+principalID, raw)
	})
	if err == nil {
		metrics.Notifications.WithLabelValues("redis", "success").Inc()
		return nil
	}

	metrics.Notifications.WithLabelValues("redis", "error").Inc()
	logger.Warn("Redis publish failed, delivering locally",
		zap.String("principal_id", principalID),
		zap.Error(err))
	return r.local.Notify(ctx, principalID, n)
}

func (r *RedisNotifier) Subscribe(ctx context.Context, principalID string) (<-chan Notification, func()) {
	ch, cancelLocal := r.local.Subscribe(ctx, principalID)

	stop, err := r.broker.Subscribe(ctx, r.prefix+principalID, func(raw []byte) {
		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			logger.Warn("Bad notification payload", zap.Error(err))
			return
		}
		r.local.deliver(principalID, n)
	})
	if err != nil {
		logger.Warn("Redis subscribe failed, local delivery only",
			zap.String("principal_id", principalID),
			zap.Error(err))
		return ch, cancelLocal
	}

	return ch, func() {
		stop()
		cancelLocal()
	}
}

// RedisPubSub adapts a go-redis client to PubSub
type RedisPubSub struct {
	rdb *goredis.Client
}

// NewRedisPubSub connects to redisURL and verifies it with a ping
func NewRedisPubSub(ctx context.Context, redisURL string) (*RedisPubSub, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPubSub{rdb: rdb}, nil
}

func (p *RedisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe forwards messages on channel to onMsg until the returned func is
// called or ctx ends
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string, onMsg func([]byte)) (func(), error) {
	sub := p.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case <-done:
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				onMsg([]byte(m.Payload))
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Ping checks the connection for health reporting
func (p *RedisPubSub) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close releases the client
func (p *RedisPubSub) Close() error {
	return p.rdb.Close()
}
