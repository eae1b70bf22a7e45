package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return ChangeEvent{}
}

func TestParseNotification(t *testing.T) {
	ev, err := ParseNotification(`{"table":"sessions","op":"UPDATE","row":{"id":"s1","mentor_id":"m","mentee_id":"e","duration":60}}`)
	require.NoError(t, err)
	assert.Equal(t, TableSessions, ev.Table)
	assert.Equal(t, OpUpdate, ev.Op)
	assert.Equal(t, "s1", ev.Field("id"))
	assert.Equal(t, "60", ev.Field("duration"))
	assert.Equal(t, "", ev.Field("missing"))
	assert.True(t, ev.Involves("m"))
	assert.True(t, ev.Involves("e"))
	assert.False(t, ev.Involves("x"))
	assert.False(t, ev.Involves(""))

	_, err = ParseNotification(`not json`)
	assert.Error(t, err)
	_, err = ParseNotification(`{"row":{}}`)
	assert.Error(t, err)
}

func TestForPrincipal(t *testing.T) {
	f := ForPrincipal("me", TableMentorships, TableProfiles)

	assert.True(t, f(ChangeEvent{Table: TableMentorships, Op: OpInsert, Row: map[string]any{"mentor_id": "me"}}))
	assert.False(t, f(ChangeEvent{Table: TableMentorships, Op: OpInsert, Row: map[string]any{"mentor_id": "other"}}))
	assert.False(t, f(ChangeEvent{Table: TableSessions, Op: OpInsert, Row: map[string]any{"mentor_id": "me"}}))
	assert.True(t, f(ChangeEvent{Table: TableProfiles, Op: OpUpdate, Row: map[string]any{"id": "someone"}}))
	assert.True(t, f(Resync()))
}

func TestHub_DeliversToMatchingSubscribers(t *testing.T) {
	hub := NewHub(4)
	mine := hub.Subscribe(ForPrincipal("a", TableMessages))
	other := hub.Subscribe(ForPrincipal("b", TableMessages))
	defer mine.Close()
	defer other.Close()

	n := hub.Publish(ChangeEvent{Table: TableMessages, Op: OpInsert, Row: map[string]any{"mentee_id": "a"}})
	assert.Equal(t, 1, n)

	ev := recvEvent(t, mine.Events())
	assert.Equal(t, TableMessages, ev.Table)
	select {
	case <-other.Events():
		t.Fatal("unexpected delivery")
	default:
	}
}

func TestHub_CoalescesWhenFull(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe(nil)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		hub.Publish(ChangeEvent{Table: TableSessions, Op: OpUpdate})
	}
	recvEvent(t, sub.Events())
	select {
	case <-sub.Events():
		t.Fatal("expected coalesced delivery")
	default:
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe(nil)
	assert.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Len())
	_, ok := <-sub.Events()
	assert.False(t, ok)

	live := hub.Subscribe(nil)
	hub.Close()
	_, ok = <-live.Events()
	assert.False(t, ok)

	late := hub.Subscribe(nil)
	_, ok = <-late.Events()
	assert.False(t, ok)
	assert.NotPanics(t, func() { hub.Publish(ChangeEvent{Table: TableSessions, Op: OpInsert}) })
}

type fakeConn struct {
	notes  chan *pgconn.Notification
	execd  []string
	closed atomic.Bool
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.execd = append(c.execd, sql)
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case n, ok := <-c.notes:
		if !ok {
			return nil, errors.New("connection reset")
		}
		return n, nil
	}
}

func (c *fakeConn) Close(context.Context) error {
	c.closed.Store(true)
	return nil
}

func TestListener_PublishesAndResyncsAfterReconnect(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(nil)
	defer sub.Close()

	first := &fakeConn{notes: make(chan *pgconn.Notification, 2)}
	second := &fakeConn{notes: make(chan *pgconn.Notification, 2)}
	conns := []*fakeConn{first, second}
	var mu sync.Mutex
	dials := 0
	dial := func(context.Context) (NotificationConn, error) {
		mu.Lock()
		defer mu.Unlock()
		c := conns[dials]
		dials++
		return c, nil
	}

	l := NewListener(dial, "mentorconnect_changes", hub)
	assert.Equal(t, StateConnecting, l.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	first.notes <- &pgconn.Notification{Payload: `{"table":"mentorships","op":"INSERT","row":{"id":"r1"}}`}
	first.notes <- &pgconn.Notification{Payload: `garbage`}
	ev := recvEvent(t, sub.Events())
	assert.Equal(t, TableMentorships, ev.Table)

	close(first.notes)
	ev = recvEvent(t, sub.Events())
	assert.Equal(t, OpResync, ev.Op)
	assert.True(t, first.closed.Load())
	assert.Equal(t, []string{`LISTEN "mentorconnect_changes"`}, second.execd)
	assert.Equal(t, StateListening, l.State())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, StateStopped, l.State())
}

type fakeBroker struct {
	mu         sync.Mutex
	publishErr error
	subErr     error
	handlers   map[string]func([]byte)
}

func (b *fakeBroker) Publish(_ context.Context, channel string, payload []byte) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.mu.Lock()
	h := b.handlers[channel]
	b.mu.Unlock()
	if h != nil {
		h(payload)
	}
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, channel string, onMsg func([]byte)) (func(), error) {
	if b.subErr != nil {
		return nil, b.subErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = onMsg
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, channel)
	}, nil
}

func recvNotification(t *testing.T, ch <-chan Notification) Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return Notification{}
}

func TestLocalNotifier(t *testing.T) {
	n := NewLocalNotifier()
	ctx := context.Background()
	ch, cancel := n.Subscribe(ctx, "p1")

	require.NoError(t, n.Notify(ctx, "p1", Notification{Title: "Session scheduled", Variant: VariantSuccess}))
	require.NoError(t, n.Notify(ctx, "p2", Notification{Title: "ignored"}))

	got := recvNotification(t, ch)
	assert.Equal(t, "Session scheduled", got.Title)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestRedisNotifier_DeliversThroughBroker(t *testing.T) {
	broker := &fakeBroker{handlers: map[string]func([]byte){}}
	n := NewRedisNotifier(broker, "user_notifications:")
	ctx := context.Background()

	ch, cancel := n.Subscribe(ctx, "p1")
	defer cancel()
	assert.Contains(t, broker.handlers, "user_notifications:p1")

	require.NoError(t, n.Notify(ctx, "p1", Notification{Title: "New message"}))
	assert.Equal(t, "New message", recvNotification(t, ch).Title)
}

func TestRedisNotifier_FallsBackToLocal(t *testing.T) {
	broker := &fakeBroker{
		handlers:   map[string]func([]byte){},
		publishErr: errors.New("redis down"),
		subErr:     errors.New("redis down"),
	}
	n := NewRedisNotifier(broker, "user_notifications:")
	ctx := context.Background()

	ch, cancel := n.Subscribe(ctx, "p1")
	defer cancel()

	require.NoError(t, n.Notify(ctx, "p1", Notification{Title: "Relationship accepted"}))
	assert.Equal(t, "Relationship accepted", recvNotification(t, ch).Title)
}
