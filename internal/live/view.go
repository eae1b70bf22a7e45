package live

import (
	"context"
	"sync"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/realtime"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"go.uber.org/zap"
)

// maxStaleRefetches bounds how often one refresh re-runs after losing a race
// with a local write. The write's own change event triggers another refresh.
const maxStaleRefetches = 3

// Snapshot is the state of one live read model
type Snapshot[T any] struct {
	Data    T                 `json:"data"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
	Kind    string            `json:"kind,omitempty"`
	Source  models.DataSource `json:"source,omitempty"`
	Version uint64            `json:"version"`
}

// Fetcher loads the full read model
type Fetcher[T any] func(ctx context.Context) (T, error)

// Sink receives every snapshot a view emits. It must not block for long.
type Sink func(view string, snapshot any)

// View is a read model kept current by full re-fetches. Local optimistic
// writes bump a write version; a fetch that started before the latest write
// is discarded and run again so it cannot clobber the newer local state.
type View[T any] struct {
	name     string
	fetch    Fetcher[T]
	fallback func() T
	sink     Sink

	mu           sync.Mutex
	snap         Snapshot[T]
	writeVersion uint64
	loaded       bool
}

// NewView creates a view in the loading state. fallback may be nil.
func NewView[T any](name string, fetch Fetcher[T], fallback func() T, sink Sink) *View[T] {
	return &View[T]{
		name:     name,
		fetch:    fetch,
		fallback: fallback,
		sink:     sink,
		snap:     Snapshot[T]{Loading: true},
	}
}

// Name identifies the view in frames and metrics
func (v *View[T]) Name() string {
	return v.name
}

// Snapshot returns the current state
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Refresh re-fetches the read model and emits the result. Errors are kept
// in the snapshot next to the previous data.
func (v *View[T]) Refresh(ctx context.Context) {
	for attempt := 0; attempt <= maxStaleRefetches; attempt++ {
		v.mu.Lock()
		started := v.writeVersion
		v.mu.Unlock()

		data, err := v.fetch(ctx)
		if ctx.Err() != nil {
			return
		}

		v.mu.Lock()
		if v.writeVersion != started {
			v.mu.Unlock()
			metrics.LiveRefetches.WithLabelValues(v.name, "stale").Inc()
			logger.Debug("Discarding stale re-fetch", zap.String("view", v.name), zap.Int("attempt", attempt))
			continue
		}
		v.apply(data, err)
		snap := v.snap
		v.mu.Unlock()

		v.emit(snap)
		return
	}
}

// apply must be called with mu held
func (v *View[T]) apply(data T, err error) {
	v.snap.Loading = false
	v.snap.Version++

	if err == nil {
		metrics.LiveRefetches.WithLabelValues(v.name, "applied").Inc()
		v.snap.Data = data
		v.snap.Error = ""
		v.snap.Kind = ""
		v.snap.Source = models.SourceLive
		v.loaded = true
		return
	}

	metrics.LiveRefetches.WithLabelValues(v.name, "error").Inc()
	logger.Warn("Live view fetch failed", zap.String("view", v.name), zap.Error(err))
	v.snap.Error = err.Error()
	v.snap.Kind = apperrors.KindOf(err)
	if !v.loaded && v.fallback != nil {
		v.snap.Data = v.fallback()
		v.snap.Source = models.SourceFallback
	}
}

// Mutate applies a local optimistic change and emits it. fn reports whether
// it changed anything; an unchanged view emits nothing.
func (v *View[T]) Mutate(fn func(data *T) bool) bool {
	v.mu.Lock()
	if !fn(&v.snap.Data) {
		v.mu.Unlock()
		return false
	}
	v.writeVersion++
	v.snap.Version++
	snap := v.snap
	v.mu.Unlock()

	v.emit(snap)
	return true
}

func (v *View[T]) emit(snap Snapshot[T]) {
	if v.sink != nil {
		v.sink(v.name, snap)
	}
}

// Follow refreshes once, then again whenever sub delivers an event, until
// ctx ends or the subscription closes. onEvent, if set, sees each event
// before the refresh.
func (v *View[T]) Follow(ctx context.Context, sub *realtime.Subscription, onEvent func(realtime.ChangeEvent)) {
	v.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if onEvent != nil {
				onEvent(ev)
			}
			v.Refresh(ctx)
		}
	}
}
