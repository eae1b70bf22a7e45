package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tables that publish change events
const (
	TableProfiles      = "profiles"
	TableMentorships   = "mentorships"
	TableSessions      = "sessions"
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableRatings       = "ratings"
)

// Row operations. OpResync is synthetic: the feed reconnected and events may
// have been missed, so every subscriber should re-fetch.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpResync = "RESYNC"
)

// ChangeEvent is one row change published by the database trigger
type ChangeEvent struct {
	Table      string         `json:"table"`
	Op         string         `json:"op"`
	Row        map[string]any `json:"row"`
	ReceivedAt time.Time      `json:"-"`
}

// ParseNotification decodes a pg_notify payload
func ParseNotification(payload string) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("invalid change payload: %w", err)
	}
	if ev.Table == "" || ev.Op == "" {
		return ChangeEvent{}, fmt.Errorf("invalid change payload: missing table or op")
	}
	ev.ReceivedAt = time.Now()
	return ev, nil
}

// Resync builds the synthetic event published after a reconnect
func Resync() ChangeEvent {
	return ChangeEvent{Op: OpResync, ReceivedAt: time.Now()}
}

// Field returns a row column as a string, or "" when absent
func (e ChangeEvent) Field(name string) string {
	v, ok := e.Row[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Involves reports whether principalID is a party to the changed row
func (e ChangeEvent) Involves(principalID string) bool {
	if principalID == "" {
		return false
	}
	if e.Table == TableProfiles {
		return e.Field("id") == principalID
	}
	return e.Field("mentor_id") == principalID || e.Field("mentee_id") == principalID
}

// Filter selects the events a subscriber cares about
type Filter func(ChangeEvent) bool

// All matches every event
func All(ChangeEvent) bool { return true }

// ForPrincipal matches resyncs and events on tables that involve principalID.
// Profile rows always match because a counterpart's name or presence feeds
// into the principal's views.
func ForPrincipal(principalID string, tables ...string) Filter {
	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}
	return func(e ChangeEvent) bool {
		if e.Op == OpResync {
			return true
		}
		if !want[e.Table] {
			return false
		}
		if e.Table == TableProfiles {
			return true
		}
		return e.Involves(principalID)
	}
}
