package models

import (
	"sort"
	"time"
)

// SessionStatus is the state of a meeting
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s SessionStatus) IsValid() bool {
	return s == SessionScheduled || s == SessionCompleted || s == SessionCancelled
}

// Session is a meeting within one relationship
type Session struct {
	ID           string        `json:"id"`
	MentorshipID string        `json:"mentorshipId"`
	MentorID     string        `json:"mentorId"`
	MenteeID     string        `json:"menteeId"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	ScheduledAt  time.Time     `json:"scheduledAt"`
	Duration     int           `json:"duration"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Hours is the duration in hours
func (s *Session) Hours() float64 {
	return float64(s.Duration) / 60
}

// SessionView is a session joined to the counterpart profile and its rating
type SessionView struct {
	Session
	Counterpart ProfileSummary `json:"counterpart"`
	Rating      *Rating        `json:"rating,omitempty"`
}

// CreateSessionRequest schedules a session; the caller is the mentor
type CreateSessionRequest struct {
	MenteeID    string    `json:"menteeId" binding:"required,uuid"`
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=4000"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Duration    int       `json:"duration" binding:"required,min=1,max=1440"`
}

// UpdateSessionRequest is a partial session update
type UpdateSessionRequest struct {
	Title       *string        `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string        `json:"description" binding:"omitempty,max=4000"`
	ScheduledAt *time.Time     `json:"scheduledAt"`
	Duration    *int           `json:"duration" binding:"omitempty,min=1,max=1440"`
	Status      *SessionStatus `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
}

// IsEmpty reports whether the update changes nothing
func (r *UpdateSessionRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.ScheduledAt == nil &&
		r.Duration == nil && r.Status == nil
}

// UpdateSessionResult reports whether a row was written
type UpdateSessionResult struct {
	Updated bool     `json:"updated"`
	Session *Session `json:"session,omitempty"`
}

// Rating is the mentee's score for a completed session
type Rating struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
}

// RateSessionRequest rates a completed session
type RateSessionRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"max=2000"`
}

// SessionView selectors used by the list endpoint
const (
	SessionViewAll      = "all"
	SessionViewUpcoming = "upcoming"
	SessionViewPrevious = "previous"
)

// UpcomingSessions keeps scheduled sessions after now, soonest first
func UpcomingSessions(sessions []SessionView, now time.Time) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == SessionScheduled && s.ScheduledAt.After(now) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

// PreviousSessions keeps completed and cancelled sessions, most recent first
func PreviousSessions(sessions []SessionView) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == SessionCompleted || s.Status == SessionCancelled {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out
}
