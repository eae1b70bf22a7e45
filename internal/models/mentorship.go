package models

import "time"

// MentorshipStatus is the state of a mentor/mentee pairing
type MentorshipStatus string

const (
	MentorshipPending   MentorshipStatus = "pending"
	MentorshipActive    MentorshipStatus = "active"
	MentorshipCompleted MentorshipStatus = "completed"
	MentorshipRejected  MentorshipStatus = "rejected"
	MentorshipCancelled MentorshipStatus = "cancelled"
)

// AllMentorshipStatuses lists every status in display order
var AllMentorshipStatuses = []MentorshipStatus{
	MentorshipPending, MentorshipActive, MentorshipCompleted, MentorshipRejected, MentorshipCancelled,
}

var mentorshipTransitions = map[MentorshipStatus][]MentorshipStatus{
	MentorshipPending: {MentorshipActive, MentorshipRejected},
	MentorshipActive:  {MentorshipCompleted, MentorshipCancelled},
}

// IsValid reports whether s is a known status
func (s MentorshipStatus) IsValid() bool {
	for _, known := range AllMentorshipStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminalStatus returns true if no further transitions are allowed
func (s MentorshipStatus) IsTerminalStatus() bool {
	return s == MentorshipCompleted || s == MentorshipRejected || s == MentorshipCancelled
}

// CanTransitionTo checks the transition table. Re-writing the current status is allowed.
func (s MentorshipStatus) CanTransitionTo(next MentorshipStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range mentorshipTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Mentorship is a directed pairing of a mentor and a mentee
type Mentorship struct {
	ID        string           `json:"id"`
	MentorID  string           `json:"mentorId"`
	MenteeID  string           `json:"menteeId"`
	Status    MentorshipStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Involves reports whether the principal is either party
func (m *Mentorship) Involves(principalID string) bool {
	return m.MentorID == principalID || m.MenteeID == principalID
}

// CounterpartOf returns the other party's id
func (m *Mentorship) CounterpartOf(principalID string) string {
	if m.MentorID == principalID {
		return m.MenteeID
	}
	return m.MentorID
}

// RelationshipView is a pairing joined to the counterpart's profile
type RelationshipView struct {
	Mentorship
	Counterpart       ProfileSummary `json:"counterpart"`
	SessionsCompleted int            `json:"sessionsCompleted"`
}

// RelationshipsByStatus partitions views by status, preserving order within each bucket
func RelationshipsByStatus(views []RelationshipView) map[MentorshipStatus][]RelationshipView {
	out := make(map[MentorshipStatus][]RelationshipView, len(AllMentorshipStatuses))
	for _, v := range views {
		out[v.Status] = append(out[v.Status], v)
	}
	return out
}

// AddRelationshipRequest opens a pending pairing with the caller as mentor
type AddRelationshipRequest struct {
	CounterpartID string `json:"counterpartId" binding:"required,uuid"`
}

// SetRelationshipStatusRequest changes the status of the pairing with a counterpart
type SetRelationshipStatusRequest struct {
	Status MentorshipStatus `json:"status" binding:"required,oneof=pending active completed rejected cancelled"`
}
