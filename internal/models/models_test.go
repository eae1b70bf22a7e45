package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMentorshipStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to MentorshipStatus
		want     bool
	}{
		{MentorshipPending, MentorshipActive, true},
		{MentorshipPending, MentorshipRejected, true},
		{MentorshipActive, MentorshipCompleted, true},
		{MentorshipActive, MentorshipCancelled, true},
		{MentorshipActive, MentorshipActive, true},
		{MentorshipPending, MentorshipCompleted, false},
		{MentorshipPending, MentorshipCancelled, false},
		{MentorshipActive, MentorshipPending, false},
		{MentorshipActive, MentorshipRejected, false},
		{MentorshipCompleted, MentorshipActive, false},
		{MentorshipRejected, MentorshipActive, false},
		{MentorshipCancelled, MentorshipPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMentorshipStatus_IsTerminal(t *testing.T) {
	assert.False(t, MentorshipPending.IsTerminalStatus())
	assert.False(t, MentorshipActive.IsTerminalStatus())
	assert.True(t, MentorshipCompleted.IsTerminalStatus())
	assert.True(t, MentorshipRejected.IsTerminalStatus())
	assert.True(t, MentorshipCancelled.IsTerminalStatus())
	assert.False(t, MentorshipStatus("archived").IsValid())
}

func TestRoleIncludes(t *testing.T) {
	assert.True(t, RoleBoth.Includes(RoleMentor))
	assert.True(t, RoleBoth.Includes(RoleMentee))
	assert.True(t, RoleMentor.Includes(RoleMentor))
	assert.False(t, RoleMentee.Includes(RoleMentor))

	side, ok := ParseSide("mentor")
	assert.True(t, ok)
	assert.Equal(t, RoleMentor, side)
	_, ok = ParseSide("both")
	assert.False(t, ok)
}

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "Distributed Systems"}, SplitSkills(" Go, ,Distributed Systems ,"))
	assert.Equal(t, DefaultSkills, SplitSkills(""))
	assert.Equal(t, DefaultSkills, SplitSkills(" , "))

	skills := SplitSkills("")
	skills[0] = "changed"
	assert.Equal(t, "Leadership", DefaultSkills[0])
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Profile{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada", (&Profile{Username: "ada"}).DisplayName())
}

func sv(id string, status SessionStatus, at time.Time) SessionView {
	return SessionView{Session: Session{ID: id, Status: status, ScheduledAt: at}}
}

func TestUpcomingAndPreviousSessions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := []SessionView{
		sv("late", SessionScheduled, now.Add(48*time.Hour)),
		sv("past-scheduled", SessionScheduled, now.Add(-time.Hour)),
		sv("soon", SessionScheduled, now.Add(time.Hour)),
		sv("done-old", SessionCompleted, now.Add(-72*time.Hour)),
		sv("cancelled", SessionCancelled, now.Add(-24*time.Hour)),
	}

	upcoming := UpcomingSessions(sessions, now)
	assert.Equal(t, []string{"soon", "late"}, ids(upcoming))

	previous := PreviousSessions(sessions)
	assert.Equal(t, []string{"cancelled", "done-old"}, ids(previous))
}

func ids(views []SessionView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func TestAverageOrZero(t *testing.T) {
	assert.Equal(t, 0.0, AverageOrZero(0, 0))
	assert.False(t, math.IsNaN(AverageOrZero(0, 0)))
	assert.Equal(t, 4.5, AverageOrZero(9, 2))
	assert.Equal(t, 4.3, RoundTenth(4.333))
	assert.Equal(t, 1.5, RoundTenth(1.45000001))
}

func TestRelationshipsByStatus(t *testing.T) {
	views := []RelationshipView{
		{Mentorship: Mentorship{ID: "a", Status: MentorshipPending}},
		{Mentorship: Mentorship{ID: "b", Status: MentorshipActive}},
		{Mentorship: Mentorship{ID: "c", Status: MentorshipPending}},
	}
	parts := RelationshipsByStatus(views)
	assert.Len(t, parts[MentorshipPending], 2)
	assert.Len(t, parts[MentorshipActive], 1)
	assert.Empty(t, parts[MentorshipCompleted])
}

func TestMentorshipCounterpart(t *testing.T) {
	m := Mentorship{MentorID: "m", MenteeID: "n"}
	assert.Equal(t, "n", m.CounterpartOf("m"))
	assert.Equal(t, "m", m.CounterpartOf("n"))
	assert.True(t, m.Involves("n"))
	assert.False(t, m.Involves("x"))
}

func TestResultConstructors(t *testing.T) {
	ok := Ok(3)
	assert.True(t, ok.Success)
	assert.Equal(t, SourceLive, ok.Source)

	fail := Fail[int]("not_found", "session not found")
	assert.False(t, fail.Success)
	assert.Equal(t, "not_found", fail.Kind)
}
