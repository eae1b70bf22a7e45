package live

import (
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// Sample data shown only when fallback data is enabled and the first fetch
// of a view fails. Ids are fixed so clients can tell them apart.

func fallbackRelationships() []models.RelationshipView {
	now := time.Now().UTC()
	return []models.RelationshipView{
		{
			Mentorship: models.Mentorship{
				ID:        "00000000-0000-0000-0000-00000000f001",
				Status:    models.MentorshipActive,
				CreatedAt: now.AddDate(0, -2, 0),
				UpdatedAt: now.AddDate(0, -1, 0),
			},
			Counterpart: models.ProfileSummary{
				ID:        "00000000-0000-0000-0000-00000000f101",
				Username:  "sample.mentor",
				FirstName: "Sample",
				LastName:  "Mentor",
				Specialty: "Leadership, Mentoring",
			},
			SessionsCompleted: 2,
		},
	}
}

func fallbackSessions() []models.SessionView {
	now := time.Now().UTC().Truncate(time.Hour)
	return []models.SessionView{
		{
			Session: models.Session{
				ID:           "00000000-0000-0000-0000-00000000f201",
				MentorshipID: "00000000-0000-0000-0000-00000000f001",
				Title:        "Career planning",
				ScheduledAt:  now.Add(48 * time.Hour),
				Duration:     60,
				Status:       models.SessionScheduled,
			},
			Counterpart: models.ProfileSummary{ID: "00000000-0000-0000-0000-00000000f101", Username: "sample.mentor"},
		},
	}
}

func fallbackMessages() models.MessageList {
	return models.MessageList{Messages: []models.Message{}, UnreadCount: 0}
}

func fallbackStats(side models.Role) *models.Stats {
	relationships := make(map[models.MentorshipStatus]int, len(models.AllMentorshipStatuses))
	for _, s := range models.AllMentorshipStatuses {
		relationships[s] = 0
	}
	relationships[models.MentorshipActive] = 1
	return &models.Stats{
		Role:               side,
		RelationshipCounts: relationships,
		SessionCounts:      map[models.SessionStatus]int{models.SessionScheduled: 1, models.SessionCompleted: 2},
		ActiveMentorships:  1,
		CompletedHours:     2,
		TopSkills:          models.SplitSkills(""),
		UpcomingSessions:   1,
	}
}
