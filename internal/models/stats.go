package models

import (
	"math"
	"time"
)

// Stats is the derived dashboard summary for one principal and side. Never persisted.
type Stats struct {
	Role               Role                     `json:"role"`
	RelationshipCounts map[MentorshipStatus]int `json:"relationshipCounts"`
	SessionCounts      map[SessionStatus]int    `json:"sessionCounts"`
	ActiveMentorships  int                      `json:"activeMentorships"`
	CompletedHours     float64                  `json:"completedHours"`
	AverageRating      float64                  `json:"averageRating"`
	RatingCount        int                      `json:"ratingCount"`
	TopSkills          []string                 `json:"topSkills"`
	UpcomingSessions   int                      `json:"upcomingSessions"`
	NextSessionAt      *time.Time               `json:"nextSessionAt"`
}

// RoundTenth rounds to one decimal place
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// AverageOrZero returns sum/count, or 0 when count is 0
func AverageOrZero(sum float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return sum / float64(count)
}
