package models

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultSkills is used when a profile has no specialty
var DefaultSkills = []string{"Leadership", "Mentoring"}

// Profile is one-to-one with a registered principal
type Profile struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	AvatarURL       string     `json:"avatarUrl"`
	Bio             string     `json:"bio"`
	Specialty       string     `json:"specialty"`
	YearsExperience *int       `json:"yearsExperience"`
	Role            Role       `json:"role"`
	IsOnline        bool       `json:"isOnline"`
	LastSeen        *time.Time `json:"lastSeen"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// DisplayName joins the name parts, falling back to the username
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// Skills splits specialty on commas, dropping blanks, with DefaultSkills as fallback
func (p *Profile) Skills() []string {
	return SplitSkills(p.Specialty)
}

// SplitSkills splits a comma-separated specialty string
func SplitSkills(specialty string) []string {
	skills := []string{}
	for _, s := range strings.Split(specialty, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	if len(skills) == 0 {
		return append([]string(nil), DefaultSkills...)
	}
	return skills
}

// Summary returns the counterpart fields joined into list views
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:        p.ID,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		AvatarURL: p.AvatarURL,
		Specialty: p.Specialty,
		IsOnline:  p.IsOnline,
	}
}

// ProfileSummary is the counterpart profile embedded in relationship, session and message views
type ProfileSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
	Specialty string `json:"specialty"`
	IsOnline  bool   `json:"isOnline"`
}

// CreateProfileRequest completes registration for a principal
type CreateProfileRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=40,alphanum"`
	FirstName       string `json:"firstName" binding:"max=80"`
	LastName        string `json:"lastName" binding:"max=80"`
	Bio             string `json:"bio" binding:"max=4000"`
	Specialty       string `json:"specialty" binding:"max=500"`
	YearsExperience *int   `json:"yearsExperience" binding:"omitempty,min=0,max=80"`
	Role            Role   `json:"role" binding:"omitempty,oneof=mentee mentor both"`
}

// UpdateProfileRequest is a partial profile update; nil fields are left unchanged
type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName" binding:"omitempty,max=80"`
	LastName        *string `json:"lastName" binding:"omitempty,max=80"`
	Bio             *string `json:"bio" binding:"omitempty,max=4000"`
	Specialty       *string `json:"specialty" binding:"omitempty,max=500"`
	YearsExperience *int    `json:"yearsExperience" binding:"omitempty,min=0,max=80"`
	Role            *Role   `json:"role" binding:"omitempty,oneof=mentee mentor both"`
}

// IsEmpty reports whether the update changes nothing
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Bio == nil &&
		r.Specialty == nil && r.YearsExperience == nil && r.Role == nil
}

// UploadAvatarRequest carries a base64 image
type UploadAvatarRequest struct {
	Image       string `json:"image" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// UploadAvatarResponse is returned after a successful avatar upload
type UploadAvatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
}

// MentorSearchResult is one hit of the mentor directory
type MentorSearchResult struct {
	ProfileSummary
	Bio             string   `json:"bio"`
	YearsExperience *int     `json:"yearsExperience"`
	Skills          []string `json:"skills"`
}

// ProfileColumns is the column list expected by ScanProfile
const ProfileColumns = `id, username, COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(avatar_url, ''), COALESCE(bio, ''), COALESCE(specialty, ''), years_experience,
	role, is_online, last_seen, created_at, updated_at`

// ScanProfile scans a row selected with ProfileColumns
func ScanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var role string
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.FirstName,
		&p.LastName,
		&p.AvatarURL,
		&p.Bio,
		&p.Specialty,
		&p.YearsExperience,
		&role,
		&p.IsOnline,
		&p.LastSeen,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = Role(role)
	return &p, nil
}
