package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// ProfileRepository reads and writes the profiles table
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID returns a profile or a not-found error
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	start := time.Now()
	op := "getProfile"

	row := r.db.QueryRow(ctx, `SELECT `+models.ProfileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := models.ScanProfile(row)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "profile", err)
	}
	return p, nil
}

// GetRole returns only the role column, used on every authenticated request
func (r *ProfileRepository) GetRole(ctx context.Context, id string) (models.Role, error) {
	start := time.Now()
	op := "getProfileRole"

	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, id).Scan(&role)
	observe(op, start, err)
	if err != nil {
		return "", mapError(op, "profile", err)
	}
	return models.Role(role), nil
}

// Create inserts the profile of a newly registered principal
func (r *ProfileRepository) Create(ctx context.Context, id string, req *models.CreateProfileRequest) (*models.Profile, error) {
	start := time.Now()
	op := "createProfile"

	role := req.Role
	if role == "" {
		role = models.RoleMentee
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (id, username, first_name, last_name, bio, specialty, years_experience, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+models.ProfileColumns,
		id,
		req.Username,
		nilIfEmpty(req.FirstName),
		nilIfEmpty(req.LastName),
		nilIfEmpty(req.Bio),
		nilIfEmpty(req.Specialty),
		req.YearsExperience,
		string(role),
	)
	p, err := models.ScanProfile(row)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "profile", err)
	}
	return p, nil
}

// Update applies the non-nil fields of req
func (r *ProfileRepository) Update(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	start := time.Now()
	op := "updateProfile"

	sets := []string{}
	args := []any{id}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.FirstName != nil {
		add("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		add("last_name", *req.LastName)
	}
	if req.Bio != nil {
		add("bio", *req.Bio)
	}
	if req.Specialty != nil {
		add("specialty", *req.Specialty)
	}
	if req.YearsExperience != nil {
		add("years_experience", *req.YearsExperience)
	}
	if req.Role != nil {
		add("role", string(*req.Role))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	row := r.db.QueryRow(ctx,
		`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+models.ProfileColumns,
		args...)
	p, err := models.ScanProfile(row)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "profile", err)
	}
	return p, nil
}

// SetAvatar stores the avatar URL
func (r *ProfileRepository) SetAvatar(ctx context.Context, id, url string) error {
	start := time.Now()
	op := "setAvatar"

	tag, err := r.db.Exec(ctx, `UPDATE profiles SET avatar_url = $2 WHERE id = $1`, id, url)
	observe(op, start, err)
	if err != nil {
		return mapError(op, "profile", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError(op, "profile", errNoRows)
	}
	return nil
}

// SetPresence flips the online flag and stamps last_seen
func (r *ProfileRepository) SetPresence(ctx context.Context, id string, online bool) error {
	start := time.Now()
	op := "setPresence"

	_, err := r.db.Exec(ctx, `UPDATE profiles SET is_online = $2, last_seen = NOW() WHERE id = $1`, id, online)
	observe(op, start, err)
	return mapError(op, "profile", err)
}

// SearchMentors matches query against name, username, specialty and bio.
// An empty query lists mentors by experience.
func (r *ProfileRepository) SearchMentors(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	start := time.Now()
	op := "searchMentors"

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := r.db.Query(ctx, `
		SELECT `+models.ProfileColumns+`
		FROM profiles
		WHERE role IN ('mentor', 'both')
		  AND ($1 = '%%'
		       OR username ILIKE $1
		       OR first_name ILIKE $1
		       OR last_name ILIKE $1
		       OR specialty ILIKE $1
		       OR bio ILIKE $1)
		ORDER BY years_experience DESC NULLS LAST, username
		LIMIT $2`, pattern, limit)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "profile", err)
	}
	defer rows.Close()

	out := make([]*models.Profile, 0)
	for rows.Next() {
		p, err := models.ScanProfile(rows)
		if err != nil {
			observe(op, start, err)
			return nil, mapError(op, "profile", err)
		}
		out = append(out, p)
	}
	err = rows.Err()
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "profile", err)
	}
	return out, nil
}

// ListMentors returns every mentor profile, used to rebuild the search index
func (r *ProfileRepository) ListMentors(ctx context.Context) ([]*models.Profile, error) {
	return r.SearchMentors(ctx, "", 10000)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
