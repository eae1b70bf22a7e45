package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/jackc/pgx/v5"
)

// MentorshipRepository reads and writes the mentorships table
type MentorshipRepository struct {
	db DBTX
}

// NewMentorshipRepository creates a new mentorship repository
func NewMentorshipRepository(db DBTX) *MentorshipRepository {
	return &MentorshipRepository{db: db}
}

const mentorshipColumns = `m.id, m.mentor_id, m.mentee_id, m.status, m.created_at, m.updated_at`

func scanMentorship(row pgx.Row) (*models.Mentorship, error) {
	var m models.Mentorship
	var status string
	if err := row.Scan(&m.ID, &m.MentorID, &m.MenteeID, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Status = models.MentorshipStatus(status)
	return &m, nil
}

// sideColumns returns the principal's column and the counterpart's column for side
func sideColumns(side models.Role) (own, counterpart string) {
	if side == models.RoleMentor {
		return "mentor_id", "mentee_id"
	}
	return "mentee_id", "mentor_id"
}

func relationshipQuery(side models.Role, extra string) string {
	own, counterpart := sideColumns(side)
	return fmt.Sprintf(`
		SELECT %s,
		       p.id, p.username, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
		       COALESCE(p.avatar_url, ''), COALESCE(p.specialty, ''), p.is_online,
		       (SELECT COUNT(*) FROM sessions s
		         WHERE s.status = 'completed'
		           AND s.mentor_id = m.mentor_id
		           AND s.mentee_id = m.mentee_id) AS sessions_completed
		FROM mentorships m
		JOIN profiles p ON p.id = m.%s
		WHERE m.%s = $1 %s`, mentorshipColumns, counterpart, own, extra)
}

func scanRelationshipView(row pgx.Row) (*models.RelationshipView, error) {
	var v models.RelationshipView
	var status string
	err := row.Scan(
		&v.ID, &v.MentorID, &v.MenteeID, &status, &v.CreatedAt, &v.UpdatedAt,
		&v.Counterpart.ID, &v.Counterpart.Username, &v.Counterpart.FirstName, &v.Counterpart.LastName,
		&v.Counterpart.AvatarURL, &v.Counterpart.Specialty, &v.Counterpart.IsOnline,
		&v.SessionsCompleted,
	)
	if err != nil {
		return nil, err
	}
	v.Status = models.MentorshipStatus(status)
	return &v, nil
}

// ListForRole returns the pairings where principalID occupies side, joined to
// the counterpart profile with a completed-session count. Row order is not defined.
func (r *MentorshipRepository) ListForRole(ctx context.Context, principalID string, side models.Role, includePending bool) ([]models.RelationshipView, error) {
	start := time.Now()
	op := "listRelationships"

	rows, err := r.db.Query(ctx, relationshipQuery(side, `AND ($2 OR m.status <> 'pending')`), principalID, includePending)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "relationship", err)
	}
	defer rows.Close()

	out := make([]models.RelationshipView, 0)
	for rows.Next() {
		v, err := scanRelationshipView(rows)
		if err != nil {
			observe(op, start, err)
			return nil, mapError(op, "relationship", err)
		}
		out = append(out, *v)
	}
	err = rows.Err()
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "relationship", err)
	}
	return out, nil
}

// GetView returns one pairing as seen from side
func (r *MentorshipRepository) GetView(ctx context.Context, principalID string, side models.Role, mentorshipID string) (*models.RelationshipView, error) {
	start := time.Now()
	op := "getRelationshipView"

	v, err := scanRelationshipView(r.db.QueryRow(ctx, relationshipQuery(side, `AND m.id = $2`), principalID, mentorshipID))
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "relationship", err)
	}
	return v, nil
}

// GetByID returns one pairing
func (r *MentorshipRepository) GetByID(ctx context.Context, id string) (*models.Mentorship, error) {
	start := time.Now()
	op := "getMentorship"

	m, err := scanMentorship(r.db.QueryRow(ctx, `SELECT `+mentorshipColumns+` FROM mentorships m WHERE m.id = $1`, id))
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "relationship", err)
	}
	return m, nil
}

// GetByPair returns the pairing of mentorID and menteeID
func (r *MentorshipRepository) GetByPair(ctx context.Context, mentorID, menteeID string) (*models.Mentorship, error) {
	start := time.Now()
	op := "getMentorshipByPair"

	m, err := scanMentorship(r.db.QueryRow(ctx,
		`SELECT `+mentorshipColumns+` FROM mentorships m WHERE m.mentor_id = $1 AND m.mentee_id = $2`,
		mentorID, menteeID))
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "relationship", err)
	}
	return m, nil
}

// ListInvolving returns every pairing where principalID is mentor or mentee
func (r *MentorshipRepository) ListInvolving(ctx context.Context, principalID string) ([]models.Mentorship, error) {
	start := time.Now()
	op := "listMentorshipsInvolving"

	rows, err := r.db.Query(ctx,
		`SELECT `+mentorshipColumns+` FROM mentorships m WHERE m.mentor_id = $1 OR m.mentee_id = $1`,
		principalID)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "relationship", err)
	}
	defer rows.Close()

	out := make([]models.Mentorship, 0)
	for rows.Next() {
		m, err := scanMentorship(rows)
		if err != nil {
			observe(op, start, err)
			return nil, mapError(op, "relationship", err)
		}
		out = append(out, *m)
	}
	err = rows.Err()
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "relationship", err)
	}
	return out, nil
}

// Create inserts a pending pairing. A duplicate pair is a conflict.
func (r *MentorshipRepository) Create(ctx context.Context, mentorID, menteeID string) (*models.Mentorship, error) {
	start := time.Now()
	op := "createMentorship"

	m, err := scanMentorship(r.db.QueryRow(ctx, `
		INSERT INTO mentorships AS m (mentor_id, mentee_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING `+mentorshipColumns, mentorID, menteeID))
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "relationship", err)
	}
	return m, nil
}

// UpdateStatus writes to only if the row still has status from.
// A row that moved on in between is reported as a conflict.
func (r *MentorshipRepository) UpdateStatus(ctx context.Context, id string, from, to models.MentorshipStatus) (*models.Mentorship, error) {
	start := time.Now()
	op := "updateMentorshipStatus"

	m, err := scanMentorship(r.db.QueryRow(ctx, `
		UPDATE mentorships AS m SET status = $3
		WHERE m.id = $1 AND m.status = $2
		RETURNING `+mentorshipColumns, id, string(from), string(to)))
	observe(op, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ConflictError("relationship status changed concurrently")
		}
		return nil, mapError(op, "relationship", err)
	}
	return m, nil
}
