package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/jackc/pgx/v5"
)

// SessionRepository reads and writes the sessions table
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `s.id, s.mentorship_id, s.mentor_id, s.mentee_id, s.title,
	COALESCE(s.description, ''), s.scheduled_at, s.duration, s.status, s.created_at, s.updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	var status string
	err := row.Scan(&s.ID, &s.MentorshipID, &s.MentorID, &s.MenteeID, &s.Title,
		&s.Description, &s.ScheduledAt, &s.Duration, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	return &s, nil
}

// ListForRole returns sessions where principalID occupies side, soonest first
func (r *SessionRepository) ListForRole(ctx context.Context, principalID string, side models.Role) ([]models.SessionView, error) {
	start := time.Now()
	op := "listSessions"

	own, counterpart := sideColumns(side)
	query := fmt.Sprintf(`
		SELECT %s,
		       p.id, p.username, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
		       COALESCE(p.avatar_url, ''), COALESCE(p.specialty, ''), p.is_online,
		       r.id, r.rating, r.review, r.created_at
		FROM sessions s
		JOIN profiles p ON p.id = s.%s
		LEFT JOIN ratings r ON r.session_id = s.id
		WHERE s.%s = $1
		ORDER BY s.scheduled_at ASC`, sessionColumns, counterpart, own)

	rows, err := r.db.Query(ctx, query, principalID)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "session", err)
	}
	defer rows.Close()

	out := make([]models.SessionView, 0)
	for rows.Next() {
		var v models.SessionView
		var status string
		var ratingID, review *string
		var score *int
		var ratedAt *time.Time
		err := rows.Scan(
			&v.ID, &v.MentorshipID, &v.MentorID, &v.MenteeID, &v.Title,
			&v.Description, &v.ScheduledAt, &v.Duration, &status, &v.CreatedAt, &v.UpdatedAt,
			&v.Counterpart.ID, &v.Counterpart.Username, &v.Counterpart.FirstName, &v.Counterpart.LastName,
			&v.Counterpart.AvatarURL, &v.Counterpart.Specialty, &v.Counterpart.IsOnline,
			&ratingID, &score, &review, &ratedAt,
		)
		if err != nil {
			observe(op, start, err)
			return nil, mapError(op, "session", err)
		}
		v.Status = models.SessionStatus(status)
		if ratingID != nil && score != nil {
			v.Rating = &models.Rating{ID: *ratingID, SessionID: v.ID, Rating: *score}
			if review != nil {
				v.Rating.Review = *review
			}
			if ratedAt != nil {
				v.Rating.CreatedAt = *ratedAt
			}
		}
		out = append(out, v)
	}
	err = rows.Err()
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "session", err)
	}
	return out, nil
}

// GetByID returns one session
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	start := time.Now()
	op := "getSession"

	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = $1`, id))
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "session", err)
	}
	return s, nil
}

// Create inserts a scheduled session
func (r *SessionRepository) Create(ctx context.Context, in *models.Session) (*models.Session, error) {
	start := time.Now()
	op := "createSession"

	s, err := scanSession(r.db.QueryRow(ctx, `
		INSERT INTO sessions AS s (mentorship_id, mentor_id, mentee_id, title, description, scheduled_at, duration, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled')
		RETURNING `+sessionColumns,
		in.MentorshipID, in.MentorID, in.MenteeID, in.Title, nilIfEmpty(in.Description), in.ScheduledAt, in.Duration))
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "session", err)
	}
	return s, nil
}

// Update writes req to the session only when principalID owns it on side.
// The ownership predicate lives in the WHERE clause; a session that is missing
// or owned by someone else returns (nil, false, nil).
func (r *SessionRepository) Update(ctx context.Context, principalID string, side models.Role, id string, req *models.UpdateSessionRequest) (*models.Session, bool, error) {
	start := time.Now()
	op := "updateSession"

	own, _ := sideColumns(side)
	sets := []string{}
	args := []any{id, principalID}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.ScheduledAt != nil {
		add("scheduled_at", *req.ScheduledAt)
	}
	if req.Duration != nil {
		add("duration", *req.Duration)
	}
	if req.Status != nil {
		add("status", string(*req.Status))
	}
	if len(sets) == 0 {
		return nil, false, nil
	}

	query := fmt.Sprintf(`UPDATE sessions AS s SET %s WHERE s.id = $1 AND s.%s = $2 RETURNING %s`,
		strings.Join(sets, ", "), own, sessionColumns)
	s, err := scanSession(r.db.QueryRow(ctx, query, args...))
	observe(op, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, mapError(op, "session", err)
	}
	return s, true, nil
}
