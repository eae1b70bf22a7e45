package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/jackc/pgx/v5"
)

// MessageRepository reads and writes conversations and messages
type MessageRepository struct {
	db DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `msg.id, msg.conversation_id, c.mentorship_id, msg.sender_id, msg.content, msg.is_read, msg.created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.MentorshipID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForPrincipal returns the newest messages across every conversation of
// the principal's relationships, newest first, with sender profiles.
func (r *MessageRepository) ListForPrincipal(ctx context.Context, principalID string, limit int) ([]models.Message, error) {
	start := time.Now()
	op := "listMessages"

	rows, err := r.db.Query(ctx, `
		SELECT `+messageColumns+`,
		       p.id, p.username, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
		       COALESCE(p.avatar_url, ''), COALESCE(p.specialty, ''), p.is_online
		FROM messages msg
		JOIN conversations c ON c.id = msg.conversation_id
		JOIN mentorships m ON m.id = c.mentorship_id
		JOIN profiles p ON p.id = msg.sender_id
		WHERE m.mentor_id = $1 OR m.mentee_id = $1
		ORDER BY msg.created_at DESC, msg.id
		LIMIT $2`, principalID, limit)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "message", err)
	}
	defer rows.Close()

	out := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		var sender models.ProfileSummary
		err := rows.Scan(
			&m.ID, &m.ConversationID, &m.MentorshipID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt,
			&sender.ID, &sender.Username, &sender.FirstName, &sender.LastName,
			&sender.AvatarURL, &sender.Specialty, &sender.IsOnline,
		)
		if err != nil {
			observe(op, start, err)
			return nil, mapError(op, "message", err)
		}
		m.Sender = &sender
		out = append(out, m)
	}
	err = rows.Err()
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "message", err)
	}
	return out, nil
}

// CountUnread counts messages addressed to the principal that are not read
func (r *MessageRepository) CountUnread(ctx context.Context, principalID string) (int, error) {
	start := time.Now()
	op := "countUnread"

	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages msg
		JOIN conversations c ON c.id = msg.conversation_id
		JOIN mentorships m ON m.id = c.mentorship_id
		WHERE (m.mentor_id = $1 OR m.mentee_id = $1)
		  AND msg.sender_id <> $1
		  AND NOT msg.is_read`, principalID).Scan(&n)
	observe(op, start, err)
	if err != nil {
		return 0, mapError(op, "message", err)
	}
	return n, nil
}

// MarkRead sets is_read on a message the principal received. It reports
// whether the row changed; an already-read or foreign message changes nothing.
func (r *MessageRepository) MarkRead(ctx context.Context, principalID, messageID string) (bool, error) {
	start := time.Now()
	op := "markRead"

	tag, err := r.db.Exec(ctx, `
		UPDATE messages AS msg SET is_read = TRUE
		FROM conversations c
		JOIN mentorships m ON m.id = c.mentorship_id
		WHERE msg.id = $1
		  AND c.id = msg.conversation_id
		  AND (m.mentor_id = $2 OR m.mentee_id = $2)
		  AND msg.sender_id <> $2
		  AND NOT msg.is_read`, messageID, principalID)
	observe(op, start, err)
	if err != nil {
		return false, mapError(op, "message", err)
	}
	return tag.RowsAffected() > 0, nil
}

// EnsureConversation returns the conversation of a relationship, creating it
// on first use. Concurrent callers converge on the same row.
func (r *MessageRepository) EnsureConversation(ctx context.Context, mentorshipID string) (*models.Conversation, error) {
	start := time.Now()
	op := "ensureConversation"

	_, err := r.db.Exec(ctx,
		`INSERT INTO conversations (mentorship_id) VALUES ($1) ON CONFLICT (mentorship_id) DO NOTHING`,
		mentorshipID)
	if err != nil {
		observe(op, start, err)
		return nil, mapError(op, "conversation", err)
	}

	var c models.Conversation
	err = r.db.QueryRow(ctx,
		`SELECT id, mentorship_id, created_at FROM conversations WHERE mentorship_id = $1`,
		mentorshipID).Scan(&c.ID, &c.MentorshipID, &c.CreatedAt)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "conversation", err)
	}
	return &c, nil
}

// Create inserts a message. When id is set the insert is idempotent: a retry
// with the same id returns the stored message instead of a duplicate.
func (r *MessageRepository) Create(ctx context.Context, id, conversationID, senderID, content string) (*models.Message, error) {
	start := time.Now()
	op := "createMessage"

	if id == "" {
		m, err := scanMessage(r.db.QueryRow(ctx, `
			WITH msg AS (
				INSERT INTO messages (conversation_id, sender_id, content)
				VALUES ($1, $2, $3)
				RETURNING *
			)
			SELECT `+messageColumns+` FROM msg JOIN conversations c ON c.id = msg.conversation_id`,
			conversationID, senderID, content))
		observe(op, start, err)
		if err != nil {
			return nil, mapError(op, "message", err)
		}
		return m, nil
	}

	m, err := scanMessage(r.db.QueryRow(ctx, `
		WITH msg AS (
			INSERT INTO messages (id, conversation_id, sender_id, content)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
			RETURNING *
		)
		SELECT `+messageColumns+` FROM msg JOIN conversations c ON c.id = msg.conversation_id`,
		id, conversationID, senderID, content))
	if errors.Is(err, pgx.ErrNoRows) {
		m, err = r.getByID(ctx, id)
		if err == nil && (m.SenderID != senderID || m.ConversationID != conversationID) {
			observe(op, start, nil)
			return nil, apperrors.ConflictError("message id already used")
		}
	}
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "message", err)
	}
	return m, nil
}

func (r *MessageRepository) getByID(ctx context.Context, id string) (*models.Message, error) {
	return scanMessage(r.db.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages msg JOIN conversations c ON c.id = msg.conversation_id
		WHERE msg.id = $1`, id))
}

// ConversationParticipants returns the mentor and mentee of a conversation
func (r *MessageRepository) ConversationParticipants(ctx context.Context, conversationID string) (mentorID, menteeID string, err error) {
	start := time.Now()
	op := "conversationParticipants"

	err = r.db.QueryRow(ctx, `
		SELECT m.mentor_id, m.mentee_id
		FROM conversations c JOIN mentorships m ON m.id = c.mentorship_id
		WHERE c.id = $1`, conversationID).Scan(&mentorID, &menteeID)
	observe(op, start, err)
	if err != nil {
		return "", "", mapError(op, "conversation", err)
	}
	return mentorID, menteeID, nil
}
