package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"nil", nil, ""},
		{"no rows", pgx.ErrNoRows, apperrors.KindNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.KindNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "mentorships_pair_key"}, apperrors.KindConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperrors.KindNotFound},
		{"check", &pgconn.PgError{Code: "23514"}, apperrors.KindValidation},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, apperrors.KindNotFound},
		{"other pg", &pgconn.PgError{Code: "57014"}, apperrors.KindQuery},
		{"timeout", context.DeadlineExceeded, apperrors.KindQuery},
		{"plain", errors.New("connection refused"), apperrors.KindQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, apperrors.KindOf(mapError("op", "session", tt.err)))
		})
	}
}

func TestMapErrorConflictNamesConstraint(t *testing.T) {
	err := mapError("createProfile", "profile", &pgconn.PgError{Code: "23505", ConstraintName: "profiles_username_key"})
	assert.Contains(t, err.Error(), "profiles_username_key")
	assert.True(t, errors.Is(err, apperrors.ErrQuery))
}

func TestObserveDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		observe("listSessions", time.Now(), nil)
		observe("getSession", time.Now(), pgx.ErrNoRows)
		observe("createSession", time.Now(), errors.New("boom"))
	})
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(""))
	assert.Equal(t, "x", *nilIfEmpty("x"))
}
