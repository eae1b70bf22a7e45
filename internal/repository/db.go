package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX is the query surface shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgreSQL error codes mapped to the error taxonomy
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidTextRep      = "22P02"
)

// mapError converts a pgx error into an apperrors kind. resource names the
// entity for not-found errors.
func mapError(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFoundError(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperrors.ConflictError(constraintLabel(pgErr, resource+" already exists"))
		case pgForeignKeyViolation:
			return apperrors.NotFoundError("referenced " + constraintLabel(pgErr, "record"))
		case pgCheckViolation:
			return apperrors.ValidationError(resource, constraintLabel(pgErr, "check failed"))
		case pgInvalidTextRep:
			return apperrors.NotFoundError(resource)
		}
	}

	return apperrors.QueryError(op, err)
}

func constraintLabel(pgErr *pgconn.PgError, fallback string) string {
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return fallback
}

// observe records metrics and a debug log line for one database operation.
// Not-found results are not counted as errors.
func observe(op string, start time.Time, err error) {
	metricErr := err
	if errors.Is(err, pgx.ErrNoRows) {
		metricErr = nil
	}
	metrics.ObserveDB(op, start, metricErr)

	duration := metrics.MeasureDuration(start)
	if metricErr != nil {
		logger.LogAPICall("postgres", op, "error", duration, zap.Error(err))
		return
	}
	logger.LogAPICall("postgres", op, "success", duration)
}

// errNoRows lets Exec paths reuse the not-found mapping
var errNoRows = pgx.ErrNoRows

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
