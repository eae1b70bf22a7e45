package services

import (
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
)

var (
	errNoPrincipal = apperrors.AuthError("no authenticated principal")
	errInvalidSide = apperrors.ValidationError("role", "must be mentor or mentee")
)

func errWrongSide(side models.Role) error {
	return apperrors.ValidationError("role", "principal cannot act as "+string(side))
}
