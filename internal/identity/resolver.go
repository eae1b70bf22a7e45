package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/jwt"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

// RoleLookup reads the role stored on a principal's profile
type RoleLookup interface {
	GetRole(ctx context.Context, id string) (models.Role, error)
}

// Resolver turns a bearer token into an explicit Principal
type Resolver struct {
	tokens          *jwt.TokenManager
	roles           RoleLookup
	defaultRole     models.Role
	requireVerified bool
}

// NewResolver creates a resolver. defaultRole applies to principals that have
// not created a profile yet.
func NewResolver(tokens *jwt.TokenManager, roles RoleLookup, defaultRole models.Role, requireVerified bool) *Resolver {
	if !defaultRole.IsValid() {
		defaultRole = models.RoleMentee
	}
	return &Resolver{
		tokens:          tokens,
		roles:           roles,
		defaultRole:     defaultRole,
		requireVerified: requireVerified,
	}
}

// Resolve validates token and derives the principal's role. The profile role
// wins over the token claim; with neither, the default role applies.
func (r *Resolver) Resolve(ctx context.Context, token string) (models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Principal{}, apperrors.AuthError("missing access token")
	}

	claims, err := r.tokens.ValidateToken(token)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			return models.Principal{}, apperrors.AuthError("access token expired")
		default:
			return models.Principal{}, apperrors.AuthError("invalid access token")
		}
	}

	if r.requireVerified && !claims.EmailVerified {
		return models.Principal{}, apperrors.AuthError("email not verified")
	}

	principal := models.Principal{
		ID:            claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}

	role, err := r.roles.GetRole(ctx, principal.ID)
	switch {
	case err == nil && role.IsValid():
		principal.Role = role
	case err == nil || errors.Is(err, apperrors.ErrNotFound):
		principal.Role = r.fallbackRole(claims.Role)
	default:
		logger.Error("Failed to resolve principal role", zap.String("principal_id", principal.ID), zap.Error(err))
		return models.Principal{}, err
	}

	return principal, nil
}

func (r *Resolver) fallbackRole(claimed string) models.Role {
	if role := models.Role(claimed); role.IsValid() {
		return role
	}
	return r.defaultRole
}
