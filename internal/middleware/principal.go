package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"go.uber.org/zap"
)

// PrincipalContextKey stores the authenticated principal in the gin context
const PrincipalContextKey = "principal"

var (
	ErrPrincipalNotFound = errors.New("principal not found in context")
	ErrInvalidPrincipal  = errors.New("invalid principal type")
)

// PrincipalResolver turns a bearer token into a principal
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// TokenSource controls where tokens are read from besides the Authorization
// header. Browsers cannot set headers on a WebSocket handshake, so the live
// endpoint may accept the token as a query parameter.
type TokenSource struct {
	AllowQuery bool
	QueryParam string
}

// PrincipalMiddleware resolves the caller and stores it in the context.
// Requests without a valid token are rejected with 401.
func PrincipalMiddleware(resolver PrincipalResolver, src TokenSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && src.AllowQuery && src.QueryParam != "" {
			token = c.Query(src.QueryParam)
		}

		principal, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err) //nolint:errcheck
			kind := apperrors.KindOf(err)
			status := http.StatusUnauthorized
			message := "Unauthorized"
			if kind != apperrors.KindAuth {
				status = http.StatusInternalServerError
				message = "Failed to resolve principal"
				logger.Error("Principal resolution failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
			} else {
				logger.Debug("Rejected unauthenticated request",
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
					zap.Error(err))
			}
			c.AbortWithStatusJSON(status, models.Fail[any](kind, message))
			return
		}

		c.Set(PrincipalContextKey, principal)
		c.Next()
	}
}

// GetPrincipal retrieves the principal stored by PrincipalMiddleware
func GetPrincipal(c *gin.Context) (models.Principal, error) {
	v, exists := c.Get(PrincipalContextKey)
	if !exists {
		return models.Principal{}, ErrPrincipalNotFound
	}
	p, ok := v.(models.Principal)
	if !ok {
		return models.Principal{}, ErrInvalidPrincipal
	}
	return p, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
