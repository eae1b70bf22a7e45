package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mentorconnect/mentorconnect-api/internal/middleware"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
)

// statusForKind maps an error kind to its HTTP status
func statusForKind(kind string) int {
	switch kind {
	case apperrors.KindAuth:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperrors.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError writes the failure envelope for err. Query errors hide their
// cause from the client; it is still logged through the context.
func respondError(c *gin.Context, err error) {
	attachError(c, err)
	kind := apperrors.KindOf(err)
	message := err.Error()
	if kind == apperrors.KindQuery {
		message = "Request failed"
	}
	c.JSON(statusForKind(kind), models.Fail[any](kind, message))
}

// respondBindError reports a malformed or invalid request body
func respondBindError(c *gin.Context, err error) {
	attachError(c, err)
	message := "Invalid request body"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, v := range ParseValidationErrors(verrs) {
			parts = append(parts, v.Message)
		}
		message = strings.Join(parts, "; ")
	}
	c.JSON(http.StatusBadRequest, models.Fail[any](apperrors.KindValidation, message))
}

// respondOK writes the success envelope
func respondOK[T any](c *gin.Context, status int, data T) {
	c.JSON(status, models.Ok(data))
}

// principalOrAbort returns the principal, writing a 401 when it is absent
func principalOrAbort(c *gin.Context) (models.Principal, bool) {
	p, err := middleware.GetPrincipal(c)
	if err != nil {
		respondError(c, apperrors.AuthError(err.Error()))
		return models.Principal{}, false
	}
	return p, true
}

// sideParam reads the mentor|mentee selector from the role query parameter,
// defaulting to the principal's own role when it is not "both"
func sideParam(c *gin.Context, p models.Principal) (models.Role, bool) {
	raw := c.Query("role")
	if raw == "" && p.Role != models.RoleBoth {
		raw = string(p.Role)
	}
	side, ok := models.ParseSide(raw)
	if !ok {
		respondError(c, apperrors.ValidationError("role", "must be mentor or mentee"))
		return "", false
	}
	return side, true
}
