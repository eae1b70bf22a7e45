package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/services"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
)

// ProfileHandler handles profile and directory endpoints
type ProfileHandler struct {
	profileService services.ProfileServiceInterface
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService services.ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// MeResponse is the principal together with its profile, if registered
type MeResponse struct {
	Principal models.Principal `json:"principal"`
	Profile   *models.Profile  `json:"profile"`
}

// Me handles GET /api/v1/me
func (h *ProfileHandler) Me(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	profile, err := h.profileService.GetOwnProfile(c.Request.Context(), p)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, MeResponse{Principal: p, Profile: profile})
}

// GetOwnProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	profile, err := h.profileService.GetOwnProfile(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, profile)
}

// GetProfile handles GET /api/v1/profiles/:id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, profile)
}

// CreateProfile handles POST /api/v1/profile
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	profile, err := h.profileService.CreateProfile(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, profile)
}

// UpdateProfile handles PATCH /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.IsEmpty() {
		respondError(c, apperrors.ValidationError("body", "no fields to update"))
		return
	}
	profile, err := h.profileService.UpdateProfile(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, profile)
}

// UploadAvatar handles POST /api/v1/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	p, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req models.UploadAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := h.profileService.UploadAvatar(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// SearchMentors handles GET /api/v1/mentors?q=&limit=
func (h *ProfileHandler) SearchMentors(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.ValidationError("limit", "must be a number"))
			return
		}
		limit = n
	}
	results, err := h.profileService.SearchMentors(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, results)
}
