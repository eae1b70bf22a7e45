package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	apperrors "github.com/mentorconnect/mentorconnect-api/pkg/errors"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	"github.com/mentorconnect/mentorconnect-api/pkg/retry"
	"github.com/mentorconnect/mentorconnect-api/pkg/storage"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// AvatarStorage uploads avatar images
type AvatarStorage interface {
	UploadImage(ctx context.Context, imageData, key, contentType string) (string, error)
}

// MentorDirectory searches and indexes mentor profiles
type MentorDirectory interface {
	Search(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error)
	IndexProfile(ctx context.Context, p *models.Profile) error
}

// ProfileService implements the profile accessor
type ProfileService struct {
	profiles  repository.ProfileStore
	storage   AvatarStorage
	directory MentorDirectory
	announcer *Announcer
}

// NewProfileService creates a profile service. storage may be nil when object
// storage is not configured.
func NewProfileService(
	profiles repository.ProfileStore,
	storage AvatarStorage,
	directory MentorDirectory,
	announcer *Announcer,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		storage:   storage,
		directory: directory,
		announcer: announcer,
	}
}

// GetProfile returns any profile by id
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// GetOwnProfile returns the principal's profile
func (s *ProfileService) GetOwnProfile(ctx context.Context, principal models.Principal) (*models.Profile, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, principal.ID)
}

// CreateProfile completes registration. Without an explicit role the
// principal's resolved role is stored.
func (s *ProfileService) CreateProfile(ctx context.Context, principal models.Principal, req *models.CreateProfileRequest) (*models.Profile, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	in := *req
	in.Bio = sanitizeText(in.Bio)
	in.Specialty = sanitizeText(in.Specialty)
	if in.Role == "" {
		in.Role = principal.Role
	}

	p, err := s.profiles.Create(ctx, principal.ID, &in)
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues("create", "error").Inc()
		logger.Error("Failed to create profile", zap.String("principal_id", principal.ID), zap.Error(err))
		return nil, err
	}

	metrics.ProfileUpdates.WithLabelValues("create", "success").Inc()
	logger.Info("Profile created", zap.String("principal_id", principal.ID), zap.String("role", string(p.Role)))
	s.index(ctx, p)
	return p, nil
}

// UpdateProfile applies a partial update to the principal's profile
func (s *ProfileService) UpdateProfile(ctx context.Context, principal models.Principal, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	in := *req
	if in.Bio != nil {
		bio := sanitizeText(*in.Bio)
		in.Bio = &bio
	}
	if in.Specialty != nil {
		specialty := sanitizeText(*in.Specialty)
		in.Specialty = &specialty
	}

	p, err := s.profiles.Update(ctx, principal.ID, &in)
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues("update", "error").Inc()
		logger.Error("Failed to update profile", zap.String("principal_id", principal.ID), zap.Error(err))
		s.announcer.Failure(ctx, principal, "Profile not saved", err)
		return nil, err
	}

	metrics.ProfileUpdates.WithLabelValues("update", "success").Inc()
	logger.Info("Profile updated", zap.String("principal_id", principal.ID))
	s.index(ctx, p)
	return p, nil
}

// UploadAvatar stores a base64 image and records its URL on the profile
func (s *ProfileService) UploadAvatar(ctx context.Context, principal models.Principal, req *models.UploadAvatarRequest) (*models.UploadAvatarResponse, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, apperrors.ValidationError("avatar", "object storage is not configured")
	}

	ext, err := storage.ValidateImageType(req.ContentType)
	if err != nil {
		return nil, apperrors.ValidationError("contentType", err.Error())
	}
	if err := storage.ValidateImageSize(req.Image); err != nil {
		return nil, apperrors.ValidationError("image", err.Error())
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", principal.ID, uuid.NewString(), ext)
	url, err := retry.DoWithResult(ctx, retry.StorageConfig(), "storage.uploadAvatar", func() (string, error) {
		return s.storage.UploadImage(ctx, req.Image, key, req.ContentType)
	})
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues("avatar", "error").Inc()
		logger.Error("Failed to upload avatar", zap.String("principal_id", principal.ID), zap.Error(err))
		return nil, apperrors.QueryError("uploadAvatar", err)
	}

	if err := s.profiles.SetAvatar(ctx, principal.ID, url); err != nil {
		metrics.ProfileUpdates.WithLabelValues("avatar", "error").Inc()
		return nil, err
	}

	metrics.ProfileUpdates.WithLabelValues("avatar", "success").Inc()
	logger.Info("Avatar uploaded", zap.String("principal_id", principal.ID), zap.String("url", url))
	return &models.UploadAvatarResponse{AvatarURL: url}, nil
}

// SetPresence marks the principal online or offline
func (s *ProfileService) SetPresence(ctx context.Context, principal models.Principal, online bool) error {
	if err := requirePrincipal(principal); err != nil {
		return err
	}
	err := s.profiles.SetPresence(ctx, principal.ID, online)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		logger.Warn("Failed to update presence", zap.String("principal_id", principal.ID), zap.Bool("online", online), zap.Error(err))
		return err
	}
	return nil
}

// SearchMentors browses the mentor directory
func (s *ProfileService) SearchMentors(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error) {
	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}
	start := time.Now()
	res, err := s.directory.Search(ctx, query, limit)
	if err != nil {
		logger.Error("Mentor search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	logger.Debug("Mentor search",
		zap.String("query", query),
		zap.Int("count", len(res)),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (s *ProfileService) index(ctx context.Context, p *models.Profile) {
	if s.directory == nil {
		return
	}
	if err := s.directory.IndexProfile(ctx, p); err != nil {
		logger.Warn("Profile saved but not indexed", zap.String("profile_id", p.ID), zap.Error(err))
	}
}
