package search

import (
	"context"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// mentorLister is the part of the profile store used for searching
type mentorLister interface {
	SearchMentors(ctx context.Context, query string, limit int) ([]*models.Profile, error)
}

// PostgresBackend searches with ILIKE against the profiles table.
// It keeps no index of its own.
type PostgresBackend struct {
	profiles mentorLister
}

// NewPostgresBackend creates a backend over the profile store
func NewPostgresBackend(profiles mentorLister) *PostgresBackend {
	return &PostgresBackend{profiles: profiles}
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Search(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error) {
	profiles, err := b.profiles.SearchMentors(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.MentorSearchResult, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, resultFromProfile(p))
	}
	return out, nil
}

func (b *PostgresBackend) IndexProfile(context.Context, *models.Profile) error { return nil }

func (b *PostgresBackend) Remove(context.Context, string) error { return nil }
