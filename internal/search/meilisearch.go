package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/pkg/circuitbreaker"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/retry"
	"github.com/meilisearch/meilisearch-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// documentIndex is the subset of a Meilisearch index used here
type documentIndex interface {
	Upsert(doc mentorDoc) error
	Delete(id string) error
	SearchRaw(query string, limit int64) ([]byte, error)
}

type mentorDoc struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	AvatarURL       string   `json:"avatar_url"`
	Specialty       string   `json:"specialty"`
	Bio             string   `json:"bio"`
	YearsExperience *int     `json:"years_experience"`
	Skills          []string `json:"skills"`
	IsOnline        bool     `json:"is_online"`
}

func docFromProfile(p *models.Profile) mentorDoc {
	r := resultFromProfile(p)
	return mentorDoc{
		ID:              r.ID,
		Username:        r.Username,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		AvatarURL:       r.AvatarURL,
		Specialty:       r.Specialty,
		Bio:             r.Bio,
		YearsExperience: r.YearsExperience,
		Skills:          r.Skills,
		IsOnline:        r.IsOnline,
	}
}

func (d mentorDoc) result() models.MentorSearchResult {
	return models.MentorSearchResult{
		ProfileSummary: models.ProfileSummary{
			ID:        d.ID,
			Username:  d.Username,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			AvatarURL: d.AvatarURL,
			Specialty: d.Specialty,
			IsOnline:  d.IsOnline,
		},
		Bio:             d.Bio,
		YearsExperience: d.YearsExperience,
		Skills:          d.Skills,
	}
}

// MeiliBackend is the Meilisearch-backed directory
type MeiliBackend struct {
	index   documentIndex
	breaker *gobreaker.CircuitBreaker
}

// NewMeiliBackend connects to host and configures the mentors index
func NewMeiliBackend(host, apiKey, indexName string) *MeiliBackend {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	idx := client.Index(indexName)

	filterable := []any{"skills", "is_online"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		logger.Warn("Failed to update filterable attributes", zap.String("index", indexName), zap.Error(err))
	}
	sortable := []string{"years_experience"}
	if _, err := idx.UpdateSortableAttributes(&sortable); err != nil {
		logger.Warn("Failed to update sortable attributes", zap.String("index", indexName), zap.Error(err))
	}

	logger.Info("Meilisearch index configured", zap.String("host", host), zap.String("index", indexName))
	return newMeiliBackend(&meiliIndex{index: idx})
}

func newMeiliBackend(index documentIndex) *MeiliBackend {
	return &MeiliBackend{
		index:   index,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("meilisearch")),
	}
}

func (b *MeiliBackend) Name() string { return "meilisearch" }

func (b *MeiliBackend) Search(ctx context.Context, query string, limit int) ([]models.MentorSearchResult, error) {
	raw, err := circuitbreaker.Execute(b.breaker, func() ([]byte, error) {
		return b.index.SearchRaw(query, int64(limit))
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Hits []mentorDoc `json:"hits"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	out := make([]models.MentorSearchResult, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		out = append(out, h.result())
	}
	return out, nil
}

func (b *MeiliBackend) IndexProfile(ctx context.Context, p *models.Profile) error {
	doc := docFromProfile(p)
	return retry.Do(ctx, retry.SearchConfig(), "meilisearch.index", func() error {
		return circuitbreaker.Run(b.breaker, func() error { return b.index.Upsert(doc) })
	})
}

func (b *MeiliBackend) Remove(ctx context.Context, profileID string) error {
	return retry.Do(ctx, retry.SearchConfig(), "meilisearch.remove", func() error {
		return circuitbreaker.Run(b.breaker, func() error { return b.index.Delete(profileID) })
	})
}

// meiliIndex adapts meilisearch.IndexManager to documentIndex
type meiliIndex struct {
	index meilisearch.IndexManager
}

func (m *meiliIndex) Upsert(doc mentorDoc) error {
	primaryKey := "id"
	_, err := m.index.AddDocuments([]mentorDoc{doc}, &primaryKey)
	return err
}

func (m *meiliIndex) Delete(id string) error {
	_, err := m.index.DeleteDocument(id)
	return err
}

func (m *meiliIndex) SearchRaw(query string, limit int64) ([]byte, error) {
	raw, err := m.index.SearchRaw(query, &meilisearch.SearchRequest{Limit: limit})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []byte(`{"hits":[]}`), nil
	}
	return *raw, nil
}
