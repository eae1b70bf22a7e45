package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	name    string
	results []models.MentorSearchResult
	err     error
	indexed []string
	removed []string
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Search(context.Context, string, int) ([]models.MentorSearchResult, error) {
	return s.results, s.err
}

func (s *stubBackend) IndexProfile(_ context.Context, p *models.Profile) error {
	s.indexed = append(s.indexed, p.ID)
	return s.err
}

func (s *stubBackend) Remove(_ context.Context, id string) error {
	s.removed = append(s.removed, id)
	return s.err
}

type stubLister struct {
	profiles []*models.Profile
	query    string
}

func (s *stubLister) SearchMentors(_ context.Context, query string, _ int) ([]*models.Profile, error) {
	s.query = query
	return s.profiles, nil
}

type memIndex struct {
	docs map[string]mentorDoc
	fail error
}

func (m *memIndex) Upsert(doc mentorDoc) error {
	if m.fail != nil {
		return m.fail
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memIndex) Delete(id string) error {
	delete(m.docs, id)
	return m.fail
}

func (m *memIndex) SearchRaw(string, int64) ([]byte, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	hits := make([]mentorDoc, 0, len(m.docs))
	for _, d := range m.docs {
		hits = append(hits, d)
	}
	return json.Marshal(map[string]any{"hits": hits})
}

func TestDirectory_FallsBackOnPrimaryError(t *testing.T) {
	primary := &stubBackend{name: "meilisearch", err: errors.New("unreachable")}
	fallback := &stubBackend{name: "postgres", results: []models.MentorSearchResult{{ProfileSummary: models.ProfileSummary{ID: "m1"}}}}

	res, err := NewDirectory(primary, fallback).Search(context.Background(), " go ", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "m1", res[0].ID)
}

func TestDirectory_NoPrimary(t *testing.T) {
	fallback := &stubBackend{name: "postgres"}
	d := NewDirectory(nil, fallback)

	_, err := d.Search(context.Background(), "", 5)
	assert.NoError(t, err)
	assert.NoError(t, d.IndexProfile(context.Background(), &models.Profile{ID: "p", Role: models.RoleMentor}))
}

func TestDirectory_IndexProfileRemovesNonMentors(t *testing.T) {
	primary := &stubBackend{name: "meilisearch"}
	d := NewDirectory(primary, &stubBackend{name: "postgres"})
	ctx := context.Background()

	require.NoError(t, d.IndexProfile(ctx, &models.Profile{ID: "a", Role: models.RoleBoth}))
	require.NoError(t, d.IndexProfile(ctx, &models.Profile{ID: "b", Role: models.RoleMentee}))

	assert.Equal(t, []string{"a"}, primary.indexed)
	assert.Equal(t, []string{"b"}, primary.removed)
}

func TestPostgresBackend_MapsProfiles(t *testing.T) {
	lister := &stubLister{profiles: []*models.Profile{{ID: "m1", Username: "ada", Bio: "<b>Go</b> &amp; Rust", Specialty: ""}}}
	res, err := NewPostgresBackend(lister).Search(context.Background(), "go", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "go", lister.query)
	assert.Equal(t, "Go & Rust", res[0].Bio)
	assert.Equal(t, models.DefaultSkills, res[0].Skills)
}

func TestMeiliBackend_RoundTrip(t *testing.T) {
	idx := &memIndex{docs: map[string]mentorDoc{}}
	b := newMeiliBackend(idx)
	ctx := context.Background()

	years := 7
	require.NoError(t, b.IndexProfile(ctx, &models.Profile{
		ID: "m1", Username: "grace", Specialty: "Go, Databases", YearsExperience: &years, Role: models.RoleMentor,
	}))

	res, err := b.Search(ctx, "grace", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "grace", res[0].Username)
	assert.Equal(t, []string{"Go", "Databases"}, res[0].Skills)
	assert.Equal(t, 7, *res[0].YearsExperience)

	require.NoError(t, b.Remove(ctx, "m1"))
	assert.Empty(t, idx.docs)
}

func TestMeiliBackend_SearchError(t *testing.T) {
	b := newMeiliBackend(&memIndex{docs: map[string]mentorDoc{}, fail: errors.New("down")})
	_, err := b.Search(context.Background(), "x", 1)
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Hello world", cleanText("<p>Hello</p><script>alert(1)</script>world"))
	assert.Equal(t, "a b", cleanText("  a \n\t b "))
}
