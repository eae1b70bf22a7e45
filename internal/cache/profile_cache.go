package cache

import (
	"context"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
	"github.com/mentorconnect/mentorconnect-api/internal/repository"
	"github.com/mentorconnect/mentorconnect-api/pkg/logger"
	"github.com/mentorconnect/mentorconnect-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	profileKeyPrefix = "profile:id:"
	cacheCheckPeriod = 30 * time.Second
	cacheName        = "profile"
)

// ProfileCache is a read-through cache in front of a ProfileStore.
// Reads by id are served from memory; every write goes to the store and
// evicts the entry. Concurrent misses for one id share a single load.
type ProfileCache struct {
	store repository.ProfileStore
	cache *gocache.Cache
	group singleflight.Group
	ttl   time.Duration
}

var _ repository.ProfileStore = (*ProfileCache)(nil)

// NewProfileCache wraps store with a cache whose entries live for ttlSeconds
func NewProfileCache(store repository.ProfileStore, ttlSeconds int) *ProfileCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{
		store: store,
		cache: gocache.New(ttl, cacheCheckPeriod),
		ttl:   ttl,
	}
}

// GetByID returns the cached profile, loading it on a miss
func (pc *ProfileCache) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	key := profileKeyPrefix + id
	if data, found := pc.cache.Get(key); found {
		if p, ok := data.(*models.Profile); ok {
			metrics.CacheHits.WithLabelValues(cacheName).Inc()
			copied := *p
			return &copied, nil
		}
		logger.Error("Invalid cache data type", zap.String("profile_id", id))
		pc.cache.Delete(key)
	}
	metrics.CacheMisses.WithLabelValues(cacheName).Inc()

	v, err, _ := pc.group.Do(key, func() (any, error) {
		p, err := pc.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		pc.cache.Set(key, p, pc.ttl)
		metrics.CacheSize.WithLabelValues(cacheName).Set(float64(pc.cache.ItemCount()))
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	copied := *v.(*models.Profile)
	return &copied, nil
}

// GetRole answers from the cached profile
func (pc *ProfileCache) GetRole(ctx context.Context, id string) (models.Role, error) {
	p, err := pc.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// Create writes through and primes the cache
func (pc *ProfileCache) Create(ctx context.Context, id string, req *models.CreateProfileRequest) (*models.Profile, error) {
	p, err := pc.store.Create(ctx, id, req)
	if err != nil {
		return nil, err
	}
	pc.cache.Set(profileKeyPrefix+id, p, pc.ttl)
	return p, nil
}

// Update writes through and evicts
func (pc *ProfileCache) Update(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	defer pc.Invalidate(id)
	return pc.store.Update(ctx, id, req)
}

// SetAvatar writes through and evicts
func (pc *ProfileCache) SetAvatar(ctx context.Context, id, url string) error {
	defer pc.Invalidate(id)
	return pc.store.SetAvatar(ctx, id, url)
}

// SetPresence writes through and evicts
func (pc *ProfileCache) SetPresence(ctx context.Context, id string, online bool) error {
	defer pc.Invalidate(id)
	return pc.store.SetPresence(ctx, id, online)
}

// SearchMentors is never cached
func (pc *ProfileCache) SearchMentors(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	return pc.store.SearchMentors(ctx, query, limit)
}

// ListMentors is never cached
func (pc *ProfileCache) ListMentors(ctx context.Context) ([]*models.Profile, error) {
	return pc.store.ListMentors(ctx)
}

// Invalidate evicts one profile. Called on writes and on profile change events.
func (pc *ProfileCache) Invalidate(id string) {
	pc.cache.Delete(profileKeyPrefix + id)
	metrics.CacheSize.WithLabelValues(cacheName).Set(float64(pc.cache.ItemCount()))
	logger.Debug("Profile evicted from cache", zap.String("profile_id", id))
}

// Flush empties the cache
func (pc *ProfileCache) Flush() {
	pc.cache.Flush()
	metrics.CacheSize.WithLabelValues(cacheName).Set(0)
}

// Len reports the number of cached profiles
func (pc *ProfileCache) Len() int {
	return pc.cache.ItemCount()
}
