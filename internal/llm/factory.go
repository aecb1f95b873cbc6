package llm

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultClientCacheSize = 16
	defaultClientCacheTTL  = 30 * time.Minute
)

// Factory creates completion clients per provider/model and caches them so
// concurrent interpreter instances share one HTTP client per upstream.
type Factory struct {
	mu       sync.RWMutex
	cache    *lru.Cache[string, cacheEntry]
	cacheTTL time.Duration
}

type cacheEntry struct {
	client    Client
	expiresAt time.Time
}

// NewFactory returns a factory with the default cache settings.
func NewFactory() *Factory {
	return &Factory{
		cache:    newClientCache(defaultClientCacheSize),
		cacheTTL: defaultClientCacheTTL,
	}
}

// SetCacheOptions configures the client cache.
// A size <= 0 disables caching. A TTL <= 0 disables expiration.
func (f *Factory) SetCacheOptions(size int, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = newClientCache(size)
	f.cacheTTL = ttl
}

func newClientCache(size int) *lru.Cache[string, cacheEntry] {
	if size <= 0 {
		return nil
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil
	}
	return cache
}

// GetClient creates or retrieves a cached client for the provider/model pair.
func (f *Factory) GetClient(provider, model string, config Config) (Client, error) {
	cacheKey := fmt.Sprintf("%s:%s", provider, model)
	now := time.Now()

	f.mu.RLock()
	cache := f.cache
	cacheTTL := f.cacheTTL
	f.mu.RUnlock()

	if cache != nil {
		if entry, ok := cache.Get(cacheKey); ok {
			if entry.client != nil && (entry.expiresAt.IsZero() || now.Before(entry.expiresAt)) {
				return entry.client, nil
			}
			cache.Remove(cacheKey)
		}
	}

	var client Client
	var err error
	switch provider {
	case "openai", "openrouter", "deepseek":
		client, err = NewOpenAIClient(model, config)
	case "mock":
		client = NewMockClient()
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	if cache != nil {
		var expiresAt time.Time
		if cacheTTL > 0 {
			expiresAt = now.Add(cacheTTL)
		}
		cache.Add(cacheKey, cacheEntry{client: client, expiresAt: expiresAt})
	}

	return client, nil
}
