package cache

import (
	"context"
	"sync"

	"github.com/bryanwahyu/storelens/internal/domain/media"
)

// MemoryFeatureCache keeps features for the life of the process. Used when
// redis is disabled and by the CLI.
type MemoryFeatureCache struct {
	mu sync.RWMutex
	m  map[string]media.AssetFeatures
}

func NewMemoryFeatureCache() *MemoryFeatureCache {
	return &MemoryFeatureCache{m: make(map[string]media.AssetFeatures)}
}

func (c *MemoryFeatureCache) Get(_ context.Context, key string) (media.AssetFeatures, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.m[key]
	return f, ok, nil
}

func (c *MemoryFeatureCache) Set(_ context.Context, key string, f media.AssetFeatures) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok {
		c.m[key] = f
	}
	return nil
}
