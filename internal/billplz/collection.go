package billplz

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CollectionStore persists the collection id beyond the process, so that
// several instances share one gateway collection.
type CollectionStore interface {
	// GetCollectionID returns the stored id, or "" when none is stored.
	GetCollectionID(ctx context.Context) (string, error)
	// SetCollectionID stores id unless another id is already stored, and
	// returns the id that is stored afterwards.
	SetCollectionID(ctx context.Context, id string) (string, error)
}

// CollectionCache owns the lazily created collection id. Concurrent first
// calls are collapsed into a single creation.
type CollectionCache struct {
	store  CollectionStore
	logger *zap.Logger

	mu sync.RWMutex
	id string

	group singleflight.Group
}

// NewCollectionCache creates a cache. preset, when non-empty, is used as the
// collection id and creation is never attempted. store may be nil.
func NewCollectionCache(store CollectionStore, preset string, logger *zap.Logger) *CollectionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectionCache{store: store, id: preset, logger: logger.Named("billplz.collection")}
}

// ID returns the cached id without triggering creation.
func (c *CollectionCache) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Get returns the collection id, loading it from the store or calling
// create exactly once if no id is known yet.
func (c *CollectionCache) Get(ctx context.Context, create func(ctx context.Context) (string, error)) (string, error) {
	if id := c.ID(); id != "" {
		return id, nil
	}

	v, err, _ := c.group.Do("collection", func() (interface{}, error) {
		if id := c.ID(); id != "" {
			return id, nil
		}

		if c.store != nil {
			id, err := c.store.GetCollectionID(ctx)
			if err != nil {
				return "", fmt.Errorf("load collection id: %w", err)
			}
			if id != "" {
				c.set(id)
				return id, nil
			}
		}

		id, err := create(ctx)
		if err != nil {
			return "", err
		}

		if c.store != nil {
			stored, err := c.store.SetCollectionID(ctx, id)
			switch {
			case err != nil:
				c.logger.Warn("failed to persist collection id", zap.String("collection_id", id), zap.Error(err))
			case stored != "" && stored != id:
				c.logger.Info("another instance stored a collection first",
					zap.String("created", id),
					zap.String("stored", stored),
				)
				id = stored
			}
		}

		c.set(id)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *CollectionCache) set(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}
