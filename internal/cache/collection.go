package cache

import (
	"context"
	"errors"
)

// CollectionKey is the default key for the shared gateway collection id.
const CollectionKey = "billplz:collection_id"

// CollectionStore keeps the gateway collection id in a Cache so every
// instance bills under the same collection.
type CollectionStore struct {
	cache Cache
	key   string
}

// NewCollectionStore creates a store under key, or CollectionKey if empty.
func NewCollectionStore(c Cache, key string) *CollectionStore {
	if key == "" {
		key = CollectionKey
	}
	return &CollectionStore{cache: c, key: key}
}

// GetCollectionID returns the stored id, or "" when none is stored.
func (s *CollectionStore) GetCollectionID(ctx context.Context) (string, error) {
	data, err := s.cache.Get(ctx, s.key)
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetCollectionID stores id if no id is stored yet and returns the id that
// ends up stored.
func (s *CollectionStore) SetCollectionID(ctx context.Context, id string) (string, error) {
	ok, err := s.cache.SetNX(ctx, s.key, []byte(id), 0)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}
	return s.GetCollectionID(ctx)
}
