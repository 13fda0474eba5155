package billplz

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCollectionStore struct {
	GetFn func(ctx context.Context) (string, error)
	SetFn func(ctx context.Context, id string) (string, error)
}

func (m *mockCollectionStore) GetCollectionID(ctx context.Context) (string, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx)
	}
	return "", nil
}

func (m *mockCollectionStore) SetCollectionID(ctx context.Context, id string) (string, error) {
	if m.SetFn != nil {
		return m.SetFn(ctx, id)
	}
	return id, nil
}

func TestCollectionCache_Get_CreatesOnce(t *testing.T) {
	t.Parallel()

	var calls int32
	create := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "col_1", nil
	}

	c := NewCollectionCache(nil, "", nil)
	for i := 0; i < 3; i++ {
		id, err := c.Get(context.Background(), create)
		require.NoError(t, err)
		assert.Equal(t, "col_1", id)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "col_1", c.ID())
}

func TestCollectionCache_Get_ConcurrentCallersShareCreation(t *testing.T) {
	t.Parallel()

	var calls int32
	release := make(chan struct{})
	create := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "col_shared", nil
	}

	c := NewCollectionCache(nil, "", nil)

	const workers = 16
	var wg sync.WaitGroup
	ids := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = c.Get(context.Background(), create)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "col_shared", ids[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCollectionCache_Get_PresetSkipsCreation(t *testing.T) {
	t.Parallel()

	c := NewCollectionCache(nil, "preset", nil)
	id, err := c.Get(context.Background(), func(ctx context.Context) (string, error) {
		t.Fatal("create must not be called")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "preset", id)
}

func TestCollectionCache_Get_LoadsFromStore(t *testing.T) {
	t.Parallel()

	store := &mockCollectionStore{
		GetFn: func(ctx context.Context) (string, error) { return "stored", nil },
		SetFn: func(ctx context.Context, id string) (string, error) {
			t.Fatal("stored id must not be written back")
			return "", nil
		},
	}

	c := NewCollectionCache(store, "", nil)
	id, err := c.Get(context.Background(), func(ctx context.Context) (string, error) {
		t.Fatal("create must not be called")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stored", id)
}

func TestCollectionCache_Get_PersistsCreatedID(t *testing.T) {
	t.Parallel()

	var saved string
	store := &mockCollectionStore{
		SetFn: func(ctx context.Context, id string) (string, error) {
			saved = id
			return id, nil
		},
	}

	c := NewCollectionCache(store, "", nil)
	id, err := c.Get(context.Background(), func(ctx context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	assert.Equal(t, "new", saved)
}

func TestCollectionCache_Get_PersistFailureKeepsID(t *testing.T) {
	t.Parallel()

	store := &mockCollectionStore{
		SetFn: func(ctx context.Context, id string) (string, error) { return "", errors.New("redis down") },
	}

	c := NewCollectionCache(store, "", nil)
	id, err := c.Get(context.Background(), func(ctx context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	assert.Equal(t, "new", c.ID())
}

func TestCollectionCache_Get_AdoptsIDStoredByAnotherInstance(t *testing.T) {
	t.Parallel()

	store := &mockCollectionStore{
		SetFn: func(ctx context.Context, id string) (string, error) { return "winner", nil },
	}

	c := NewCollectionCache(store, "", nil)
	id, err := c.Get(context.Background(), func(ctx context.Context) (string, error) { return "loser", nil })
	require.NoError(t, err)
	assert.Equal(t, "winner", id)
	assert.Equal(t, "winner", c.ID())
}

func TestCollectionCache_Get_CreateErrorIsNotCached(t *testing.T) {
	t.Parallel()

	var calls int32
	c := NewCollectionCache(nil, "", nil)
	create := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", &IntegrationError{Op: "create collection", StatusCode: 500, Body: "boom"}
		}
		return "col_2", nil
	}

	_, err := c.Get(context.Background(), create)
	require.Error(t, err)
	assert.True(t, IsIntegrationError(err))
	assert.Empty(t, c.ID())

	id, err := c.Get(context.Background(), create)
	require.NoError(t, err)
	assert.Equal(t, "col_2", id)
}

func TestCollectionCache_Get_StoreReadError(t *testing.T) {
	t.Parallel()

	store := &mockCollectionStore{
		GetFn: func(ctx context.Context) (string, error) { return "", errors.New("read failed") },
	}

	c := NewCollectionCache(store, "", nil)
	_, err := c.Get(context.Background(), func(ctx context.Context) (string, error) { return "x", nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load collection id")
}
