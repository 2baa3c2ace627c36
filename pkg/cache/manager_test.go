package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test when it is not
// reachable. tests/integration runs the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{
		Endpoint:  "main",
		Operation: "BlockList",
		Variables: map[string]any{"offset": 0, "limit": 25},
	}
	entry := NewEntry([]byte(`{"chainQuery":{}}`), 5*time.Minute)

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	_, err := manager.Get(context.Background(), Key{Endpoint: "main", Operation: "Missing"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Get_InvalidEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := Key{Endpoint: "main", Operation: "Corrupt"}
	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := manager.Get(ctx, key)
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}
}

func TestManager_Set_ExpiredEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "main", Operation: "Expired"}
	if err := manager.Set(ctx, key, &Entry{Data: []byte(`{}`), Expires: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Set(context.Background(), Key{Endpoint: "main"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}

func TestManager_Fetch_ReadThrough(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "main", Operation: "BlockList", Variables: map[string]any{"offset": 25}}
	var loads atomic.Int32
	load := func(ctx context.Context) ([]byte, error) {
		loads.Add(1)
		return []byte(`{"chainQuery":{"blockQuery":{"blocks":[]}}}`), nil
	}

	data, cached, err := manager.Fetch(ctx, key, time.Minute, load)
	if err != nil {
		t.Fatalf("first Fetch failed: %v", err)
	}
	if cached {
		t.Error("first Fetch should not be served from cache")
	}

	again, cached, err := manager.Fetch(ctx, key, time.Minute, load)
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if !cached {
		t.Error("second Fetch should be served from cache")
	}
	if string(again) != string(data) {
		t.Errorf("cached data = %s, want %s", again, data)
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("loads = %d, want 1", n)
	}
}

func TestManager_Fetch_LoadErrorNotCached(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "main", Operation: "TransactionList"}
	boom := errors.New("upstream down")

	if _, _, err := manager.Fetch(ctx, key, time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Fetch error = %v, want %v", err, boom)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("failed load must not be cached, Get returned %v", err)
	}
}

func TestManager_Fetch_CoalescesConcurrentMisses(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "main", Operation: "BlockList", Variables: map[string]any{"offset": 0}}
	release := make(chan struct{})
	var loads atomic.Int32
	load := func(ctx context.Context) ([]byte, error) {
		loads.Add(1)
		<-release
		return []byte(`{}`), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := manager.Fetch(ctx, key, time.Minute, load)
			errs <- err
		}()
	}

	// Give every caller time to miss and join the in-flight load.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Fetch failed: %v", err)
		}
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("loads = %d, want 1", n)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := Key{Endpoint: "main", Operation: "Delete"}
	if err := manager.Set(ctx, key, NewEntry([]byte(`{}`), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_InvalidateEndpoint(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	for _, key := range []Key{
		{Endpoint: "main", Operation: "BlockList"},
		{Endpoint: "main", Operation: "TransactionList"},
		{Endpoint: "internal", Operation: "BlockList"},
	} {
		if err := manager.Set(ctx, key, NewEntry([]byte(`{}`), time.Minute)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	removed, err := manager.InvalidateEndpoint(ctx, "main")
	if err != nil {
		t.Fatalf("InvalidateEndpoint failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	if _, err := manager.Get(ctx, Key{Endpoint: "internal", Operation: "BlockList"}); err != nil {
		t.Errorf("other endpoint's entry should survive, Get returned %v", err)
	}
}

func TestManager_InvalidateEndpoint_NameIsLiteral(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	for _, ep := range []string{"a", "a:b", "ab", "a*"} {
		if err := manager.Set(ctx, Key{Endpoint: ep, Operation: "BlockList"}, NewEntry([]byte(`{}`), time.Minute)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	for _, ep := range []string{"a*", "a"} {
		removed, err := manager.InvalidateEndpoint(ctx, ep)
		if err != nil {
			t.Fatalf("InvalidateEndpoint(%q) failed: %v", ep, err)
		}
		if removed != 1 {
			t.Errorf("InvalidateEndpoint(%q) removed = %d, want 1", ep, removed)
		}
	}

	for _, ep := range []string{"a:b", "ab"} {
		if _, err := manager.Get(ctx, Key{Endpoint: ep, Operation: "BlockList"}); err != nil {
			t.Errorf("entry of %q should survive, Get returned %v", ep, err)
		}
	}
}
