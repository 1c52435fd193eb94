package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"recipe-finder/internal/infrastructure/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func memoryConfig() config.StoreConfig {
	return config.StoreConfig{
		Driver:          config.StoreMemory,
		KeyPrefix:       "fc",
		TTL:             time.Hour,
		MaxKeys:         3,
		CleanupInterval: time.Minute,
	}
}

func TestMemoryStore_MissingKeyIsEmpty(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	defer m.Close()

	got, err := m.Get(context.Background(), "fc:s1:ingredients")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryStore_SetGetCopies(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	in := []string{"egg", "milk"}
	require.NoError(t, m.Set(ctx, "k", in))
	in[0] = "changed"

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"egg", "milk"}, got)

	got[1] = "changed"
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"egg", "milk"}, again)
}

func TestMemoryStore_Delete(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []string{"a"}))
	require.NoError(t, m.Delete(ctx, "k"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []string{"a"}))
	now = now.Add(59 * time.Minute)
	got, _ := m.Get(ctx, "k")
	assert.Equal(t, []string{"a"}, got)

	now = now.Add(2 * time.Minute)
	got, _ = m.Get(ctx, "k")
	assert.Empty(t, got)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStore_EvictsLeastUsed(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("k%d", i), []string{"v"}))
	}
	// k0 與 k2 被讀取過，k1 最少使用
	_, _ = m.Get(ctx, "k0")
	_, _ = m.Get(ctx, "k2")

	require.NoError(t, m.Set(ctx, "k3", []string{"v"}))
	assert.Equal(t, 3, m.Len())

	got, _ := m.Get(ctx, "k1")
	assert.Empty(t, got)
	got, _ = m.Get(ctx, "k0")
	assert.Equal(t, []string{"v"}, got)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["evictions"])
}

func TestMemoryStore_OverwriteDoesNotEvict(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("k%d", i), []string{"v"}))
	}
	require.NoError(t, m.Set(ctx, "k0", []string{"w"}))
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, int64(0), m.GetStats()["evictions"])
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	m := NewMemoryStore(memoryConfig())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(&config.Config{Store: config.StoreConfig{Driver: "etcd"}})
	assert.Error(t, err)
}

func TestNew_Memory(t *testing.T) {
	s, err := New(&config.Config{Store: memoryConfig()})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis unreachable: %v", err)
	}

	s := NewRedisStoreWithClient(client, time.Minute)
	defer s.Close()

	key := "fc-test:" + t.Name()
	defer s.Delete(ctx, key)

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Set(ctx, key, []string{"egg", "milk"}))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"egg", "milk"}, got)

	require.NoError(t, s.Set(ctx, key, nil))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}
