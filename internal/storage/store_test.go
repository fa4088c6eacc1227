package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkumarsah0/bazar-frontend/internal/config"
)

// どの実装でも同じ振る舞いになること
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyCart, []byte(`{"version":1}`)))
	got, err := s.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))

	// 上書き
	require.NoError(t, s.Set(ctx, KeyCart, []byte(`{"version":2}`)))
	got, err = s.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(got))

	// 他のキーに影響しない
	require.NoError(t, s.Set(ctx, KeyToken, []byte("t1")))
	require.NoError(t, s.Delete(ctx, KeyCart))
	_, err = s.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", string(got))

	// 無いキーの削除はOK
	assert.NoError(t, s.Delete(ctx, KeyCart))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", v))
	v[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "data"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, KeyToken, []byte("persisted")))

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := s2.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))

	// 一時ファイルが残っていない
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Set(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
}

func TestFileStore_CanceledContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, KeyCart, []byte("x")), context.Canceled)
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "bazar")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupTestRedis(t)
	exerciseStore(t, s)
}

func TestRedisStore_PrefixAndNoTTL(t *testing.T) {
	s, mr := setupTestRedis(t)

	require.NoError(t, s.Set(context.Background(), KeyToken, []byte("tok")))

	v, err := mr.Get("bazar:" + KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
	assert.Zero(t, mr.TTL("bazar:"+KeyToken))
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	_, err := s.Get(context.Background(), KeyCart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Config{Storage: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.Config{Storage: config.StorageFile, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, config.Config{Storage: config.StorageRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.Config{Storage: "tape"})
	assert.Error(t, err)
}
