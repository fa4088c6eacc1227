package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajkumarsah0/bazar-frontend/internal/storage"
)

func TestStorageCredentials_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	creds := NewStorageCredentials(store, nil)

	token, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, creds.Save(ctx, "abc.def.ghi"))

	raw, err := store.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":1`)

	token, err = creds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, creds.Clear(ctx))
	token, err = creds.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStorageCredentials_DiscardsIncompatible(t *testing.T) {
	cases := map[string]string{
		"bare string":   `"abc"`,
		"other version": `{"version":2,"token":"abc"}`,
		"empty token":   `{"version":1,"token":""}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, storage.KeyToken, []byte(raw)))

			token, err := NewStorageCredentials(store, nil).Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, token)

			_, err = store.Get(ctx, storage.KeyToken)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}
