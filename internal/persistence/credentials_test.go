package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stipendi/internal/storage/memory"
)

func TestBootstrapCapturesAndScrubs(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	creds := NewCredentials(store)

	scrubbed, captured, err := creds.Bootstrap(ctx, "https://example.org/stipendi/?token=ghp_abc&lang=it#top")
	require.NoError(t, err)
	assert.True(t, captured)
	assert.Equal(t, "https://example.org/stipendi/?lang=it#top", scrubbed)
	assert.NotContains(t, scrubbed, "ghp_abc")
	assert.Equal(t, "ghp_abc", creds.Token())

	v, ok, _ := store.Get(ctx, TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "ghp_abc", v)

	restored := NewCredentials(store)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, "ghp_abc", restored.Token())
}

func TestBootstrapWithoutToken(t *testing.T) {
	creds := NewCredentials(nil)
	in := "https://example.org/?lang=it"
	out, captured, err := creds.Bootstrap(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, captured)
	assert.Equal(t, in, out)
	assert.False(t, creds.HasToken())

	out, captured, err = creds.Bootstrap(context.Background(), "https://example.org/?token=")
	require.NoError(t, err)
	assert.False(t, captured)
	assert.Equal(t, "https://example.org/", out)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	creds := NewCredentials(store)
	require.NoError(t, creds.Set(ctx, "tok"))
	require.NoError(t, creds.Clear(ctx))
	assert.Empty(t, creds.Token())
	_, ok, _ := store.Get(ctx, TokenKey)
	assert.False(t, ok)
}
