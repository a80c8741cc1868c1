package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsulekeep/capsule-server/internal/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memory.NewMemoryBackend()
	ctx := context.Background()
	content := "Hello, World!"

	// Store
	obj, err := backend.Store(ctx, "greeting.txt", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "greeting.txt", obj.Name)
	assert.Equal(t, int64(len(content)), obj.Size)
	assert.NotEmpty(t, obj.Address)

	// Same bytes yield the same address
	obj2, err := backend.Store(ctx, "copy.txt", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, obj.Address, obj2.Address)

	// Fetch
	reader, err := backend.Fetch(ctx, "greeting.txt")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	// Remove
	err = backend.Remove(ctx, "greeting.txt")
	assert.NoError(t, err)

	_, err = backend.Fetch(ctx, "greeting.txt")
	assert.Error(t, err)

	err = backend.Remove(ctx, "greeting.txt")
	assert.Error(t, err)
}
