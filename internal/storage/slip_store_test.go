package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlipStoreLifecycle(t *testing.T) {
	s := NewSlipStore(t.TempDir())

	rel, err := s.SaveTemp("receipt.png", strings.NewReader("fake image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "temp"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.True(t, s.Exists(rel))

	promoted, err := s.Promote(rel, 42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(promoted, "slips"))
	assert.Contains(t, promoted, "slip_42_")
	assert.False(t, s.Exists(rel))
	assert.True(t, s.Exists(promoted))

	f, err := s.Open(promoted)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "fake image bytes", string(data))
}

func TestSlipStoreDiscard(t *testing.T) {
	s := NewSlipStore(t.TempDir())

	rel, err := s.SaveTemp("slip.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Discard(rel))
	assert.False(t, s.Exists(rel))

	// Discarding twice is harmless.
	assert.NoError(t, s.Discard(rel))
}
