package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	b := New()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, b.Set("ns", "k", []byte("v1")))
		got, err := b.Get("ns", "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)

		got[0] = 'X'
		again, _ := b.Get("ns", "k")
		require.Equal(t, []byte("v1"), again, "Get must return copies")
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := b.Get("ns", "missing")
		require.NoError(t, err)
		require.Nil(t, got)

		got, err = b.Get("no-namespace", "k")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, b.Set("ns", "del", []byte("x")))
		require.NoError(t, b.Delete("ns", "del"))
		require.Nil(t, b.Raw("ns", "del"))
		require.NoError(t, b.Delete("ns", "del"))
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, b.Set("ns", "a", []byte("1")))
		require.NoError(t, b.Set("other", "a", []byte("2")))
		require.NoError(t, b.Clear("ns"))
		require.Nil(t, b.Raw("ns", "a"))
		require.Equal(t, []byte("2"), b.Raw("other", "a"))
		require.NoError(t, b.Clear("never-created"))
	})
}
