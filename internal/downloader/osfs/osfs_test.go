package osfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRemoveRoundTrip(t *testing.T) {
	base := t.TempDir()
	fsys := New(base)

	require.NoError(t, fsys.MkdirAll("a/b", 0o755))
	require.NoError(t, fsys.WriteFile("a/b/x.lua", []byte("return 1"), 0o644))

	data, err := os.ReadFile(filepath.Join(base, "a", "b", "x.lua"))
	require.NoError(t, err)
	assert.Equal(t, "return 1", string(data))

	entries, err := fsys.ReadDir("a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.lua", entries[0].Name())

	info, err := fsys.Stat("a/b/x.lua")
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	require.NoError(t, fsys.Remove("a/b/x.lua"))
	_, err = fsys.Stat("a/b/x.lua")
	assert.Error(t, err)
}
