package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", ""))
	require.NoError(t, s.Set(ctx, "a", "2"))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	v, ok, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok, "empty values are still present")
	assert.Equal(t, "", v)

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "never-set"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, &Memory{})
}

func TestMemory_SeedIsCopied(t *testing.T) {
	seed := map[string]string{"k": "v"}
	m := NewMemory(seed)
	seed["k"] = "changed"

	v, _, _ := m.Get(context.Background(), "k")
	assert.Equal(t, "v", v)
	assert.Equal(t, []string{"k"}, m.Keys())
}

func TestFileStore(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "state.toml"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.toml")
	ctx := context.Background()

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "flow.web_shown", "true"))
	require.NoError(t, s.Set(ctx, "weird key=\"x\"", "line\nbreak"))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "flow.web_shown")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	v, ok, err = reopened.Get(ctx, "weird key=\"x\"")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "line\nbreak", v)
}

func TestFileStore_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := OpenFile("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/share/flowgate/state.toml"), s.Path())
}

func TestFileStore_InvalidDocumentFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("values = [\n"), 0o600))

	_, err := OpenFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse state file")
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, s)

	require.NoError(t, s.Set(ctx, "kept", "yes"))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, ok, err := reopened.Get(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "yes", v)
}
