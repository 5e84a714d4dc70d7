package colorcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "semhl", "color_cache.toml")
	return NewStore(path, zerolog.Nop())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	in := File{
		SettingsHash: "bg=dark,de=5/15,L=50/100",
		Colors: map[string]string{
			"foo":    "#A3FF41",
			"reqBuf": "#41A3FF",
		},
	}
	require.NoError(t, store.Save(in))

	out := store.Load()
	assert.Equal(t, in.SettingsHash, out.SettingsHash)
	assert.Equal(t, in.Colors, out.Colors)
}

func TestLoadAbsentFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	out := store.Load()
	assert.Empty(t, out.SettingsHash)
	assert.Empty(t, out.Colors)
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{ not toml at all"), 0o644))

	out := store.Load()
	assert.Empty(t, out.SettingsHash)
	assert.Empty(t, out.Colors)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(File{SettingsHash: "h", Colors: map[string]string{"x": "#FFFFFF"}}))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(File{SettingsHash: "h"}))

	store.Clear()
	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))

	// Clearing an absent file is a no-op.
	store.Clear()
}
