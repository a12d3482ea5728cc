package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	store, err := NewConfigStore("")

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(home, ".imgcrate", "config.toml"), store.Path())

	// Cleanup
	_ = os.Remove(store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyFetchUserAgent, "imgcrate-test/1.0"))

	val, ok := store.Get(KeyFetchUserAgent)
	require.True(t, ok)
	assert.Equal(t, "imgcrate-test/1.0", val)
	assert.Equal(t, "imgcrate-test/1.0", store.GetString(KeyFetchUserAgent))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyFetchTimeoutSeconds, 15))
	require.NoError(t, store.Set(KeyDiscoveryDynamic, true))
	require.NoError(t, store.Set(KeyFetchRateLimit, 2.5))

	assert.Equal(t, 15, store.GetInt(KeyFetchTimeoutSeconds))
	assert.True(t, store.GetBool(KeyDiscoveryDynamic))
	assert.Equal(t, 2.5, store.GetFloat(KeyFetchRateLimit))
}

func TestConfigStore_TypedGettersZeroOnMissingOrWrongType(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))

	require.NoError(t, store.Set(KeyFetchConcurrency, "not-a-number"))
	assert.Equal(t, 0, store.GetInt(KeyFetchConcurrency))
}

func TestConfigStore_GetFloatWidensIntegers(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyFetchRateLimit, 3))

	assert.Equal(t, 3.0, store.GetFloat(KeyFetchRateLimit))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, first.Set(KeyArchiveCompression, true))
	require.NoError(t, first.Set(KeyFetchTimeoutSeconds, 30))

	second, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.True(t, second.GetBool(KeyArchiveCompression))
	assert.Equal(t, 30, second.GetInt(KeyFetchTimeoutSeconds))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[fetch]\ntimeout_seconds = 20\nuser_agent = \"custom\"\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 20, store.GetInt(KeyFetchTimeoutSeconds))
	assert.Equal(t, "custom", store.GetString(KeyFetchUserAgent))
}

func TestConfigStore_LoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}
