package file

import (
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

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("dashboard.password", "secret"))

	val, ok := store.Get("dashboard.password")
	assert.True(t, ok)
	assert.Equal(t, "secret", val)
}

func TestConfigStore_SetPersists(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("server.addr", ":9090"))

	// A fresh store over the same directory sees the value.
	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", reloaded.GetString("server.addr"))
}

func TestConfigStore_GetString(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("string_key", "hello"))
	assert.Equal(t, "hello", store.GetString("string_key"))
	assert.Equal(t, "", store.GetString("nonexistent"))

	require.NoError(t, store.Set("int_key", 42))
	assert.Equal(t, "", store.GetString("int_key"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("int_key", 42))
	assert.Equal(t, 42, store.GetInt("int_key"))
	assert.Equal(t, 0, store.GetInt("nonexistent"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("bool_key", true))
	assert.True(t, store.GetBool("bool_key"))
	assert.False(t, store.GetBool("nonexistent"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("server.allowed_origins", []string{"https://a", "https://b"}))
	assert.Equal(t, []string{"https://a", "https://b"}, store.GetStringSlice("server.allowed_origins"))
	assert.Nil(t, store.GetStringSlice("nonexistent"))
}

func TestConfigStore_SetDefault(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	store.SetDefault("openai.api_key", "from-env")
	assert.Equal(t, "from-env", store.GetString("openai.api_key"))

	// An existing value is never overwritten.
	store.SetDefault("openai.api_key", "other")
	assert.Equal(t, "from-env", store.GetString("openai.api_key"))

	// Defaults stay out of the config file.
	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "", reloaded.GetString("openai.api_key"))
}

func TestConfigStore_NestedKeysRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("remote.bucket", "school-docs"))
	require.NoError(t, store.Set("remote.use_ssl", true))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "school-docs", reloaded.GetString("remote.bucket"))
	assert.True(t, reloaded.GetBool("remote.use_ssl"))
}
