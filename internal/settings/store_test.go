package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echo-recall/backend/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	client, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	return NewStore(client)
}

func TestCredentialLifecycle(t *testing.T) {
	store := newTestStore(t)

	value, _, err := store.Credential()
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetCredential("sk-test", SourceAPIKey))

	value, source, err := store.Credential()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)
	assert.Equal(t, SourceAPIKey, source)

	require.NoError(t, store.SetCredential("ya29.token", SourceOAuth))

	value, source, err = store.Credential()
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", value)
	assert.Equal(t, SourceOAuth, source)

	require.NoError(t, store.ClearCredential())

	value, _, err = store.Credential()
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSetCredentialRejectsUnknownSource(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.SetCredential("sk-test", "carrier-pigeon"))
}

func TestDarkMode(t *testing.T) {
	store := newTestStore(t)

	enabled, err := store.DarkMode()
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, store.SetDarkMode(true))

	enabled, err = store.DarkMode()
	require.NoError(t, err)
	assert.True(t, enabled)
}
