package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "nested", key: "api/token", wantErr: "invalid secret key"},
		{name: "absolute", key: "/etc/passwd", wantErr: "invalid secret key"},
		{name: "traversal", key: "..", wantErr: "invalid secret key"},
		{name: "hidden", key: ".secret-x.tmp", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "secrets")
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), "api_token", "tok-123"))

	got, err := store.Get(context.Background(), "api_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got)

	info, err := os.Stat(filepath.Join(root, "api_token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFileMode), info.Mode().Perm())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreGetTrimsHandEditedNewline(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "api_token"), []byte("tok-456\r\n"), 0o600))

	got, err := NewStore(root).Get(context.Background(), "api_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-456", got)
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Get(context.Background(), "api_token")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDeleteIsIdempotentWhenSecretMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Delete(context.Background(), "api_token"))
	require.NoError(t, store.Put(context.Background(), "api_token", "tok"))
	require.NoError(t, store.Delete(context.Background(), "api_token"))
	require.NoError(t, store.Delete(context.Background(), "api_token"))
}
