package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/storefront/internal/core/domain"
)

func TestFile_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := OpenFile(dir, FileOptions{})
	require.NoError(t, err)
	require.NoError(t, NewSession(f, zerolog.Nop()).Set(ctx, domain.CredentialPair{Access: "a", Refresh: "r"}))

	reopened, err := OpenFile(dir, FileOptions{})
	require.NoError(t, err)
	pair, err := NewSession(reopened, zerolog.Nop()).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", pair.Access)

	info, err := os.Stat(filepath.Join(dir, KeyAccessToken))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_EncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := OpenFile(dir, FileOptions{Passphrase: "correct horse"})
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, KeyRefreshToken, []byte("refresh-secret")))

	raw, err := os.ReadFile(filepath.Join(dir, KeyRefreshToken))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "refresh-secret"))

	again, err := OpenFile(dir, FileOptions{Passphrase: "correct horse"})
	require.NoError(t, err)
	v, err := again.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-secret", string(v))

	wrong, err := OpenFile(dir, FileOptions{Passphrase: "battery staple"})
	require.NoError(t, err)
	_, err = wrong.Get(ctx, KeyRefreshToken)
	assert.Error(t, err)
}

func TestFile_DeleteMissingKeyIsNoop(t *testing.T) {
	f, err := OpenFile(t.TempDir(), FileOptions{})
	require.NoError(t, err)
	assert.NoError(t, f.Delete(context.Background(), KeyUser, KeyGuestCart))

	_, err = f.Get(context.Background(), KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}
