package keyvault_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campchat/backend/internal/keyvault"
	"campchat/backend/internal/storage/storagetest"
	"campchat/backend/pkg/apperrors"
)

func testMaster() [32]byte {
	var master [32]byte
	copy(master[:], []byte("0123456789abcdef0123456789abcdef"))
	return master
}

func TestStoreAndGet(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryKeyStore()
	vault := keyvault.New(store, testMaster())

	pub := []byte("public-key-material-32-bytes!!!!")
	priv := []byte("private-key-material-32-bytes!!!")

	require.NoError(t, vault.Store(ctx, "user-1", pub, priv))

	gotPub, gotPriv, err := vault.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)
	assert.Equal(t, priv, gotPriv)

	// У сховищі лежить шифротекст, а не сирі ключі.
	rec, err := store.FindUserKeys(ctx, "user-1")
	require.NoError(t, err)
	assert.NotContains(t, rec.PrivateKey, "private-key")
}

func TestStoreIsOneTime(t *testing.T) {
	ctx := context.Background()
	vault := keyvault.New(storagetest.NewMemoryKeyStore(), testMaster())

	require.NoError(t, vault.Store(ctx, "user-1", []byte("pub"), []byte("priv")))

	err := vault.Store(ctx, "user-1", []byte("other"), []byte("other"))
	assert.ErrorIs(t, err, apperrors.ErrKeysAlreadyStored)
}

func TestGetUnknownUser(t *testing.T) {
	vault := keyvault.New(storagetest.NewMemoryKeyStore(), testMaster())

	_, _, err := vault.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrKeysNotFound)
}

func TestWrongMasterKeyFailsUnwrap(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemoryKeyStore()

	vault := keyvault.New(store, testMaster())
	require.NoError(t, vault.Store(ctx, "user-1", []byte("pub"), []byte("priv")))

	var other [32]byte
	copy(other[:], []byte("ffffffffffffffffffffffffffffffff"))
	rotated := keyvault.New(store, other)

	_, _, err := rotated.Get(ctx, "user-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDecryptionFailed, apperrors.CodeOf(err))
}

func TestLoadMasterKeyGeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	first, err := keyvault.LoadMasterKey(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := keyvault.LoadMasterKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadMasterKeyMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(path, []byte("not-hex"), 0o600))

	_, err := keyvault.LoadMasterKey(path)
	assert.Error(t, err)
}
