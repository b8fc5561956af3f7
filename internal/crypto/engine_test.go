package crypto_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campchat/backend/internal/crypto"
	"campchat/backend/internal/keyvault"
	"campchat/backend/internal/storage/storagetest"
	"campchat/backend/pkg/apperrors"
)

type staticResolver struct{ creatorID string }

func (r staticResolver) GroupCreatorID(ctx context.Context, groupID string) (string, error) {
	return r.creatorID, nil
}

func testMaster() [32]byte {
	var master [32]byte
	copy(master[:], []byte("0123456789abcdef0123456789abcdef"))
	return master
}

func TestDirectRoundtrip(t *testing.T) {
	alicePub, alicePriv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bobPub, bobPriv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	ciphertext, err := crypto.EncryptDirect("привіт, Bob", bobPub, alicePriv)
	require.NoError(t, err)
	assert.NotEqual(t, "привіт, Bob", ciphertext)

	// Отримувач розшифровує ключем відправника.
	plaintext, err := crypto.DecryptDirect(ciphertext, alicePub, bobPriv)
	require.NoError(t, err)
	assert.Equal(t, "привіт, Bob", plaintext)

	// Box симетричний: відправник теж може прочитати власне повідомлення.
	plaintext, err = crypto.DecryptDirect(ciphertext, bobPub, alicePriv)
	require.NoError(t, err)
	assert.Equal(t, "привіт, Bob", plaintext)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	alicePub, alicePriv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bobPub, bobPriv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	ciphertext, err := crypto.EncryptDirect("secret", bobPub, alicePriv)
	require.NoError(t, err)

	// Зіпсуємо останній символ base64.
	tampered := ciphertext[:len(ciphertext)-2] + "AA"
	_, err = crypto.DecryptDirect(tampered, alicePub, bobPriv)
	assert.ErrorIs(t, err, apperrors.ErrTamperedCiphertext)
}

func TestDecryptWrongKey(t *testing.T) {
	alicePub, alicePriv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bobPub, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	_, evePriv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	ciphertext, err := crypto.EncryptDirect("secret", bobPub, alicePriv)
	require.NoError(t, err)

	_, err = crypto.DecryptDirect(ciphertext, alicePub, evePriv)
	assert.ErrorIs(t, err, apperrors.ErrTamperedCiphertext)
}

func TestGroupRoundtrip(t *testing.T) {
	ctx := context.Background()
	vault := keyvault.New(storagetest.NewMemoryKeyStore(), testMaster())

	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, vault.Store(ctx, "creator-1", pub, priv))

	engine := crypto.NewEngine(vault, staticResolver{creatorID: "creator-1"})

	ciphertext, err := engine.EncryptGroup(ctx, "group hello", "group-1")
	require.NoError(t, err)
	assert.NotEqual(t, "group hello", ciphertext)

	plaintext, err := engine.DecryptGroup(ctx, ciphertext, "group-1")
	require.NoError(t, err)
	assert.Equal(t, "group hello", plaintext)
}

func TestGroupEncryptWithoutCreatorKeys(t *testing.T) {
	ctx := context.Background()
	vault := keyvault.New(storagetest.NewMemoryKeyStore(), testMaster())
	engine := crypto.NewEngine(vault, staticResolver{creatorID: "missing"})

	_, err := engine.EncryptGroup(ctx, "hello", "group-1")
	assert.ErrorIs(t, err, apperrors.ErrKeysNotFound)
}
