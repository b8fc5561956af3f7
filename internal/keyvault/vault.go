package keyvault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// KeyStore is the persistence boundary for keypair records. Implemented by
// storage.Service; tests substitute a fake.
type KeyStore interface {
	InsertUserKeys(ctx context.Context, rec *models.UserKeys) error
	FindUserKeys(ctx context.Context, userID string) (*models.UserKeys, error)
}

// Vault wraps user keypairs under a process-wide master key before they hit
// the store. The master key never changes for the lifetime of a deployment.
type Vault struct {
	store  KeyStore
	master [32]byte
}

func New(store KeyStore, master [32]byte) *Vault {
	return &Vault{store: store, master: master}
}

// LoadMasterKey читає 32-байтовий ключ (hex) із файлу. Якщо файл відсутній —
// генерує новий та зберігає з правами 0600.
func LoadMasterKey(path string) ([32]byte, error) {
	var key [32]byte

	data, err := os.ReadFile(path)
	if err == nil {
		raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil || len(raw) != 32 {
			return key, fmt.Errorf("master key file %s is malformed", path)
		}
		copy(key[:], raw)
		return key, nil
	}
	if !os.IsNotExist(err) {
		return key, fmt.Errorf("read master key: %w", err)
	}

	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("generate master key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key[:])), 0o600); err != nil {
		return key, fmt.Errorf("persist master key: %w", err)
	}
	return key, nil
}

// Store encrypts both key halves under the master key and persists them.
// One-time issuance: a second call for the same user fails with DuplicateKey.
func (v *Vault) Store(ctx context.Context, userID string, publicKey, privateKey []byte) error {
	if userID == "" || len(publicKey) == 0 || len(privateKey) == 0 {
		return apperrors.InvalidInput("user_id, public_key and private_key are required")
	}

	rec := &models.UserKeys{
		UserID:     userID,
		PublicKey:  v.wrap(publicKey),
		PrivateKey: v.wrap(privateKey),
	}
	return v.store.InsertUserKeys(ctx, rec)
}

// Get повертає розшифровану пару ключів користувача.
func (v *Vault) Get(ctx context.Context, userID string) (publicKey, privateKey []byte, err error) {
	rec, err := v.store.FindUserKeys(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	publicKey, err = v.unwrap(rec.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	privateKey, err = v.unwrap(rec.PrivateKey)
	if err != nil {
		return nil, nil, err
	}
	return publicKey, privateKey, nil
}

// wrap seals data under the master key: nonce || box, base64-encoded.
func (v *Vault) wrap(data []byte) string {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		panic(fmt.Sprintf("keyvault: nonce generation failed: %v", err))
	}
	sealed := secretbox.Seal(nonce[:], data, &nonce, &v.master)
	return base64.StdEncoding.EncodeToString(sealed)
}

func (v *Vault) unwrap(encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) < 24 {
		return nil, apperrors.DecryptionFailed("stored key is malformed")
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	data, ok := secretbox.Open(nil, sealed[24:], &nonce, &v.master)
	if !ok {
		return nil, apperrors.DecryptionFailed("stored key could not be unwrapped")
	}
	return data, nil
}
