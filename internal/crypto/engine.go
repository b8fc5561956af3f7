// Package crypto implements the message encryption engine: authenticated
// public-key encryption (nacl/box) between conversation participants.
package crypto

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"

	"campchat/backend/internal/keyvault"
	"campchat/backend/pkg/apperrors"
)

const keySize = 32

// GroupResolver supplies the creator id for a group; implemented by
// storage.Service.
type GroupResolver interface {
	GroupCreatorID(ctx context.Context, groupID string) (string, error)
}

type Engine struct {
	vault  *keyvault.Vault
	groups GroupResolver
}

func NewEngine(vault *keyvault.Vault, groups GroupResolver) *Engine {
	return &Engine{vault: vault, groups: groups}
}

// GenerateKeyPair видає нову пару ключів X25519 для box-шифрування.
func GenerateKeyPair() (publicKey, privateKey []byte, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate keypair: %w", err)
	}
	return pub[:], priv[:], nil
}

// EncryptDirect seals plaintext for exactly the two conversation
// participants: recipient's public key, sender's private key.
// Wire format: base64(nonce || box).
func EncryptDirect(plaintext string, recipientPublicKey, senderPrivateKey []byte) (string, error) {
	peer, own, err := asBoxKeys(recipientPublicKey, senderPrivateKey)
	if err != nil {
		return "", err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := box.Seal(nonce[:], []byte(plaintext), &nonce, peer, own)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptDirect opens ciphertext with the sender's public key and the
// recipient's private key. Tampering or a wrong-key pairing yields
// DecryptionFailed.
func DecryptDirect(ciphertext string, senderPublicKey, recipientPrivateKey []byte) (string, error) {
	peer, own, err := asBoxKeys(senderPublicKey, recipientPrivateKey)
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(sealed) < 24 {
		return "", apperrors.DecryptionFailed("ciphertext is malformed")
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plaintext, ok := box.Open(nil, sealed[24:], &nonce, peer, own)
	if !ok {
		return "", apperrors.ErrTamperedCiphertext
	}
	return string(plaintext), nil
}

// EncryptGroup шифрує груповий текст парою ключів творця групи (відправник і
// одержувач — одна й та сама пара). Це захист на рівні сховища, а не E2E між
// учасниками: клієнт кожного учасника розшифровує ключем творця.
func (e *Engine) EncryptGroup(ctx context.Context, plaintext, groupID string) (string, error) {
	pub, priv, err := e.creatorKeys(ctx, groupID)
	if err != nil {
		return "", err
	}
	return EncryptDirect(plaintext, pub, priv)
}

// DecryptGroup розшифровує груповий текст тією ж парою творця.
func (e *Engine) DecryptGroup(ctx context.Context, ciphertext, groupID string) (string, error) {
	pub, priv, err := e.creatorKeys(ctx, groupID)
	if err != nil {
		return "", err
	}
	return DecryptDirect(ciphertext, pub, priv)
}

func (e *Engine) creatorKeys(ctx context.Context, groupID string) (pub, priv []byte, err error) {
	creatorID, err := e.groups.GroupCreatorID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return e.vault.Get(ctx, creatorID)
}

func asBoxKeys(peerKey, ownKey []byte) (*[keySize]byte, *[keySize]byte, error) {
	if len(peerKey) != keySize || len(ownKey) != keySize {
		return nil, nil, apperrors.InvalidInput("encryption keys must be 32 bytes")
	}
	var peer, own [keySize]byte
	copy(peer[:], peerKey)
	copy(own[:], ownKey)
	return &peer, &own, nil
}
