package chat

import (
	"context"
	"encoding/base64"

	"campchat/backend/internal/crypto"
)

// IssueKeys generates a NaCl keypair for the user and stores it in the
// vault. Issuance is one-time; a repeated call fails with the vault's
// duplicate error. Returns the base64 public key.
func (s *Service) IssueKeys(ctx context.Context, userID string) (string, error) {
	publicKey, privateKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return "", err
	}
	if err := s.vault.Store(ctx, userID, publicKey, privateKey); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(publicKey), nil
}

// PublicKey returns the user's base64 public key.
func (s *Service) PublicKey(ctx context.Context, userID string) (string, error) {
	publicKey, _, err := s.vault.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(publicKey), nil
}
