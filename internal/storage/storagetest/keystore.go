package storagetest

import (
	"context"
	"sync"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// MemoryKeyStore — keyvault.KeyStore у пам'яті, без мок-очікувань: тести
// шифрування читають ключі на кожну операцію.
type MemoryKeyStore struct {
	mu   sync.Mutex
	recs map[string]models.UserKeys
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{recs: make(map[string]models.UserKeys)}
}

func (s *MemoryKeyStore) InsertUserKeys(ctx context.Context, rec *models.UserKeys) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.UserID]; ok {
		return apperrors.ErrKeysAlreadyStored
	}
	s.recs[rec.UserID] = *rec
	return nil
}

func (s *MemoryKeyStore) FindUserKeys(ctx context.Context, userID string) (*models.UserKeys, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[userID]
	if !ok {
		return nil, apperrors.ErrKeysNotFound
	}
	return &rec, nil
}
