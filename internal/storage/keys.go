package storage

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// InsertUserKeys — видача ключів одноразова: повторна вставка для того ж
// user_id повертає ErrKeysAlreadyStored, існуючий запис не чіпається.
func (s *Service) InsertUserKeys(ctx context.Context, keys *models.UserKeys) error {
	if err := s.DB.WithContext(ctx).Create(keys).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.ErrKeysAlreadyStored
		}
		log.Printf("ERROR: failed to insert keys for user %s: %v", keys.UserID, err)
		return apperrors.ErrStoreFailed(err)
	}
	return nil
}

func (s *Service) FindUserKeys(ctx context.Context, userID string) (*models.UserKeys, error) {
	var keys models.UserKeys
	if err := s.DB.WithContext(ctx).First(&keys, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrKeysNotFound
		}
		return nil, apperrors.ErrStoreFailed(err)
	}
	return &keys, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
