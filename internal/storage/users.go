package storage

import (
	"context"
	"log"
	"time"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

func (s *Service) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if user.Username == "" {
		return "", apperrors.InvalidInput("username is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return "", apperrors.New(apperrors.CodeDuplicateKey, "username already taken")
		}
		log.Printf("ERROR: failed to create user: %v", err)
		return "", apperrors.ErrStoreFailed(err)
	}

	s.cacheSetJSON(ctx, "user:"+user.ID, user)
	return user.ID, nil
}

func (s *Service) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	cacheKey := "user:" + id
	if s.cacheGetJSON(ctx, cacheKey, &user) {
		return &user, nil
	}

	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUserNotFound)
	}

	s.cacheSetJSON(ctx, cacheKey, &user)
	return &user, nil
}

func (s *Service) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}
