package storage

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/lib/pq"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

func validateWebhookURL(webhookURL *string) error {
	if webhookURL == nil {
		return nil
	}
	u, err := url.Parse(*webhookURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return apperrors.ErrInvalidWebhookURL
	}
	return nil
}

func (s *Service) CreateBot(ctx context.Context, bot *models.Bot) (string, error) {
	if bot.Name == "" || bot.CreatorID == "" {
		return "", apperrors.InvalidInput("name and creator_id are required")
	}
	if err := validateWebhookURL(bot.WebhookURL); err != nil {
		return "", err
	}
	if bot.Commands == nil {
		bot.Commands = models.CommandMap{}
	}
	bot.Groups = pq.StringArray{}
	if bot.CreatedAt.IsZero() {
		bot.CreatedAt = time.Now()
	}

	if err := s.DB.WithContext(ctx).Create(bot).Error; err != nil {
		log.Printf("ERROR: failed to create bot: %v", err)
		return "", apperrors.ErrStoreFailed(err)
	}

	s.cacheSetJSON(ctx, "bot:"+bot.ID, bot)
	return bot.ID, nil
}

func (s *Service) FindBotByID(ctx context.Context, id string) (*models.Bot, error) {
	var bot models.Bot

	cacheKey := "bot:" + id
	if s.cacheGetJSON(ctx, cacheKey, &bot) {
		return &bot, nil
	}

	if err := s.DB.WithContext(ctx).First(&bot, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBotNotFound)
	}

	s.cacheSetJSON(ctx, cacheKey, &bot)
	return &bot, nil
}

// UpdateBotCommands replaces the command table wholesale. Only the creator may
// change it.
func (s *Service) UpdateBotCommands(ctx context.Context, botID string, commands models.CommandMap, actorID string) error {
	bot, err := s.FindBotByID(ctx, botID)
	if err != nil {
		return err
	}
	if bot.CreatorID != actorID {
		return apperrors.Unauthorized("only the bot creator can update commands")
	}

	err = s.DB.WithContext(ctx).Model(&models.Bot{}).Where("id = ?", botID).
		Update("commands", commands).Error
	if err != nil {
		log.Printf("ERROR: failed to update commands for bot %s: %v", botID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "bot:"+botID)
	return nil
}

// SetBotWebhook встановлює або знімає (webhookURL == nil) вебхук бота.
// Приймаються лише абсолютні https-адреси.
func (s *Service) SetBotWebhook(ctx context.Context, botID string, webhookURL *string, actorID string) error {
	bot, err := s.FindBotByID(ctx, botID)
	if err != nil {
		return err
	}
	if bot.CreatorID != actorID {
		return apperrors.Unauthorized("only the bot creator can manage the webhook")
	}

	if err := validateWebhookURL(webhookURL); err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Model(&models.Bot{}).Where("id = ?", botID).
		Update("webhook_url", webhookURL).Error
	if err != nil {
		log.Printf("ERROR: failed to set webhook for bot %s: %v", botID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "bot:"+botID)
	return nil
}
