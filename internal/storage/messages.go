package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// CreateMessage persists the message, prepends it to the conversation cache
// and queues a best-effort notification. Broker failures never reach the
// caller.
func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) (string, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Reactions == nil {
		msg.Reactions = models.Reactions{}
	}

	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: failed to save message: %v", err)
		return "", apperrors.ErrStoreFailed(err)
	}

	s.cachePushMessage(ctx, msg)

	// Публікація після коміту, невдача — лише в лог.
	senderID := ""
	if msg.SenderID != nil {
		senderID = *msg.SenderID
	} else if msg.BotID != nil {
		senderID = *msg.BotID
	}
	if msg.GroupID != nil {
		s.PublishGroupNotification(models.GroupNotification{
			GroupID:   *msg.GroupID,
			MessageID: msg.ID,
			SenderID:  senderID,
		})
	} else if msg.RecipientID != nil {
		s.PublishMessageNotification(models.MessageNotification{
			RecipientID: *msg.RecipientID,
			MessageID:   msg.ID,
			SenderID:    senderID,
		})
	}

	return msg.ID, nil
}

// FindMessageByID — точкове читання повз кеш: використовується для перевірок
// авторизації перед мутаціями, тому завжди авторитетне.
func (s *Service) FindMessageByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	if err := s.DB.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrMessageNotFound)
	}
	return &msg, nil
}

// UpdateMessage merges the allowed fields (content/caption/media_url) and
// invalidates the owning conversation's cache entry.
func (s *Service) UpdateMessage(ctx context.Context, id string, updates map[string]interface{}) error {
	msg, err := s.FindMessageByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Printf("ERROR: failed to update message %s: %v", id, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, conversationKeyOf(msg))
	return nil
}

func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	msg, err := s.FindMessageByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Message{}, "id = ?", id).Error; err != nil {
		log.Printf("ERROR: failed to delete message %s: %v", id, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, conversationKeyOf(msg))
	return nil
}

// AddReaction appends atomically on the database side (jsonb concat), so
// concurrent reactions from different gateway instances all land. Duplicates
// from one user accumulate: the list is append-only.
func (s *Service) AddReaction(ctx context.Context, messageID, userID, reaction string) error {
	msg, err := s.FindMessageByID(ctx, messageID)
	if err != nil {
		return err
	}

	entry, err := json.Marshal(models.Reactions{{UserID: userID, Reaction: reaction}})
	if err != nil {
		return apperrors.ErrStoreFailed(err)
	}

	res := s.DB.WithContext(ctx).Exec(
		`UPDATE messages SET reactions = COALESCE(reactions, '[]'::jsonb) || ?::jsonb WHERE id = ?`,
		string(entry), messageID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to add reaction to message %s: %v", messageID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	s.cacheInvalidate(ctx, conversationKeyOf(msg))
	return nil
}

// GetHistory — cache-aside читання історії прямої розмови, найновіші першими.
func (s *Service) GetHistory(ctx context.Context, senderID, recipientID string, limit, skip int) ([]models.Message, error) {
	limit, skip = clampPage(limit, skip)
	key := ConversationKey(senderID, recipientID)
	useCache, fetchLimit, fill := historyPlan(limit, skip)

	if useCache {
		if cached, ok := s.cacheReadMessages(ctx, key); ok {
			return pageOf(cached, limit, skip), nil
		}
	}

	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			senderID, recipientID, recipientID, senderID).
		Order("created_at desc").
		Limit(fetchLimit).Offset(skip).
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: failed to load history %s/%s: %v", senderID, recipientID, err)
		return nil, apperrors.ErrStoreFailed(err)
	}

	if fill {
		s.cacheFillMessages(ctx, key, messages)
		messages = pageOf(messages, limit, 0)
	}
	return messages, nil
}

// GetGroupHistory — те саме для групи.
func (s *Service) GetGroupHistory(ctx context.Context, groupID string, limit, skip int) ([]models.Message, error) {
	limit, skip = clampPage(limit, skip)
	key := GroupMessagesKey(groupID)
	useCache, fetchLimit, fill := historyPlan(limit, skip)

	if useCache {
		if cached, ok := s.cacheReadMessages(ctx, key); ok {
			return pageOf(cached, limit, skip), nil
		}
	}

	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at desc").
		Limit(fetchLimit).Offset(skip).
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: failed to load group history %s: %v", groupID, err)
		return nil, apperrors.ErrStoreFailed(err)
	}

	if fill {
		s.cacheFillMessages(ctx, key, messages)
		messages = pageOf(messages, limit, 0)
	}
	return messages, nil
}

// FindMessagesSince повертає повідомлення, новіші за since (unix-секунди);
// використовується циклом довгого опитування getUpdates.
func (s *Service) FindMessagesSince(ctx context.Context, since int64, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.DB.WithContext(ctx).
		Where("created_at > ?", time.Unix(since, 0)).
		Order("created_at asc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.ErrStoreFailed(err)
	}
	return messages, nil
}

func clampPage(limit, skip int) (int, int) {
	if limit <= 0 || limit > cacheWindow {
		limit = cacheWindow
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}

// historyPlan decides how a history read interacts with the cached window.
// The cached list holds the newest cacheWindow messages of a conversation, so
// it can serve any page that fits inside the window; deeper pages go straight
// to the store. A miss on the first page refetches a full window, not just the
// requested page, so later in-window reads are never truncated.
func historyPlan(limit, skip int) (useCache bool, fetchLimit int, fill bool) {
	useCache = skip+limit <= cacheWindow
	fill = skip == 0
	fetchLimit = limit
	if fill {
		fetchLimit = cacheWindow
	}
	return useCache, fetchLimit, fill
}

func pageOf(messages []models.Message, limit, skip int) []models.Message {
	if skip >= len(messages) {
		return []models.Message{}
	}
	end := skip + limit
	if end > len(messages) {
		end = len(messages)
	}
	return messages[skip:end]
}
