package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// Кеш — одноразовий знімок: відсутність запису означає лише промах, ніколи
// не означає, що сутності не існує. Інвалідація — delete-then-let-next-read-
// repopulate; кеш ніколи не пишеться до того, як запис ліг у сховище.
const (
	cacheTTL    = time.Hour
	cacheWindow = 100 // останніх повідомлень на розмову
)

// ConversationKey будує ключ кешу для пари користувачів, нечутливий до
// порядку (messages:<idA>:<idB>, idA < idB).
func ConversationKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "messages:" + pair[0] + ":" + pair[1]
}

func GroupMessagesKey(groupID string) string {
	return "group_messages:" + groupID
}

// conversationKeyOf повертає ключ списку повідомлень для збереженого запису.
func conversationKeyOf(msg *models.Message) string {
	if msg.GroupID != nil {
		return GroupMessagesKey(*msg.GroupID)
	}
	sender := ""
	if msg.SenderID != nil {
		sender = *msg.SenderID
	}
	recipient := ""
	if msg.RecipientID != nil {
		recipient = *msg.RecipientID
	}
	return ConversationKey(sender, recipient)
}

// cacheGetJSON reads and decodes an entity snapshot. Returns false on miss or
// on any Redis error (logged, degraded to a store read).
func (s *Service) cacheGetJSON(ctx context.Context, key string, dst interface{}) bool {
	if s.Redis == nil {
		return false
	}
	data, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		if !isCacheMiss(err) {
			log.Printf("WARNING: cache read failed for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		log.Printf("WARNING: cache entry %s is malformed, dropping: %v", key, err)
		s.cacheInvalidate(ctx, key)
		return false
	}
	return true
}

func (s *Service) cacheSetJSON(ctx context.Context, key string, val interface{}) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		log.Printf("WARNING: failed to cache %s: %v", key, err)
	}
}

// cacheInvalidate видаляє ключі; відсутній ключ — no-op.
func (s *Service) cacheInvalidate(ctx context.Context, keys ...string) {
	if s.Redis == nil || len(keys) == 0 {
		return
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("WARNING: failed to clear cache %v: %v", keys, err)
	}
}

// cachePushMessage prepends a freshly persisted message to its conversation
// list, trimmed to the most recent window. LPushX keeps the push a no-op when
// no window is cached: lists are only ever created by cacheFillMessages, so a
// cached list is always a complete recent window, never a lone message.
func (s *Service) cachePushMessage(ctx context.Context, msg *models.Message) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	key := conversationKeyOf(msg)
	pipe := s.Redis.Pipeline()
	pipe.LPushX(ctx, key, data)
	pipe.LTrim(ctx, key, 0, cacheWindow-1)
	pipe.Expire(ctx, key, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("WARNING: failed to cache message %s: %v", msg.ID, err)
	}
}

// cacheReadMessages повертає закешоване вікно розмови (найновіші першими).
func (s *Service) cacheReadMessages(ctx context.Context, key string) ([]models.Message, bool) {
	if s.Redis == nil {
		return nil, false
	}
	entries, err := s.Redis.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(entries) == 0 {
		if err != nil && !isCacheMiss(err) {
			log.Printf("WARNING: cache read failed for %s: %v", key, err)
		}
		return nil, false
	}

	messages := make([]models.Message, 0, len(entries))
	for _, entry := range entries {
		var msg models.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			log.Printf("WARNING: cache entry in %s is malformed, dropping list: %v", key, err)
			s.cacheInvalidate(ctx, key)
			return nil, false
		}
		messages = append(messages, msg)
	}
	return messages, true
}

// cacheFillMessages repopulates a conversation window after a store read.
func (s *Service) cacheFillMessages(ctx context.Context, key string, messages []models.Message) {
	if s.Redis == nil || len(messages) == 0 {
		return
	}
	pipe := s.Redis.Pipeline()
	pipe.Del(ctx, key)
	// LPush reverses order, so push oldest-first to end up newest-first.
	for i := len(messages) - 1; i >= 0; i-- {
		if i >= cacheWindow {
			continue
		}
		data, err := json.Marshal(messages[i])
		if err != nil {
			return
		}
		pipe.LPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, cacheWindow-1)
	pipe.Expire(ctx, key, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("WARNING: failed to cache conversation %s: %v", key, err)
	}
}

func isCacheMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// notFoundOr перетворює помилку gorm на доменну: запис відсутній → передана
// NotFound-помилка, решта — фатальний збій сховища.
func notFoundOr(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.ErrStoreFailed(err)
}
