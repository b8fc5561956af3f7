package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// publishTimeout bounds each XADD so a slow broker never blocks a request
// that has already committed.
const publishTimeout = 2 * time.Second

// PublishMessageNotification enqueues a direct-message notification.
// Best-effort: the message is already persisted, a broker hiccup only
// costs the push notification.
func (s *Service) PublishMessageNotification(n models.MessageNotification) {
	s.publish(models.StreamMessageNotifications, n)
}

func (s *Service) PublishGroupNotification(n models.GroupNotification) {
	s.publish(models.StreamGroupNotifications, n)
}

func (s *Service) PublishBotEvent(ev models.BotEvent) {
	s.publish(models.StreamBotEvents, ev)
}

func (s *Service) publish(stream string, payload interface{}) {
	if s.Redis == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to marshal event for stream %s: %v", stream, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = s.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": string(body)},
	}).Err()
	if err != nil {
		log.Printf("WARNING: failed to publish to stream %s: %v", stream, err)
	}
}

// botEventGroup — consumer group воркера ботів. Читання через XREADGROUP з
// підтвердженням після обробки дає at-least-once доставку.
const botEventGroup = "bot_workers"

// EnsureBotEventGroup creates the consumer group if it does not exist yet.
func (s *Service) EnsureBotEventGroup(ctx context.Context) error {
	err := s.Redis.XGroupCreateMkStream(ctx, models.StreamBotEvents, botEventGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return apperrors.ErrBrokerUnavailable(err)
	}
	return nil
}

// BotEventEntry couples a decoded event with the stream ID needed to ack it.
type BotEventEntry struct {
	ID    string
	Event models.BotEvent
}

// ReadBotEvents blocks up to the given duration waiting for new bot events.
// A nil slice with nil error means the wait timed out.
func (s *Service) ReadBotEvents(ctx context.Context, consumer string, block time.Duration) ([]BotEventEntry, error) {
	streams, err := s.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    botEventGroup,
		Consumer: consumer,
		Streams:  []string{models.StreamBotEvents, ">"},
		Count:    10,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ErrBrokerUnavailable(err)
	}

	var entries []BotEventEntry
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, _ := msg.Values["payload"].(string)
			var ev models.BotEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				log.Printf("WARNING: dropping malformed bot event %s: %v", msg.ID, err)
				s.AckBotEvent(ctx, msg.ID)
				continue
			}
			entries = append(entries, BotEventEntry{ID: msg.ID, Event: ev})
		}
	}
	return entries, nil
}

// AckBotEvent підтверджує обробку події. Викликається лише після того, як
// диспетчеризація завершилась.
func (s *Service) AckBotEvent(ctx context.Context, id string) {
	if err := s.Redis.XAck(ctx, models.StreamBotEvents, botEventGroup, id).Err(); err != nil {
		log.Printf("WARNING: failed to ack bot event %s: %v", id, err)
	}
}
