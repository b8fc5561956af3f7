// Package botrouter маршрутизує події груп до ботів: через вебхук, якщо він
// налаштований, інакше через локальну таблицю команд бота.
package botrouter

import (
	"context"
	"log"
	"regexp"
	"time"

	"campchat/backend/internal/chat"
	"campchat/backend/internal/models"
	"campchat/backend/internal/storage"
)

// commandRe matches "/cmd" and "/cmd@botname" at the start of a message.
var commandRe = regexp.MustCompile(`^/(\w+)(?:@(\w+))?`)

const dispatchTimeout = 10 * time.Second

// Sender posts bot replies back into the group.
type Sender interface {
	SendBotMessage(ctx context.Context, botID, groupID string, p models.Payload, opts chat.SendOptions) (*models.Message, error)
}

type Router struct {
	store    storage.Storage
	sender   Sender
	webhooks *WebhookClient
}

func NewRouter(store storage.Storage, sender Sender, webhooks *WebhookClient) *Router {
	return &Router{store: store, sender: sender, webhooks: webhooks}
}

// DispatchGroupMessage routes a stored command message to the group's bots.
// Runs in its own goroutine so delivery to the sender is never held up by a
// slow webhook.
func (r *Router) DispatchGroupMessage(msg *models.Message, group *models.Group) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		r.Dispatch(ctx, msg, group)
	}()
}

// Dispatch — синхронний варіант: обходить ботів групи. Боти з вебхуком
// отримують подію message для КОЖНОГО групового повідомлення; таблиця команд
// застосовується лише до ботів без вебхука.
func (r *Router) Dispatch(ctx context.Context, msg *models.Message, group *models.Group) {
	command, targetBot, hasCommand := parseCommand(msg.Content)

	for _, botID := range group.Bots {
		bot, err := r.store.FindBotByID(ctx, botID)
		if err != nil {
			log.Printf("WARNING: skipping bot %s attached to group %s: %v", botID, group.ID, err)
			continue
		}

		if bot.HasWebhook() {
			result, err := r.webhooks.Notify(ctx, bot, WebhookPayload{
				BotID:     bot.ID,
				Event:     models.EventMessage,
				GroupID:   group.ID,
				UserID:    originUserID(msg),
				Timestamp: time.Now().Unix(),
				Message:   msg,
			})
			if err != nil {
				// Якщо вебхук налаштований, але впав, фолбек-команди НЕ застосовуються.
				log.Printf("WARNING: webhook for bot %s failed: %v", bot.ID, err)
				continue
			}
			r.postResult(ctx, bot.ID, group.ID, result, msg.ID)
			continue
		}

		if !hasCommand {
			continue
		}
		if targetBot != "" && bot.Name != targetBot {
			continue
		}
		reply, ok := bot.Commands[command]
		if !ok {
			continue
		}
		opts := chat.SendOptions{ReplyToMessageID: msg.ID}
		if kb, ok := bot.Commands[models.CommandKeyboard]; ok {
			opts.Keyboard = models.JSONColumn(kb)
		}
		r.postText(ctx, bot.ID, group.ID, reply, opts)
	}
}

// HandleMemberEvent routes member_joined/member_left to the group's bots.
// Used by the worker consuming the bot event stream.
func (r *Router) HandleMemberEvent(ctx context.Context, ev models.BotEvent) {
	group, err := r.store.FindGroupByID(ctx, ev.GroupID)
	if err != nil {
		log.Printf("WARNING: dropping bot event for group %s: %v", ev.GroupID, err)
		return
	}

	for _, botID := range group.Bots {
		bot, err := r.store.FindBotByID(ctx, botID)
		if err != nil {
			log.Printf("WARNING: skipping bot %s attached to group %s: %v", botID, group.ID, err)
			continue
		}

		if bot.HasWebhook() {
			result, err := r.webhooks.Notify(ctx, bot, WebhookPayload{
				BotID:     bot.ID,
				Event:     ev.Event,
				GroupID:   ev.GroupID,
				UserID:    ev.UserID,
				Timestamp: ev.Timestamp,
				Group:     group,
			})
			if err != nil {
				log.Printf("WARNING: webhook for bot %s failed: %v", bot.ID, err)
				continue
			}
			r.postResult(ctx, bot.ID, ev.GroupID, result, "")
			continue
		}

		if reply, ok := fallbackReply(bot, ev.Event); ok {
			r.postText(ctx, bot.ID, ev.GroupID, reply, chat.SendOptions{})
		}
	}
}

func fallbackReply(bot *models.Bot, event string) (string, bool) {
	switch event {
	case models.EventMemberJoined:
		reply, ok := bot.Commands[models.CommandWelcome]
		return reply, ok
	case models.EventMemberLeft:
		reply, ok := bot.Commands[models.CommandGoodbye]
		return reply, ok
	default:
		return "", false
	}
}

func (r *Router) postText(ctx context.Context, botID, groupID, text string, opts chat.SendOptions) {
	payload, err := models.NewTextPayload(text)
	if err != nil {
		return
	}
	if _, err := r.sender.SendBotMessage(ctx, botID, groupID, payload, opts); err != nil {
		log.Printf("WARNING: failed to post reply for bot %s: %v", botID, err)
	}
}

// postResult posts a webhook reply into the group. Replies to message events
// reference the triggering message; member events carry no replyTo.
func (r *Router) postResult(ctx context.Context, botID, groupID string, result *WebhookResult, replyTo string) {
	if result == nil {
		return
	}
	payload, opts, err := result.toPayload()
	if err != nil {
		log.Printf("WARNING: discarding invalid webhook result from bot %s: %v", botID, err)
		return
	}
	opts.ReplyToMessageID = replyTo
	if _, err := r.sender.SendBotMessage(ctx, botID, groupID, payload, opts); err != nil {
		log.Printf("WARNING: failed to post webhook reply for bot %s: %v", botID, err)
	}
}

func parseCommand(text string) (command, botName string, ok bool) {
	m := commandRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func originUserID(msg *models.Message) string {
	if msg.SenderID != nil {
		return *msg.SenderID
	}
	return ""
}
