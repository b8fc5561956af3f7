package botrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"campchat/backend/internal/chat"
	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookPayload is the JSON document POSTed to a bot's webhook URL.
type WebhookPayload struct {
	BotID     string          `json:"bot_id"`
	Event     string          `json:"event"`
	GroupID   string          `json:"group_id"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Message   *models.Message `json:"message,omitempty"`
	Group     *models.Group   `json:"group,omitempty"`
}

// WebhookResult is the optional reply a webhook may return inside
// {ok:true, result:{...}}.
type WebhookResult struct {
	Type     models.MessageType `json:"type"`
	Content  string             `json:"content,omitempty"`
	MediaURL string             `json:"media_url,omitempty"`
	Caption  string             `json:"caption,omitempty"`
	Keyboard models.JSONColumn  `json:"keyboard,omitempty"`
}

type webhookResponse struct {
	OK     bool           `json:"ok"`
	Result *WebhookResult `json:"result,omitempty"`
}

// webhookReplyTypes — які типи відповіді вебхука приймаються.
var webhookReplyTypes = map[models.MessageType]bool{
	models.MessageText:     true,
	models.MessagePhoto:    true,
	models.MessageVideo:    true,
	models.MessageDocument: true,
}

func (w *WebhookResult) toPayload() (models.Payload, chat.SendOptions, error) {
	if !webhookReplyTypes[w.Type] {
		return models.Payload{}, chat.SendOptions{}, apperrors.InvalidInput("unsupported webhook reply type: " + string(w.Type))
	}
	payload, err := models.ParsePayload(w.Type, w.Content, w.MediaURL, nil, nil)
	if err != nil {
		return models.Payload{}, chat.SendOptions{}, err
	}
	return payload, chat.SendOptions{Caption: w.Caption, Keyboard: w.Keyboard}, nil
}

// WebhookClient доставляє події на вебхуки ботів. Короткий таймаут
// з'єднання відсікає мертві адреси, загальний — повільні відповіді.
type WebhookClient struct {
	client *http.Client
}

func NewWebhookClient(connectTimeout, totalTimeout time.Duration) *WebhookClient {
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	if totalTimeout <= 0 {
		totalTimeout = 5 * time.Second
	}
	return &WebhookClient{
		client: &http.Client{
			Timeout: totalTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
				TLSHandshakeTimeout: connectTimeout,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

// Notify POSTs the payload and parses the reply. The webhook must answer
// 200 with {ok:true}; a nil result with nil error means it acknowledged
// without a reply message.
func (c *WebhookClient) Notify(ctx context.Context, bot *models.Bot, payload WebhookPayload) (*WebhookResult, error) {
	if !bot.HasWebhook() {
		return nil, apperrors.ErrInvalidWebhookURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal("failed to marshal webhook payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *bot.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.ErrWebhookFailed(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.ErrWebhookFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrWebhookFailed(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		return nil, apperrors.ErrWebhookFailed(err)
	}
	if len(raw) == 0 {
		return nil, apperrors.ErrWebhookFailed(fmt.Errorf("empty response body"))
	}

	var parsed webhookResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperrors.ErrWebhookFailed(err)
	}
	if !parsed.OK {
		return nil, apperrors.ErrWebhookFailed(fmt.Errorf("webhook replied ok=false"))
	}
	return parsed.Result, nil
}
