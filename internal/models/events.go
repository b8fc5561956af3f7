package models

// Broker stream names.
const (
	StreamMessageNotifications = "message_notifications"
	StreamGroupNotifications   = "group_notifications"
	StreamBotEvents            = "bot_events"
)

// Bot event kinds.
const (
	EventMessage      = "message"
	EventMemberJoined = "member_joined"
	EventMemberLeft   = "member_left"
)

// MessageNotification — payload топіка message_notifications.
type MessageNotification struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
}

// GroupNotification — payload топіка group_notifications.
type GroupNotification struct {
	GroupID   string `json:"group_id"`
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
}

// BotEvent is what the bot worker consumes off the broker and what the
// in-line group-send path dispatches directly.
type BotEvent struct {
	GroupID   string `json:"group_id"`
	Event     string `json:"event"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}
