package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Reserved command keys: not invocable as /commands, consumed by the event
// dispatcher instead.
const (
	CommandWelcome  = "welcome"
	CommandGoodbye  = "goodbye"
	CommandKeyboard = "keyboard"
)

// CommandMap зберігається як jsonb: ім'я команди → текст відповіді.
type CommandMap map[string]string

func (c CommandMap) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	return string(b), err
}

func (c *CommandMap) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// Bot is a programmable group participant: either a webhook endpoint or a
// canned command table, never both at dispatch time.
type Bot struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"type:text;not null" json:"name"`
	CreatorID  string         `gorm:"not null;index" json:"creator_id"`
	Commands   CommandMap     `gorm:"type:jsonb;default:'{}'" json:"commands"`
	Groups     pq.StringArray `gorm:"type:text[]" json:"groups"`
	WebhookURL *string        `json:"webhook_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (b *Bot) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func (b *Bot) HasWebhook() bool { return b.WebhookURL != nil && *b.WebhookURL != "" }
