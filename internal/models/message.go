package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campchat/backend/pkg/apperrors"
)

// MessageType перелічує всі підтримувані види повідомлень.
type MessageType string

const (
	MessageText      MessageType = "text"
	MessagePhoto     MessageType = "photo"
	MessageVideo     MessageType = "video"
	MessageAudio     MessageType = "audio"
	MessageDocument  MessageType = "document"
	MessageAnimation MessageType = "animation"
	MessageVoice     MessageType = "voice"
	MessageLocation  MessageType = "location"
	MessageContact   MessageType = "contact"
)

// MediaTypes are the message kinds that carry a media_url payload.
var MediaTypes = map[MessageType]bool{
	MessagePhoto:     true,
	MessageVideo:     true,
	MessageAudio:     true,
	MessageDocument:  true,
	MessageAnimation: true,
	MessageVoice:     true,
}

// AllowedReactions is the fixed reaction whitelist.
var AllowedReactions = []string{"👍", "👎", "❤️", "🔥", "🎉"}

func IsAllowedReaction(r string) bool {
	for _, a := range AllowedReactions {
		if a == r {
			return true
		}
	}
	return false
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
}

type Reaction struct {
	UserID   string `json:"user_id"`
	Reaction string `json:"reaction"`
}

// Reactions зберігається як jsonb; дублікати від одного користувача дозволені,
// список лише доповнюється.
type Reactions []Reaction

func (r Reactions) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	return string(b), err
}

func (r *Reactions) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// JSONColumn holds an arbitrary JSON document in a jsonb column
// (entities, keyboard hints).
type JSONColumn json.RawMessage

func (j JSONColumn) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONColumn) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = JSONColumn(v)
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}

func (j JSONColumn) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONColumn) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}

func (l *Location) Scan(src interface{}) error { return scanJSON(src, l) }

func (l Location) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	return string(b), err
}

func (c *Contact) Scan(src interface{}) error { return scanJSON(src, c) }

func (c Contact) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	return string(b), err
}

// Message is the persisted chat message. Exactly one of SenderID/BotID is
// set, exactly one of RecipientID/GroupID, and exactly one payload field per
// Type (enforced by Payload at construction time).
type Message struct {
	ID               string      `gorm:"primaryKey" json:"id"`
	SenderID         *string     `gorm:"index" json:"sender_id,omitempty"`
	BotID            *string     `gorm:"index" json:"bot_id,omitempty"`
	RecipientID      *string     `gorm:"index:idx_direct_pair" json:"recipient_id,omitempty"`
	GroupID          *string     `gorm:"index" json:"group_id,omitempty"`
	Type             MessageType `gorm:"type:text;not null" json:"type"`
	Content          string      `gorm:"type:text" json:"content,omitempty"`
	MediaURL         string      `gorm:"type:text" json:"media_url,omitempty"`
	Location         *Location   `gorm:"type:jsonb" json:"location,omitempty"`
	Contact          *Contact    `gorm:"type:jsonb" json:"contact,omitempty"`
	Caption          string      `gorm:"type:text" json:"caption,omitempty"`
	Entities         JSONColumn  `gorm:"type:jsonb" json:"entities,omitempty"`
	ReplyToMessageID *string     `gorm:"index" json:"reply_to_message_id,omitempty"`
	ForwardFrom      *string     `json:"forward_from,omitempty"`
	Keyboard         JSONColumn  `gorm:"type:jsonb" json:"keyboard,omitempty"`
	Reactions        Reactions   `gorm:"type:jsonb;default:'[]'" json:"reactions"`
	CreatedAt        time.Time   `json:"created_at"`
}

// BeforeCreate — хук GORM; генерує UUID, якщо ID ще не встановлено.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

func (m *Message) IsGroupMessage() bool { return m.GroupID != nil }

func (m *Message) IsBotMessage() bool { return m.BotID != nil }

// Payload is the tagged-union view of a message body: one variant per
// message kind, checked when built so that field exclusivity never has to be
// re-validated downstream.
type Payload struct {
	Type     MessageType
	Content  string
	MediaURL string
	Location *Location
	Contact  *Contact
}

func NewTextPayload(content string) (Payload, error) {
	if content == "" {
		return Payload{}, apperrors.InvalidInput("missing content for text message")
	}
	return Payload{Type: MessageText, Content: content}, nil
}

func NewMediaPayload(t MessageType, mediaURL string) (Payload, error) {
	if !MediaTypes[t] {
		return Payload{}, apperrors.InvalidInput("unsupported media type: " + string(t))
	}
	if mediaURL == "" {
		return Payload{}, apperrors.InvalidInput("missing media_url for " + string(t) + " message")
	}
	return Payload{Type: t, MediaURL: mediaURL}, nil
}

func NewLocationPayload(lat, lon float64) (Payload, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Payload{}, apperrors.InvalidInput("latitude/longitude out of range")
	}
	return Payload{Type: MessageLocation, Location: &Location{Latitude: lat, Longitude: lon}}, nil
}

func NewContactPayload(phone, first, last string) (Payload, error) {
	if phone == "" || first == "" {
		return Payload{}, apperrors.InvalidInput("missing phone_number or first_name")
	}
	return Payload{Type: MessageContact, Contact: &Contact{PhoneNumber: phone, FirstName: first, LastName: last}}, nil
}

// ParsePayload будує Payload із сирих полів запиту, перевіряючи, що заповнене
// рівно те поле, яке вимагає тип.
func ParsePayload(t MessageType, content, mediaURL string, location *Location, contact *Contact) (Payload, error) {
	switch {
	case t == MessageText:
		return NewTextPayload(content)
	case MediaTypes[t]:
		return NewMediaPayload(t, mediaURL)
	case t == MessageLocation:
		if location == nil {
			return Payload{}, apperrors.InvalidInput("missing latitude or longitude")
		}
		return NewLocationPayload(location.Latitude, location.Longitude)
	case t == MessageContact:
		if contact == nil {
			return Payload{}, apperrors.InvalidInput("missing phone_number or first_name")
		}
		return NewContactPayload(contact.PhoneNumber, contact.FirstName, contact.LastName)
	default:
		return Payload{}, apperrors.InvalidInput("unsupported message type: " + string(t))
	}
}

// Apply copies the payload variant into the message record.
func (p Payload) Apply(m *Message) {
	m.Type = p.Type
	m.Content = p.Content
	m.MediaURL = p.MediaURL
	m.Location = p.Location
	m.Contact = p.Contact
}
