package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // Необхідний для pq.StringArray
	"gorm.io/gorm"
)

// Permissions keeps the group-level policy switches.
type Permissions struct {
	Locked              bool `json:"locked"`
	AllowMemberMessages bool `json:"allow_member_messages"`
	AllowMemberInvites  bool `json:"allow_member_invites"`
}

// Group представляє групу в системі. Інваріанти: creator завжди є і членом,
// і адміном; admins ⊆ members.
type Group struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	CreatorID       string         `gorm:"not null;index" json:"creator_id"`
	Name            string         `gorm:"type:text;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	IconURL         string         `gorm:"type:text" json:"icon_url,omitempty"`
	Members         pq.StringArray `gorm:"type:text[]" json:"members"`
	Admins          pq.StringArray `gorm:"type:text[]" json:"admins"`
	Bots            pq.StringArray `gorm:"type:text[]" json:"bots"`
	Locked          bool           `json:"locked"`
	AllowMessages   bool           `gorm:"default:true" json:"allow_member_messages"`
	AllowInvites    bool           `json:"allow_member_invites"`
	PinnedMessageID *string        `json:"pinned_message_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return
}

func (g *Group) Permissions() Permissions {
	return Permissions{
		Locked:              g.Locked,
		AllowMemberMessages: g.AllowMessages,
		AllowMemberInvites:  g.AllowInvites,
	}
}

func (g *Group) IsMember(userID string) bool { return contains(g.Members, userID) }

func (g *Group) IsAdmin(userID string) bool { return contains(g.Admins, userID) }

func (g *Group) HasBot(botID string) bool { return contains(g.Bots, botID) }

func contains(list pq.StringArray, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
