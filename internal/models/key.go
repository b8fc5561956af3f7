package models

import "time"

// UserKeys holds one user's keypair, both halves wrapped under the
// process-wide master key. Insert-only: never updated after issuance.
type UserKeys struct {
	UserID     string    `gorm:"primaryKey" json:"user_id"`
	PublicKey  string    `gorm:"type:text;not null" json:"-"`
	PrivateKey string    `gorm:"type:text;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (UserKeys) TableName() string { return "user_keys" }
