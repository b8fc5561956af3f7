package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User — мінімальний запис користувача: ядру потрібні лише ідентичність та
// унікальний username, профілі тут не зберігаються.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
