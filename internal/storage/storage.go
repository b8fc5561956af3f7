package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"campchat/backend/internal/models"
)

// Storage is the persistence boundary the rest of the system depends on.
// Mutations are serialized per-entity by the database's atomic conditional
// updates, never by in-process locks: several gateway instances may run at
// once.
type Storage interface {
	// Messages
	CreateMessage(ctx context.Context, msg *models.Message) (string, error)
	FindMessageByID(ctx context.Context, id string) (*models.Message, error)
	UpdateMessage(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteMessage(ctx context.Context, id string) error
	AddReaction(ctx context.Context, messageID, userID, reaction string) error
	GetHistory(ctx context.Context, senderID, recipientID string, limit, skip int) ([]models.Message, error)
	GetGroupHistory(ctx context.Context, groupID string, limit, skip int) ([]models.Message, error)
	FindMessagesSince(ctx context.Context, since int64, limit int) ([]models.Message, error)

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) (string, error)
	FindGroupByID(ctx context.Context, id string) (*models.Group, error)
	GroupCreatorID(ctx context.Context, groupID string) (string, error)
	AddMember(ctx context.Context, groupID, userID, actorID string) error
	RemoveMember(ctx context.Context, groupID, userID, actorID string) error
	QuitGroup(ctx context.Context, groupID, userID string) error
	AddAdmin(ctx context.Context, groupID, userID, actorID string) error
	RemoveAdmin(ctx context.Context, groupID, userID, actorID string) error
	UpdatePermissions(ctx context.Context, groupID string, perms models.Permissions, actorID string) error
	UpdateGroupDetails(ctx context.Context, groupID string, updates map[string]interface{}, actorID string) error
	DeleteGroup(ctx context.Context, groupID, actorID string) error
	PinMessage(ctx context.Context, groupID, messageID, actorID string) error
	UnpinMessage(ctx context.Context, groupID, actorID string) error
	AddBotToGroup(ctx context.Context, groupID, botID, actorID string) error
	RemoveBotFromGroup(ctx context.Context, groupID, botID, actorID string) error

	// Bots
	CreateBot(ctx context.Context, bot *models.Bot) (string, error)
	FindBotByID(ctx context.Context, id string) (*models.Bot, error)
	UpdateBotCommands(ctx context.Context, botID string, commands models.CommandMap, actorID string) error
	SetBotWebhook(ctx context.Context, botID string, webhookURL *string, actorID string) error

	// Users
	CreateUser(ctx context.Context, user *models.User) (string, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	// Keys
	InsertUserKeys(ctx context.Context, rec *models.UserKeys) error
	FindUserKeys(ctx context.Context, userID string) (*models.UserKeys, error)

	// Broker (best-effort, never returns an error to the caller)
	PublishMessageNotification(n models.MessageNotification)
	PublishGroupNotification(n models.GroupNotification)
	PublishBotEvent(ev models.BotEvent)
}

// Service реалізує Storage поверх PostgreSQL (gorm) та Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// Migrate створює таблиці ядра.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Group{},
		&models.Bot{},
		&models.UserKeys{},
	)
}

var _ Storage = (*Service)(nil)
