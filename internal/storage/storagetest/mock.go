// Package storagetest надає testify-мок інтерфейсу storage.Storage для
// тестів сервісів, що не потребують живих PostgreSQL та Redis.
package storagetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"campchat/backend/internal/models"
	"campchat/backend/internal/storage"
)

type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) CreateMessage(ctx context.Context, msg *models.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) FindMessageByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) UpdateMessage(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}

func (m *MockStorage) DeleteMessage(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) AddReaction(ctx context.Context, messageID, userID, reaction string) error {
	return m.Called(ctx, messageID, userID, reaction).Error(0)
}

func (m *MockStorage) GetHistory(ctx context.Context, senderID, recipientID string, limit, skip int) ([]models.Message, error) {
	args := m.Called(ctx, senderID, recipientID, limit, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) GetGroupHistory(ctx context.Context, groupID string, limit, skip int) ([]models.Message, error) {
	args := m.Called(ctx, groupID, limit, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) FindMessagesSince(ctx context.Context, since int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) CreateGroup(ctx context.Context, group *models.Group) (string, error) {
	args := m.Called(ctx, group)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) FindGroupByID(ctx context.Context, id string) (*models.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockStorage) GroupCreatorID(ctx context.Context, groupID string) (string, error) {
	args := m.Called(ctx, groupID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) AddMember(ctx context.Context, groupID, userID, actorID string) error {
	return m.Called(ctx, groupID, userID, actorID).Error(0)
}

func (m *MockStorage) RemoveMember(ctx context.Context, groupID, userID, actorID string) error {
	return m.Called(ctx, groupID, userID, actorID).Error(0)
}

func (m *MockStorage) QuitGroup(ctx context.Context, groupID, userID string) error {
	return m.Called(ctx, groupID, userID).Error(0)
}

func (m *MockStorage) AddAdmin(ctx context.Context, groupID, userID, actorID string) error {
	return m.Called(ctx, groupID, userID, actorID).Error(0)
}

func (m *MockStorage) RemoveAdmin(ctx context.Context, groupID, userID, actorID string) error {
	return m.Called(ctx, groupID, userID, actorID).Error(0)
}

func (m *MockStorage) UpdatePermissions(ctx context.Context, groupID string, perms models.Permissions, actorID string) error {
	return m.Called(ctx, groupID, perms, actorID).Error(0)
}

func (m *MockStorage) UpdateGroupDetails(ctx context.Context, groupID string, updates map[string]interface{}, actorID string) error {
	return m.Called(ctx, groupID, updates, actorID).Error(0)
}

func (m *MockStorage) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	return m.Called(ctx, groupID, actorID).Error(0)
}

func (m *MockStorage) PinMessage(ctx context.Context, groupID, messageID, actorID string) error {
	return m.Called(ctx, groupID, messageID, actorID).Error(0)
}

func (m *MockStorage) UnpinMessage(ctx context.Context, groupID, actorID string) error {
	return m.Called(ctx, groupID, actorID).Error(0)
}

func (m *MockStorage) AddBotToGroup(ctx context.Context, groupID, botID, actorID string) error {
	return m.Called(ctx, groupID, botID, actorID).Error(0)
}

func (m *MockStorage) RemoveBotFromGroup(ctx context.Context, groupID, botID, actorID string) error {
	return m.Called(ctx, groupID, botID, actorID).Error(0)
}

func (m *MockStorage) CreateBot(ctx context.Context, bot *models.Bot) (string, error) {
	args := m.Called(ctx, bot)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) FindBotByID(ctx context.Context, id string) (*models.Bot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bot), args.Error(1)
}

func (m *MockStorage) UpdateBotCommands(ctx context.Context, botID string, commands models.CommandMap, actorID string) error {
	return m.Called(ctx, botID, commands, actorID).Error(0)
}

func (m *MockStorage) SetBotWebhook(ctx context.Context, botID string, webhookURL *string, actorID string) error {
	return m.Called(ctx, botID, webhookURL, actorID).Error(0)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) InsertUserKeys(ctx context.Context, rec *models.UserKeys) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockStorage) FindUserKeys(ctx context.Context, userID string) (*models.UserKeys, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserKeys), args.Error(1)
}

func (m *MockStorage) PublishMessageNotification(n models.MessageNotification) {
	m.Called(n)
}

func (m *MockStorage) PublishGroupNotification(n models.GroupNotification) {
	m.Called(n)
}

func (m *MockStorage) PublishBotEvent(ev models.BotEvent) {
	m.Called(ev)
}
