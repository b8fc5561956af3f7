package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campchat/backend/internal/chat"
	"campchat/backend/internal/crypto"
	"campchat/backend/internal/keyvault"
	"campchat/backend/internal/models"
	"campchat/backend/internal/storage/storagetest"
	"campchat/backend/pkg/apperrors"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) DispatchGroupMessage(msg *models.Message, group *models.Group) {
	m.Called(msg, group)
}

type fixture struct {
	svc   *chat.Service
	store *storagetest.MockStorage
	vault *keyvault.Vault
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	var master [32]byte
	copy(master[:], []byte("0123456789abcdef0123456789abcdef"))

	store := new(storagetest.MockStorage)
	vault := keyvault.New(storagetest.NewMemoryKeyStore(), master)
	engine := crypto.NewEngine(vault, store)
	svc := chat.NewService(store, vault, engine, 5*time.Millisecond, 50*time.Millisecond)

	return &fixture{svc: svc, store: store, vault: vault}
}

func (f *fixture) issueKeys(t *testing.T, userID string) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, f.vault.Store(context.Background(), userID, pub, priv))
}

func strPtr(s string) *string { return &s }

func testGroup() *models.Group {
	return &models.Group{
		ID:            "group-1",
		CreatorID:     "creator",
		Name:          "Табір",
		Members:       pq.StringArray{"creator", "alice", "bob"},
		Admins:        pq.StringArray{"creator"},
		Bots:          pq.StringArray{},
		AllowMessages: true,
	}
}

func TestSendDirectEncryptsContent(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "alice")
	f.issueKeys(t, "bob")

	f.store.On("FindUserByID", mock.Anything, "bob").Return(&models.User{ID: "bob"}, nil)

	var stored models.Message
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			stored = *args.Get(1).(*models.Message)
		}).
		Return("msg-1", nil)

	payload, err := models.NewTextPayload("таємне повідомлення")
	require.NoError(t, err)

	msg, err := f.svc.SendDirect(context.Background(), "alice", "bob", payload, chat.SendOptions{})
	require.NoError(t, err)

	// Відправнику повертається plaintext, у сховище пішов шифротекст.
	assert.Equal(t, "таємне повідомлення", msg.Content)
	assert.NotEqual(t, "таємне повідомлення", stored.Content)
	assert.NotEmpty(t, stored.Content)
	require.NotNil(t, stored.SenderID)
	assert.Equal(t, "alice", *stored.SenderID)
	f.store.AssertExpectations(t)
}

func TestSendDirectToSelf(t *testing.T) {
	f := newFixture(t)

	payload, _ := models.NewTextPayload("hi")
	_, err := f.svc.SendDirect(context.Background(), "alice", "alice", payload, chat.SendOptions{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}

func TestSendDirectMediaSkipsEncryption(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindUserByID", mock.Anything, "bob").Return(&models.User{ID: "bob"}, nil)

	var stored models.Message
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			stored = *args.Get(1).(*models.Message)
		}).
		Return("msg-1", nil)

	payload, err := models.NewMediaPayload(models.MessagePhoto, "https://cdn.example.com/pic.jpg")
	require.NoError(t, err)

	_, err = f.svc.SendDirect(context.Background(), "alice", "bob", payload, chat.SendOptions{Caption: "підпис"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/pic.jpg", stored.MediaURL)
	assert.Equal(t, "підпис", stored.Caption)
	assert.Empty(t, stored.Content)
}

func TestSendGroupGates(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(g *models.Group)
		sender   string
		expected error
	}{
		{
			name:     "non-member rejected",
			mutate:   func(g *models.Group) {},
			sender:   "stranger",
			expected: apperrors.ErrNotGroupMember,
		},
		{
			name:     "locked group mutes members",
			mutate:   func(g *models.Group) { g.Locked = true },
			sender:   "alice",
			expected: apperrors.ErrGroupLocked,
		},
		{
			name:     "allow_messages off mutes members",
			mutate:   func(g *models.Group) { g.AllowMessages = false },
			sender:   "alice",
			expected: apperrors.ErrMembersMuted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			group := testGroup()
			tt.mutate(group)
			f.store.On("FindGroupByID", mock.Anything, "group-1").Return(group, nil)

			payload, _ := models.NewTextPayload("hi all")
			_, err := f.svc.SendGroup(context.Background(), tt.sender, "group-1", payload, chat.SendOptions{})
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestSendGroupAdminBypassesGates(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "creator")

	group := testGroup()
	group.Locked = true
	group.AllowMessages = false
	f.store.On("FindGroupByID", mock.Anything, "group-1").Return(group, nil)
	f.store.On("GroupCreatorID", mock.Anything, "group-1").Return("creator", nil)
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).Return("msg-1", nil)

	payload, _ := models.NewTextPayload("оголошення")
	msg, err := f.svc.SendGroup(context.Background(), "creator", "group-1", payload, chat.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, "оголошення", msg.Content)
}

func TestSendGroupDispatchesCommands(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "creator")

	group := testGroup()
	group.Bots = pq.StringArray{"bot-1"}
	f.store.On("FindGroupByID", mock.Anything, "group-1").Return(group, nil)
	f.store.On("GroupCreatorID", mock.Anything, "group-1").Return("creator", nil)
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).Return("msg-1", nil)

	dispatcher := new(mockDispatcher)
	dispatcher.On("DispatchGroupMessage", mock.AnythingOfType("*models.Message"), group).Once()
	f.svc.SetDispatcher(dispatcher)

	payload, _ := models.NewTextPayload("/weather@forecaster")
	_, err := f.svc.SendGroup(context.Background(), "alice", "group-1", payload, chat.SendOptions{})
	require.NoError(t, err)

	dispatcher.AssertExpectations(t)
}

// Боти отримують кожне групове повідомлення, не лише команди: вебхук-боти
// підписані на подію message як таку.
func TestSendGroupPlainTextDispatched(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "creator")

	group := testGroup()
	group.Bots = pq.StringArray{"bot-1"}
	f.store.On("FindGroupByID", mock.Anything, "group-1").Return(group, nil)
	f.store.On("GroupCreatorID", mock.Anything, "group-1").Return("creator", nil)
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).Return("msg-1", nil)

	dispatcher := new(mockDispatcher)
	dispatcher.On("DispatchGroupMessage", mock.MatchedBy(func(msg *models.Message) bool {
		return msg.Content == "звичайний текст"
	}), group).Once()
	f.svc.SetDispatcher(dispatcher)

	payload, _ := models.NewTextPayload("звичайний текст")
	_, err := f.svc.SendGroup(context.Background(), "alice", "group-1", payload, chat.SendOptions{})
	require.NoError(t, err)

	dispatcher.AssertExpectations(t)
}

func TestSendGroupNoBotsNotDispatched(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "creator")

	group := testGroup()
	f.store.On("FindGroupByID", mock.Anything, "group-1").Return(group, nil)
	f.store.On("GroupCreatorID", mock.Anything, "group-1").Return("creator", nil)
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).Return("msg-1", nil)

	dispatcher := new(mockDispatcher)
	f.svc.SetDispatcher(dispatcher)

	payload, _ := models.NewTextPayload("/help")
	_, err := f.svc.SendGroup(context.Background(), "alice", "group-1", payload, chat.SendOptions{})
	require.NoError(t, err)

	dispatcher.AssertNotCalled(t, "DispatchGroupMessage", mock.Anything, mock.Anything)
}

func TestReplyMustStayInConversation(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindUserByID", mock.Anything, "bob").Return(&models.User{ID: "bob"}, nil)

	// Повідомлення з іншої розмови.
	other := &models.Message{
		ID:          "msg-other",
		SenderID:    strPtr("carol"),
		RecipientID: strPtr("dave"),
		Type:        models.MessageText,
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-other").Return(other, nil)

	payload, _ := models.NewTextPayload("reply")
	_, err := f.svc.SendDirect(context.Background(), "alice", "bob", payload, chat.SendOptions{ReplyToMessageID: "msg-other"})
	assert.ErrorIs(t, err, apperrors.ErrReplyWrongChat)
}

func TestEditMessageOnlySender(t *testing.T) {
	f := newFixture(t)

	msg := &models.Message{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
		Content:     "cipher",
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)

	_, err := f.svc.EditMessage(context.Background(), "bob", "msg-1", "new text", "", "")
	assert.ErrorIs(t, err, apperrors.ErrNotMessageSender)
}

func TestEditBotMessageRejected(t *testing.T) {
	f := newFixture(t)

	msg := &models.Message{
		ID:      "msg-1",
		BotID:   strPtr("bot-1"),
		GroupID: strPtr("group-1"),
		Type:    models.MessageText,
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)

	_, err := f.svc.EditMessage(context.Background(), "alice", "msg-1", "new", "", "")
	assert.ErrorIs(t, err, apperrors.ErrBotMessageReadOnly)
}

func TestEditMessageReencrypts(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "alice")
	f.issueKeys(t, "bob")

	msg := &models.Message{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
		Content:     "old cipher",
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)

	var updates map[string]interface{}
	f.store.On("UpdateMessage", mock.Anything, "msg-1", mock.Anything).
		Run(func(args mock.Arguments) {
			updates = args.Get(2).(map[string]interface{})
		}).
		Return(nil)

	edited, err := f.svc.EditMessage(context.Background(), "alice", "msg-1", "виправлений текст", "", "")
	require.NoError(t, err)
	assert.Equal(t, "виправлений текст", edited.Content)

	ciphertext, ok := updates["content"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "виправлений текст", ciphertext)
}

func TestDeleteMessageOnlySender(t *testing.T) {
	f := newFixture(t)

	msg := &models.Message{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)

	_, err := f.svc.DeleteMessage(context.Background(), "bob", "msg-1")
	assert.ErrorIs(t, err, apperrors.ErrNotMessageSender)

	f.store.On("DeleteMessage", mock.Anything, "msg-1").Return(nil)
	_, err = f.svc.DeleteMessage(context.Background(), "alice", "msg-1")
	assert.NoError(t, err)
}

func TestSetReactionWhitelist(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetReaction(context.Background(), "alice", "msg-1", "😀")
	assert.ErrorIs(t, err, apperrors.ErrInvalidReaction)
}

func TestSetReactionRequiresParticipation(t *testing.T) {
	f := newFixture(t)

	msg := &models.Message{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)

	_, err := f.svc.SetReaction(context.Background(), "stranger", "msg-1", "👍")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))

	f.store.On("AddReaction", mock.Anything, "msg-1", "bob", "👍").Return(nil)
	got, err := f.svc.SetReaction(context.Background(), "bob", "msg-1", "👍")
	require.NoError(t, err)
	assert.Contains(t, got.Reactions, models.Reaction{UserID: "bob", Reaction: "👍"})
}

func TestForwardReencryptsForDestination(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "alice")
	f.issueKeys(t, "bob")
	f.issueKeys(t, "creator")

	// Оригінал — зашифроване пряме повідомлення alice→bob.
	_, alicePriv, _ := f.vault.Get(context.Background(), "alice")
	bobPub, _, _ := f.vault.Get(context.Background(), "bob")
	ciphertext, err := crypto.EncryptDirect("forward me", bobPub, alicePriv)
	require.NoError(t, err)

	original := &models.Message{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
		Content:     ciphertext,
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(original, nil)
	f.store.On("FindGroupByID", mock.Anything, "group-1").Return(testGroup(), nil)
	f.store.On("GroupCreatorID", mock.Anything, "group-1").Return("creator", nil)

	var stored models.Message
	f.store.On("CreateMessage", mock.Anything, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			stored = *args.Get(1).(*models.Message)
		}).
		Return("msg-2", nil)

	forwarded, err := f.svc.Forward(context.Background(), "bob", "msg-1", "", "group-1")
	require.NoError(t, err)

	assert.Equal(t, "forward me", forwarded.Content)
	require.NotNil(t, forwarded.ForwardFrom)
	assert.Equal(t, "alice", *forwarded.ForwardFrom)
	assert.NotEqual(t, ciphertext, stored.Content)
	assert.NotEqual(t, "forward me", stored.Content)
}

func TestForwardRequiresVisibility(t *testing.T) {
	f := newFixture(t)

	original := &models.Message{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
	}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(original, nil)

	_, err := f.svc.Forward(context.Background(), "stranger", "msg-1", "carol", "")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))
}

func TestHistoryDecrypts(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "alice")
	f.issueKeys(t, "bob")

	_, alicePriv, _ := f.vault.Get(context.Background(), "alice")
	bobPub, _, _ := f.vault.Get(context.Background(), "bob")
	ciphertext, err := crypto.EncryptDirect("привіт", bobPub, alicePriv)
	require.NoError(t, err)

	page := []models.Message{{
		ID:          "msg-1",
		SenderID:    strPtr("alice"),
		RecipientID: strPtr("bob"),
		Type:        models.MessageText,
		Content:     ciphertext,
	}}
	f.store.On("GetHistory", mock.Anything, "bob", "alice", 50, 0).Return(page, nil)

	messages, err := f.svc.History(context.Background(), "bob", "alice", 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "привіт", messages[0].Content)
}

func TestGetUpdatesReturnsVisibleMessages(t *testing.T) {
	f := newFixture(t)
	f.issueKeys(t, "alice")
	f.issueKeys(t, "bob")

	_, alicePriv, _ := f.vault.Get(context.Background(), "alice")
	bobPub, _, _ := f.vault.Get(context.Background(), "bob")
	ciphertext, _ := crypto.EncryptDirect("новина", bobPub, alicePriv)

	now := time.Now()
	batch := []models.Message{
		{
			ID:          "msg-1",
			SenderID:    strPtr("alice"),
			RecipientID: strPtr("bob"),
			Type:        models.MessageText,
			Content:     ciphertext,
			CreatedAt:   now,
		},
		{
			// Чужа розмова — не має потрапити у вибірку.
			ID:          "msg-2",
			SenderID:    strPtr("carol"),
			RecipientID: strPtr("dave"),
			Type:        models.MessageText,
			CreatedAt:   now,
		},
	}
	f.store.On("FindMessagesSince", mock.Anything, int64(0), 100).Return(batch, nil)

	messages, next, err := f.svc.GetUpdates(context.Background(), "bob", 0, 0, time.Second)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "новина", messages[0].Content)
	assert.Equal(t, now.Unix()+1, next)
}

func TestGetUpdatesTimesOutEmpty(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindMessagesSince", mock.Anything, int64(7), 100).Return([]models.Message{}, nil)

	start := time.Now()
	messages, next, err := f.svc.GetUpdates(context.Background(), "alice", 7, 0, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Equal(t, int64(7), next)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPinPublishesGroupNotification(t *testing.T) {
	f := newFixture(t)

	msg := &models.Message{ID: "msg-1", SenderID: strPtr("alice"), GroupID: strPtr("group-1"), Type: models.MessageText}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)
	f.store.On("PinMessage", mock.Anything, "group-1", "msg-1", "creator").Return(nil)
	f.store.On("PublishGroupNotification", mock.AnythingOfType("models.GroupNotification")).Once()

	require.NoError(t, f.svc.PinMessage(context.Background(), "creator", "group-1", "msg-1"))
	f.store.AssertExpectations(t)
}

func TestPinRejectsForeignMessage(t *testing.T) {
	f := newFixture(t)

	msg := &models.Message{ID: "msg-1", SenderID: strPtr("alice"), GroupID: strPtr("group-2"), Type: models.MessageText}
	f.store.On("FindMessageByID", mock.Anything, "msg-1").Return(msg, nil)

	err := f.svc.PinMessage(context.Background(), "creator", "group-1", "msg-1")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}
