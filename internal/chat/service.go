// Package chat містить доменну логіку обміну повідомленнями: шифрування,
// перевірки прав і координацію між сховищем та диспетчером ботів.
package chat

import (
	"context"
	"time"

	"campchat/backend/internal/crypto"
	"campchat/backend/internal/keyvault"
	"campchat/backend/internal/models"
	"campchat/backend/internal/storage"
	"campchat/backend/pkg/apperrors"
)

// Dispatcher receives stored group messages so bot commands can be routed.
// Implemented by botrouter; the call must not block message delivery.
type Dispatcher interface {
	DispatchGroupMessage(msg *models.Message, group *models.Group)
}

type Service struct {
	store      storage.Storage
	vault      *keyvault.Vault
	engine     *crypto.Engine
	dispatcher Dispatcher

	pollInterval time.Duration
	maxWait      time.Duration
}

func NewService(store storage.Storage, vault *keyvault.Vault, engine *crypto.Engine, pollInterval, maxWait time.Duration) *Service {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}
	return &Service{
		store:        store,
		vault:        vault,
		engine:       engine,
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}
}

// SetDispatcher wires the bot router in after construction (the router needs
// the service to post bot replies, so the two are linked in two steps).
func (s *Service) SetDispatcher(d Dispatcher) { s.dispatcher = d }

// SendOptions are the optional fields a send request may carry.
type SendOptions struct {
	Caption          string
	Entities         models.JSONColumn
	Keyboard         models.JSONColumn
	ReplyToMessageID string
	ForwardFrom      string
}

// encryptDirectContent шифрує текст для пари sender/recipient ключами обох
// сторін (NaCl box).
func (s *Service) encryptDirectContent(ctx context.Context, plaintext, senderID, recipientID string) (string, error) {
	_, senderPriv, err := s.vault.Get(ctx, senderID)
	if err != nil {
		return "", err
	}
	recipientPub, _, err := s.vault.Get(ctx, recipientID)
	if err != nil {
		return "", err
	}
	return crypto.EncryptDirect(plaintext, recipientPub, senderPriv)
}

// decryptDirectFor розшифровує приватне повідомлення очима viewer-а.
// Box симетричний щодо пари ключів, тож достатньо ключа співрозмовника і
// власного приватного.
func (s *Service) decryptDirectFor(ctx context.Context, msg *models.Message, viewerID string) (string, error) {
	peerID, err := directPeer(msg, viewerID)
	if err != nil {
		return "", err
	}
	peerPub, _, err := s.vault.Get(ctx, peerID)
	if err != nil {
		return "", err
	}
	_, viewerPriv, err := s.vault.Get(ctx, viewerID)
	if err != nil {
		return "", err
	}
	return crypto.DecryptDirect(msg.Content, peerPub, viewerPriv)
}

func directPeer(msg *models.Message, viewerID string) (string, error) {
	if msg.SenderID == nil || msg.RecipientID == nil {
		return "", apperrors.InvalidInput("not a direct message")
	}
	switch viewerID {
	case *msg.SenderID:
		return *msg.RecipientID, nil
	case *msg.RecipientID:
		return *msg.SenderID, nil
	default:
		return "", apperrors.Unauthorized("not a participant of this conversation")
	}
}

// canSendToGroup — правила надсилання: locked та allow_messages обмежують
// звичайних учасників, адміністраторів — ні.
func canSendToGroup(group *models.Group, senderID string) error {
	if !group.IsMember(senderID) {
		return apperrors.ErrNotGroupMember
	}
	if group.IsAdmin(senderID) {
		return nil
	}
	if group.Locked {
		return apperrors.ErrGroupLocked
	}
	if !group.AllowMessages {
		return apperrors.ErrMembersMuted
	}
	return nil
}

// validateReply checks that the replied-to message lives in the same
// conversation the new message targets.
func (s *Service) validateReply(ctx context.Context, replyID string, recipientPair [2]string, groupID string) error {
	target, err := s.store.FindMessageByID(ctx, replyID)
	if err != nil {
		return err
	}
	if groupID != "" {
		if target.GroupID == nil || *target.GroupID != groupID {
			return apperrors.ErrReplyWrongChat
		}
		return nil
	}
	if target.SenderID == nil || target.RecipientID == nil {
		return apperrors.ErrReplyWrongChat
	}
	a, b := *target.SenderID, *target.RecipientID
	if (a == recipientPair[0] && b == recipientPair[1]) || (a == recipientPair[1] && b == recipientPair[0]) {
		return nil
	}
	return apperrors.ErrReplyWrongChat
}
