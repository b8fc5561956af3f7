package chat

import (
	"context"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// EditMessage replaces the text of a message the actor sent. Bot messages
// are immutable; media messages only allow caption and media URL changes.
func (s *Service) EditMessage(ctx context.Context, actorID, messageID, content, caption, mediaURL string) (*models.Message, error) {
	msg, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.IsBotMessage() {
		return nil, apperrors.ErrBotMessageReadOnly
	}
	if msg.SenderID == nil || *msg.SenderID != actorID {
		return nil, apperrors.ErrNotMessageSender
	}

	updates := map[string]interface{}{}
	switch {
	case msg.Type == models.MessageText:
		if content == "" {
			return nil, apperrors.InvalidInput("missing content")
		}
		ciphertext, err := s.reencrypt(ctx, msg, content, actorID)
		if err != nil {
			return nil, err
		}
		updates["content"] = ciphertext
		msg.Content = content
	case models.MediaTypes[msg.Type]:
		updates["caption"] = caption
		msg.Caption = caption
		if mediaURL != "" {
			updates["media_url"] = mediaURL
			msg.MediaURL = mediaURL
		}
	default:
		return nil, apperrors.InvalidInput("message type does not support editing")
	}

	if err := s.store.UpdateMessage(ctx, messageID, updates); err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteMessage — видаляти може лише автор.
func (s *Service) DeleteMessage(ctx context.Context, actorID, messageID string) (*models.Message, error) {
	msg, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.IsBotMessage() {
		return nil, apperrors.ErrBotMessageReadOnly
	}
	if msg.SenderID == nil || *msg.SenderID != actorID {
		return nil, apperrors.ErrNotMessageSender
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return nil, err
	}
	return msg, nil
}

// SetReaction appends a whitelisted reaction. The actor must be able to see
// the message (participant of the pair or member of the group).
func (s *Service) SetReaction(ctx context.Context, actorID, messageID, reaction string) (*models.Message, error) {
	if !models.IsAllowedReaction(reaction) {
		return nil, apperrors.ErrInvalidReaction
	}

	msg, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.IsBotMessage() {
		return nil, apperrors.ErrBotMessageReadOnly
	}
	if err := s.canView(ctx, msg, actorID); err != nil {
		return nil, err
	}

	if err := s.store.AddReaction(ctx, messageID, actorID, reaction); err != nil {
		return nil, err
	}
	msg.Reactions = append(msg.Reactions, models.Reaction{UserID: actorID, Reaction: reaction})
	return msg, nil
}

// PinMessage закріплює повідомлення групи та сповіщає учасників.
func (s *Service) PinMessage(ctx context.Context, actorID, groupID, messageID string) error {
	msg, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.GroupID == nil || *msg.GroupID != groupID {
		return apperrors.InvalidInput("message does not belong to this group")
	}

	if err := s.store.PinMessage(ctx, groupID, messageID, actorID); err != nil {
		return err
	}

	s.store.PublishGroupNotification(models.GroupNotification{
		GroupID:   groupID,
		MessageID: messageID,
		SenderID:  actorID,
	})
	return nil
}

func (s *Service) UnpinMessage(ctx context.Context, actorID, groupID string) error {
	if err := s.store.UnpinMessage(ctx, groupID, actorID); err != nil {
		return err
	}
	s.store.PublishGroupNotification(models.GroupNotification{
		GroupID:  groupID,
		SenderID: actorID,
	})
	return nil
}

// canView перевіряє право читати повідомлення без його розшифрування.
func (s *Service) canView(ctx context.Context, msg *models.Message, viewerID string) error {
	if msg.GroupID != nil {
		group, err := s.store.FindGroupByID(ctx, *msg.GroupID)
		if err != nil {
			return err
		}
		if !group.IsMember(viewerID) {
			return apperrors.ErrNotGroupMember
		}
		return nil
	}
	_, err := directPeer(msg, viewerID)
	return err
}

// readableContent returns the plaintext of a message for the given viewer,
// enforcing visibility on the way.
func (s *Service) readableContent(ctx context.Context, msg *models.Message, viewerID string) (string, error) {
	if err := s.canView(ctx, msg, viewerID); err != nil {
		return "", err
	}
	if msg.Type != models.MessageText {
		return msg.Content, nil
	}
	if msg.GroupID != nil {
		return s.engine.DecryptGroup(ctx, msg.Content, *msg.GroupID)
	}
	return s.decryptDirectFor(ctx, msg, viewerID)
}

// reencrypt шифрує новий текст тими ж ключами розмови, що й оригінал.
func (s *Service) reencrypt(ctx context.Context, msg *models.Message, plaintext, actorID string) (string, error) {
	if msg.GroupID != nil {
		return s.engine.EncryptGroup(ctx, plaintext, *msg.GroupID)
	}
	peerID, err := directPeer(msg, actorID)
	if err != nil {
		return "", err
	}
	return s.encryptDirectContent(ctx, plaintext, actorID, peerID)
}
