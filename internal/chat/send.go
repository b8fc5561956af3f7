package chat

import (
	"context"
	"time"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// SendDirect persists an encrypted direct message and returns the stored
// record with plaintext content (ciphertext never leaves the storage layer
// towards the sender).
func (s *Service) SendDirect(ctx context.Context, senderID, recipientID string, p models.Payload, opts SendOptions) (*models.Message, error) {
	if senderID == recipientID {
		return nil, apperrors.InvalidInput("cannot message yourself")
	}
	if _, err := s.store.FindUserByID(ctx, recipientID); err != nil {
		return nil, err
	}
	if opts.ReplyToMessageID != "" {
		if err := s.validateReply(ctx, opts.ReplyToMessageID, [2]string{senderID, recipientID}, ""); err != nil {
			return nil, err
		}
	}

	msg := s.buildMessage(p, opts)
	msg.SenderID = &senderID
	msg.RecipientID = &recipientID

	plaintext := msg.Content
	if p.Type == models.MessageText {
		ciphertext, err := s.encryptDirectContent(ctx, plaintext, senderID, recipientID)
		if err != nil {
			return nil, err
		}
		msg.Content = ciphertext
	}

	if _, err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	msg.Content = plaintext
	return msg, nil
}

// SendGroup persists a group message. Content is encrypted with the group
// creator's keypair; after the write the message is handed to the bot
// dispatcher.
func (s *Service) SendGroup(ctx context.Context, senderID, groupID string, p models.Payload, opts SendOptions) (*models.Message, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := canSendToGroup(group, senderID); err != nil {
		return nil, err
	}
	if opts.ReplyToMessageID != "" {
		if err := s.validateReply(ctx, opts.ReplyToMessageID, [2]string{}, groupID); err != nil {
			return nil, err
		}
	}

	msg := s.buildMessage(p, opts)
	msg.SenderID = &senderID
	msg.GroupID = &groupID

	plaintext := msg.Content
	if p.Type == models.MessageText {
		ciphertext, err := s.engine.EncryptGroup(ctx, plaintext, groupID)
		if err != nil {
			return nil, err
		}
		msg.Content = ciphertext
	}

	if _, err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	msg.Content = plaintext
	if s.dispatcher != nil && len(group.Bots) > 0 {
		s.dispatcher.DispatchGroupMessage(msg, group)
	}
	return msg, nil
}

// SendBotMessage posts a bot reply into a group. Gates for member messages
// do not apply; the bot must be attached to the group.
func (s *Service) SendBotMessage(ctx context.Context, botID, groupID string, p models.Payload, opts SendOptions) (*models.Message, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasBot(botID) {
		return nil, apperrors.Unauthorized("bot is not attached to this group")
	}

	msg := s.buildMessage(p, opts)
	msg.BotID = &botID
	msg.GroupID = &groupID

	plaintext := msg.Content
	if p.Type == models.MessageText {
		ciphertext, err := s.engine.EncryptGroup(ctx, plaintext, groupID)
		if err != nil {
			return nil, err
		}
		msg.Content = ciphertext
	}

	if _, err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	msg.Content = plaintext
	return msg, nil
}

// Forward re-sends an existing message to another chat on behalf of actorID.
// The original is decrypted with the source conversation's keys and
// re-encrypted for the destination; forward_from keeps the original author.
func (s *Service) Forward(ctx context.Context, actorID, messageID, toRecipientID, toGroupID string) (*models.Message, error) {
	if (toRecipientID == "") == (toGroupID == "") {
		return nil, apperrors.InvalidInput("specify exactly one of recipient_id or group_id")
	}

	original, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if original.IsBotMessage() {
		return nil, apperrors.ErrBotMessageReadOnly
	}
	plaintext, err := s.readableContent(ctx, original, actorID)
	if err != nil {
		return nil, err
	}

	payload := models.Payload{
		Type:     original.Type,
		Content:  plaintext,
		MediaURL: original.MediaURL,
		Location: original.Location,
		Contact:  original.Contact,
	}
	opts := SendOptions{
		Caption:     original.Caption,
		Entities:    original.Entities,
		ForwardFrom: originalAuthor(original),
	}

	if toGroupID != "" {
		return s.SendGroup(ctx, actorID, toGroupID, payload, opts)
	}
	return s.SendDirect(ctx, actorID, toRecipientID, payload, opts)
}

func originalAuthor(msg *models.Message) string {
	if msg.SenderID != nil {
		return *msg.SenderID
	}
	if msg.BotID != nil {
		return *msg.BotID
	}
	return ""
}

func (s *Service) buildMessage(p models.Payload, opts SendOptions) *models.Message {
	msg := &models.Message{
		Caption:   opts.Caption,
		Entities:  opts.Entities,
		Keyboard:  opts.Keyboard,
		CreatedAt: time.Now(),
	}
	p.Apply(msg)
	if opts.ReplyToMessageID != "" {
		replyTo := opts.ReplyToMessageID
		msg.ReplyToMessageID = &replyTo
	}
	if opts.ForwardFrom != "" {
		from := opts.ForwardFrom
		msg.ForwardFrom = &from
	}
	return msg
}
