package chat

import (
	"context"
	"time"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// History returns a page of the direct conversation between viewerID and
// peerID, newest first, with text content decrypted.
func (s *Service) History(ctx context.Context, viewerID, peerID string, limit, skip int) ([]models.Message, error) {
	messages, err := s.store.GetHistory(ctx, viewerID, peerID, limit, skip)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].Type != models.MessageText {
			continue
		}
		plaintext, err := s.decryptDirectFor(ctx, &messages[i], viewerID)
		if err != nil {
			return nil, err
		}
		messages[i].Content = plaintext
	}
	return messages, nil
}

// GroupHistory returns a page of group messages for a member, decrypted.
func (s *Service) GroupHistory(ctx context.Context, viewerID, groupID string, limit, skip int) ([]models.Message, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(viewerID) {
		return nil, apperrors.ErrNotGroupMember
	}

	messages, err := s.store.GetGroupHistory(ctx, groupID, limit, skip)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].Type != models.MessageText {
			continue
		}
		plaintext, err := s.engine.DecryptGroup(ctx, messages[i].Content, groupID)
		if err != nil {
			return nil, err
		}
		messages[i].Content = plaintext
	}
	return messages, nil
}

const updatesBatchLimit = 100

// GetUpdates — long-poll: чекає до timeout на нові повідомлення, видимі
// користувачу, опитуючи сховище кожні pollInterval. Повертає повідомлення та
// наступний offset (секунди Unix).
func (s *Service) GetUpdates(ctx context.Context, userID string, offset int64, limit int, timeout time.Duration) ([]models.Message, int64, error) {
	if timeout <= 0 || timeout > s.maxWait {
		timeout = s.maxWait
	}
	if limit <= 0 || limit > updatesBatchLimit {
		limit = updatesBatchLimit
	}
	deadline := time.Now().Add(timeout)

	for {
		batch, err := s.store.FindMessagesSince(ctx, offset, limit)
		if err != nil {
			return nil, offset, err
		}

		visible, err := s.filterVisible(ctx, batch, userID)
		if err != nil {
			return nil, offset, err
		}
		if len(visible) > 0 {
			next := visible[len(visible)-1].CreatedAt.Unix() + 1
			return visible, next, nil
		}

		if time.Now().After(deadline) {
			return []models.Message{}, offset, nil
		}
		select {
		case <-ctx.Done():
			return []models.Message{}, offset, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// filterVisible лишає повідомлення, адресовані користувачу або його групам,
// і розшифровує текстові.
func (s *Service) filterVisible(ctx context.Context, batch []models.Message, userID string) ([]models.Message, error) {
	visible := make([]models.Message, 0, len(batch))
	for i := range batch {
		msg := batch[i]
		switch {
		case msg.GroupID != nil:
			group, err := s.store.FindGroupByID(ctx, *msg.GroupID)
			if err != nil {
				if apperrors.CodeOf(err) == apperrors.CodeNotFound {
					continue
				}
				return nil, err
			}
			if !group.IsMember(userID) {
				continue
			}
			if msg.Type == models.MessageText {
				plaintext, err := s.engine.DecryptGroup(ctx, msg.Content, *msg.GroupID)
				if err != nil {
					return nil, err
				}
				msg.Content = plaintext
			}
		case msg.SenderID != nil && msg.RecipientID != nil &&
			(*msg.SenderID == userID || *msg.RecipientID == userID):
			if msg.Type == models.MessageText {
				plaintext, err := s.decryptDirectFor(ctx, &msg, userID)
				if err != nil {
					return nil, err
				}
				msg.Content = plaintext
			}
		default:
			continue
		}
		visible = append(visible, msg)
	}
	return visible, nil
}
