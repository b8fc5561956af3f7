package storage

import (
	"context"
	"log"
	"time"

	"github.com/lib/pq"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// CreateGroup persists a new group. The creator starts as the sole member
// and the sole admin and can never lose either role.
func (s *Service) CreateGroup(ctx context.Context, group *models.Group) (string, error) {
	if group.CreatorID == "" || group.Name == "" {
		return "", apperrors.InvalidInput("creator_id and name are required")
	}

	group.Members = pq.StringArray{group.CreatorID}
	group.Admins = pq.StringArray{group.CreatorID}
	group.Bots = pq.StringArray{}
	group.Locked = false
	group.AllowMessages = true
	group.AllowInvites = false
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}

	if err := s.DB.WithContext(ctx).Create(group).Error; err != nil {
		log.Printf("ERROR: failed to create group: %v", err)
		return "", apperrors.ErrStoreFailed(err)
	}

	s.cacheSetJSON(ctx, "group:"+group.ID, group)
	return group.ID, nil
}

// FindGroupByID — cache-aside читання знімка групи (TTL 1 година).
func (s *Service) FindGroupByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group

	cacheKey := "group:" + id
	if s.cacheGetJSON(ctx, cacheKey, &group) {
		return &group, nil
	}

	if err := s.DB.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrGroupNotFound)
	}

	s.cacheSetJSON(ctx, cacheKey, &group)
	return &group, nil
}

func (s *Service) GroupCreatorID(ctx context.Context, groupID string) (string, error) {
	group, err := s.FindGroupByID(ctx, groupID)
	if err != nil {
		return "", err
	}
	return group.CreatorID, nil
}

// findGroupCurrent reads past the cache: mutations re-validate against the
// authoritative row, never against a snapshot.
func (s *Service) findGroupCurrent(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrGroupNotFound)
	}
	return &group, nil
}

// AddMember додає користувача до групи. Set-семантика гарантується умовним
// UPDATE на боці бази: конкурентні виклики не дублюють учасника.
func (s *Service) AddMember(ctx context.Context, groupID, userID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if group.Locked {
		return apperrors.ErrGroupLocked
	}
	if !group.IsAdmin(actorID) && !(group.AllowInvites && group.IsMember(actorID)) {
		return apperrors.Unauthorized("only admins or members with invite permission can add members")
	}
	if _, err := s.FindUserByID(ctx, userID); err != nil {
		return err
	}

	res := s.DB.WithContext(ctx).Exec(
		`UPDATE groups SET members = array_append(members, ?) WHERE id = ? AND NOT (? = ANY(members))`,
		userID, groupID, userID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to add member %s to group %s: %v", userID, groupID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	if res.RowsAffected > 0 {
		s.PublishBotEvent(models.BotEvent{
			GroupID:   groupID,
			Event:     models.EventMemberJoined,
			UserID:    userID,
			Timestamp: time.Now().Unix(),
		})
	}
	return nil
}

// RemoveMember виключає користувача; одночасно й атомарно знімає його з
// адмінів, щоб admins ⊆ members ніколи не порушувалося.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if userID == group.CreatorID {
		return apperrors.ErrCreatorImmutable
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	if err := s.stripFromGroup(ctx, groupID, userID); err != nil {
		return err
	}

	s.PublishBotEvent(models.BotEvent{
		GroupID:   groupID,
		Event:     models.EventMemberLeft,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
	})
	return nil
}

// QuitGroup — добровільний вихід. Творець може вийти лише залишившись один.
func (s *Service) QuitGroup(ctx context.Context, groupID, userID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsMember(userID) {
		return apperrors.ErrNotGroupMember
	}
	if userID == group.CreatorID && len(group.Members) > 1 {
		return apperrors.Unauthorized("creator must assign a new creator before quitting")
	}

	if err := s.stripFromGroup(ctx, groupID, userID); err != nil {
		return err
	}

	s.PublishBotEvent(models.BotEvent{
		GroupID:   groupID,
		Event:     models.EventMemberLeft,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
	})
	return nil
}

func (s *Service) stripFromGroup(ctx context.Context, groupID, userID string) error {
	res := s.DB.WithContext(ctx).Exec(
		`UPDATE groups SET members = array_remove(members, ?), admins = array_remove(admins, ?) WHERE id = ?`,
		userID, userID, groupID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to remove %s from group %s: %v", userID, groupID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}
	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

func (s *Service) AddAdmin(ctx context.Context, groupID, userID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}
	if !group.IsMember(userID) {
		return apperrors.Unauthorized("user must be a member")
	}

	// Предикат members у SQL: ціль могла вийти з групи між читанням і записом.
	res := s.DB.WithContext(ctx).Exec(
		`UPDATE groups SET admins = array_append(admins, ?) WHERE id = ? AND ? = ANY(members) AND NOT (? = ANY(admins))`,
		userID, groupID, userID, userID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to add admin %s to group %s: %v", userID, groupID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

func (s *Service) RemoveAdmin(ctx context.Context, groupID, userID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if userID == group.CreatorID {
		return apperrors.ErrCreatorImmutable
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	res := s.DB.WithContext(ctx).Exec(
		`UPDATE groups SET admins = array_remove(admins, ?) WHERE id = ?`,
		userID, groupID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to remove admin %s from group %s: %v", userID, groupID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

func (s *Service) UpdatePermissions(ctx context.Context, groupID string, perms models.Permissions, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	err = s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).
		Updates(map[string]interface{}{
			"locked":         perms.Locked,
			"allow_messages": perms.AllowMemberMessages,
			"allow_invites":  perms.AllowMemberInvites,
		}).Error
	if err != nil {
		log.Printf("ERROR: failed to update permissions for group %s: %v", groupID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

// UpdateGroupDetails приймає лише name/description/icon_url.
func (s *Service) UpdateGroupDetails(ctx context.Context, groupID string, updates map[string]interface{}, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	allowed := map[string]bool{"name": true, "description": true, "icon_url": true}
	filtered := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return apperrors.InvalidInput("no valid updates provided")
	}

	if err := s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).Updates(filtered).Error; err != nil {
		log.Printf("ERROR: failed to update details for group %s: %v", groupID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

func (s *Service) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if actorID != group.CreatorID {
		return apperrors.ErrNotGroupCreator
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Group{}, "id = ?", groupID).Error; err != nil {
		log.Printf("ERROR: failed to delete group %s: %v", groupID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "group:"+groupID, GroupMessagesKey(groupID))
	return nil
}

func (s *Service) PinMessage(ctx context.Context, groupID, messageID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	err = s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).
		Update("pinned_message_id", messageID).Error
	if err != nil {
		log.Printf("ERROR: failed to pin message %s in group %s: %v", messageID, groupID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

func (s *Service) UnpinMessage(ctx context.Context, groupID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	err = s.DB.WithContext(ctx).Model(&models.Group{}).Where("id = ?", groupID).
		Update("pinned_message_id", nil).Error
	if err != nil {
		log.Printf("ERROR: failed to unpin message in group %s: %v", groupID, err)
		return apperrors.ErrStoreFailed(err)
	}

	s.cacheInvalidate(ctx, "group:"+groupID)
	return nil
}

// AddBotToGroup оновлює обидві сторони зв'язку: groups.bots та bots.groups.
func (s *Service) AddBotToGroup(ctx context.Context, groupID, botID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}
	if _, err := s.FindBotByID(ctx, botID); err != nil {
		return err
	}

	res := s.DB.WithContext(ctx).Exec(
		`UPDATE groups SET bots = array_append(bots, ?) WHERE id = ? AND NOT (? = ANY(bots))`,
		botID, groupID, botID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to add bot %s to group %s: %v", botID, groupID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	res = s.DB.WithContext(ctx).Exec(
		`UPDATE bots SET groups = array_append(groups, ?) WHERE id = ? AND NOT (? = ANY(groups))`,
		groupID, botID, groupID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to mirror group %s into bot %s: %v", groupID, botID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	s.cacheInvalidate(ctx, "group:"+groupID, "bot:"+botID)
	return nil
}

func (s *Service) RemoveBotFromGroup(ctx context.Context, groupID, botID, actorID string) error {
	group, err := s.findGroupCurrent(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(actorID) {
		return apperrors.ErrNotGroupAdmin
	}

	res := s.DB.WithContext(ctx).Exec(
		`UPDATE groups SET bots = array_remove(bots, ?) WHERE id = ?`,
		botID, groupID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to remove bot %s from group %s: %v", botID, groupID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	res = s.DB.WithContext(ctx).Exec(
		`UPDATE bots SET groups = array_remove(groups, ?) WHERE id = ?`,
		groupID, botID,
	)
	if res.Error != nil {
		log.Printf("ERROR: failed to unmirror group %s from bot %s: %v", groupID, botID, res.Error)
		return apperrors.ErrStoreFailed(res.Error)
	}

	s.cacheInvalidate(ctx, "group:"+groupID, "bot:"+botID)
	return nil
}
