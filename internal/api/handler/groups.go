package handler

import (
	"github.com/gin-gonic/gin"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("name is required"))
		return
	}

	group := &models.Group{
		CreatorID:   actorID(c),
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
	}
	groupID, err := h.Store.CreateGroup(c.Request.Context(), group)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": groupID, "group": group})
}

func (h *Handler) GetGroup(c *gin.Context) {
	group, err := h.Store.FindGroupByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if !group.IsMember(actorID(c)) {
		respondErr(c, apperrors.ErrNotGroupMember)
		return
	}
	respondOK(c, group)
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IconURL     *string `json:"icon_url"`
}

func (h *Handler) UpdateGroup(c *gin.Context) {
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IconURL != nil {
		updates["icon_url"] = *req.IconURL
	}

	if err := h.Store.UpdateGroupDetails(c.Request.Context(), c.Param("id"), updates, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id")})
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.Store.DeleteGroup(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id")})
}

type memberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) AddMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("user_id is required"))
		return
	}

	if err := h.Store.AddMember(c.Request.Context(), c.Param("id"), req.UserID, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "user_id": req.UserID})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	if err := h.Store.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("user_id"), actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "user_id": c.Param("user_id")})
}

func (h *Handler) QuitGroup(c *gin.Context) {
	if err := h.Store.QuitGroup(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id")})
}

func (h *Handler) AddAdmin(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("user_id is required"))
		return
	}

	if err := h.Store.AddAdmin(c.Request.Context(), c.Param("id"), req.UserID, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "user_id": req.UserID})
}

func (h *Handler) RemoveAdmin(c *gin.Context) {
	if err := h.Store.RemoveAdmin(c.Request.Context(), c.Param("id"), c.Param("user_id"), actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "user_id": c.Param("user_id")})
}

type permissionsRequest struct {
	Locked              bool `json:"locked"`
	AllowMemberMessages bool `json:"allow_member_messages"`
	AllowMemberInvites  bool `json:"allow_member_invites"`
}

func (h *Handler) UpdatePermissions(c *gin.Context) {
	var req permissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}

	perms := models.Permissions{
		Locked:              req.Locked,
		AllowMemberMessages: req.AllowMemberMessages,
		AllowMemberInvites:  req.AllowMemberInvites,
	}
	if err := h.Store.UpdatePermissions(c.Request.Context(), c.Param("id"), perms, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "permissions": perms})
}

type pinRequest struct {
	MessageID string `json:"message_id" binding:"required"`
}

func (h *Handler) PinMessage(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("message_id is required"))
		return
	}

	if err := h.Chat.PinMessage(c.Request.Context(), actorID(c), c.Param("id"), req.MessageID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "message_id": req.MessageID})
}

func (h *Handler) UnpinMessage(c *gin.Context) {
	if err := h.Chat.UnpinMessage(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id")})
}

type botAttachRequest struct {
	BotID string `json:"bot_id" binding:"required"`
}

func (h *Handler) AddBotToGroup(c *gin.Context) {
	var req botAttachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("bot_id is required"))
		return
	}

	if err := h.Store.AddBotToGroup(c.Request.Context(), c.Param("id"), req.BotID, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "bot_id": req.BotID})
}

func (h *Handler) RemoveBotFromGroup(c *gin.Context) {
	if err := h.Store.RemoveBotFromGroup(c.Request.Context(), c.Param("id"), c.Param("bot_id"), actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"group_id": c.Param("id"), "bot_id": c.Param("bot_id")})
}
