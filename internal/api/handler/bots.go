package handler

import (
	"github.com/gin-gonic/gin"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

type createBotRequest struct {
	Name     string            `json:"name" binding:"required"`
	Commands models.CommandMap `json:"commands"`
}

func (h *Handler) CreateBot(c *gin.Context) {
	var req createBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("name is required"))
		return
	}

	bot := &models.Bot{
		Name:      req.Name,
		CreatorID: actorID(c),
		Commands:  req.Commands,
	}
	botID, err := h.Store.CreateBot(c.Request.Context(), bot)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"bot_id": botID, "bot": bot})
}

func (h *Handler) GetBot(c *gin.Context) {
	bot, err := h.Store.FindBotByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, bot)
}

type botCommandsRequest struct {
	Commands models.CommandMap `json:"commands" binding:"required"`
}

func (h *Handler) UpdateBotCommands(c *gin.Context) {
	var req botCommandsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("commands are required"))
		return
	}

	if err := h.Store.UpdateBotCommands(c.Request.Context(), c.Param("id"), req.Commands, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"bot_id": c.Param("id")})
}

type botWebhookRequest struct {
	WebhookURL *string `json:"webhook_url"`
}

// SetBotWebhook встановлює вебхук; webhook_url: null знімає його.
func (h *Handler) SetBotWebhook(c *gin.Context) {
	var req botWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}

	if err := h.Store.SetBotWebhook(c.Request.Context(), c.Param("id"), req.WebhookURL, actorID(c)); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"bot_id": c.Param("id")})
}
