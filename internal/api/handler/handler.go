package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campchat/backend/internal/chat"
	"campchat/backend/internal/chathub"
	"campchat/backend/internal/storage"
	"campchat/backend/pkg/apperrors"
)

// Handler тримає посилання на сервіси, потрібні HTTP-шару.
type Handler struct {
	Chat    *chat.Service
	Store   storage.Storage
	Hub     *chathub.ManagerService
	Gateway *chathub.Gateway
	Auth    *AuthService
}

func NewHandler(chatSvc *chat.Service, store storage.Storage, hub *chathub.ManagerService, gateway *chathub.Gateway, auth *AuthService) *Handler {
	return &Handler{Chat: chatSvc, Store: store, Hub: hub, Gateway: gateway, Auth: auth}
}

// RegisterRoutes мапить усі REST-ендпоінти та WebSocket-апгрейд.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/register", h.Register)
	r.POST("/token", h.IssueToken)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api", h.RequireAuth)
	{
		api.POST("/messages", h.SendMessage)
		api.PUT("/messages/:id", h.EditMessage)
		api.DELETE("/messages/:id", h.DeleteMessage)
		api.POST("/messages/:id/reactions", h.SetReaction)
		api.POST("/messages/:id/forward", h.ForwardMessage)
		api.GET("/history/:peer_id", h.History)
		api.GET("/updates", h.GetUpdates)

		api.POST("/groups", h.CreateGroup)
		api.GET("/groups/:id", h.GetGroup)
		api.PUT("/groups/:id", h.UpdateGroup)
		api.DELETE("/groups/:id", h.DeleteGroup)
		api.POST("/groups/:id/messages", h.SendGroupMessage)
		api.GET("/groups/:id/messages", h.GroupHistory)
		api.POST("/groups/:id/members", h.AddMember)
		api.DELETE("/groups/:id/members/:user_id", h.RemoveMember)
		api.POST("/groups/:id/quit", h.QuitGroup)
		api.POST("/groups/:id/admins", h.AddAdmin)
		api.DELETE("/groups/:id/admins/:user_id", h.RemoveAdmin)
		api.PUT("/groups/:id/permissions", h.UpdatePermissions)
		api.POST("/groups/:id/pin", h.PinMessage)
		api.DELETE("/groups/:id/pin", h.UnpinMessage)
		api.POST("/groups/:id/bots", h.AddBotToGroup)
		api.DELETE("/groups/:id/bots/:bot_id", h.RemoveBotFromGroup)

		api.POST("/bots", h.CreateBot)
		api.GET("/bots/:id", h.GetBot)
		api.PUT("/bots/:id/commands", h.UpdateBotCommands)
		api.PUT("/bots/:id/webhook", h.SetBotWebhook)

		api.GET("/users/:id/public_key", h.GetPublicKey)
	}
}

// respondOK — уніфікована обгортка {ok:true, result}.
func respondOK(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

// respondErr мапить код AppError на HTTP-статус.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeNotAuthenticated:
		status = http.StatusUnauthorized
	case apperrors.CodeUnauthorized, apperrors.CodeImmutable:
		status = http.StatusForbidden
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeDuplicateKey:
		status = http.StatusConflict
	case apperrors.CodeWebhookFailed:
		status = http.StatusBadGateway
	case apperrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func actorID(c *gin.Context) string {
	return c.GetString("user_id")
}
