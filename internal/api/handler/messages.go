package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campchat/backend/internal/chat"
	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

type sendMessageRequest struct {
	RecipientID      string             `json:"recipient_id"`
	Type             models.MessageType `json:"type" binding:"required"`
	Content          string             `json:"content"`
	MediaURL         string             `json:"media_url"`
	Latitude         *float64           `json:"latitude"`
	Longitude        *float64           `json:"longitude"`
	PhoneNumber      string             `json:"phone_number"`
	FirstName        string             `json:"first_name"`
	LastName         string             `json:"last_name"`
	Caption          string             `json:"caption"`
	Entities         models.JSONColumn  `json:"entities"`
	ReplyToMessageID string             `json:"reply_to_message_id"`
}

func (r *sendMessageRequest) payload() (models.Payload, error) {
	var location *models.Location
	if r.Latitude != nil && r.Longitude != nil {
		location = &models.Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	var contact *models.Contact
	if r.PhoneNumber != "" || r.FirstName != "" {
		contact = &models.Contact{PhoneNumber: r.PhoneNumber, FirstName: r.FirstName, LastName: r.LastName}
	}
	return models.ParsePayload(r.Type, r.Content, r.MediaURL, location, contact)
}

func (r *sendMessageRequest) options() chat.SendOptions {
	return chat.SendOptions{
		Caption:          r.Caption,
		Entities:         r.Entities,
		ReplyToMessageID: r.ReplyToMessageID,
	}
}

// SendMessage — пряме повідомлення через REST (альтернатива WebSocket).
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}
	if req.RecipientID == "" {
		respondErr(c, apperrors.InvalidInput("recipient_id is required"))
		return
	}

	payload, err := req.payload()
	if err != nil {
		respondErr(c, err)
		return
	}

	msg, err := h.Chat.SendDirect(c.Request.Context(), actorID(c), req.RecipientID, payload, req.options())
	if err != nil {
		respondErr(c, err)
		return
	}

	h.Hub.Deliver([]string{req.RecipientID}, models.BroadcastResponse(models.BroadcastMessage, msg).Encode())
	respondOK(c, msg)
}

func (h *Handler) SendGroupMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}

	payload, err := req.payload()
	if err != nil {
		respondErr(c, err)
		return
	}

	groupID := c.Param("id")
	msg, err := h.Chat.SendGroup(c.Request.Context(), actorID(c), groupID, payload, req.options())
	if err != nil {
		respondErr(c, err)
		return
	}

	h.deliverToGroup(c, groupID, models.BroadcastResponse(models.BroadcastMessage, msg))
	respondOK(c, msg)
}

type editMessageRequest struct {
	Content  string `json:"content"`
	Caption  string `json:"caption"`
	MediaURL string `json:"media_url"`
}

func (h *Handler) EditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}

	msg, err := h.Chat.EditMessage(c.Request.Context(), actorID(c), c.Param("id"), req.Content, req.Caption, req.MediaURL)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.deliverToConversation(c, msg, models.BroadcastResponse(models.BroadcastEdit, msg))
	respondOK(c, msg)
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	msg, err := h.Chat.DeleteMessage(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	result := gin.H{"message_id": c.Param("id")}
	h.deliverToConversation(c, msg, models.BroadcastResponse(models.BroadcastDelete, result))
	respondOK(c, result)
}

type reactionRequest struct {
	Reaction string `json:"reaction" binding:"required"`
}

func (h *Handler) SetReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("reaction is required"))
		return
	}

	msg, err := h.Chat.SetReaction(c.Request.Context(), actorID(c), c.Param("id"), req.Reaction)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.deliverToConversation(c, msg, models.BroadcastResponse(models.BroadcastReaction, msg))
	respondOK(c, msg)
}

type forwardRequest struct {
	RecipientID string `json:"recipient_id"`
	GroupID     string `json:"group_id"`
}

func (h *Handler) ForwardMessage(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("invalid request body"))
		return
	}

	msg, err := h.Chat.Forward(c.Request.Context(), actorID(c), c.Param("id"), req.RecipientID, req.GroupID)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.deliverToConversation(c, msg, models.BroadcastResponse(models.BroadcastMessage, msg))
	respondOK(c, msg)
}

func (h *Handler) History(c *gin.Context) {
	limit, skip := pagination(c)
	messages, err := h.Chat.History(c.Request.Context(), actorID(c), c.Param("peer_id"), limit, skip)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, messages)
}

func (h *Handler) GroupHistory(c *gin.Context) {
	limit, skip := pagination(c)
	groupID := c.Param("id")

	messages, err := h.Chat.GroupHistory(c.Request.Context(), actorID(c), groupID, limit, skip)
	if err != nil {
		respondErr(c, err)
		return
	}

	group, err := h.Store.FindGroupByID(c.Request.Context(), groupID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, gin.H{"messages": messages, "pinned_message_id": group.PinnedMessageID})
}

// GetUpdates — long-poll для клієнтів без WebSocket.
func (h *Handler) GetUpdates(c *gin.Context) {
	offset, _ := strconv.ParseInt(c.Query("offset"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	timeoutSec, _ := strconv.Atoi(c.DefaultQuery("timeout", "0"))

	messages, next, err := h.Chat.GetUpdates(c.Request.Context(), actorID(c), offset, limit, time.Duration(timeoutSec)*time.Second)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"messages": messages, "offset": next})
}

func pagination(c *gin.Context) (limit, skip int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	return limit, skip
}

// deliverToGroup розсилає конверт учасникам групи, крім ініціатора.
func (h *Handler) deliverToGroup(c *gin.Context, groupID string, resp models.GatewayResponse) {
	group, err := h.Store.FindGroupByID(c.Request.Context(), groupID)
	if err != nil {
		return
	}
	audience := make([]string, 0, len(group.Members))
	for _, member := range group.Members {
		if member != actorID(c) {
			audience = append(audience, member)
		}
	}
	h.Hub.Deliver(audience, resp.Encode())
}

func (h *Handler) deliverToConversation(c *gin.Context, msg *models.Message, resp models.GatewayResponse) {
	if msg.GroupID != nil {
		h.deliverToGroup(c, *msg.GroupID, resp)
		return
	}
	var audience []string
	if msg.SenderID != nil && *msg.SenderID != actorID(c) {
		audience = append(audience, *msg.SenderID)
	}
	if msg.RecipientID != nil && *msg.RecipientID != actorID(c) {
		audience = append(audience, *msg.RecipientID)
	}
	h.Hub.Deliver(audience, resp.Encode())
}
