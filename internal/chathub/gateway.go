package chathub

import (
	"context"

	"campchat/backend/internal/chat"
	"campchat/backend/internal/models"
	"campchat/backend/internal/storage"
	"campchat/backend/pkg/apperrors"
)

// Authenticator перевіряє токен першого кадру з'єднання.
type Authenticator interface {
	VerifyToken(token string) (userID string, err error)
}

// Gateway translates realtime envelopes into chat service calls and fans the
// results out through the hub. One instance is shared by all connections.
type Gateway struct {
	chat  *chat.Service
	store storage.Storage
	hub   *ManagerService
	auth  Authenticator
}

func NewGateway(chatSvc *chat.Service, store storage.Storage, hub *ManagerService, auth Authenticator) *Gateway {
	return &Gateway{chat: chatSvc, store: store, hub: hub, auth: auth}
}

func (g *Gateway) Authenticate(token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrNotAuthenticated
	}
	return g.auth.VerifyToken(token)
}

// HandleRequest виконує одну дію автентифікованого клієнта і повертає
// конверт-відповідь для цього ж з'єднання. Розсилка іншим адресатам іде
// через хаб.
func (g *Gateway) HandleRequest(ctx context.Context, userID string, req models.GatewayRequest) models.GatewayResponse {
	switch req.Action {
	case models.ActionSendMessage:
		return g.handleSend(ctx, userID, req)
	case models.ActionSendGroupMessage:
		return g.handleSendGroup(ctx, userID, req)
	case models.ActionEditMessage:
		return g.handleEdit(ctx, userID, req)
	case models.ActionDeleteMessage:
		return g.handleDelete(ctx, userID, req)
	case models.ActionSetReaction:
		return g.handleReaction(ctx, userID, req)
	case models.ActionAuthenticate:
		// Повторна автентифікація на живому з'єднанні — no-op.
		return models.OKResponse(map[string]string{"user_id": userID})
	default:
		return models.ErrorResponse(apperrors.InvalidInput("unknown action: " + req.Action))
	}
}

func (g *Gateway) handleSend(ctx context.Context, userID string, req models.GatewayRequest) models.GatewayResponse {
	payload, err := parsePayload(req)
	if err != nil {
		return models.ErrorResponse(err)
	}
	msg, err := g.chat.SendDirect(ctx, userID, req.RecipientID, payload, sendOptions(req))
	if err != nil {
		return models.ErrorResponse(err)
	}

	g.hub.Deliver([]string{req.RecipientID}, models.BroadcastResponse(models.BroadcastMessage, msg).Encode())
	return models.OKResponse(msg)
}

func (g *Gateway) handleSendGroup(ctx context.Context, userID string, req models.GatewayRequest) models.GatewayResponse {
	payload, err := parsePayload(req)
	if err != nil {
		return models.ErrorResponse(err)
	}
	msg, err := g.chat.SendGroup(ctx, userID, req.GroupID, payload, sendOptions(req))
	if err != nil {
		return models.ErrorResponse(err)
	}

	g.broadcast(ctx, msg, userID, models.BroadcastResponse(models.BroadcastMessage, msg))
	return models.OKResponse(msg)
}

func (g *Gateway) handleEdit(ctx context.Context, userID string, req models.GatewayRequest) models.GatewayResponse {
	msg, err := g.chat.EditMessage(ctx, userID, req.MessageID, req.Content, req.Caption, req.MediaURL)
	if err != nil {
		return models.ErrorResponse(err)
	}

	g.broadcast(ctx, msg, userID, models.BroadcastResponse(models.BroadcastEdit, msg))
	return models.OKResponse(msg)
}

func (g *Gateway) handleDelete(ctx context.Context, userID string, req models.GatewayRequest) models.GatewayResponse {
	msg, err := g.chat.DeleteMessage(ctx, userID, req.MessageID)
	if err != nil {
		return models.ErrorResponse(err)
	}

	result := map[string]string{"message_id": req.MessageID}
	g.broadcast(ctx, msg, userID, models.BroadcastResponse(models.BroadcastDelete, result))
	return models.OKResponse(result)
}

func (g *Gateway) handleReaction(ctx context.Context, userID string, req models.GatewayRequest) models.GatewayResponse {
	msg, err := g.chat.SetReaction(ctx, userID, req.MessageID, req.Reaction)
	if err != nil {
		return models.ErrorResponse(err)
	}

	g.broadcast(ctx, msg, userID, models.BroadcastResponse(models.BroadcastReaction, msg))
	return models.OKResponse(msg)
}

// broadcast доставляє конверт усім учасникам розмови, крім ініціатора.
func (g *Gateway) broadcast(ctx context.Context, msg *models.Message, actorID string, resp models.GatewayResponse) {
	audience, err := g.audience(ctx, msg, actorID)
	if err != nil || len(audience) == 0 {
		return
	}
	g.hub.Deliver(audience, resp.Encode())
}

func (g *Gateway) audience(ctx context.Context, msg *models.Message, actorID string) ([]string, error) {
	if msg.GroupID != nil {
		group, err := g.store.FindGroupByID(ctx, *msg.GroupID)
		if err != nil {
			return nil, err
		}
		audience := make([]string, 0, len(group.Members))
		for _, member := range group.Members {
			if member != actorID {
				audience = append(audience, member)
			}
		}
		return audience, nil
	}

	var audience []string
	if msg.SenderID != nil && *msg.SenderID != actorID {
		audience = append(audience, *msg.SenderID)
	}
	if msg.RecipientID != nil && *msg.RecipientID != actorID {
		audience = append(audience, *msg.RecipientID)
	}
	return audience, nil
}

func parsePayload(req models.GatewayRequest) (models.Payload, error) {
	var location *models.Location
	if req.Latitude != nil && req.Longitude != nil {
		location = &models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	var contact *models.Contact
	if req.PhoneNumber != "" || req.FirstName != "" {
		contact = &models.Contact{PhoneNumber: req.PhoneNumber, FirstName: req.FirstName, LastName: req.LastName}
	}
	return models.ParsePayload(req.Type, req.Content, req.MediaURL, location, contact)
}

func sendOptions(req models.GatewayRequest) chat.SendOptions {
	return chat.SendOptions{
		Caption:          req.Caption,
		Entities:         req.Entities,
		ReplyToMessageID: req.ReplyToMessageID,
	}
}
