package models

import "encoding/json"

// Gateway actions (inbound envelope discriminator).
const (
	ActionAuthenticate     = "authenticate"
	ActionSendMessage      = "send_message"
	ActionSendGroupMessage = "send_group_message"
	ActionEditMessage      = "edit_message"
	ActionDeleteMessage    = "delete_message"
	ActionSetReaction      = "set_reaction"
)

// Broadcast action discriminators (outbound, alongside ok/result).
const (
	BroadcastMessage  = "message"
	BroadcastEdit     = "edit"
	BroadcastDelete   = "delete"
	BroadcastReaction = "reaction"
)

// GatewayRequest — один JSON-конверт на повідомлення від клієнта.
type GatewayRequest struct {
	Action           string      `json:"action"`
	Token            string      `json:"token,omitempty"`
	RecipientID      string      `json:"recipient_id,omitempty"`
	GroupID          string      `json:"group_id,omitempty"`
	MessageID        string      `json:"message_id,omitempty"`
	Type             MessageType `json:"type,omitempty"`
	Content          string      `json:"content,omitempty"`
	MediaURL         string      `json:"media_url,omitempty"`
	Latitude         *float64    `json:"latitude,omitempty"`
	Longitude        *float64    `json:"longitude,omitempty"`
	PhoneNumber      string      `json:"phone_number,omitempty"`
	FirstName        string      `json:"first_name,omitempty"`
	LastName         string      `json:"last_name,omitempty"`
	Caption          string      `json:"caption,omitempty"`
	Entities         JSONColumn  `json:"entities,omitempty"`
	ReplyToMessageID string      `json:"reply_to_message_id,omitempty"`
	Reaction         string      `json:"reaction,omitempty"`
}

// GatewayResponse is the outbound envelope: {ok, result} on success,
// {ok:false, error} on failure, plus an action discriminator on broadcasts.
type GatewayResponse struct {
	OK     bool        `json:"ok"`
	Action string      `json:"action,omitempty"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func OKResponse(result interface{}) GatewayResponse {
	return GatewayResponse{OK: true, Result: result}
}

func BroadcastResponse(action string, result interface{}) GatewayResponse {
	return GatewayResponse{OK: true, Action: action, Result: result}
}

func ErrorResponse(err error) GatewayResponse {
	return GatewayResponse{OK: false, Error: err.Error()}
}

func (r GatewayResponse) Encode() []byte {
	b, _ := json.Marshal(r)
	return b
}
