package chathub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	requestTimeout = 15 * time.Second
)

// WebSocketClient реалізує інтерфейс chathub.Client поверх gorilla/websocket.
// Перший кадр з'єднання мусить бути authenticate з валідним JWT; до того
// будь-яка інша дія відхиляється.
type WebSocketClient struct {
	userID  string
	Conn    *websocket.Conn
	Hub     *ManagerService
	Gateway *Gateway
	Send    chan []byte

	mu     sync.Mutex
	closed bool
}

func NewWebSocketClient(conn *websocket.Conn, hub *ManagerService, gateway *Gateway) *WebSocketClient {
	return &WebSocketClient{
		Conn:    conn,
		Hub:     hub,
		Gateway: gateway,
		Send:    make(chan []byte, 32),
	}
}

func (c *WebSocketClient) GetUserID() string            { return c.userID }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.Send }

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump)
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *WebSocketClient) readPump() {
	defer func() {
		if c.userID != "" {
			c.Hub.UnregisterCh <- c
		} else {
			c.Close()
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var req models.GatewayRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("WARNING: malformed frame from client %s: %v", c.userID, err)
			c.reply(models.ErrorResponse(apperrors.InvalidInput("malformed JSON envelope")))
			continue
		}

		if c.userID == "" {
			c.handleAuth(req)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		resp := c.Gateway.HandleRequest(ctx, c.userID, req)
		cancel()
		c.reply(resp)
	}
}

// handleAuth — гейт першого кадру. Невдала автентифікація не рве з'єднання,
// клієнт може повторити спробу.
func (c *WebSocketClient) handleAuth(req models.GatewayRequest) {
	if req.Action != models.ActionAuthenticate {
		c.reply(models.ErrorResponse(apperrors.ErrNotAuthenticated))
		return
	}

	userID, err := c.Gateway.Authenticate(req.Token)
	if err != nil {
		c.reply(models.ErrorResponse(err))
		return
	}

	c.userID = userID
	c.Hub.RegisterCh <- c
	c.reply(models.OKResponse(map[string]string{"user_id": userID}))
}

func (c *WebSocketClient) reply(resp models.GatewayResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- resp.Encode():
	default:
		log.Printf("WARNING: dropping reply for slow client %s", c.userID)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито хабом, закриваємо з'єднання WS
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(frame)

			// Перевіряємо, чи є ще кадри у каналі (для ефективності)
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// Надсилаємо Ping для підтримки з'єднання активним
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
