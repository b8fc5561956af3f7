package chathub

import (
	"log"
	"sync"
)

// Delivery — адресований вихідний кадр: один закодований конверт для
// переліку користувачів. Офлайн-адресати просто пропускаються, їх
// наздоженуть сповіщення з брокера.
type Delivery struct {
	UserIDs []string
	Frame   []byte
}

// ManagerService keeps the registry of live connections and fans frames out
// to them. One connection per user: a new login replaces the previous one.
type ManagerService struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	DeliverCh    chan Delivery
}

func NewManagerService() *ManagerService {
	return &ManagerService{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		DeliverCh:    make(chan Delivery, 64),
	}
}

// Run — головний цикл хаба. Викликається один раз як goroutine.
func (m *ManagerService) Run() {
	for {
		select {
		case client := <-m.RegisterCh:
			m.register(client)
		case client := <-m.UnregisterCh:
			m.unregister(client)
		case delivery := <-m.DeliverCh:
			m.deliver(delivery)
		}
	}
}

func (m *ManagerService) register(client Client) {
	m.mu.Lock()
	old, ok := m.clients[client.GetUserID()]
	m.clients[client.GetUserID()] = client
	m.mu.Unlock()

	if ok && old != client {
		old.Close()
	}
	log.Printf("INFO: client %s connected", client.GetUserID())
}

func (m *ManagerService) unregister(client Client) {
	m.mu.Lock()
	current, ok := m.clients[client.GetUserID()]
	if ok && current == client {
		delete(m.clients, client.GetUserID())
	}
	m.mu.Unlock()

	if ok && current == client {
		client.Close()
		log.Printf("INFO: client %s disconnected", client.GetUserID())
	}
}

func (m *ManagerService) deliver(d Delivery) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, userID := range d.UserIDs {
		client, ok := m.clients[userID]
		if !ok {
			continue
		}
		select {
		case client.GetSendChannel() <- d.Frame:
		default:
			// Переповнений буфер: клієнт не встигає читати, кадр втрачено.
			log.Printf("WARNING: dropping frame for slow client %s", userID)
		}
	}
}

// Deliver enqueues a frame for the given users without blocking the caller.
func (m *ManagerService) Deliver(userIDs []string, frame []byte) {
	if len(userIDs) == 0 {
		return
	}
	m.DeliverCh <- Delivery{UserIDs: userIDs, Frame: frame}
}

// IsOnline reports whether the user currently has a live connection.
func (m *ManagerService) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[userID]
	return ok
}
