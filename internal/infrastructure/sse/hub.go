// Package sse fans wallet domain events out to subscribed HTTP clients.
package sse

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agent-wallet/agent-wallet/internal/domain/wallet"
)

var ErrClientNotFound = errors.New("sse client not found")

// Message is one event on a client stream.
type Message struct {
	Event     string      `json:"event"`
	WalletID  uuid.UUID   `json:"walletId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Client is one connected subscriber. A client follows a single wallet.
type Client struct {
	ClientID    string
	WalletID    uuid.UUID
	MessageChan chan *Message

	closeOnce sync.Once
}

func NewClient(walletID uuid.UUID, buffer int) *Client {
	return &Client{
		ClientID:    uuid.NewString(),
		WalletID:    walletID,
		MessageChan: make(chan *Message, buffer),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.MessageChan) })
}

// Hub manages SSE clients and implements the event sink used by the
// operation surface. Slow clients get messages dropped, never block.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts a drained domain event to every client following the
// wallet that emitted it.
func (h *Hub) Publish(walletID uuid.UUID, event wallet.Event) {
	msg := &Message{
		Event:     event.EventName(),
		WalletID:  walletID,
		Timestamp: time.Now().UTC(),
		Payload:   event,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.WalletID == walletID {
			trySend(c, msg)
		}
	}
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *Client, msg *Message) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
