package eventws

import (
	"encoding/json"
	"log"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/abhi-bochare/Payout-Automation-System/internal/services"
)

// Hub fans session and payout events out to connected clients. Admin
// connections see every event; mentor connections only events carrying
// their own mentor id. It replaces per-request polling for the live
// dashboards.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan services.SessionEvent
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	role   string
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan services.SessionEvent, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, role string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		role:   role,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishSessionEvent satisfies services.EventPublisher. Publishing never
// blocks the caller; the feed is best-effort.
func (h *Hub) PublishSessionEvent(event services.SessionEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("event feed backlogged, dropping %s event", event.Type)
	}
}

func (h *Hub) deliver(event services.SessionEvent) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("event feed encode: %v", err)
		return
	}

	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- encoded:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (c *Client) wants(event services.SessionEvent) bool {
	if c.role == "admin" {
		return true
	}
	return event.MentorID != 0 && event.MentorID == c.userID
}

// ReadPump drains the connection until the peer closes it. The feed is
// one-way; inbound payloads are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
