package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/sokoban/game/scene"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Frames queued per client before it is dropped.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	SceneID string       `json:"scene_id"`
	Event   string       `json:"event"`
	Frame   *scene.Frame `json:"frame,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	sceneID string
}

// Hub maintains the set of active clients and broadcasts messages. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients by scene ID
	scenes map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	count      chan chan int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		scenes:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case reply := <-h.count:
			n := 0
			for _, clients := range h.scenes {
				n += len(clients)
			}
			reply <- n
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to sceneID.
// A non-nil welcome frame is sent to this connection only, ahead of any
// broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sceneID string, welcome *scene.Frame) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		sceneID: sceneID,
	}

	if welcome != nil {
		data, err := json.Marshal(&Message{SceneID: sceneID, Event: "frame", Frame: welcome})
		if err != nil {
			log.Printf("Failed to marshal welcome frame: %v", err)
		} else {
			client.send <- data
		}
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastFrame sends a scene frame to every client watching the scene
func (h *Hub) BroadcastFrame(sceneID string, frame scene.Frame) {
	h.broadcast <- &Message{
		SceneID: sceneID,
		Event:   "frame",
		Frame:   &frame,
	}
}

// BroadcastEvent sends a custom event to every client watching the scene
func (h *Hub) BroadcastEvent(sceneID string, event string, data interface{}) {
	h.broadcast <- &Message{
		SceneID: sceneID,
		Event:   event,
		Data:    data,
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	reply := make(chan int)
	h.count <- reply
	return <-reply
}

func (h *Hub) registerClient(client *Client) {
	if h.scenes[client.sceneID] == nil {
		h.scenes[client.sceneID] = make(map[*Client]bool)
	}
	h.scenes[client.sceneID][client] = true

	log.Printf("Client registered for scene %s (total clients: %d)",
		client.sceneID, len(h.scenes[client.sceneID]))
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.scenes[client.sceneID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.scenes, client.sceneID)
	}

	log.Printf("Client unregistered from scene %s (remaining clients: %d)",
		client.sceneID, len(clients))
}

func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.scenes[message.SceneID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// slow client
			h.unregisterClient(client)
		}
	}
}

// readPump keeps the connection alive and notices when the peer goes away
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump sends queued frames, one WebSocket message per frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
