package websocket

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"camdetect/internal/dto"
	"camdetect/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	broadcastBuffer = 16
	writeWait       = 2 * time.Second
)

// HubService fans dashboard messages out to every connected viewer.
// Only Run writes to connections.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	lastState  []byte
	dropped    int
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub. Call Run to start delivering messages.
func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run delivers messages until stop is closed, then disconnects every viewer.
func (h *HubService) Run(stop <-chan struct{}) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			state := h.lastState
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", count)

			// New viewers see the current loop state right away.
			if state != nil {
				h.write(client, state)
			}

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mutex.RLock()
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.RUnlock()

			for _, client := range clients {
				h.write(client, message)
			}

		case <-stop:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *HubService) write(client *websocket.Conn, message []byte) {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		h.logger.Error("Error sending message: %v", err)
		h.remove(client)
	}
}

func (h *HubService) remove(client *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.Close()
	}
	count := len(h.clients)
	h.mutex.Unlock()

	if ok {
		h.logger.Info("Client disconnected. Total: %d", count)
	}
}

// Register adds a viewer connection. It is a no-op once the hub has stopped.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a viewer connection and closes it.
func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for every viewer. When viewers fall behind the
// message is dropped rather than stalling the caller.
func (h *HubService) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.mutex.Lock()
		h.dropped++
		h.mutex.Unlock()
	}
}

// GetClientCount returns the number of connected viewers.
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were discarded because the queue was full.
func (h *HubService) Dropped() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.dropped
}

// PublishFrame sends an annotated JPEG frame to viewers.
func (h *HubService) PublishFrame(jpeg []byte) {
	h.publish(dto.MessageFrame, dto.FrameMessage{Image: base64.StdEncoding.EncodeToString(jpeg)})
}

// PublishDetection announces a first sighting.
func (h *HubService) PublishDetection(entry dto.RecordEntry) {
	h.publish(dto.MessageDetection, entry)
}

// PublishStatus pushes one processing details line.
func (h *HubService) PublishStatus(entry dto.StatusEntry) {
	h.publish(dto.MessageStatus, entry)
}

// PublishState pushes the loop state and remembers it for viewers that connect later.
func (h *HubService) PublishState(state dto.StateInfo) {
	message := h.encode(dto.MessageState, state)
	if message == nil {
		return
	}
	h.mutex.Lock()
	h.lastState = message
	h.mutex.Unlock()
	h.Broadcast(message)
}

func (h *HubService) publish(kind string, data interface{}) {
	if message := h.encode(kind, data); message != nil {
		h.Broadcast(message)
	}
}

func (h *HubService) encode(kind string, data interface{}) []byte {
	message, err := json.Marshal(dto.Envelope{Type: kind, Data: data})
	if err != nil {
		h.logger.Error("Failed to encode %s message: %v", kind, err)
		return nil
	}
	return message
}
