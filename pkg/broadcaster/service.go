// Package broadcaster fans dispatched readings out to websocket clients.
// The hub is a ValueSink: a slow or dead client is dropped, never allowed
// to block the dispatch of the remaining pairs.
package broadcaster

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
)

type Hub struct {
	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Accept implements dispatch.ValueSink.
func (h *Hub) Accept(code obis.Code, value obis.Value) error {
	reading := NewReading(time.Now().Format(time.RFC3339), code, value)
	h.Broadcast(reading.ToJsonBytes())
	return nil
}

func (h *Hub) Broadcast(data []byte) {
	if data == nil {
		return
	}
	h.clientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clientsMutex.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.RemoveClient(client)
		}
	}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	h.clients[conn] = true
	h.clientsMutex.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	delete(h.clients, conn)
	h.clientsMutex.Unlock()
	conn.Close()
}
