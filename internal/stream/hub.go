// Package stream broadcasts frames of a running simulation to websocket
// clients.
//
// A client receives a "header" message on connect, then one "frame"
// message per frame and a final "done" message. Clients may send
// {"pause": true|false} and {"delay_ms": n} to pace the simulation.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/storage"
	"github.com/san-kum/hardsphere/internal/trace"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Message struct {
	Type   string               `json:"type"`
	Header *storage.ExportData  `json:"header,omitempty"`
	Frame  *storage.ExportFrame `json:"frame,omitempty"`
	Error  string               `json:"error,omitempty"`
}

type control struct {
	Pause   *bool `json:"pause"`
	DelayMS *int  `json:"delay_ms"`
}

// Hub implements dynamo.FrameSink. WriteFrame blocks while a client has
// paused the stream.
type Hub struct {
	header trace.Header

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
	closed bool
	delay  time.Duration
	last   *storage.ExportFrame
	frames int
}

func NewHub(h trace.Header) *Hub {
	hub := &Hub{header: h, clients: make(map[*websocket.Conn]*sync.Mutex)}
	hub.cond = sync.NewCond(&hub.mu)
	return hub
}

func (h *Hub) WriteFrame(t float64, s *dynamo.System) error {
	h.mu.Lock()
	for h.paused && !h.closed {
		h.cond.Wait()
	}
	delay := h.delay
	frame := &storage.ExportFrame{
		Time:     t,
		Count:    s.Len(),
		Position: append([]dynamo.Vec3(nil), s.Pos...),
		Velocity: append([]dynamo.Vec3(nil), s.Vel...),
	}
	if h.header.Model.VariableCount() {
		frame.Radii = append([]float64(nil), s.Radius...)
	}
	h.last = frame
	h.frames++
	h.mu.Unlock()

	h.broadcast(Message{Type: "frame", Frame: frame})
	if delay > 0 {
		time.Sleep(delay)
	}
	return nil
}

// Close sends the final message and releases a paused writer.
func (h *Hub) Close(runErr error) {
	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()

	msg := Message{Type: "done"}
	if runErr != nil {
		msg.Error = runErr.Error()
	}
	h.broadcast(msg)
}

func (h *Hub) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *Hub) SetPaused(p bool) {
	h.mu.Lock()
	h.paused = p
	h.cond.Broadcast()
	h.mu.Unlock()
}

func (h *Hub) SetDelay(d time.Duration) {
	h.mu.Lock()
	h.delay = d
	h.mu.Unlock()
}

func (h *Hub) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves one client until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("websocket upgrade error:", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	header := storage.NewExportData(h.header, nil)
	header.Frames = nil

	// register under connMu so no broadcast reaches the client before its header
	connMu.Lock()
	h.clientsMu.Lock()
	h.clients[conn] = connMu
	h.clientsMu.Unlock()
	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, conn)
		h.clientsMu.Unlock()
	}()

	err = conn.WriteJSON(Message{Type: "header", Header: &header})
	if err == nil {
		h.mu.Lock()
		last := h.last
		h.mu.Unlock()
		if last != nil {
			err = conn.WriteJSON(Message{Type: "frame", Frame: last})
		}
	}
	connMu.Unlock()
	if err != nil {
		log.Println("websocket write error:", err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("websocket read error:", err)
			}
			return
		}
		var c control
		if err := json.Unmarshal(data, &c); err != nil {
			log.Println("websocket bad control message:", err)
			continue
		}
		if c.Pause != nil {
			h.SetPaused(*c.Pause)
		}
		if c.DelayMS != nil && *c.DelayMS >= 0 {
			h.SetDelay(time.Duration(*c.DelayMS) * time.Millisecond)
		}
	}
}

func (h *Hub) broadcast(msg Message) {
	h.clientsMu.RLock()
	failed := []*websocket.Conn{}
	for client, mu := range h.clients {
		mu.Lock()
		err := client.WriteJSON(msg)
		mu.Unlock()
		if err != nil {
			log.Println("websocket write error:", err)
			client.Close()
			failed = append(failed, client)
		}
	}
	h.clientsMu.RUnlock()

	if len(failed) > 0 {
		h.clientsMu.Lock()
		for _, client := range failed {
			delete(h.clients, client)
		}
		h.clientsMu.Unlock()
	}
}
