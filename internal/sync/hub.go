package sync

import (
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"

	writeTimeout = 2 * time.Second
)

// subscriber is one connected reader of the event stream.
type subscriber interface {
	write(line []byte) error
	close() error
}

type tcpSubscriber struct{ conn net.Conn }

func (s tcpSubscriber) write(line []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := s.conn.Write(line)
	return err
}

func (s tcpSubscriber) close() error { return s.conn.Close() }

type wsSubscriber struct{ conn *websocket.Conn }

func (s wsSubscriber) write(line []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, line)
}

func (s wsSubscriber) close() error { return s.conn.Close() }

// Hub fans catalog events out to TCP and WebSocket subscribers. Events are
// numbered and written under one lock, so every subscriber sees them in
// publish order.
type Hub struct {
	mu      sync.Mutex
	subs    map[subscriber]string // subscriber -> transport
	seq     uint64
	dropped int
}

type Stats struct {
	TCPClients int    `json:"tcp_clients"`
	WSClients  int    `json:"ws_clients"`
	Published  uint64 `json:"published"`
	Dropped    int    `json:"dropped"`
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subscriber]string)}
}

// AddTCP sends the welcome line and registers conn. A conn that cannot
// take the welcome is closed and not registered.
func (h *Hub) AddTCP(conn net.Conn) error {
	return h.add(tcpSubscriber{conn}, TransportTCP)
}

func (h *Hub) RemoveTCP(conn net.Conn) {
	h.remove(tcpSubscriber{conn})
}

func (h *Hub) AddWS(ws *websocket.Conn) error {
	return h.add(wsSubscriber{ws}, TransportWebSocket)
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.remove(wsSubscriber{ws})
}

func (h *Hub) add(s subscriber, transport string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	line, err := encodeLine(welcome{
		Type:      "welcome",
		Transport: transport,
		Clients:   len(h.subs) + 1,
		Seq:       h.seq,
	})
	if err != nil {
		return err
	}
	if err := s.write(line); err != nil {
		_ = s.close()
		return err
	}
	h.subs[s] = transport
	return nil
}

func (h *Hub) remove(s subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	_ = s.close()
}

// Publish numbers ev, stamps it when At is zero and writes it to every
// subscriber. Subscribers that fail a write are dropped. The numbered
// event is returned.
func (h *Hub) Publish(ev CatalogEvent) CatalogEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev.Seq = h.seq
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	line, err := encodeLine(ev)
	if err != nil {
		log.Printf("[sync] marshal event %d: %v", ev.Seq, err)
		return ev
	}

	for s, transport := range h.subs {
		if err := s.write(line); err != nil {
			log.Printf("[sync] dropping %s subscriber: %v", transport, err)
			_ = s.close()
			delete(h.subs, s)
			h.dropped++
		}
	}
	return ev
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Stats{Published: h.seq, Dropped: h.dropped}
	for _, transport := range h.subs {
		if transport == TransportTCP {
			st.TCPClients++
		} else {
			st.WSClients++
		}
	}
	return st
}

func encodeLine(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
