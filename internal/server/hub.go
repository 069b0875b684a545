package server

import (
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/realtime"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	peerBuffer = 64
)

type peer struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

func (p *peer) close() {
	p.once.Do(func() { close(p.closed) })
}

// Hub is the relay: every control frame a peer sends is forwarded to all other peers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu     sync.RWMutex
	peers  map[*peer]struct{}
	closed bool
}

// NewHub creates a hub accepting websocket upgrades from allowedOrigins. With no origins configured,
// only same-host and non-browser clients may connect; "*" allows any origin.
func NewHub(allowedOrigins []string, logger *log.Logger) *Hub {
	h := &Hub{
		logger: logger,
		peers:  make(map[*peer]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	return h
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

func (h *Hub) Routes() []string {
	return []string{"/ws"}
}

// Len is the number of connected peers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	p := &peer{
		id:     shared.GenerateID(),
		conn:   conn,
		send:   make(chan []byte, peerBuffer),
		closed: make(chan struct{}),
	}
	if !h.register(p) {
		conn.Close()
		return
	}

	go h.writePump(p)
	h.readPump(p)
}

func (h *Hub) register(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	h.logger.Info("client connected", "peer", p.id, "clients", len(h.peers))
	return true
}

func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	p.close()
	h.logger.Info("client disconnected", "peer", p.id, "clients", len(h.peers))
}

// broadcast forwards raw to every peer except from. Peers whose buffer is full miss the frame.
func (h *Hub) broadcast(from *peer, raw []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for p := range h.peers {
		if p == from {
			continue
		}
		select {
		case p.send <- raw:
			sent++
		default:
			h.logger.Warn("dropping frame for slow client", "peer", p.id)
		}
	}
	return sent
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		h.unregister(p)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error { return p.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket disconnected", "peer", p.id, "err", err)
			}
			return
		}

		msg, err := realtime.ParseMessage(raw)
		if err != nil {
			h.logger.Debug("failed to parse message", "peer", p.id, "err", err)
			continue
		}
		if msg.Event != realtime.EventControl {
			h.logger.Debug("ignoring event", "peer", p.id, "event", msg.Event)
			continue
		}

		var ev models.SyncEvent
		if err := msg.Decode(&ev); err != nil {
			h.logger.Warn("invalid control event", "peer", p.id, "err", err)
			continue
		}

		sent := h.broadcast(p, raw)
		h.logger.Info("control", "action", ev.Action, "source", ev.Source, "sender", ev.Sender, "recipients", sent)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case message := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-p.closed:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// Close disconnects every peer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for p := range h.peers {
		p.close()
	}
}
