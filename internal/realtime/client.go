package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
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

	sendBuffer = 64

	DefaultReconnectInterval = 2 * time.Second
)

// Handler receives one inbound message.
type Handler func(Message)

// ClientOptions configures a [Client]. URL is required.
type ClientOptions struct {
	URL               string
	ID                string
	ReconnectInterval time.Duration
	Dialer            *websocket.Dialer
	Header            http.Header
	Logger            *log.Logger

	OnConnect    func()
	OnDisconnect func(error)
}

// Client is a reconnecting sync channel connection.
type Client struct {
	url     string
	id      string
	dialer  *websocket.Dialer
	header  http.Header
	limiter *rate.Limiter
	logger  *log.Logger

	onConnect    func()
	onDisconnect func(error)

	mu       sync.RWMutex
	handlers map[string]Handler

	send      chan []byte
	connected atomic.Bool
}

// NewClient builds a client; call [Client.Run] to connect.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: sync url", shared.ErrMissingConfig)
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = DefaultReconnectInterval
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ID == "" {
		opts.ID = shared.GenerateID()
	}

	return &Client{
		url:          opts.URL,
		id:           opts.ID,
		dialer:       opts.Dialer,
		header:       opts.Header,
		limiter:      rate.NewLimiter(rate.Every(opts.ReconnectInterval), 1),
		logger:       shared.WithLogger(opts.Logger, "sync", opts.URL),
		onConnect:    opts.OnConnect,
		onDisconnect: opts.OnDisconnect,
		handlers:     make(map[string]Handler),
		send:         make(chan []byte, sendBuffer),
	}, nil
}

// ID identifies this client as the sender of its sync events.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

// On registers h for event, replacing any previous handler.
func (c *Client) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

func (c *Client) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

// OnControl registers fn for inbound sync events. Malformed payloads are logged and dropped.
func (c *Client) OnControl(fn func(models.SyncEvent)) {
	c.On(EventControl, func(m Message) {
		var ev models.SyncEvent
		if err := m.Decode(&ev); err != nil {
			c.logger.Warn("dropping malformed control event", "error", err)
			return
		}
		fn(ev)
	})
}

// Emit queues event for sending. It never blocks.
func (c *Client) Emit(event string, data any) error {
	if !c.connected.Load() {
		return shared.ErrNotConnected
	}

	msg, err := NewMessage(event, data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case c.send <- raw:
		return nil
	default:
		return shared.ErrSendBuffer
	}
}

// Broadcast publishes ev as a control event.
func (c *Client) Broadcast(_ context.Context, ev models.SyncEvent) error {
	if ev.Sender == "" {
		ev.Sender = c.id
	}
	return c.Emit(EventControl, ev)
}

// Run keeps the connection open until ctx is cancelled. Dial attempts are paced by the reconnect
// interval.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil
		}

		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Debug("dial failed", "error", err)
			continue
		}

		err = c.serve(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Debug("connection lost", "error", err)
	}
}

// serve pumps conn until it fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.drain()
	c.connected.Store(true)
	c.logger.Info("connected")
	if c.onConnect != nil {
		c.onConnect()
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(writeWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
			conn.Close()
		case <-done:
		}
	}()
	go c.writePump(conn, done)

	err := c.readPump(conn)
	close(done)
	conn.Close()

	c.connected.Store(false)
	c.drain()
	c.logger.Info("disconnected")
	if c.onDisconnect != nil {
		c.onDisconnect(err)
	}
	return err
}

// drain discards messages queued for a connection that is gone.
func (c *Client) drain() {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("failed to write message", "err", err)
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to write ping", "err", err)
				conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (c *Client) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		}

		msg, err := ParseMessage(raw)
		if err != nil {
			c.logger.Debug("failed to parse message", "err", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	c.mu.RLock()
	h := c.handlers[msg.Event]
	c.mu.RUnlock()

	if h == nil {
		c.logger.Debug("no handler for event", "event", msg.Event)
		return
	}
	h(msg)
}
