// Package ws is the client side of the room websocket: one connection,
// JSON {type,payload} frames, handlers dispatched in arrival order.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shieldnet/session-client/pkg/errs"
	"github.com/shieldnet/session-client/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendQueueSize  = 64
)

// HandlerFunc handles the payload of one inbound event.
type HandlerFunc func(ctx context.Context, payload json.RawMessage)

type Client struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	started    atomic.Bool
	drain      chan struct{}
	drainOnce  sync.Once
	writerDone chan struct{}
}

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Dial opens the connection. header carries the session cookie.
func Dial(ctx context.Context, url string, header http.Header, opts ...Option) (*Client, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("ws dial %s: %w", url, err)
	}
	return newClient(conn, opts...), nil
}

func newClient(conn *websocket.Conn, opts ...Option) *Client {
	c := &Client{
		conn:       conn,
		handlers:   make(map[string]HandlerFunc),
		send:       make(chan []byte, sendQueueSize),
		closed:     make(chan struct{}),
		drain:      make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.L().With(slog.String("component", "ws"))
	}
	return c
}

// On registers h for events of type typ, replacing any previous handler.
func (c *Client) On(typ string, h HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[typ] = h
}

// Emit queues one event. It never blocks: a full queue is an error.
func (c *Client) Emit(typ string, payload any) error {
	data, err := json.Marshal(Message{Type: typ, Payload: payload})
	if err != nil {
		return fmt.Errorf("ws emit %s: %w", typ, err)
	}

	select {
	case <-c.closed:
		return errs.ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return errs.ErrClosed
	default:
		return fmt.Errorf("ws emit %s: %w", typ, errs.ErrSendQueueFull)
	}
}

// Run pumps frames until the connection drops or ctx is done.
// Handlers run on the calling goroutine.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		select {
		case <-c.closed:
			return errs.ErrClosed
		default:
		}
		return fmt.Errorf("ws: Run called twice")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop(ctx)

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.closed:
		}
	}()

	err := c.readLoop(ctx)
	_ = c.Close()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Client) readLoop(ctx context.Context) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return errs.ErrClosed
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errs.ErrClosed
			}
			return fmt.Errorf("ws read: %w", err)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			c.log.Debug("ws frame ignored", slog.Int("bytes", len(data)), slog.Any("err", err))
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) {
	c.mu.RLock()
	h, ok := c.handlers[env.Type]
	c.mu.RUnlock()
	if !ok {
		c.log.Debug("ws event without handler", slog.String("type", env.Type))
		return
	}
	h(ctx, env.Payload)
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
	}()

	for {
		select {
		case data := <-c.send:
			if !c.write(data) {
				return
			}
		case <-c.drain:
			for {
				select {
				case data := <-c.send:
					if !c.write(data) {
						return
					}
				default:
					return
				}
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("ws ping failed", slog.Any("err", err))
			}
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func (c *Client) write(data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Warn("ws write failed", slog.Any("err", err))
		_ = c.Close()
		return false
	}
	return true
}

// Shutdown flushes queued events, then closes. If the flush does not finish
// before ctx is done the rest of the queue is dropped. When Run has not
// started yet, Shutdown takes its place as the only writer and flushes
// synchronously; a later Run returns errs.ErrClosed.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.started.CompareAndSwap(false, true) {
		c.flush(ctx)
		return c.Close()
	}
	c.drainOnce.Do(func() { close(c.drain) })
	select {
	case <-c.writerDone:
	case <-ctx.Done():
	}
	return c.Close()
}

func (c *Client) flush(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case data := <-c.send:
			if !c.write(data) {
				return
			}
		case <-c.closed:
			return
		default:
			return
		}
	}
}

// Close sends a close frame and tears the connection down. Safe to call twice.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection is torn down.
func (c *Client) Done() <-chan struct{} { return c.closed }
