// Package feed pushes committed orders to websocket subscribers.
package feed

import (
	"crypto/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	"github.com/k-code-yt/go-order-placement/pkg/metrics"
	"github.com/sirupsen/logrus"
)

var (
	PingFreq     = time.Second * 30
	WriteTimeout = time.Second * 5
	// MaxQueueSize is how many undelivered messages a client may have before new ones are dropped.
	MaxQueueSize = 64
)

type MsgType string

const (
	MsgType_OrderCreated MsgType = "order_created"
)

type FeedMsg struct {
	MsgType MsgType                   `json:"type"`
	Data    *domain.OrderCreatedEvent `json:"data"`
}

type Client struct {
	ID      string
	conn    *websocket.Conn
	msgCH   chan *FeedMsg
	done    chan struct{}
	dropped *atomic.Int64
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:      rand.Text()[:9],
		conn:    conn,
		msgCH:   make(chan *FeedMsg, MaxQueueSize),
		done:    make(chan struct{}),
		dropped: new(atomic.Int64),
	}
}

type Hub struct {
	mu       *sync.RWMutex
	clients  map[string]*Client
	upgrader websocket.Upgrader
	wg       *sync.WaitGroup
	closed   bool
}

func NewHub() *Hub {
	return &Hub{
		mu:      new(sync.RWMutex),
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		wg: new(sync.WaitGroup),
	}
}

// ServeHTTP upgrades the request and subscribes the connection to the feed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("FEED:UPGRADE_FAILED")
		return
	}

	c := NewClient(conn)
	if !h.join(c) {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(WriteTimeout),
		)
		_ = conn.Close()
		return
	}

	go func() {
		defer h.wg.Done()
		c.writeMsgLoop()
	}()
	go func() {
		defer h.wg.Done()
		c.readMsgLoop()
		h.leave(c)
	}()
}

// OrderCreated implements the order notifier. It never blocks on slow subscribers.
func (h *Hub) OrderCreated(o *domain.Order) {
	msg := &FeedMsg{
		MsgType: MsgType_OrderCreated,
		Data:    domain.NewOrderCreatedEvent(o),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.msgCH <- msg:
		default:
			n := c.dropped.Add(1)
			logrus.WithFields(logrus.Fields{
				"clientID": c.ID,
				"dropped":  n,
			}).Warn("FEED:MSG_DROPPED")
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber, refuses new ones and waits for their loops to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(WriteTimeout),
		)
		_ = c.conn.Close()
	}
	h.wg.Wait()
}

// join registers c and reserves its loops in the wait group; it reports false once the hub is closed.
func (h *Hub) join(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.ID] = c
	h.wg.Add(2)
	metrics.OrderFeedSubscribers.Set(float64(len(h.clients)))
	logrus.WithField("clientID", c.ID).Info("FEED:JOINED")
	return true
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	metrics.OrderFeedSubscribers.Set(float64(len(h.clients)))
	logrus.WithField("clientID", c.ID).Info("FEED:LEFT")
}

func (c *Client) writeMsgLoop() {
	t := time.NewTicker(PingFreq)
	defer t.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteTimeout)); err != nil {
				return
			}
		case msg := <-c.msgCH:
			_ = c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				logrus.WithField("clientID", c.ID).WithError(err).Warn("FEED:WRITE_FAILED")
				return
			}
		}
	}
}

// readMsgLoop only watches for the connection going away; subscribers do not send messages.
func (c *Client) readMsgLoop() {
	defer close(c.done)

	readTimeout := PingFreq * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
