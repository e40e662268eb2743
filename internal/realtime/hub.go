package realtime

import (
	"collaborative-docs-backend/internal/worker"
	"collaborative-docs-backend/redis"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be less than pongWait
	maxMessageSize = 1 << 20          // full document contents travel in one frame
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// tokens are checked by the auth middleware before the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection with its outbound queue and the set
// of documents it has joined.
type Client struct {
	userID uint64
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	joined map[uint64]bool
}

func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
		// slow consumer, drop the frame rather than stall the fanout
	}
}

// channelSub is one redis subscription shared by every local client that
// joined the same document.
type channelSub struct {
	clients map[*Client]bool
	cancel  context.CancelFunc
}

// Hub bridges websocket connections to document channels on the redis
// broker. One redis subscription per document regardless of how many local
// sockets joined it; fanout to sockets runs on the worker pool so a slow
// connection can't stall the subscriber loop.
type Hub struct {
	engine *Engine
	broker *redis.Broker
	pool   *worker.WorkerPool
	logger *zap.Logger

	mu       sync.Mutex
	channels map[uint64]*channelSub
}

func NewHub(engine *Engine, broker *redis.Broker, pool *worker.WorkerPool, logger *zap.Logger) *Hub {
	return &Hub{
		engine:   engine,
		broker:   broker,
		pool:     pool,
		logger:   logger,
		channels: make(map[uint64]*channelSub),
	}
}

// ServeWS upgrades the request and runs the connection until it closes.
// The auth middleware has already placed user_id in the context.
func (h *Hub) ServeWS(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.Status(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		userID: userID.(uint64),
		conn:   conn,
		send:   make(chan []byte, 64),
		joined: make(map[uint64]bool),
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) readPump(client *Client) {
	defer h.disconnect(client)

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		event, err := DecodeEvent(raw)
		if err != nil {
			// malformed frames are dropped, same as unauthorized events
			h.logger.Debug("invalid realtime frame", zap.Error(err))
			continue
		}

		ctx := context.Background()
		switch ev := event.(type) {
		case JoinEvent:
			// only attach to the document channel once the join was
			// accepted, so a rejected sender never receives broadcasts
			if h.engine.HandleJoin(ctx, client.userID, ev) {
				h.subscribe(client, ev.DocumentID)
			}
		case LeaveEvent:
			h.engine.HandleLeave(ctx, client.userID, ev)
			h.unsubscribe(client, ev.DocumentID)
		case EditEvent:
			h.engine.HandleEdit(ctx, client.userID, ev)
		case TitleEvent:
			h.engine.HandleTitle(ctx, client.userID, ev)
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// subscribe attaches the client to the document channel, opening the redis
// subscription if this is the first local client.
func (h *Hub) subscribe(client *Client, docID uint64) {
	client.mu.Lock()
	client.joined[docID] = true
	client.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.channels[docID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		sub = &channelSub{
			clients: make(map[*Client]bool),
			cancel:  cancel,
		}
		h.channels[docID] = sub
		go h.runSubscription(ctx, docID)
	}
	sub.clients[client] = true
}

func (h *Hub) unsubscribe(client *Client, docID uint64) {
	client.mu.Lock()
	delete(client.joined, docID)
	client.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.channels[docID]
	if !ok {
		return
	}
	delete(sub.clients, client)
	if len(sub.clients) == 0 {
		sub.cancel()
		delete(h.channels, docID)
	}
}

// runSubscription pumps one redis channel to every attached local client.
func (h *Hub) runSubscription(ctx context.Context, docID uint64) {
	pubsub := h.broker.Subscribe(ctx, ChannelFor(docID))
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			payload := []byte(msg.Payload)

			h.mu.Lock()
			sub, exists := h.channels[docID]
			if !exists {
				h.mu.Unlock()
				return
			}
			targets := make([]*Client, 0, len(sub.clients))
			for client := range sub.clients {
				targets = append(targets, client)
			}
			h.mu.Unlock()

			h.pool.Submit(func(context.Context) error {
				for _, client := range targets {
					client.enqueue(payload)
				}
				return nil
			})
		}
	}
}

// disconnect synthesizes a leave for every document the client had joined,
// then tears the connection down.
func (h *Hub) disconnect(client *Client) {
	client.mu.Lock()
	joined := make([]uint64, 0, len(client.joined))
	for docID := range client.joined {
		joined = append(joined, docID)
	}
	client.mu.Unlock()

	for _, docID := range joined {
		h.engine.HandleLeave(context.Background(), client.userID, LeaveEvent{DocumentID: docID})
		h.unsubscribe(client, docID)
	}

	close(client.send)
	client.conn.Close()
}
