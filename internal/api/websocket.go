package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"cell-arena/internal/game"
	"cell-arena/internal/input"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInputBytes  = 512
	clientSendSize = 4 // frames buffered per client before dropping

	// StateEvent names the snapshot frames pushed to clients
	StateEvent = "round:state"
)

// HubConfig configures the WebSocket hub
type HubConfig struct {
	BroadcastRate int // Snapshot frames per second
	MaxPerIP      int
	MaxTotal      int
	Origins       []string // nil = DefaultCORSOrigins
	InputLimit    input.RateLimitConfig
}

// DefaultHubConfig returns production defaults
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BroadcastRate: 30,
		MaxPerIP:      5,
		MaxTotal:      50,
		InputLimit:    input.DefaultRateLimitConfig,
	}
}

// frame is the envelope every pushed message uses
type frame struct {
	Event string              `json:"event"`
	Data  *game.RoundSnapshot `json:"data"`
}

// wsClient is one connection. Only its write pump writes to conn.
type wsClient struct {
	id       string
	ip       string
	conn     *websocket.Conn
	encoding input.Encoding
	send     chan []byte
}

func (c *wsClient) messageType() int {
	if c.encoding == input.EncodingMsgpack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// WebSocketHub streams snapshots to connected clients and feeds their
// input messages to the engine.
type WebSocketHub struct {
	engine   EngineInterface
	cfg      HubConfig
	upgrader websocket.Upgrader
	conns    *ConnLimiter
	inputs   *input.RateLimiter

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	nextID   atomic.Uint64
	lastSeq  uint64 // owned by the broadcast loop
	dropped  atomic.Uint64
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewWebSocketHub creates a hub. Broadcasting starts with Start.
func NewWebSocketHub(engine EngineInterface, cfg HubConfig) *WebSocketHub {
	def := DefaultHubConfig()
	if cfg.BroadcastRate <= 0 {
		cfg.BroadcastRate = def.BroadcastRate
	}
	if cfg.InputLimit.Burst <= 0 {
		cfg.InputLimit = def.InputLimit
	}

	h := &WebSocketHub{
		engine:   engine,
		cfg:      cfg,
		conns:    NewConnLimiter(cfg.MaxPerIP, cfg.MaxTotal),
		inputs:   input.NewRateLimiter(cfg.InputLimit),
		clients:  make(map[*wsClient]struct{}),
		stopChan: make(chan struct{}),
	}

	origins := NewOriginChecker(cfg.Origins)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Start launches the broadcast loop (idempotent)
func (h *WebSocketHub) Start() {
	if !h.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(h.cfg.BroadcastRate))
		defer ticker.Stop()

		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				h.broadcastLatest()
			}
		}
	}()
}

// Stop ends broadcasting and closes every connection
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
		h.inputs.Stop()

		h.mu.Lock()
		for c := range h.clients {
			h.removeLocked(c)
		}
		h.mu.Unlock()
		UpdateWSConnections(0)
	})
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedFrames returns frames skipped because a client fell behind
func (h *WebSocketHub) DroppedFrames() uint64 {
	return h.dropped.Load()
}

// broadcastLatest pushes the newest snapshot if it changed since the last push
func (h *WebSocketHub) broadcastLatest() {
	snap := h.engine.GetSnapshot()
	if snap == nil || snap.Sequence == h.lastSeq {
		return
	}
	h.lastSeq = snap.Sequence

	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	// Each encoding is produced at most once per broadcast
	var encoded [2][]byte
	for c := range h.clients {
		msg := encoded[c.encoding]
		if msg == nil {
			var err error
			msg, err = encodeFrame(c.encoding, snap)
			if err != nil {
				log.Printf("⚠️ Snapshot encode failed (%s): %v", c.encoding, err)
				return
			}
			encoded[c.encoding] = msg
		}

		select {
		case c.send <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

func encodeFrame(enc input.Encoding, snap *game.RoundSnapshot) ([]byte, error) {
	f := frame{Event: StateEvent, Data: snap}
	if enc != input.EncodingMsgpack {
		return json.Marshal(f)
	}

	var buf bytes.Buffer
	e := msgpack.NewEncoder(&buf)
	e.SetCustomStructTag("json")
	if err := e.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HandleWebSocket upgrades the request and runs the client's pumps
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.stopChan:
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	ip := GetClientIP(r)
	if ok, reason := h.conns.Acquire(ip); !ok {
		log.Printf("⚠️ WebSocket connection from %s rejected: %s", ip, reason)
		RecordConnectionRejected(reason)
		code := http.StatusTooManyRequests
		if reason == "ws_total_limit" {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, "Too many connections", code)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.conns.Release(ip)
		return
	}

	c := &wsClient{
		id:       fmt.Sprintf("%s#%d", ip, h.nextID.Add(1)),
		ip:       ip,
		conn:     conn,
		encoding: input.ParseEncoding(r.URL.Query().Get("encoding")),
		send:     make(chan []byte, clientSendSize),
	}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
}

// register adds the client and queues the current snapshot so it does
// not wait for the next change (an ended round never changes again).
func (h *WebSocketHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("📱 Client %s connected (%s, %d total)", c.id, c.encoding, count)
	UpdateWSConnections(count)

	if snap := h.engine.GetSnapshot(); snap != nil {
		if msg, err := encodeFrame(c.encoding, snap); err == nil {
			h.mu.RLock()
			if _, ok := h.clients[c]; ok {
				select {
				case c.send <- msg:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		h.removeLocked(c)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Printf("📱 Client %s disconnected (%d remaining)", c.id, count)
		UpdateWSConnections(count)
	}
}

// removeLocked drops c; closing send makes its write pump close the socket
func (h *WebSocketHub) removeLocked(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
	h.conns.Release(c.ip)
	h.inputs.Forget(c.id)
}

func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(c.messageType(), msg); err != nil {
				return
			}
			IncrementWSMessages(c.encoding.String())

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHub) readPump(c *wsClient) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxInputBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("📱 Client %s read error: %v", c.id, err)
			}
			return
		}
		h.handleInput(c, data)
	}
}

// handleInput forwards one client message to the engine
func (h *WebSocketHub) handleInput(c *wsClient, data []byte) {
	if !h.inputs.Allow(c.id) {
		RecordInputRejected("rate_limit")
		return
	}

	cmd, err := input.Decode(data, c.encoding)
	if err != nil {
		RecordInputRejected("invalid")
		return
	}

	if err := h.engine.Submit(cmd); err != nil {
		RecordInputRejected(inputRejectReason(err))
	}
}
