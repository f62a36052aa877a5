// Package realtime fans trigger events out to every connected websocket client.
//
// Delivery is best effort: a client that is not connected when an event is emitted never
// sees it, and a client whose send buffer is full loses the frame and is disconnected.
// Frames reach a single client in the order they were broadcast.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/pkg/hardware"
)

// Observer receives fan-out and relay metrics. MetricsService satisfies it.
type Observer interface {
	ObserveBroadcast(kind string, recipients, dropped int)
	SetRealtimeClients(n int)
	ObserveHardwareCommand(source string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveBroadcast(string, int, int)    {}
func (nopObserver) SetRealtimeClients(int)               {}
func (nopObserver) ObserveHardwareCommand(string, error) {}

// Options configures a Hub.
type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	CheckOrigin  func(r *http.Request) bool
	// Relay receives manual lights commands sent by clients.
	Relay   hardware.Sink
	Metrics Observer
	Logger  *zap.Logger
}

// Hub tracks connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration
	pingInterval time.Duration
	relay        hardware.Sink
	metrics      Observer
	logger       *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Relay == nil {
		opts.Relay = hardware.NewLogSink(opts.Logger)
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		sendBuffer:   opts.SendBuffer,
		writeTimeout: opts.WriteTimeout,
		pingInterval: opts.PingInterval,
		relay:        opts.Relay,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Broadcast encodes the event once and queues it for every connected client. It returns the
// number of clients the frame was queued for; zero recipients is not an error.
func (h *Hub) Broadcast(event models.BroadcastEvent) (int, error) {
	frame, err := json.Marshal(event)
	if err != nil {
		return 0, err
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- frame:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("realtime client too slow, dropping", zap.String("client_id", c.id), zap.String("event", string(event.Kind)))
		h.unregister(c)
	}
	h.metrics.ObserveBroadcast(string(event.Kind), delivered, len(slow))
	return delivered, nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("realtime upgrade failed", zap.Error(err))
		return
	}

	c := &Client{id: uuid.NewString(), hub: h, conn: conn, send: make(chan []byte, h.sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(h.writeTimeout))
		_ = conn.Close()
		return
	}
	h.logger.Info("realtime client connected", zap.String("client_id", c.id), zap.String("remote", r.RemoteAddr))

	go c.writePump()
	c.readPump()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetRealtimeClients(n)
	return true
}

// unregister removes the client and closes its send channel exactly once. The send channel is
// only closed under the write lock, so Broadcast never writes to a closed channel.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetRealtimeClients(n)
	h.logger.Info("realtime client disconnected", zap.String("client_id", c.id))
}

// relayLights forwards a client's lights status verbatim to the actuator.
func (h *Hub) relayLights(c *Client, cmd models.LightsCommand) {
	ctx, cancel := context.WithTimeout(context.Background(), h.writeTimeout)
	defer cancel()

	err := h.relay.Send(ctx, hardware.Command(cmd.Status))
	h.metrics.ObserveHardwareCommand("client", err)
	if err != nil {
		h.logger.Warn("lights relay failed", zap.String("client_id", c.id), zap.String("status", cmd.Status), zap.Error(err))
	}
}
