package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"labourpulse/internal/infrastructure"
	"labourpulse/pkg/contracts/domain"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeDataUpdate = "data_update"
	TypeError      = "error"

	SubtypeDataset = "dataset"
	ActionRefresh  = "refresh"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages from the clients
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger instance
	logger *slog.Logger

	// OpenTelemetry instruments, may be nil
	otelMetrics *infrastructure.DashboardMetrics

	// Counters
	totalConnections int64
	messagesSent     int64
	messagesReceived int64

	// Control
	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger, otelMetrics *infrastructure.DashboardMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:   make(chan []byte, 16),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		logger:      logger,
		otelMetrics: otelMetrics,
		quit:        make(chan struct{}),
	}
}

// Start starts the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	GetMetrics().RecordConnection()
	if h.otelMetrics != nil {
		h.otelMetrics.WebSocketConnections.Add(ctx, 1)
	}

	connMsg := map[string]interface{}{
		"type": TypeConnection,
		"data": map[string]interface{}{
			"status":    "connected",
			"message":   "Connected to the unemployment dashboard stream",
			"client_id": client.id,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if client.traceID != "" {
		connMsg["trace_id"] = client.traceID
	}

	jsonData, err := json.Marshal(connMsg)
	if err != nil {
		return
	}
	select {
	case client.send <- jsonData:
		h.logger.DebugContext(ctx, "sent connection message",
			slog.String("client_id", client.id))
	default:
		h.logger.WarnContext(ctx, "client buffer full on connect",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))

	GetMetrics().RecordDisconnection(time.Since(client.connectedAt))
	if h.otelMetrics != nil {
		h.otelMetrics.WebSocketConnections.Add(ctx, -1)
	}
}

func (h *Hub) broadcastToClients(message []byte) {
	h.mu.RLock()
	// Copy so the lock is not held during sends
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting message",
		slog.Int("client_count", len(clients)),
		slog.Int("message_size", len(message)))

	successCount := 0
	failCount := 0

	for _, client := range clients {
		select {
		case client.send <- message:
			successCount++
			if h.otelMetrics != nil {
				h.otelMetrics.WebSocketMessages.Add(context.Background(), 1)
			}
		default:
			failCount++
			// Slow client, drop it
			h.mu.Lock()
			close(client.send)
			delete(h.clients, client)
			h.mu.Unlock()

			GetMetrics().RecordDroppedMessage()
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(successCount)
	h.mu.Unlock()

	if failCount > 0 {
		h.logger.Warn("some clients missed the broadcast",
			slog.Int("success_count", successCount),
			slog.Int("fail_count", failCount))
	}
}

// BroadcastUpdate sends a data update message to all connected clients
func (h *Hub) BroadcastUpdate(updateType, subtype, action string, data interface{}) {
	message := map[string]interface{}{
		"type":      updateType,
		"subtype":   subtype,
		"action":    action,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	h.broadcastJSON(message)
}

// BroadcastRefresh notifies clients that the dataset changed on disk and
// every dashboard panel should reload.
func (h *Hub) BroadcastRefresh(info domain.DatasetInfo) {
	h.BroadcastUpdate(TypeDataUpdate, SubtypeDataset, ActionRefresh, map[string]interface{}{
		"records":   info.Records,
		"from":      info.From.Format("2006-01-02"),
		"to":        info.To.Format("2006-01-02"),
		"regions":   len(info.Regions),
		"loaded_at": info.LoadedAt.Format(time.RFC3339),
	})
}

// BroadcastError sends a structured error message
func (h *Hub) BroadcastError(code, message string) {
	h.broadcastJSON(map[string]interface{}{
		"type": TypeError,
		"data": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// broadcastJSON marshals a message and queues it for broadcast.
func (h *Hub) broadcastJSON(message map[string]interface{}) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// GetHubMetrics returns current hub metrics
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_received": h.messagesReceived,
	}
}
