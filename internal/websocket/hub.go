package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"dataexplorer/internal/config"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/pkg/contracts/events"
)

// removal is a dataset eviction or deletion waiting to be fanned out
type removal struct {
	datasetID string
	reason    string
}

// Hub maintains the live view clients, grouped by the dataset they watch
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients per dataset id
	datasets map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	removed    chan removal

	service   ViewService
	validator RequestValidator
	metrics   *infrastructure.BusinessMetrics
	cfg       config.WebSocketConfig

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64

	// Base context for view requests, canceled on Stop
	ctx    context.Context
	cancel context.CancelFunc

	quit     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(service ViewService, validator RequestValidator, metrics *infrastructure.BusinessMetrics, cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		datasets:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		removed:    make(chan removal, 16),
		service:    service,
		validator:  validator,
		metrics:    metrics,
		cfg:        cfg,
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		ctx:        ctx,
		cancel:     cancel,
		quit:       make(chan struct{}),
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

// Stop closes every client and ends the main loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		h.cancel()

		h.mu.Lock()
		for client := range h.clients {
			client.close()
		}
		count := len(h.clients)
		h.clients = make(map[*Client]bool)
		h.datasets = make(map[string]map[*Client]bool)
		h.running = false
		h.mu.Unlock()

		if count > 0 {
			h.metrics.WebSocketConnections.Add(context.Background(), int64(-count))
		}
		h.logger.Info("Hub stopped", slog.Int("closed_clients", count))
	})
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			set, ok := h.datasets[client.datasetID]
			if !ok {
				set = make(map[*Client]bool)
				h.datasets[client.datasetID] = set
			}
			set[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.traceContext()
			h.metrics.WebSocketConnections.Add(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("dataset_id", client.datasetID),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			if !h.remove(client) {
				continue
			}
			client.close()

			ctx := client.traceContext()
			h.metrics.WebSocketConnections.Add(ctx, -1)
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", h.ClientCount()),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case r := <-h.removed:
			h.mu.Lock()
			set := h.datasets[r.datasetID]
			delete(h.datasets, r.datasetID)
			clients := make([]*Client, 0, len(set))
			for client := range set {
				delete(h.clients, client)
				clients = append(clients, client)
			}
			h.mu.Unlock()

			if len(clients) == 0 {
				continue
			}

			msg := events.NewMessage(events.MessageTypeDatasetRemoved, r.datasetID, map[string]string{"reason": r.reason})
			for _, client := range clients {
				client.queue(msg)
				client.close()
			}
			h.metrics.WebSocketConnections.Add(context.Background(), int64(-len(clients)))
			h.logger.Info("Dataset removed, live view clients closed",
				slog.String("dataset_id", r.datasetID),
				slog.String("reason", r.reason),
				slog.Int("clients", len(clients)))
		}
	}
}

// remove drops a client from both indexes and reports whether it was known
func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	if set, ok := h.datasets[client.datasetID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.datasets, client.datasetID)
		}
	}
	return true
}

// Register hands a client to the main loop
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
}

// Unregister removes a client; safe to call after Stop
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// DatasetRemoved notifies and disconnects every client watching the dataset.
// It has the listener signature of ExplorerService.OnDatasetRemoved.
func (h *Hub) DatasetRemoved(datasetID, reason string) {
	select {
	case h.removed <- removal{datasetID: datasetID, reason: reason}:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DatasetClientCount returns the number of clients watching a dataset
func (h *Hub) DatasetClientCount(datasetID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.datasets[datasetID])
}

// GetHubMetrics returns hub metrics for the stats endpoint
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"watched_datasets":  len(h.datasets),
		"total_connections": h.totalConnections,
		"running":           h.running,
	}
}

// recordMessage counts a live view frame by direction and type
func (h *Hub) recordMessage(ctx context.Context, direction string, t events.MessageType) {
	h.metrics.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", string(t)),
	))
}
