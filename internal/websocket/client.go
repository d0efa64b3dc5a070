package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/infrastructure"
	api "dataexplorer/pkg/contracts/api/v1"
	"dataexplorer/pkg/contracts/domain"
	"dataexplorer/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound frames buffered per client
	sendBuffer = 32
)

// Client is a middleman between one websocket connection and the hub.
// A client watches exactly one dataset.
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages, closed once
	send   chan []byte
	sendMu sync.Mutex
	closed bool

	// Client metadata
	id          string
	datasetID   string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	// Owned by the read pump
	messagesReceived int64
	// Owned by the write pump
	messagesSent int64
}

// NewClient creates a client bound to a dataset
func NewClient(hub *Hub, conn Connection, datasetID, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	logger = infrastructure.WithComponent(logger, "websocket.client").With(
		slog.String("client_id", id),
		slog.String("dataset_id", datasetID),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		datasetID:   datasetID,
		traceID:     traceID,
		remoteAddr:  remote,
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

func (c *Client) traceContext() context.Context {
	return c.withIDs(context.Background())
}

func (c *Client) withIDs(ctx context.Context) context.Context {
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return infrastructure.WithDatasetID(ctx, c.datasetID)
}

// queue marshals a message onto the send buffer. Frames are dropped when
// the client is closed or its buffer is full.
func (c *Client) queue(msg events.Message) bool {
	msg.TraceID = c.traceID
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msg.Type)))
		return false
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		c.hub.recordMessage(c.traceContext(), "outbound", msg.Type)
		return true
	default:
		c.logger.Warn("Client send buffer full, dropping message",
			slog.String("message_type", string(msg.Type)))
		return false
	}
}

// close ends the write pump; safe to call more than once
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads settings frames and answers each with a fresh view.
// The first view uses the default settings.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.traceContext(), "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.sendView(api.DefaultSettingsQuery(), nil)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.traceContext(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++
		c.handle(message)
	}
}

// handle answers one client frame; bad frames get an error frame and the
// connection stays open
func (c *Client) handle(message []byte) {
	var req api.LiveViewRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.hub.recordMessage(c.traceContext(), "inbound", "invalid")
		c.queue(events.NewErrorMessage(c.datasetID, "INVALID_MESSAGE", "Message is not valid JSON", nil))
		return
	}
	c.hub.recordMessage(c.traceContext(), "inbound", events.MessageType(req.Type))

	if c.hub.validator != nil {
		if err := c.hub.validator.ValidateStruct(req); err != nil {
			c.queue(c.errorMessage(err))
			return
		}
	}

	switch events.MessageType(req.Type) {
	case events.MessageTypePing:
		c.queue(events.NewMessage(events.MessageTypePong, c.datasetID, nil))
	case events.MessageTypeSettings:
		c.sendView(req.Settings, req.PCA)
	}
}

func (c *Client) sendView(settings api.SettingsQuery, pca *api.PCAQuery) {
	ctx, cancel := context.WithTimeout(c.withIDs(c.hub.ctx), c.hub.cfg.PongWait)
	defer cancel()

	var opts *domain.PCAOptions
	if pca != nil {
		o := pca.Options()
		opts = &o
	}

	start := time.Now()
	view, err := c.hub.service.View(ctx, c.datasetID, settings.ToDomain(), opts)
	if err != nil {
		c.logger.WarnContext(ctx, "Live view failed", slog.String("error", err.Error()))
		c.queue(c.errorMessage(err))
		return
	}

	c.logger.DebugContext(ctx, "Live view computed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("sample_rows", settings.SampleRows))
	c.queue(events.NewMessage(events.MessageTypeView, c.datasetID, events.ViewData{View: view}))
}

// errorMessage converts a service or validation error into an error frame
func (c *Client) errorMessage(err error) events.Message {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return events.NewErrorMessage(c.datasetID, apiErr.ErrorCode, apiErr.Message, apiErr.Details)
	}
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		return events.NewErrorMessage(c.datasetID, string(appErr.Type), appErr.Message, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return events.NewErrorMessage(c.datasetID, "TIMEOUT", "The view took too long to compute", nil)
	}
	return events.NewErrorMessage(c.datasetID, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}

// WritePump pumps messages from the send buffer to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(c.traceContext(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.traceContext(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.traceContext(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
