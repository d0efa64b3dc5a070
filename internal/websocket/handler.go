package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	apierrors "dataexplorer/internal/errors"
	"dataexplorer/internal/infrastructure"
	"dataexplorer/pkg/contracts/events"
)

// ErrorResponder writes problem responses for failed upgrades
type ErrorResponder interface {
	HandleError(w http.ResponseWriter, r *http.Request, err error)
}

// Handler upgrades /ws/datasets/{id} requests into live view clients
type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	errorHandler ErrorResponder
	logger       *slog.Logger
}

// NewHandler creates the upgrade handler. An empty origin list accepts any
// origin.
func NewHandler(hub *Hub, allowedOrigins []string, errorHandler ErrorResponder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Handler{
		hub:          hub,
		errorHandler: errorHandler,
		logger:       infrastructure.WithComponent(logger, "websocket.handler"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  hub.cfg.ReadBufferSize,
		WriteBufferSize: hub.cfg.WriteBufferSize,
		CheckOrigin:     originChecker(allowedOrigins),
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				status,
				apierrors.ErrWebSocketUpgrade.ErrorCode,
				apierrors.ErrWebSocketUpgrade.Message,
				reason.Error(),
			))
		},
	}
	return h
}

// ServeWS resolves the dataset, upgrades the connection and starts the pumps
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())
	datasetID := chi.URLParam(r, "id")

	info, err := h.hub.service.Get(ctx, datasetID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied
		h.logger.WarnContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, conn, info.ID, infrastructure.GetTraceID(ctx), h.logger)
	client.queue(events.NewMessage(events.MessageTypeConnected, info.ID, info))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
