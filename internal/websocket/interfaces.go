package websocket

import (
	"context"
	"net"
	"time"

	"dataexplorer/pkg/contracts/domain"
)

// Connection is the part of *websocket.Conn a client uses
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	// Returns the message type and payload
	ReadMessage() (messageType int, p []byte, err error)

	// Close closes the connection
	Close() error

	// SetReadDeadline sets the read deadline on the connection
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline sets the write deadline on the connection
	SetWriteDeadline(t time.Time) error

	// SetReadLimit sets the maximum size for a message read from the connection
	SetReadLimit(limit int64)

	// SetPongHandler sets the handler for pong messages
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() net.Addr
}

// ViewService runs the explorer pipeline for a live view
type ViewService interface {
	Get(ctx context.Context, id string) (*domain.DatasetInfo, error)
	View(ctx context.Context, id string, settings domain.ViewSettings, pca *domain.PCAOptions) (*domain.View, error)
}

// RequestValidator validates inbound live view frames
type RequestValidator interface {
	ValidateStruct(v interface{}) error
}
