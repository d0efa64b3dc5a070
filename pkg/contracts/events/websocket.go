// Package events contains the message contracts of the live view WebSocket.
package events

import (
	"time"

	"dataexplorer/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Server to client
	MessageTypeConnected      MessageType = "connected"
	MessageTypeView           MessageType = "view"
	MessageTypeError          MessageType = "error"
	MessageTypePong           MessageType = "pong"
	MessageTypeDatasetRemoved MessageType = "dataset_removed"

	// Client to server
	MessageTypeSettings MessageType = "settings"
	MessageTypePing     MessageType = "ping"
)

// Message is the envelope for every live view frame
type Message struct {
	Type      MessageType `json:"type"`
	DatasetID string      `json:"dataset_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorData  `json:"error,omitempty"`
}

// ErrorData carries a recoverable error; the connection stays open
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// NewMessage stamps a message for a dataset
func NewMessage(t MessageType, datasetID string, data interface{}) Message {
	return Message{
		Type:      t,
		DatasetID: datasetID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NewErrorMessage builds an error frame
func NewErrorMessage(datasetID, code, message string, details interface{}) Message {
	msg := NewMessage(MessageTypeError, datasetID, nil)
	msg.Error = &ErrorData{Code: code, Message: message, Details: details}
	return msg
}

// ViewData is the payload of a view message
type ViewData struct {
	View *domain.View `json:"view"`
}
