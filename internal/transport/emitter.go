package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 10 * time.Second

var errConnClosed = errors.New("connection closed")

// frameWriter is the subset of *websocket.Conn the emitter writes to.
type frameWriter interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

type statusEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type reportEvent struct {
	Type   string `json:"type"`
	Report string `json:"report"`
}

type turnErrorEvent struct {
	Type    string `json:"type"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type sessionEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// wsEmitter writes interview events to one connection. Writes are
// serialized; once closed every write is dropped with errConnClosed.
type wsEmitter struct {
	conn   frameWriter
	mu     sync.Mutex
	closed bool
}

func newEmitter(conn frameWriter) *wsEmitter {
	return &wsEmitter{conn: conn}
}

func (e *wsEmitter) Status(message string) error {
	return e.writeJSON(statusEvent{Type: "upload-status", Message: message})
}

func (e *wsEmitter) SetupError(message string) error {
	return e.writeJSON(statusEvent{Type: "upload-error", Message: message})
}

func (e *wsEmitter) Audio(data []byte) error {
	return e.write(websocket.MessageBinary, data)
}

func (e *wsEmitter) Report(text string) error {
	return e.writeJSON(reportEvent{Type: "end-response", Report: text})
}

func (e *wsEmitter) TurnError(stage, message string) error {
	return e.writeJSON(turnErrorEvent{Type: "turn-error", Stage: stage, Message: message})
}

func (e *wsEmitter) session(id string) error {
	return e.writeJSON(sessionEvent{Type: "session", ID: id})
}

func (e *wsEmitter) pong() error {
	return e.writeJSON(map[string]string{"type": "pong"})
}

func (e *wsEmitter) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

func (e *wsEmitter) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.write(websocket.MessageText, data)
}

func (e *wsEmitter) write(typ websocket.MessageType, p []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errConnClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return e.conn.Write(ctx, typ, p)
}
