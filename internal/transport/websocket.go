package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/interview"
	"github.com/Sujithrt/interview-prep/internal/metrics"
)

// Pipeline runs the interview events of one session.
type Pipeline interface {
	Submit(ctx context.Context, s *interview.Session, req domain.SetupRequest) error
	Audio(ctx context.Context, s *interview.Session, clip []byte) error
	End(ctx context.Context, s *interview.Session) error
}

// WebSocketHandler serves interview sessions over a websocket.
type WebSocketHandler struct {
	pipeline      Pipeline
	sm            *SessionManager
	metrics       *metrics.Metrics
	allowedOrigin string
	isDev         bool
	maxAudioBytes int64
	readLimit     int64
	newID         func() string

	// shutdown is cancelled by Drain to stop reading from live connections.
	shutdown context.Context
	stop     context.CancelFunc
	mu       sync.Mutex
	draining bool
	tasks    sync.WaitGroup
}

// NewWebSocketHandler creates a new WebSocket handler. maxAudioBytes bounds
// the size of a single inbound clip.
func NewWebSocketHandler(pipeline Pipeline, sm *SessionManager, allowedOrigin string, isDev bool, maxAudioBytes int64) *WebSocketHandler {
	shutdown, stop := context.WithCancel(context.Background())
	return &WebSocketHandler{
		pipeline:      pipeline,
		sm:            sm,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		maxAudioBytes: maxAudioBytes,
		// base64 inflates a clip by a third; leave room for the JSON envelope.
		readLimit: maxAudioBytes/3*4 + 4096,
		newID:     uuid.NewString,
		shutdown:  shutdown,
		stop:      stop,
	}
}

// SetMetrics sets the metrics sink for session accounting.
func (h *WebSocketHandler) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// wsMessage represents an inbound text frame.
type wsMessage struct {
	Type                string `json:"type"`
	Resume              string `json:"resume,omitempty"`
	JobDescription      string `json:"jobDescription,omitempty"`
	Voice               string `json:"voice,omitempty"`
	SelectedInterviewer string `json:"selectedInterviewer,omitempty"`
	Audio               string `json:"audio,omitempty"`
	AudioData           string `json:"audioData,omitempty"`
}

func (m wsMessage) voice() string {
	if m.Voice != "" {
		return m.Voice
	}
	return m.SelectedInterviewer
}

func (m wsMessage) clip() ([]byte, error) {
	payload := m.Audio
	if payload == "" {
		payload = m.AudioData
	}
	// Browsers hand over data URLs from FileReader.
	if i := strings.Index(payload, ";base64,"); i >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("WebSocket connection request", "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	if h.shutdown.Err() != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()
	ws.SetReadLimit(h.readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stopOnShutdown := context.AfterFunc(h.shutdown, cancel)
	defer stopOnShutdown()

	emitter := newEmitter(ws)
	defer emitter.close()

	session := interview.NewSession(h.newID(), emitter)
	h.sm.Register(session)
	defer h.sm.Unregister(session)

	if h.metrics != nil {
		h.metrics.SessionOpened()
		defer func() { h.metrics.SessionClosed(time.Since(session.StartedAt())) }()
	}

	if err := emitter.session(session.ID()); err != nil {
		slog.Debug("Failed to send session id", "error", err, "session_id", session.ID())
		return
	}

	h.inputLoop(ctx, ws, emitter, session)
	slog.Info("Interview connection closed", "session_id", session.ID(), "phase", session.Phase())
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn, emitter *wsEmitter, s *interview.Session) {
	log := slog.With("session_id", s.ID())
	for {
		typ, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debug("WebSocket closed by client")
			} else if ctx.Err() == nil {
				log.Warn("WebSocket read error", "error", err)
			}
			return
		}

		if typ == websocket.MessageBinary {
			clip := message
			if h.rejectOversized(log, emitter, clip) {
				continue
			}
			h.dispatch(log, "audio", func(ctx context.Context) error { return h.pipeline.Audio(ctx, s, clip) })
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warn("Malformed WebSocket message", "error", err)
			continue
		}

		switch msg.Type {
		case "start", "stop":
			log.Info("Client recording event", "event", msg.Type)
		case "submit":
			req := domain.SetupRequest{
				Resume:         msg.Resume,
				JobDescription: msg.JobDescription,
				Voice:          msg.voice(),
			}
			h.dispatch(log, "submit", func(ctx context.Context) error { return h.pipeline.Submit(ctx, s, req) })
		case "audio":
			clip, err := msg.clip()
			if err != nil {
				log.Warn("Undecodable audio payload", "error", err)
				if err := emitter.TurnError("decode", "Audio payload could not be decoded."); err != nil {
					log.Debug("Failed to send turn-error", "error", err)
				}
				continue
			}
			if h.rejectOversized(log, emitter, clip) {
				continue
			}
			h.dispatch(log, "audio", func(ctx context.Context) error { return h.pipeline.Audio(ctx, s, clip) })
		case "end", "end-interview":
			h.dispatch(log, "end", func(ctx context.Context) error { return h.pipeline.End(ctx, s) })
		case "ping":
			if err := emitter.pong(); err != nil {
				log.Debug("Failed to send pong", "error", err)
			}
		default:
			log.Debug("Unknown WebSocket message type", "type", msg.Type)
		}
	}
}

// rejectOversized reports a clip larger than maxAudioBytes to the client.
// The read limit only bounds whole frames, which is looser than the clip bound.
func (h *WebSocketHandler) rejectOversized(log *slog.Logger, emitter *wsEmitter, clip []byte) bool {
	if h.maxAudioBytes <= 0 || int64(len(clip)) <= h.maxAudioBytes {
		return false
	}
	log.Warn("Audio clip too large", "size", len(clip), "max", h.maxAudioBytes)
	if err := emitter.TurnError("size", "Audio clip exceeds the maximum allowed size."); err != nil {
		log.Debug("Failed to send turn-error", "error", err)
	}
	return true
}

// dispatch runs one pipeline event on its own goroutine. The run is detached
// from the connection so a disconnect does not abort remote calls midway.
func (h *WebSocketHandler) dispatch(log *slog.Logger, event string, run func(context.Context) error) {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		log.Warn("Dropping pipeline event during shutdown", "event", event)
		return
	}
	h.tasks.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.tasks.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("Pipeline event panicked", "event", event, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			}
		}()
		if err := run(context.WithoutCancel(h.shutdown)); err != nil {
			log.Debug("Pipeline event finished with error", "event", event, "error", err)
		}
	}()
}

// Drain stops reading from live connections and waits for in-flight
// pipeline events to finish or for ctx to expire.
func (h *WebSocketHandler) Drain(ctx context.Context) error {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()
	h.stop()

	done := make(chan struct{})
	go func() {
		h.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Interview pipeline drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain interview pipeline: %w", ctx.Err())
	}
}
