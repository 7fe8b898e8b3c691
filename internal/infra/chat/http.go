package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"miso-assistant/internal/application"
	"miso-assistant/internal/domain"
)

const responseTimeout = 60 * time.Second

// HTTPSource is the browser-facing ingress: a request/response message
// endpoint, a websocket for the chat UI, and a raw audio endpoint for
// voice turns. Turns are queued and consumed by the assistant one at a
// time.
type HTTPSource struct {
	addr        string
	server      *http.Server
	queue       chan *application.Incoming
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
	upgrader    websocket.Upgrader
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		queue:       make(chan *application.Incoming, 10),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
		authToken:   authToken,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The chat UI may be served from a different origin in dev.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	h.mux.HandleFunc("POST /api/message", h.rateLimiter.Middleware(h.withAuth(h.handleMessage)))
	h.mux.HandleFunc("POST /api/audio", h.rateLimiter.Middleware(h.withAuth(h.handleAudio)))
	h.mux.HandleFunc("GET /ws", h.withAuth(h.handleWebsocket))
	// No rate limiting on health check
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: responseTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP chat server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.queue)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) Next(ctx context.Context) (*application.Incoming, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case incoming, ok := <-h.queue:
		if !ok {
			return nil, fmt.Errorf("message queue closed")
		}
		return incoming, nil
	}
}

// Handler exposes the mux for tests.
func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	ID               string                `json:"id"`
	Response         string                `json:"response"`
	IsSpecialCommand bool                  `json:"isSpecialCommand"`
	CommandType      domain.Category       `json:"commandType,omitempty"`
	Data             *domain.CommandResult `json:"data,omitempty"`
}

func toWire(result *application.DispatchResult) *messageResponse {
	return &messageResponse{
		ID:               result.ID,
		Response:         result.Response,
		IsSpecialCommand: result.IsSpecialCommand,
		CommandType:      result.CommandType,
		Data:             result.Result,
	}
}

// handleMessage accepts one text turn and holds the request open until
// the assistant responds or the wait times out.
func (h *HTTPSource) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	respCh := make(chan *application.DispatchResult, 1)
	incoming := &application.Incoming{
		ID:      uuid.NewString(),
		Text:    req.Text,
		Respond: func(result *application.DispatchResult) { respCh <- result },
	}

	select {
	case h.queue <- incoming:
		h.logger.Info("received message via HTTP", "id", incoming.ID)
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	select {
	case result := <-respCh:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toWire(result))
	case <-time.After(responseTimeout):
		http.Error(w, "response timeout", http.StatusGatewayTimeout)
	case <-r.Context().Done():
	}
}

// handleAudio accepts a raw audio turn for transcription. The response
// carries the assistant's reply to the transcribed text.
func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	respCh := make(chan *application.DispatchResult, 1)
	incoming := &application.Incoming{
		ID:      uuid.NewString(),
		Audio:   data,
		Respond: func(result *application.DispatchResult) { respCh <- result },
	}

	select {
	case h.queue <- incoming:
		h.logger.Info("received audio via HTTP", "id", incoming.ID, "bytes", len(data))
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	select {
	case result := <-respCh:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(toWire(result))
	case <-time.After(responseTimeout):
		http.Error(w, "response timeout", http.StatusGatewayTimeout)
	case <-r.Context().Done():
	}
}

// handleWebsocket runs a persistent chat session. Each received frame
// is one turn; replies go back on the same connection.
func (h *HTTPSource) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("websocket client connected", "remote_addr", r.RemoteAddr)

	var writeMu sync.Mutex
	for {
		var req messageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if req.Text == "" {
			continue
		}

		if !h.rateLimiter.Allow(getClientIP(r)) {
			writeMu.Lock()
			conn.WriteJSON(map[string]string{"error": "rate limit exceeded"})
			writeMu.Unlock()
			continue
		}

		incoming := &application.Incoming{
			ID:   uuid.NewString(),
			Text: req.Text,
			Respond: func(result *application.DispatchResult) {
				writeMu.Lock()
				defer writeMu.Unlock()
				if err := conn.WriteJSON(toWire(result)); err != nil {
					h.logger.Warn("websocket write failed", "error", err)
				}
			},
		}

		select {
		case h.queue <- incoming:
			h.logger.Info("received message via websocket", "id", incoming.ID)
		default:
			writeMu.Lock()
			conn.WriteJSON(map[string]string{"error": "queue full, try again"})
			writeMu.Unlock()
		}
	}
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.queue)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":"%s","running":%t,"queue_size":%d}`, status, running, queueSize)
}

// withAuth checks the static ingress token, when one is configured.
func (h *HTTPSource) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != h.authToken {
				h.logger.Warn("unauthorized request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}
