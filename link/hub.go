package link

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cjy7811/rm-vision/internal/options"
	"github.com/cjy7811/rm-vision/packet"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 2 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

type hubConfig struct {
	logger   *slog.Logger
	statusFn func() any
}

// HubOption configures a PreviewHub.
type HubOption = options.Option[*hubConfig]

// WithHubLogger sets the hub logger.
func WithHubLogger(l *slog.Logger) HubOption {
	return options.NoError(func(c *hubConfig) {
		c.logger = l
	})
}

// WithStatus sets the function whose JSON result is served at /status.
func WithStatus(fn func() any) HubOption {
	return options.NoError(func(c *hubConfig) {
		c.statusFn = fn
	})
}

// PreviewHub broadcasts every packet as a binary websocket message.
//
// Endpoints: /ws upgrades to a websocket, /healthz reports liveness and
// /status serves the status function's JSON plus the client count.
type PreviewHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	statusFn func() any

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewPreviewHub creates a hub with no clients.
func NewPreviewHub(opts ...HubOption) (*PreviewHub, error) {
	cfg := &hubConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &PreviewHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:   cfg.logger,
		statusFn: cfg.statusFn,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}, nil
}

// Handler returns the hub's HTTP routes.
func (h *PreviewHub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/status", h.handleStatus)

	return mux
}

// Serve listens on addr until ctx is done.
func (h *PreviewHub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.closeAll()
	}()

	h.logger.Info("link: preview hub listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Send broadcasts p to every connected client. Clients that fail to keep up
// are dropped; the hub itself never fails a send.
func (h *PreviewHub) Send(_ context.Context, p packet.Packet) error {
	var stale []*websocket.Conn

	h.mu.Lock()
	for conn, writeMu := range h.clients {
		if err := writeMessage(conn, writeMu, websocket.BinaryMessage, p[:]); err != nil {
			stale = append(stale, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range stale {
		h.logger.Debug("link: dropping preview client", "remote", conn.RemoteAddr().String())
		h.removeClient(conn)
	}

	return nil
}

// ClientCount returns the number of connected clients.
func (h *PreviewHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *PreviewHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = writeMu
	h.mu.Unlock()

	go func() {
		done := make(chan struct{})
		defer close(done)
		defer h.removeClient(conn)

		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()

		// Clients only send control frames; reading drives the pong handler
		// and detects disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *PreviewHub) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *PreviewHub) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	payload := map[string]any{"ws_clients": h.ClientCount()}
	if h.statusFn != nil {
		payload["pipeline"] = h.statusFn()
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *PreviewHub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *PreviewHub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.removeClient(conn)
	}
}

func writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	return conn.WriteMessage(messageType, payload)
}
