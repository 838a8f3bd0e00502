// Package gateway carries command records over WebSocket. Each text frame is
// one record and each reply is one frame.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/kernel"
	"github.com/WoodPyle/wayneos-vm-app/internal/metrics"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// RecordHandler turns one raw record into a response
type RecordHandler interface {
	HandleRecord(ctx context.Context, data []byte) kernel.Response
}

// Config holds server configuration
type Config struct {
	Host string
	// Port 0 picks a free port
	Port              int
	RequestsPerSecond float64
	Burst             int
	MaxMessageBytes   int64
	Handler           RecordHandler
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
}

// Server is the WebSocket gateway
type Server struct {
	addr              string
	requestsPerSecond float64
	burst             int
	maxMessageBytes   int64
	handler           RecordHandler
	metrics           *metrics.Metrics
	logger            zerolog.Logger
	upgrader          websocket.Upgrader
	clients           *ClientRegistry
	now               func() time.Time

	server   *http.Server
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	connWG         sync.WaitGroup
}

// NewServer creates a new gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("record handler is required")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		requestsPerSecond: cfg.RequestsPerSecond,
		burst:             cfg.Burst,
		maxMessageBytes:   cfg.MaxMessageBytes,
		handler:           cfg.Handler,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger.With().Str("component", "gateway").Logger(),
		clients:           NewClientRegistry(),
		now:               time.Now,
		ctx:               ctx,
		cancel:            cancel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}, nil
}

// Handler returns the HTTP handler serving /ws, /healthz and, when metrics
// are configured, /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("Starting gateway server")

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Addr returns the listening address once started, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Clients returns the connected client registry
func (s *Server) Clients() *ClientRegistry {
	return s.clients
}

// Stop closes every connection and shuts the HTTP server down
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")
	s.cancel()

	for _, client := range s.clients.GetAll() {
		_ = client.Conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			s.now().Add(time.Second),
		)
		client.Conn.Close()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.connWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, connections still open")
		return ctx.Err()
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.clients.Count(),
	})
}

// handleWebSocket upgrades the connection and serves it until it closes
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.connWG.Add(1)
	s.shutdownMu.RUnlock()
	defer s.connWG.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, err := gonanoid.New()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate client id")
		conn.Close()
		return
	}

	now := s.now()
	client := &Client{
		ID:           clientID,
		Conn:         conn,
		ConnectedAt:  now,
		LastActivity: now,
		IPAddress:    r.RemoteAddr,
		RateLimiter:  NewClientRateLimiter(s.requestsPerSecond, s.burst),
	}
	if s.maxMessageBytes > 0 {
		conn.SetReadLimit(s.maxMessageBytes)
	}

	if s.metrics != nil {
		s.metrics.GatewayConnections.Inc()
	}
	s.clients.Add(client)

	s.logger.Info().
		Str("clientId", clientID).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	s.handleClient(client)
}

// handleClient answers the frames of one client in arrival order
func (s *Server) handleClient(client *Client) {
	defer func() {
		client.Conn.Close()
		if s.metrics != nil {
			s.metrics.GatewayConnections.Dec()
		}
		s.clients.Remove(client.ID)
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			return
		}

		s.clients.UpdateActivity(client.ID, s.now())

		if err := client.Conn.WriteJSON(s.handleMessage(client, message)); err != nil {
			s.logger.Error().
				Err(err).
				Str("clientId", client.ID).
				Msg("Failed to send response")
			return
		}
	}
}

func (s *Server) handleMessage(client *Client, message []byte) kernel.Response {
	if allowed, reason := client.RateLimiter.CheckRequestAllowed(); !allowed {
		if s.metrics != nil {
			s.metrics.GatewayRateLimited.Inc()
		}
		s.logger.Warn().Str("clientId", client.ID).Msg("Frame rejected by rate limiter")
		return kernel.ErrorResponse(reason)
	}

	return s.handler.HandleRecord(s.ctx, message)
}
