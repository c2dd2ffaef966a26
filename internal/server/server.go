package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/quickpad-go/internal/binder"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/model"
	"github.com/user/quickpad-go/internal/store"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	maxRequestBody = 64 * 1024
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// VideoListResponse is the body of list responses and stream frames
type VideoListResponse struct {
	Videos []model.Video `json:"videos"`
}

// SaveRequest is the body of POST /api/videos
type SaveRequest struct {
	URI     string `json:"uri"`
	Caption string `json:"caption"`
}

// ErrorResponse carries a user-facing message
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server handles HTTP requests for the video list, health checks and metrics
type Server struct {
	store     store.Store
	binder    *binder.Binder
	cfg       *config.ServerConfig
	router    *mux.Router
	server    *http.Server
	limiter   *rate.Limiter
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(s store.Store, b *binder.Binder, cfg *config.ServerConfig) *Server {
	burst := int(cfg.SaveRateLimit)
	if burst < 1 {
		burst = 1
	}

	srv := &Server{
		store:   s,
		binder:  b,
		cfg:     cfg,
		router:  mux.NewRouter(),
		limiter: rate.NewLimiter(rate.Limit(cfg.SaveRateLimit), burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", s.handleListVideos).Methods(http.MethodGet)
	api.HandleFunc("/videos", s.handleSaveVideo).Methods(http.MethodPost)
	api.HandleFunc("/videos/stream", s.handleStream).Methods(http.MethodGet)
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the configured port
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.SaveTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth returns JSON with status, database connectivity, and uptime
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	uptime := time.Since(s.startTime).Round(time.Second).String()

	status := "healthy"
	code := http.StatusOK
	if dbStatus != "healthy" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   uptime,
	})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SaveTimeout)
	defer cancel()

	videos, err := s.binder.Snapshot(ctx)
	if err != nil {
		RecordError("list")
		log.Error().Err(err).Msg("Failed to read video list")
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Video list unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, VideoListResponse{Videos: videos})
}

// handleSaveVideo validates the request, saves through the binder and waits
// for the save to complete before answering.
func (s *Server) handleSaveVideo(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		RecordSave(SaveStatusLimited)
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many saves, try again shortly"})
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		RecordSave(SaveStatusInvalid)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Malformed request body"})
		return
	}

	if err := binder.ValidateInput(req.URI, req.Caption); err != nil {
		RecordSave(SaveStatusInvalid)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Pick a video and add a caption"})
		return
	}

	done := make(chan error, 1)
	s.binder.AddVideo(req.URI, req.Caption, func(err error) {
		done <- err
	})

	timer := time.NewTimer(s.cfg.SaveTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			RecordSave(SaveStatusFailed)
			RecordError(errorType(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Could not save the video"})
			return
		}
		RecordSave(SaveStatusSaved)
		writeJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
	case <-timer.C:
		// The save keeps running; the client just stops waiting for it.
		RecordError("save_timeout")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
	case <-r.Context().Done():
		// The save still completes; only the response is lost.
		RecordSave(SaveStatusAbandoned)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, store.ErrStorage):
		return "storage"
	case errors.Is(err, binder.ErrClosed):
		return "closed"
	default:
		return "save"
	}
}

// handleStream upgrades to a websocket and pushes every list update
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade stream connection")
		return
	}

	id := uuid.New().String()
	log.Info().Str("conn", id).Msg("Stream observer connected")

	videos, unsubscribe := s.binder.Subscribe()
	SetObservers(s.binder.Observers())

	defer func() {
		unsubscribe()
		SetObservers(s.binder.Observers())
		conn.Close()
		log.Info().Str("conn", id).Msg("Stream observer disconnected")
	}()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-videos:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(VideoListResponse{Videos: snapshot}); err != nil {
				log.Debug().Err(err).Str("conn", id).Msg("Stream write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// readPump drains client frames so pongs and close frames are processed
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Stream read error")
			}
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
