// Package server exposes session provisioning over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koscakluka/vocablive/core/rooms"
	"github.com/koscakluka/vocablive/core/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const Version = "0.1.0"

const maxRequestBody = 1 << 20

// Starter starts practice sessions.
type Starter interface {
	Start(ctx context.Context, req session.StartRequest) (session.StartResult, error)
}

type Server struct {
	starter     Starter
	rooms       http.Handler
	corsOrigins []string
}

type Option func(*Server)

// WithRoomHandler serves rooms under /rooms/, for providers that host rooms
// in process.
func WithRoomHandler(handler http.Handler) Option {
	return func(s *Server) { s.rooms = handler }
}

func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

func New(starter Starter, opts ...Option) *Server {
	s := &Server{starter: starter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat/start", s.handleStart)
	mux.HandleFunc("POST /start", s.handleLegacyStart)
	if s.rooms != nil {
		mux.Handle("/rooms/", s.rooms)
	}

	var handler http.Handler = mux
	handler = withCORS(handler, s.corsOrigins)
	handler = withRequestLogging(handler)
	return otelhttp.NewHandler(handler, "vocablive")
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server", "addr", addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

type startRequest struct {
	Vocab   []any  `json:"vocab"`
	Summary string `json:"summary"`
}

type startResponse struct {
	RoomURL string  `json:"room_url"`
	Token   *string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handle start session")
	defer span.End()

	req := decodeStartRequest(r)
	result, err := s.starter.Start(ctx, session.StartRequest{
		Words:   session.WordsFromEntries(req.Vocab),
		Summary: req.Summary,
	})
	if err != nil {
		status, message := errorStatus(err)
		logger.ErrorContext(ctx, "failed to start session", "status", status, "error", err)
		span.RecordError(err)
		writeJSON(w, status, errorResponse{Error: message})
		return
	}

	// Learners join as guests, so no token is handed out.
	writeJSON(w, http.StatusOK, startResponse{RoomURL: result.RoomURL})
}

func (s *Server) handleLegacyStart(w http.ResponseWriter, r *http.Request) {
	logger.WarnContext(r.Context(), "using deprecated /start endpoint, migrate to /chat/start")
	s.handleStart(w, r)
}

// decodeStartRequest reads the optional request body. A missing or invalid
// body starts a session with the default words.
func decodeStartRequest(r *http.Request) startRequest {
	var req startRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil || len(body) == 0 {
		return req
	}
	if err := json.Unmarshal(body, &req); err != nil {
		logger.WarnContext(r.Context(), "ignoring invalid start request body", "error", err)
		return startRequest{}
	}
	return req
}

func errorStatus(err error) (int, string) {
	var providerErr *rooms.ProviderError
	var launchErr *session.LaunchError

	switch {
	case errors.As(err, &providerErr):
		status := providerErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return status, "Daily API Error: " + providerErr.Error()
	case errors.As(err, &launchErr):
		return http.StatusInternalServerError, "Bot Spawn Error: " + launchErr.Err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "vocablive API",
		"version": Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}
