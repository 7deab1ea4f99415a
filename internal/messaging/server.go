package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// MessagesPath is where requests are posted
const MessagesPath = "/api/messages"

// maxRequestBytes bounds a request body
const maxRequestBytes = 64 << 10

// Server exposes a Dispatcher over HTTP
type Server struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewServer creates a new server
func NewServer(dispatcher *Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		dispatcher: dispatcher,
		logger:     logger.With("component", "server"),
	}
}

// Router wires the routes into a chi router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	// Only the CLI and local tools talk to this API. A JSON content type
	// forces a CORS preflight on browsers, which is never answered, and
	// requests carrying a page origin are refused outright.
	r.With(rejectBrowserOrigins, chiMiddleware.AllowContentType("application/json")).
		Post(MessagesPath, s.handleMessage)

	return r
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Failure("invalid request body"))
		return
	}

	// A client that gives up does not abort the work it started
	resp := s.dispatcher.Dispatch(context.WithoutCancel(r.Context()), req)
	if !resp.OK {
		loggerFrom(r, s.logger).Info("request failed", "type", req.Type, "error", resp.Error)
	} else if resp.Message != "" {
		loggerFrom(r, s.logger).Info(resp.Message, "type", req.Type)
	}

	// Failures are answers too, the status only reflects transport problems
	writeJSON(w, http.StatusOK, resp)
}

type loggerKey struct{}

// requestLogger tags every request with a request id
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		logger := s.logger.With("request_id", requestID)

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("X-Request-Id", requestID)

		ctx := r.Context()
		next.ServeHTTP(ww, r.WithContext(contextWithLogger(ctx, logger)))

		logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// rejectBrowserOrigins refuses requests sent by web pages
func rejectBrowserOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != "" {
			writeJSON(w, http.StatusForbidden, Failure("cross-origin requests are not allowed"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
