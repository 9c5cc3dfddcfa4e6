package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/logging"
)

// ServerOptions configures the HTTP front end.
type ServerOptions struct {
	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server exposes the gateway over HTTP:
//
//	GET  /health        -> {"status":"ok"}
//	POST /invoke        -> buffered turn, {"response": "..."}
//	POST /invoke/stream -> incremental turn as Server-Sent Events
//
// Failures map onto the error taxonomy: invalid requests are 400,
// persistence failures are 503 (retryable), everything else is 500. Error
// bodies are {"detail": "..."} with messages safe to display.
type Server struct {
	gateway *Gateway
	logger  logging.Logger
	router  chi.Router
}

// NewServer builds the HTTP layer over a gateway.
func NewServer(gw *Gateway, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{gateway: gw, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Post("/invoke", s.handleInvoke)
	r.Post("/invoke/stream", s.handleInvokeStream)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInvoke is the synchronous API path: the turn runs to a terminal
// state and the full ordered text is returned in one body.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.InvalidRequestf("malformed payload: %v", err))
		return
	}

	// The turn mutates durable state; a client disconnect must not abort the
	// node in flight. The turn runs on a detached context and checkpoints
	// normally even when the response can no longer be delivered.
	result, err := s.gateway.InvokeSync(context.WithoutCancel(r.Context()), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":  result.Response,
		"thread_id": result.ThreadID,
		"status":    result.Status.String(),
	})
}

// handleInvokeStream is the incremental UI path: chunks are relayed as
// Server-Sent Events while the turn runs. A disconnecting client abandons
// delivery without interrupting the turn.
func (s *Server) handleInvokeStream(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, core.InvalidRequestf("malformed payload: %v", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	// The request context only signals the disconnect below; the turn itself
	// runs detached so the node in flight completes and checkpoints.
	turn, err := s.gateway.Invoke(context.WithoutCancel(r.Context()), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientGone := r.Context().Done()
	for {
		select {
		case <-clientGone:
			turn.Cancel()
			// Drain so the producer is never blocked on a dead consumer.
			for range turn.Chunks() {
			}
			_, _ = turn.Wait()
			return
		case chunk, open := <-turn.Chunks():
			if !open {
				status, err := turn.Wait()
				if err != nil {
					writeSSE(w, "error", map[string]any{"detail": err.Error()})
					flusher.Flush()
					return
				}
				writeSSE(w, "end", map[string]any{
					"thread_id": turn.ThreadID(),
					"status":    status.String(),
				})
				flusher.Flush()
				return
			}
			writeSSE(w, "chunk", chunk)
			flusher.Flush()
		}
	}
}

// writeError maps an error onto the taxonomy's HTTP status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var pe *core.PersistenceError
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.As(err, &pe):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

// ListenAndServe runs the server on addr until the underlying listener
// fails. Timeouts cover only headers; response write deadlines would
// truncate long-running streams.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
