package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/crypto/acme/autocert"

	"nanorpc/rpclog"
)

// Server routes incoming POSTs by URL path to a registered Executor, the
// way the reference implementation's session::handle_request dispatches
// on req->target(). One Server can host several procedure groups at
// different paths; nanorpc.Server.Dispatch is the usual Executor, but any
// func([]byte) ([]byte, error) will do.
type Server struct {
	mu        sync.RWMutex
	executors map[string]Executor

	onError  rpclog.Handler
	http     *http.Server
	autocert *autocert.Manager
}

// ServerOption configures a Server at construction.
type ServerOption func(*Server)

// WithServerErrorHandler installs the sink used for per-request
// diagnostics (unknown path, empty body, executor failure). The default
// logs to stderr via rpclog.
func WithServerErrorHandler(h rpclog.Handler) ServerOption {
	return func(s *Server) { s.onError = h }
}

// NewServer builds a Server listening on address (host:port). Call Handle
// to register an Executor for a path, then Run to start accepting.
func NewServer(address string, opts ...ServerOption) *Server {
	s := &Server{
		executors: make(map[string]Executor),
		http: &http.Server{
			Addr: address,
		},
	}
	s.http.Handler = s
	for _, opt := range opts {
		opt(s)
	}
	if s.onError == nil {
		s.onError = rpclog.Default()
	}
	return s
}

// Handle registers an Executor to answer requests at path. Registering the
// same path twice replaces the previous executor, mirroring the
// executor_map's plain map semantics in the reference implementation.
func (s *Server) Handle(path string, exec Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[path] = exec
}

// Run starts accepting connections and blocks until the server is shut
// down or fails to start. It corresponds to detail::server::run in the
// reference implementation, minus the explicit worker-thread pool: Go's
// net/http server already dispatches each connection onto its own
// goroutine.
func (s *Server) Run() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections and waits for in-flight
// requests to finish or ctx to expire, matching spec §4.6's graceful-stop
// requirement.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// ServeHTTP implements http.Handler: look up the executor for the
// request's path, run it against the request body, and reply with the
// status codes the reference implementation's session::handle_request
// uses — 404 for an unknown path, 500 for a registered-but-nil executor,
// 400 for an empty body, 500 if the executor itself fails. The nil-executor
// check runs before the body is even read, matching handle_request's own
// check order.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Server", serverName)
	w.Header().Set("Content-Type", contentType)

	reqID := uuid.NewV4()

	target := req.URL.Path
	if target == "" || target == "/" {
		s.reply(w, http.StatusNotFound, fmt.Sprintf("The resource %q was not found.", target))
		return
	}

	s.mu.RLock()
	exec, ok := s.executors[target]
	s.mu.RUnlock()
	if !ok {
		s.onError(fmt.Errorf("nanorpc/transport/http: request %s: resource %q not found", reqID, target))
		s.reply(w, http.StatusNotFound, fmt.Sprintf("The resource %q was not found.", target))
		return
	}

	if exec == nil {
		s.onError(fmt.Errorf("nanorpc/transport/http: request %s: empty executor for %q", reqID, target))
		s.reply(w, http.StatusInternalServerError, "Empty exicutor.")
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		s.onError(fmt.Errorf("nanorpc/transport/http: request %s: reading request body: %w", reqID, err))
		s.reply(w, http.StatusBadRequest, "Failed to read request content.")
		return
	}
	if len(body) == 0 {
		s.onError(fmt.Errorf("nanorpc/transport/http: request %s: empty request to %q", reqID, target))
		s.reply(w, http.StatusBadRequest, "No content.")
		return
	}

	resp, err := exec(body)
	if err != nil {
		s.onError(fmt.Errorf("nanorpc/transport/http: request %s: executor for %q failed: %w", reqID, target, err))
		s.reply(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %q", err.Error()))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func (s *Server) reply(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
