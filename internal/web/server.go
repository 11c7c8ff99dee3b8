// pattern: Imperative Shell

package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/sidebar"
)

// Coordinator is the slice of sidebar.Coordinator the API serves.
type Coordinator interface {
	State() sidebar.State
	Select(id string)
	Subscribe(fn func(sidebar.State)) func()
}

// Projects attaches and detaches projects.
type Projects interface {
	Attach(ctx context.Context, path, name string) (project.AttachedProject, error)
	Detach(ctx context.Context, root string) error
}

// Server is the web server that serves the JSON API and change streams.
type Server struct {
	httpServer  *http.Server
	coordinator Coordinator
	projects    Projects
	logger      *logging.ScopedLogger
	addr        string
	listener    net.Listener
	events      *eventBroker
	unsubscribe func()
}

// Config holds web server configuration.
type Config struct {
	Bind string
	Port int
}

// New creates a web server. Every coordinator state change is fanned out to
// SSE and websocket clients. logProvider must implement
// logging.LoggerProvider (both *logging.Manager and *logging.TestLogManager
// satisfy this interface).
func New(cfg Config, coordinator Coordinator, projects Projects, logProvider logging.LoggerProvider) *Server {
	logger := logProvider.For("web")
	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)

	mux := http.NewServeMux()
	events := newEventBroker()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		coordinator: coordinator,
		projects:    projects,
		logger:      logger,
		addr:        addr,
		events:      events,
		unsubscribe: func() {},
	}
	if coordinator != nil {
		s.unsubscribe = coordinator.Subscribe(func(sidebar.State) { events.Notify() })
	}

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/ws", s.handleStream)
	mux.HandleFunc("GET /api/tree", s.handleGetTree)
	mux.HandleFunc("GET /api/selection", s.handleGetSelection)
	mux.HandleFunc("POST /api/selection", s.handleSetSelection)
	mux.HandleFunc("POST /api/projects", s.handleAttachProject)
	mux.HandleFunc("DELETE /api/projects", s.handleDetachProject)

	return s
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the server to its configured address and returns the listener.
// Call Serve() after Listen() to start accepting connections.
// This two-step approach allows callers to obtain the actual bound address
// (useful for ephemeral port 0) before the server blocks on Serve().
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("web server listen: %w", err)
	}
	s.listener = ln
	return ln, nil
}

// Serve accepts connections on the listener. Blocks until the server stops.
// Must call Listen() first.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("web server started", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Addr returns the address the server is listening on.
// Only valid after Listen() has been called.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops the change fan-out and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("web server shutting down")
	s.unsubscribe()
	s.events.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
