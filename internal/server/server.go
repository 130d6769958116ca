// Package server exposes the tool dispatcher over HTTP and MCP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gusto-mcp/internal/tools"
)

// Config contains the HTTP surface settings.
type Config struct {
	// Token, when set, is required as a bearer token on every /mcp route.
	Token   string
	Name    string
	Version string
	Logger  *slog.Logger
}

// Server contains the configured router and the dispatcher behind it.
type Server struct {
	cfg        Config
	router     *chi.Mux
	dispatcher *tools.Dispatcher
	mcp        *mcp.Server
	logger     *slog.Logger
}

// New constructs a Server with middleware and routes configured.
func New(cfg Config, d *tools.Dispatcher) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		dispatcher: d,
		mcp:        NewMCPServer(d, cfg.Name, cfg.Version),
		logger:     cfg.Logger,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	stream := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		// The streamable transport keeps connections open, so only the
		// plain JSON routes get a deadline.
		r.With(middleware.Timeout(60*time.Second)).Get("/tools", s.handleListTools)
		r.With(middleware.Timeout(60*time.Second)).Post("/call", s.handleCall)
		r.Handle("/stream", stream)
	})

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

// MCP returns the MCP server bound to the same dispatcher.
func (s *Server) MCP() *mcp.Server { return s.mcp }

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"server":  s.cfg.Name,
		"version": s.cfg.Version,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.dispatcher.Tools()
	out := make([]Tool, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, toolFromDescriptor(d))
	}
	writeJSON(w, http.StatusOK, ListToolsResponse{Tools: out})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	res := s.dispatcher.Invoke(r.Context(), req.Name, req.Args)
	writeJSON(w, http.StatusOK, callResponse(res))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
