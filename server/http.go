// Package server exposes the tool catalog over plain HTTP for clients that
// do not speak stdio MCP. Tool outcomes keep the same shape as on the MCP
// transport: failures are text inside a 200 response.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cagefs/cagefs/pkg/mcp"
	"github.com/cagefs/cagefs/pkg/tool"
)

// Config carries the HTTP listener settings.
type Config struct {
	Address string
	Token   string
}

type Server struct {
	cfg      Config
	registry *tool.Registry
	info     mcp.ServerInfo
	router   *chi.Mux
}

// CallRequest is the body of POST /mcp/call.
type CallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// New constructs a Server with middleware and routes configured.
func New(cfg Config, registry *tool.Registry, info mcp.ServerInfo) *Server {
	s := &Server{cfg: cfg, registry: registry, info: info, router: chi.NewRouter()}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/tools", s.handleTools)
		r.Post("/call", s.handleCall)
	})
	return s
}

// Router exposes the root HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe blocks serving on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

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
		"name":    s.info.Name,
		"version": s.info.Version,
	})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": mcp.Catalog(s.registry)})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tool name is required"})
		return
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	if target, ok := s.registry.Get(req.Name); ok {
		// The single argument-shape fault surfaces at transport level,
		// mirroring -32602 on the stdio side.
		if key, missing := tool.MissingArgument(target, req.Arguments); missing {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("missing required argument: %s", key),
			})
			return
		}
	}

	res := s.registry.Invoke(r.Context(), req.Name, req.Arguments)
	writeJSON(w, http.StatusOK, mcp.ToolResult{
		Content: []mcp.ToolContent{{Type: "text", Text: res.Text}},
		IsError: res.IsError,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
