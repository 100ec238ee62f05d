// Package gateway exposes the MCP server over a TCP socket so that more
// than one client can reach the same sandbox. Each connection gets its own
// serving loop; the tool registry itself is stateless across calls.
package gateway

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cagefs/cagefs/pkg/mcp"
)

// Session tracks a single client connection.
type Session struct {
	ID         string
	RemoteAddr string
	StartedAt  time.Time
}

type Server struct {
	addr        string
	mcpServer   *mcp.Server
	authorizer  Authorizer
	maxSessions int
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewServer(addr string, mcpServer *mcp.Server, authorizer Authorizer) *Server {
	if authorizer == nil {
		authorizer = NoopAuthorizer{}
	}
	return &Server{
		addr:       addr,
		mcpServer:  mcpServer,
		authorizer: authorizer,
		sessions:   make(map[string]*Session),
	}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) SetMaxSessions(n int) {
	s.maxSessions = n
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener accepts connections from an existing listener. The listener
// is closed when ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	defer listener.Close()
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	s.logInfo("gateway_listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.logError("accept_failed", "error", err)
			return err
		}

		remote := conn.RemoteAddr().String()
		if err := s.authorizer.Allow(ctx, remote); err != nil {
			s.logWarn("connection_refused", "remote", remote, "error", err)
			_ = conn.Close()
			continue
		}
		if s.maxSessions > 0 && s.sessionCount() >= s.maxSessions {
			s.logWarn("session_limit_reached", "remote", remote, "limit", s.maxSessions)
			_ = conn.Close()
			continue
		}

		session := &Session{
			ID:         uuid.NewString(),
			RemoteAddr: remote,
			StartedAt:  time.Now(),
		}
		s.addSession(session)
		s.logInfo("session_started", "session", session.ID, "remote", remote)

		go func(c net.Conn, sess *Session) {
			defer func() {
				_ = c.Close()
				s.removeSession(sess.ID)
				s.logInfo("session_closed", "session", sess.ID)
			}()
			if err := s.mcpServer.Serve(c, c); err != nil {
				s.logWarn("session_failed", "session", sess.ID, "error", err)
			}
		}(conn, session)
	}
}

func (s *Server) addSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
