package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/store"
)

// Server runs the proxy handler on a listener and owns the session
// lifecycle: shutdown finalizes pending calls, ends the session and
// saves the artifact.
type Server struct {
	httpServer *http.Server
	engine     *capture.Engine
	sessions   store.Store
	log        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server for the handler on the given address.
func NewServer(addr string, handler *Handler, engine *capture.Engine, sessions store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
			// No write timeout: SSE streams stay open indefinitely.
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:   engine,
		sessions: sessions,
		log:      log,
	}
}

// Start binds the listener and serves until Shutdown. It blocks.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("proxy listening",
		"addr", ln.Addr().String(),
		"mode", s.engine.Session().Mode,
		"sessionId", s.engine.Session().ID)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Shutdown stops accepting connections, drains in-flight requests,
// finalizes every pending call and saves the session. The context
// bounds the drain; pending calls are finalized and the session saved
// even when the drain times out.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down proxy")

	shutdownErr := s.httpServer.Shutdown(ctx)

	if pending := s.engine.PendingCount(); pending > 0 {
		s.log.Warn("finalizing calls still pending at shutdown", "count", pending)
	}
	s.engine.FinalizeAll()

	session := s.engine.Session()
	session.End()

	if s.sessions != nil {
		path, err := s.sessions.Save(session.Export())
		if err != nil {
			s.log.Error("saving session failed", "sessionId", session.ID, "error", err)
			if shutdownErr == nil {
				shutdownErr = err
			}
		} else {
			s.log.Info("session saved", "sessionId", session.ID, "path", path,
				"calls", session.CallCount())
		}
	}

	return shutdownErr
}
