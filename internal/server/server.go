// Package server owns the chat service's transport edge: the TCP (optionally
// TLS) accept loop and the per-connection dispatch of protocol frames onto
// the hub and the persistence services.
package server

import (
	"context"
	"crypto/tls"
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avelinof/chatrelay/internal/auth"
	"github.com/avelinof/chatrelay/internal/chat"
	"github.com/avelinof/chatrelay/internal/config"
	"github.com/avelinof/chatrelay/internal/services"
)

// Server accepts chat connections and drives one dispatcher per session.
type Server struct {
	cfg      *config.Config
	hub      *chat.Hub
	users    services.UserServiceProvider
	messages services.MessageServiceProvider
	files    services.FileServiceProvider
	tokens   *auth.TokenManager

	mu   sync.Mutex
	ln   net.Listener
	quit chan struct{}
	wg   sync.WaitGroup
}

// New creates a Server wired to the shared hub and services.
func New(cfg *config.Config, hub *chat.Hub, users services.UserServiceProvider, messages services.MessageServiceProvider, files services.FileServiceProvider, tokens *auth.TokenManager) *Server {
	return &Server{
		cfg:      cfg,
		hub:      hub,
		users:    users,
		messages: messages,
		files:    files,
		tokens:   tokens,
		quit:     make(chan struct{}),
	}
}

// ListenAndServe binds the configured address and accepts connections until
// Shutdown. With both TLS_CERT and TLS_KEY configured the listener is
// wrapped in TLS; the protocol logic is unaware of the difference.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}

	if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
		if err != nil {
			ln.Close()
			return err
		}
		ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}})
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("Chat listener starting with TLS")
	} else {
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("Chat listener starting without TLS")
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				return err
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.HandleConn(conn, conn.RemoteAddr().String())
		}()
	}
}

// Addr returns the bound listener address, or nil before ListenAndServe.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes every live session, and waits for the
// connection goroutines to drain or the context to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.quit)

	s.mu.Lock()
	if s.ln != nil {
		s.ln.Close()
	}
	s.mu.Unlock()

	s.hub.CloseAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
