package app

import (
	"context"
	"errors"
	"sync"

	"github.com/datallboy/gonews/internal/infra/logger"
	"github.com/datallboy/gonews/internal/news"
	"github.com/datallboy/gonews/internal/nntp"
)

// Dialer opens a fresh, authenticated server connection.
type Dialer func(ctx context.Context) (*news.Server, error)

// Session owns a single news.Server and runs one operation on it at a time.
// The connection is opened on first use and reopened after it is lost.
type Session struct {
	mu     sync.Mutex
	dial   Dialer
	server *news.Server
	log    *logger.Logger
}

func NewSession(dial Dialer, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{dial: dial, log: log}
}

// Do runs fn with exclusive use of the server. Groups obtained inside fn
// must not be used after it returns.
func (s *Session) Do(ctx context.Context, fn func(*news.Server) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		srv, err := s.dial(ctx)
		if err != nil {
			return err
		}
		s.server = srv
	}

	err := fn(s.server)
	if connectionLost(err) {
		s.log.Warn("Dropping connection to %s: %v", s.server, err)
		s.server.Quit()
		s.server = nil
	}
	return err
}

// Close says goodbye to the server if a connection is open.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Quit()
	s.server = nil
	return err
}

// connectionLost reports whether err leaves the connection unusable.
// Status replies, malformed payloads and arguments rejected before sending
// keep the stream in sync; transport failures and 400 (service
// discontinued) do not.
func connectionLost(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, news.ErrProtocol),
		errors.Is(err, news.ErrInvalidTimestamp),
		errors.Is(err, news.ErrInvalidArgument),
		errors.Is(err, nntp.ErrInvalidCommand),
		errors.Is(err, news.ErrNoBody),
		errors.Is(err, news.ErrNoHeaders):
		return false
	}

	var nerr *nntp.Error
	if errors.As(err, &nerr) {
		return nerr.Code == 400
	}
	return true
}
