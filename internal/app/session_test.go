package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/datallboy/gonews/internal/news"
	"github.com/datallboy/gonews/internal/nntp"
)

// stubTransport answers every command with the same status line.
type stubTransport struct {
	mu   sync.Mutex
	err  error
	quit int
}

func (t *stubTransport) Welcome() string { return "200 stub ready" }

func (t *stubTransport) ShortCommand(cmd string) (string, error) {
	return "211 1 1 1 misc.test", t.err
}

func (t *stubTransport) LongCommand(cmd string) (string, []string, error) {
	return "215 ok", nil, t.err
}

func (t *stubTransport) Quit() (string, error) {
	t.mu.Lock()
	t.quit++
	t.mu.Unlock()
	return "205 bye", nil
}

func countingDialer(transports ...*stubTransport) (Dialer, *int) {
	dials := 0
	return func(ctx context.Context) (*news.Server, error) {
		t := transports[dials]
		dials++
		return news.NewServer("news.example.com", 119, t, nil), nil
	}, &dials
}

func TestSessionReusesConnection(t *testing.T) {
	dial, dials := countingDialer(&stubTransport{})
	s := NewSession(dial, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.Do(ctx, func(srv *news.Server) error {
			_, err := srv.Group("misc.test")
			return err
		})
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if *dials != 1 {
		t.Errorf("dialed %d times, want 1", *dials)
	}
}

func TestSessionReconnectsAfterTransportFailure(t *testing.T) {
	broken := &stubTransport{err: io.ErrUnexpectedEOF}
	healthy := &stubTransport{}
	dial, dials := countingDialer(broken, healthy)
	s := NewSession(dial, nil)
	ctx := context.Background()

	group := func(srv *news.Server) error {
		_, err := srv.Group("misc.test")
		return err
	}

	if err := s.Do(ctx, group); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("first Do error = %v", err)
	}
	if broken.quit != 1 {
		t.Errorf("broken connection not released")
	}
	if err := s.Do(ctx, group); err != nil {
		t.Fatalf("second Do: %v", err)
	}
	if *dials != 2 {
		t.Errorf("dialed %d times, want 2", *dials)
	}
}

func TestSessionKeepsConnectionOnStatusError(t *testing.T) {
	tr := &stubTransport{err: &nntp.Error{Code: 411, Msg: "no such group"}}
	dial, dials := countingDialer(tr, tr)
	s := NewSession(dial, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := s.Do(ctx, func(srv *news.Server) error {
			_, err := srv.Group("nope")
			return err
		})
		if !errors.Is(err, nntp.ErrNoSuchGroup) {
			t.Fatalf("Do error = %v", err)
		}
	}
	if *dials != 1 {
		t.Errorf("dialed %d times, want 1", *dials)
	}
}

func TestSessionDialError(t *testing.T) {
	s := NewSession(func(ctx context.Context) (*news.Server, error) {
		return nil, news.ErrConnection
	}, nil)

	called := false
	err := s.Do(context.Background(), func(*news.Server) error {
		called = true
		return nil
	})
	if !errors.Is(err, news.ErrConnection) || called {
		t.Errorf("err = %v, called = %v", err, called)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close without connection: %v", err)
	}
}

func TestSessionClose(t *testing.T) {
	tr := &stubTransport{}
	dial, _ := countingDialer(tr)
	s := NewSession(dial, nil)

	if err := s.Do(context.Background(), func(*news.Server) error { return nil }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tr.quit != 1 {
		t.Errorf("quit called %d times", tr.quit)
	}
}

func TestSessionKeepsConnectionOnRejectedArgument(t *testing.T) {
	tr := &stubTransport{}
	dial, dials := countingDialer(tr, tr)
	s := NewSession(dial, nil)
	ctx := context.Background()

	err := s.Do(ctx, func(srv *news.Server) error {
		_, err := srv.Group("misc.test\r\nQUIT")
		return err
	})
	if !errors.Is(err, news.ErrInvalidArgument) {
		t.Fatalf("Do error = %v", err)
	}
	if tr.quit != 0 {
		t.Errorf("connection released after a rejected argument")
	}

	if err := s.Do(ctx, func(srv *news.Server) error {
		_, err := srv.Group("misc.test")
		return err
	}); err != nil {
		t.Fatalf("second Do: %v", err)
	}
	if *dials != 1 {
		t.Errorf("dialed %d times, want 1", *dials)
	}
}
