// Package news is a convenience client for NNTP. A Server owns one
// connection and exposes group listing and selection; a Group retrieves
// articles from the group it names.
//
// A Server is not safe for concurrent use. NNTP allows a single command in
// flight per connection, so callers sharing a Server must serialise every
// operation on it, including those made through its Groups.
package news

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/datallboy/gonews/internal/infra/logger"
	"github.com/datallboy/gonews/internal/nntp"
)

// Transport is the raw command/response layer a Server drives.
// *nntp.Conn is the production implementation.
type Transport interface {
	Welcome() string
	ShortCommand(cmd string) (string, error)
	LongCommand(cmd string) (string, []string, error)
	// Quit sends QUIT and releases the connection.
	Quit() (string, error)
}

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	Logger   *logger.Logger
}

type Server struct {
	Host string
	Port int

	transport    Transport
	lastResponse string
	current      *Group
	log          *logger.Logger
}

// ListOptions selects the LIST variant. Keyword defaults to ACTIVE.
type ListOptions struct {
	Keyword string
	Wildmat string
}

// Listing holds a LIST reply. With a wildmat the lines are parsed into
// Groups; without one they are returned trimmed in Lines, since keywords
// such as OVERVIEW.FMT do not describe groups.
type Listing struct {
	Groups []GroupResult `json:"groups,omitempty"`
	Lines  []string      `json:"lines,omitempty"`
}

// Connect opens and authenticates a connection. Host must be resolved by
// the caller; see config.Load for the environment fallbacks.
func Connect(ctx context.Context, opts Options) (*Server, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("%w: no host given", ErrConnection)
	}
	if opts.Port == 0 {
		opts.Port = nntp.DefaultPort
	}

	conn, err := nntp.Dial(ctx, nntp.Options{
		Host:     opts.Host,
		Port:     opts.Port,
		Username: opts.Username,
		Password: opts.Password,
		Timeout:  opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)), err)
	}

	s := NewServer(opts.Host, opts.Port, conn, opts.Logger)
	s.log.Info("Connected to %s: %s", s.addr(), s.lastResponse)
	return s, nil
}

// NewServer wraps a transport that is already open and greeted.
func NewServer(host string, port int, t Transport, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		Host:         host,
		Port:         port,
		transport:    t,
		lastResponse: t.Welcome(),
		log:          log,
	}
}

// Welcome returns the server greeting.
func (s *Server) Welcome() string {
	if s.transport == nil {
		return ""
	}
	return s.transport.Welcome()
}

// LastResponse is the status line of the most recent command.
func (s *Server) LastResponse() string { return s.lastResponse }

// CurrentGroup is the group selected last, or nil.
func (s *Server) CurrentGroup() *Group { return s.current }

// NewGroups lists groups created since the given time. since may be a
// time.Time, a time.Duration back from now, or a preformatted
// "yyyymmdd hhmmss" string. The command carries the timestamp alone.
func (s *Server) NewGroups(since any) ([]GroupResult, error) {
	ts, err := FormatTimestamp(since)
	if err != nil {
		return nil, err
	}
	if strings.ContainsFunc(ts, unicode.IsControl) {
		return nil, fmt.Errorf("%w: timestamp %q contains control characters", ErrInvalidArgument, ts)
	}

	_, lines, err := s.longCmd("NEWGROUPS " + ts)
	if err != nil {
		return nil, err
	}
	return parseGroupResults(lines)
}

func (s *Server) List(opts ListOptions) (*Listing, error) {
	keyword := opts.Keyword
	if keyword == "" {
		keyword = "ACTIVE"
	}
	if err := checkArgument("LIST keyword", keyword); err != nil {
		return nil, err
	}

	cmd := "LIST " + keyword
	if opts.Wildmat != "" {
		if err := checkArgument("wildmat", opts.Wildmat); err != nil {
			return nil, err
		}
		cmd += " " + opts.Wildmat
	}

	_, lines, err := s.longCmd(cmd)
	if err != nil {
		return nil, err
	}

	if opts.Wildmat != "" {
		groups, err := parseGroupResults(lines)
		if err != nil {
			return nil, err
		}
		return &Listing{Groups: groups}, nil
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return &Listing{Lines: out}, nil
}

// Group selects name and makes the returned Group current.
func (s *Server) Group(name string) (*Group, error) {
	if err := checkArgument("group name", name); err != nil {
		return nil, err
	}

	line, err := s.shortCmd("GROUP " + name)
	if err != nil {
		return nil, err
	}

	g, err := parseGroupReply(line)
	if err != nil {
		return nil, err
	}
	g.server = s
	s.current = g

	s.log.Debug("Selected %s", g)
	return g, nil
}

// Quit says goodbye and closes the transport. Calling it again is a no-op.
func (s *Server) Quit() error {
	if s.transport == nil {
		return nil
	}

	line, err := s.transport.Quit()
	if line != "" {
		s.lastResponse = line
	}
	s.transport = nil
	s.current = nil

	s.log.Info("Disconnected from %s", s.addr())
	return err
}

func (s *Server) String() string {
	return fmt.Sprintf("<Server %s>", s.addr())
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// selectGroup re-issues GROUP when another group has been selected since g
// was created, so numeric references resolve inside g.
func (s *Server) selectGroup(g *Group) error {
	if s == nil || s.transport == nil {
		return ErrClosed
	}
	if s.current == g {
		return nil
	}

	line, err := s.shortCmd("GROUP " + g.Name)
	if err != nil {
		return err
	}
	if _, err := parseGroupReply(line); err != nil {
		return err
	}
	s.current = g
	return nil
}

// checkArgument rejects values that would not reach the server as exactly
// one command argument.
func checkArgument(what, v string) error {
	if v == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidArgument, what)
	}
	if strings.ContainsFunc(v, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return fmt.Errorf("%w: %s %q contains whitespace or control characters", ErrInvalidArgument, what, v)
	}
	return nil
}

func (s *Server) shortCmd(cmd string) (string, error) {
	if s.transport == nil {
		return "", ErrClosed
	}

	s.log.Debug("> %s", cmd)
	line, err := s.transport.ShortCommand(cmd)
	s.record(line, err)
	return line, err
}

func (s *Server) longCmd(cmd string) (string, []string, error) {
	if s.transport == nil {
		return "", nil, ErrClosed
	}

	s.log.Debug("> %s", cmd)
	line, lines, err := s.transport.LongCommand(cmd)
	s.record(line, err)
	if err == nil {
		s.log.Debug("< %d lines", len(lines))
	}
	return line, lines, err
}

func (s *Server) record(line string, err error) {
	if line != "" {
		s.lastResponse = line
	}
	if err != nil {
		s.log.Debug("< %s (%v)", line, err)
		return
	}
	s.log.Debug("< %s", line)
}
