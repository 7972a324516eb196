// Package nntp is the wire layer of gonews: it dials a news server, handles
// the greeting and AUTHINFO exchange, and frames single-line and multi-line
// commands over net/textproto.
package nntp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const DefaultPort = 119

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	// Timeout bounds the dial and every command round trip. Zero blocks forever.
	Timeout time.Duration
}

// Conn is a single synchronous NNTP connection. It is not safe for
// concurrent use; the protocol has one command in flight at a time.
type Conn struct {
	raw     io.ReadWriteCloser
	conn    *textproto.Conn
	welcome string
	timeout time.Duration
	closed  bool
}

// Dial connects to opts.Host, reads the greeting and authenticates when a
// username is configured.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(port))

	d := net.Dialer{Timeout: opts.Timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c, err := NewConn(nc, opts.Timeout)
	if err != nil {
		nc.Close()
		return nil, err
	}

	if err := c.authenticate(opts.Username, opts.Password); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// NewConn wraps an established stream and consumes the server greeting.
func NewConn(rwc io.ReadWriteCloser, timeout time.Duration) (*Conn, error) {
	c := &Conn{
		raw:     rwc,
		conn:    textproto.NewConn(rwc),
		timeout: timeout,
	}

	c.extendDeadline()

	// Usenet servers greet with 200, or 201 when posting is not allowed
	code, line, err := c.readResponse()
	if err != nil {
		return nil, fmt.Errorf("reading greeting: %w", err)
	}
	if code != 200 && code != 201 {
		return nil, ProtocolError("unexpected greeting: " + line)
	}

	c.welcome = line
	return c, nil
}

// Welcome returns the greeting line exactly as the server sent it.
func (c *Conn) Welcome() string { return c.welcome }

// ShortCommand sends cmd and returns the single status line.
func (c *Conn) ShortCommand(cmd string) (string, error) {
	if err := c.send(cmd); err != nil {
		return "", err
	}
	_, line, err := c.readResponse()
	return line, err
}

// LongCommand sends cmd and returns the status line together with the
// dot-terminated body, already unstuffed.
func (c *Conn) LongCommand(cmd string) (string, []string, error) {
	if err := c.send(cmd); err != nil {
		return "", nil, err
	}

	code, line, err := c.readResponse()
	if err != nil {
		return line, nil, err
	}
	if code >= 300 {
		return line, nil, ProtocolError("expected a multi-line reply to " + verb(cmd) + ", got: " + line)
	}

	c.extendDeadline()
	lines, err := c.conn.ReadDotLines()
	if err != nil {
		return line, nil, fmt.Errorf("reading %s body: %w", verb(cmd), err)
	}

	return line, lines, nil
}

// Quit sends QUIT so the server can release the slot, then closes the
// connection. The QUIT reply is returned; a second call is a no-op.
func (c *Conn) Quit() (string, error) {
	if c.closed {
		return "", nil
	}

	line, err := c.ShortCommand("QUIT")
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return line, err
}

// Close drops the connection without saying goodbye.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Conn) authenticate(user, pass string) error {
	if user == "" {
		return nil
	}

	line, err := c.ShortCommand("AUTHINFO USER " + user)
	if err != nil {
		return fmt.Errorf("AUTHINFO USER: %w", err)
	}

	switch code(line) {
	case 281:
		// some servers accept the user alone
		return nil
	case 381:
		// password required
	default:
		return ProtocolError("unexpected reply to AUTHINFO USER: " + line)
	}

	line, err = c.ShortCommand("AUTHINFO PASS " + pass)
	if err != nil {
		return fmt.Errorf("AUTHINFO PASS: %w", err)
	}
	if code(line) != 281 {
		return ProtocolError("unexpected reply to AUTHINFO PASS: " + line)
	}

	return nil
}

func (c *Conn) send(cmd string) error {
	if c.closed {
		return ErrConnClosed
	}
	if strings.ContainsAny(cmd, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, cmd)
	}
	c.extendDeadline()
	return c.conn.PrintfLine("%s", cmd)
}

// readResponse reads one status line. Replies of 400 and above come back
// as *Error alongside the raw line.
func (c *Conn) readResponse() (int, string, error) {
	line, err := c.conn.ReadLine()
	if err != nil {
		return 0, "", err
	}

	if len(line) < 3 {
		return 0, line, ProtocolError("short response: " + line)
	}
	n, err := strconv.Atoi(line[:3])
	if err != nil || (len(line) > 3 && line[3] != ' ') {
		return 0, line, ProtocolError("invalid response code: " + line)
	}

	if n >= 400 {
		return n, line, &Error{Code: n, Msg: strings.TrimSpace(line[3:])}
	}
	return n, line, nil
}

func (c *Conn) extendDeadline() {
	if c.timeout <= 0 {
		return
	}
	if nc, ok := c.raw.(net.Conn); ok {
		nc.SetDeadline(time.Now().Add(c.timeout))
	}
}

// code extracts the numeric status of an already validated reply line.
func code(line string) int {
	if len(line) < 3 {
		return 0
	}
	n, _ := strconv.Atoi(line[:3])
	return n
}

func verb(cmd string) string {
	if i := strings.IndexByte(cmd, ' '); i > 0 {
		return cmd[:i]
	}
	return cmd
}
