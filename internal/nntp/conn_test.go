package nntp

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeServer is an in-process news server. Each received command line is
// looked up by its upper-cased verb and the scripted reply lines are
// written back verbatim.
type fakeServer struct {
	ln       net.Listener
	greeting string
	replies  map[string][]string

	mu       sync.Mutex
	received []string
	wg       sync.WaitGroup
}

func newFakeServer(t *testing.T, greeting string, replies map[string][]string) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &fakeServer{ln: ln, greeting: greeting, replies: replies}
	s.wg.Add(1)
	go s.serve()

	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeServer) serve() {
	defer s.wg.Done()
	nc, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer nc.Close()

	c := textproto.NewConn(nc)
	c.PrintfLine("%s", s.greeting)

	for {
		line, err := c.ReadLine()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, line)
		s.mu.Unlock()

		key := strings.ToUpper(line)
		reply, ok := s.replies[key]
		if !ok {
			reply, ok = s.replies[strings.Fields(key)[0]]
		}
		if !ok {
			reply = []string{"500 unknown command"}
		}
		for _, r := range reply {
			c.PrintfLine("%s", r)
		}
		if strings.HasPrefix(key, "QUIT") {
			return
		}
	}
}

func (s *fakeServer) options() Options {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return Options{Host: host, Port: p, Timeout: 2 * time.Second}
}

func (s *fakeServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

func TestDialGreeting(t *testing.T) {
	srv := newFakeServer(t, "200 news.example.com ready", map[string][]string{
		"QUIT": {"205 bye"},
	})

	c, err := Dial(context.Background(), srv.options())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if c.Welcome() != "200 news.example.com ready" {
		t.Errorf("welcome = %q", c.Welcome())
	}

	line, err := c.Quit()
	if err != nil {
		t.Fatalf("Quit: %v", err)
	}
	if line != "205 bye" {
		t.Errorf("quit reply = %q", line)
	}

	// second quit is a no-op
	if _, err := c.Quit(); err != nil {
		t.Errorf("second Quit: %v", err)
	}
	if _, err := c.ShortCommand("DATE"); !errors.Is(err, ErrConnClosed) {
		t.Errorf("command after quit: %v, want ErrConnClosed", err)
	}
}

func TestDialRejectsBadGreeting(t *testing.T) {
	srv := newFakeServer(t, "502 access denied", nil)

	_, err := Dial(context.Background(), srv.options())
	var nerr *Error
	if !errors.As(err, &nerr) || nerr.Code != 502 {
		t.Fatalf("expected 502 error, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		replies map[string][]string
		wantErr error
	}{
		{
			name: "user and password",
			replies: map[string][]string{
				"AUTHINFO USER READER": {"381 password required"},
				"AUTHINFO PASS SECRET": {"281 welcome"},
			},
		},
		{
			name: "user alone accepted",
			replies: map[string][]string{
				"AUTHINFO USER READER": {"281 welcome"},
			},
		},
		{
			name: "password rejected",
			replies: map[string][]string{
				"AUTHINFO USER READER": {"381 password required"},
				"AUTHINFO PASS SECRET": {"481 authentication failed"},
			},
			wantErr: ErrAuthRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t, "200 ok", tt.replies)
			opts := srv.options()
			opts.Username = "reader"
			opts.Password = "secret"

			c, err := Dial(context.Background(), opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Dial error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dial: %v", err)
			}
			c.Close()

			cmds := srv.commands()
			if len(cmds) == 0 || cmds[0] != "AUTHINFO USER reader" {
				t.Errorf("commands = %q", cmds)
			}
		})
	}
}

func TestLongCommand(t *testing.T) {
	srv := newFakeServer(t, "201 no posting", map[string][]string{
		"LIST ACTIVE": {
			"215 list follows",
			"misc.test 3002322 3000234 y",
			"..dotted.group 2 1 n",
			".",
		},
		"HEAD": {"430 no such article"},
	})

	c, err := Dial(context.Background(), srv.options())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	line, lines, err := c.LongCommand("LIST ACTIVE")
	if err != nil {
		t.Fatalf("LongCommand: %v", err)
	}
	if line != "215 list follows" {
		t.Errorf("status = %q", line)
	}
	want := []string{"misc.test 3002322 3000234 y", ".dotted.group 2 1 n"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}

	line, _, err = c.LongCommand("HEAD <missing@example>")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if line != "430 no such article" {
		t.Errorf("status = %q", line)
	}

	// connection still usable after an error reply
	if _, lines, err := c.LongCommand("LIST ACTIVE"); err != nil || len(lines) != 2 {
		t.Errorf("second LIST = %q, %v", lines, err)
	}
}

func TestSendRejectsLineBreaks(t *testing.T) {
	srv := newFakeServer(t, "200 ok", map[string][]string{
		"GROUP MISC.TEST": {"211 3 1 3 misc.test"},
		"GROUP ALT.TEST":  {"211 9 5 13 alt.test"},
	})

	c, err := Dial(context.Background(), srv.options())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	for _, cmd := range []string{"GROUP misc.test\r\nGROUP alt.test", "GROUP misc.test\n", "LIST\rACTIVE"} {
		if _, err := c.ShortCommand(cmd); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("ShortCommand(%q) error = %v, want ErrInvalidCommand", cmd, err)
		}
		if _, _, err := c.LongCommand(cmd); !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("LongCommand(%q) error = %v, want ErrInvalidCommand", cmd, err)
		}
	}

	// the next reply still belongs to the next command
	line, err := c.ShortCommand("GROUP alt.test")
	if err != nil {
		t.Fatalf("ShortCommand: %v", err)
	}
	if line != "211 9 5 13 alt.test" {
		t.Errorf("reply = %q, want the alt.test reply", line)
	}
	if cmds := srv.commands(); len(cmds) != 1 || cmds[0] != "GROUP alt.test" {
		t.Errorf("server received %q", cmds)
	}
}

func TestReadResponseValidation(t *testing.T) {
	tests := []struct {
		reply   string
		wantErr bool
	}{
		{"211 5 1 5 comp.lang.python", false},
		{"205", false},
		{"2x1 nope", true},
		{"21", true},
		{"2110 glued", true},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			srv := newFakeServer(t, "200 ok", map[string][]string{"GROUP": {tt.reply}})
			c, err := Dial(context.Background(), srv.options())
			if err != nil {
				t.Fatalf("Dial: %v", err)
			}
			defer c.Close()

			_, err = c.ShortCommand("GROUP comp.lang.python")
			var perr ProtocolError
			if got := errors.As(err, &perr); got != tt.wantErr {
				t.Errorf("ProtocolError = %v (err %v), want %v", got, err, tt.wantErr)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	if !(&Error{Code: 411}).Temporary() {
		t.Error("411 should be temporary")
	}
	if (&Error{Code: 502}).Temporary() {
		t.Error("502 should be permanent")
	}
	if !errors.Is(&Error{Code: 411, Msg: "no such group"}, ErrNoSuchGroup) {
		t.Error("411 should match ErrNoSuchGroup")
	}
	if got := (&Error{Code: 430, Msg: "no such article"}).Error(); got != "430 no such article" {
		t.Errorf("Error() = %q", got)
	}
}
