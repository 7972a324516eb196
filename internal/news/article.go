package news

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

type textKind uint8

const (
	textAbsent textKind = iota
	textLines
	textJoined
)

// Text is raw article input: the lines of a multi-line reply, or text that
// has already been joined. The zero value means "not present".
type Text struct {
	kind   textKind
	lines  []string
	joined string
}

func Lines(lines []string) Text { return Text{kind: textLines, lines: lines} }

func Joined(s string) Text { return Text{kind: textJoined, joined: s} }

func (t Text) IsSet() bool { return t.kind != textAbsent }

// String joins line input with "\n"; joined input is returned unchanged.
func (t Text) String() string {
	if t.kind == textLines {
		return strings.Join(t.lines, "\n")
	}
	return t.joined
}

// Article is a parsed news article. Either part may be missing, depending
// on whether it was fetched with HEAD, BODY or ARTICLE.
type Article struct {
	header  textproto.MIMEHeader
	body    string
	hasBody bool
}

// NewArticle parses headers as an RFC 822 header block and keeps body as
// raw text. Header parsing stops at the first blank line, so passing a
// whole article as headers yields only its header section. Repeated
// fields keep every value in order.
func NewArticle(headers, body Text) (*Article, error) {
	a := &Article{}

	if headers.IsSet() {
		h, err := parseHeaders(headers.String())
		if err != nil {
			return nil, err
		}
		a.header = h
	}

	if body.IsSet() {
		a.body = body.String()
		a.hasBody = true
	}

	return a, nil
}

func parseHeaders(raw string) (textproto.MIMEHeader, error) {
	// terminate the block so header-only input reads cleanly to the end
	r := textproto.NewReader(bufio.NewReader(strings.NewReader(raw + "\n\n")))
	h, err := r.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: header block: %v", ErrProtocol, err)
	}
	return h, nil
}

// Header returns the parsed header fields, or nil when none were fetched.
func (a *Article) Header() textproto.MIMEHeader { return a.header }

func (a *Article) HasHeaders() bool { return a.header != nil }

// Get returns the first value of the named field, case-insensitively.
func (a *Article) Get(name string) string {
	if a.header == nil {
		return ""
	}
	return a.header.Get(name)
}

func (a *Article) Body() string { return a.body }

func (a *Article) HasBody() bool { return a.hasBody }

func (a *Article) MessageID() (string, error) {
	if a.header == nil {
		return "", ErrNoHeaders
	}
	return a.header.Get("Message-ID"), nil
}

// Save writes the body bytes to path exactly as received. A leading "~"
// is expanded to the user's home directory.
func (a *Article) Save(path string) (err error) {
	if !a.hasBody {
		return ErrNoBody
	}

	path, err = ExpandHome(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.WriteString(f, a.body)
	return err
}

func (a *Article) String() string {
	id, err := a.MessageID()
	if err != nil {
		return "<Article (no headers)>"
	}
	return fmt.Sprintf("<Article %s>", id)
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}
