package news

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ArticleRef addresses an article by its number in the selected group or
// by its message-id.
type ArticleRef string

func Number(n int64) ArticleRef { return ArticleRef(strconv.FormatInt(n, 10)) }

// MessageID wraps id in angle brackets unless it already has them.
func MessageID(id string) ArticleRef {
	if !strings.HasPrefix(id, "<") {
		id = "<" + id + ">"
	}
	return ArticleRef(id)
}

// ParseRef reads user input: all digits is an article number, anything
// else a message-id.
func ParseRef(s string) ArticleRef {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n >= 0 {
		return Number(n)
	}
	return MessageID(s)
}

func (r ArticleRef) String() string { return string(r) }

// Group is a newsgroup selected with Server.Group. It never changes after
// creation; selecting the group again yields a new value. The server
// reference is non-owning and every call fails with ErrClosed after Quit.
type Group struct {
	Name  string `json:"name"`
	Low   int64  `json:"low"`
	High  int64  `json:"high"`
	Count int64  `json:"count"`

	server *Server
}

// Head fetches only the header section.
func (g *Group) Head(ref ArticleRef) (*Article, error) {
	lines, err := g.retrieve("HEAD", ref)
	if err != nil {
		return nil, err
	}
	return NewArticle(Lines(lines), Text{})
}

// Body fetches only the body.
func (g *Group) Body(ref ArticleRef) (*Article, error) {
	lines, err := g.retrieve("BODY", ref)
	if err != nil {
		return nil, err
	}
	return NewArticle(Text{}, Lines(lines))
}

// Article fetches the whole article and splits it at the first blank line.
// Leading whitespace of the body is dropped.
func (g *Group) Article(ref ArticleRef) (*Article, error) {
	lines, err := g.retrieve("ARTICLE", ref)
	if err != nil {
		return nil, err
	}

	sep := -1
	for i, l := range lines {
		if l == "" {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, fmt.Errorf("%w: ARTICLE %s has no blank line between headers and body", ErrProtocol, ref)
	}

	body := strings.TrimLeftFunc(strings.Join(lines[sep+1:], "\n"), unicode.IsSpace)
	return NewArticle(Lines(lines[:sep]), Joined(body))
}

func (g *Group) retrieve(verb string, ref ArticleRef) ([]string, error) {
	cmd := verb
	if ref != "" {
		if err := checkArgument("article reference", ref.String()); err != nil {
			return nil, err
		}
		cmd += " " + ref.String()
	}

	s := g.server
	if err := s.selectGroup(g); err != nil {
		return nil, err
	}

	_, lines, err := s.longCmd(cmd)
	return lines, err
}

func (g *Group) String() string {
	return fmt.Sprintf("<Group %s %d-%d (%d)>", g.Name, g.Low, g.High, g.Count)
}

// parseGroupReply reads "211 <count> <low> <high> <name>".
func parseGroupReply(line string) (*Group, error) {
	f := strings.Fields(line)
	if len(f) != 5 {
		return nil, fmt.Errorf("%w: GROUP reply needs 5 fields, got %d: %q", ErrProtocol, len(f), line)
	}

	var nums [3]int64
	for i, s := range f[1:4] {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q in GROUP reply %q", ErrProtocol, s, line)
		}
		nums[i] = n
	}

	return &Group{Name: f[4], Count: nums[0], Low: nums[1], High: nums[2]}, nil
}
