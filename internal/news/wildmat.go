package news

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Wildmat is a compiled RFC 3977 wildmat: comma separated patterns, each
// optionally negated with "!". The last pattern that matches a name decides
// the outcome; a name no pattern matches is rejected.
type Wildmat struct {
	source  string
	clauses []wildmatClause
}

type wildmatClause struct {
	negate bool
	g      glob.Glob
}

func CompileWildmat(pattern string) (*Wildmat, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty wildmat")
	}

	w := &Wildmat{source: pattern}
	for _, part := range strings.Split(pattern, ",") {
		part = strings.TrimSpace(part)
		negate := strings.HasPrefix(part, "!")
		if negate {
			part = part[1:]
		}
		if part == "" {
			return nil, fmt.Errorf("wildmat %q: empty pattern", pattern)
		}

		g, err := glob.Compile(toGlob(part))
		if err != nil {
			return nil, fmt.Errorf("wildmat %q: %w", pattern, err)
		}
		w.clauses = append(w.clauses, wildmatClause{negate: negate, g: g})
	}
	return w, nil
}

func (w *Wildmat) Match(name string) bool {
	matched := false
	for _, c := range w.clauses {
		if c.g.Match(name) {
			matched = !c.negate
		}
	}
	return matched
}

func (w *Wildmat) String() string { return w.source }

// FilterGroups keeps the groups whose names match w, preserving order.
func FilterGroups(groups []GroupResult, w *Wildmat) []GroupResult {
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		if w.Match(g.Name) {
			out = append(out, g)
		}
	}
	return out
}

// toGlob rewrites wildmat syntax for gobwas/glob: braces are literal in a
// wildmat and "[^" negates a class.
func toGlob(p string) string {
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		switch ch := p[i]; ch {
		case '{', '}':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '[':
			b.WriteByte(ch)
			if i+1 < len(p) && p[i+1] == '^' {
				b.WriteByte('!')
				i++
			}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
