package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/datallboy/gonews/internal/news"
)

// parseSince turns the --since flag into a NEWGROUPS timestamp spec: a
// duration back from now, or a "yyyymmdd hhmmss" string passed verbatim.
func parseSince(v string) (any, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if _, err := time.Parse("20060102 150405", v); err != nil {
		return nil, fmt.Errorf("invalid --since %q: want a duration like 72h or \"yyyymmdd hhmmss\"", v)
	}
	return v, nil
}

func formatGroupResult(g news.GroupResult) string {
	return fmt.Sprintf("%-40s %10s %10s %s", g.Name, g.Low, g.High, g.Status)
}

// printArticle writes headers in canonical key order, then a blank line
// and the body when both are present.
func printArticle(w io.Writer, a *news.Article) {
	if a.HasHeaders() {
		h := a.Header()
		keys := make([]string, 0, len(h))
		for k := range h {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			for _, v := range h[k] {
				fmt.Fprintf(w, "%s: %s\n", k, v)
			}
		}
	}

	if a.HasHeaders() && a.HasBody() {
		fmt.Fprintln(w)
	}
	if a.HasBody() {
		fmt.Fprintln(w, a.Body())
	}
}
