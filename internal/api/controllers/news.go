package controllers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/datallboy/gonews/internal/app"
	"github.com/datallboy/gonews/internal/news"
	"github.com/labstack/echo/v5"
)

// DefaultNewGroupsWindow is used when /groups/new has no since parameter.
const DefaultNewGroupsWindow = 24 * time.Hour

type NewsController struct {
	App *app.Context
}

// HandleList runs LIST. ?keyword= picks the variant, ?match= is passed to
// the server as a wildmat.
func (ctrl *NewsController) HandleList(c *echo.Context) error {
	opts := news.ListOptions{
		Keyword: c.QueryParam("keyword"),
		Wildmat: c.QueryParam("match"),
	}

	var listing *news.Listing
	err := ctrl.App.Session.Do(c.Request().Context(), func(s *news.Server) error {
		var err error
		listing, err = s.List(opts)
		return err
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, listing)
}

// HandleNewGroups runs NEWGROUPS and filters the result locally, since the
// command takes no wildmat.
func (ctrl *NewsController) HandleNewGroups(c *echo.Context) error {
	since, err := parseSince(c.QueryParam("since"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var match *news.Wildmat
	if p := c.QueryParam("match"); p != "" {
		if match, err = news.CompileWildmat(p); err != nil {
			return badRequest(c, err.Error())
		}
	}

	// sample a duration once so the reply reports the timestamp that was sent
	ts, err := news.FormatTimestamp(since)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var groups []news.GroupResult
	err = ctrl.App.Session.Do(c.Request().Context(), func(s *news.Server) error {
		var err error
		groups, err = s.NewGroups(ts)
		return err
	})
	if err != nil {
		return fail(c, err)
	}

	view := NewGroupsView{Since: ts, Groups: groups}
	if match != nil {
		view.Match = match.String()
		view.Groups = news.FilterGroups(groups, match)
	}
	if view.Groups == nil {
		view.Groups = []news.GroupResult{}
	}
	return c.JSON(http.StatusOK, view)
}

// HandleGroup selects a group and reports its counters.
func (ctrl *NewsController) HandleGroup(c *echo.Context) error {
	var g *news.Group
	err := ctrl.App.Session.Do(c.Request().Context(), func(s *news.Server) error {
		var err error
		g, err = s.Group(c.Param("name"))
		return err
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

// HandleRetrieve serves /groups/:name/:kind/:ref for kind head, body or
// article. A numeric ref is an article number, anything else a message-id.
func (ctrl *NewsController) HandleRetrieve(c *echo.Context) error {
	kind := c.Param("kind")
	switch kind {
	case "head", "body", "article":
	default:
		return badRequest(c, "kind must be head, body or article")
	}

	ref, err := parseRef(c.Param("ref"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var view ArticleView
	err = ctrl.App.Session.Do(c.Request().Context(), func(s *news.Server) error {
		g, err := s.Group(c.Param("name"))
		if err != nil {
			return err
		}

		var a *news.Article
		switch kind {
		case "head":
			a, err = g.Head(ref)
		case "body":
			a, err = g.Body(ref)
		default:
			a, err = g.Article(ref)
		}
		if err != nil {
			return err
		}

		view = newArticleView(g, ref, a)
		return nil
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// parseSince accepts a Go duration ("36h") or a preformatted
// "yyyymmdd hhmmss" timestamp. Empty means the last day.
func parseSince(v string) (any, error) {
	if v == "" {
		return DefaultNewGroupsWindow, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if _, err := time.Parse("20060102 150405", v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseRef(raw string) (news.ArticleRef, error) {
	ref, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	return news.ParseRef(ref), nil
}
