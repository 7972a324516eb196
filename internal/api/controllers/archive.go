package controllers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/datallboy/gonews/internal/app"
	"github.com/datallboy/gonews/internal/domain"
	"github.com/datallboy/gonews/internal/news"
	"github.com/labstack/echo/v5"
)

type ArchiveController struct {
	App *app.Context
}

// HandleArchive fetches the full article and stores it locally. The
// server session is released before the store is touched.
func (ctrl *ArchiveController) HandleArchive(c *echo.Context) error {
	ref, err := parseRef(c.Param("ref"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	var article *news.Article
	err = ctrl.App.Session.Do(ctx, func(s *news.Server) error {
		g, err := s.Group(c.Param("name"))
		if err != nil {
			return err
		}
		article, err = g.Article(ref)
		return err
	})
	if err != nil {
		return fail(c, err)
	}

	saved, err := ctrl.App.Store.SaveArticle(ctx, c.Param("name"), article)
	if err != nil {
		ctrl.App.Logger.Error("Failed to archive %s from %s: %v", ref, c.Param("name"), err)
		return fail(c, err)
	}

	ctrl.App.Logger.Info("Archived %s as %s", saved.MessageID, saved.ID)
	return c.JSON(http.StatusCreated, saved)
}

// HandleListArchive lists archived articles, optionally by ?group= and ?limit=.
func (ctrl *ArchiveController) HandleListArchive(c *echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}

	list, err := ctrl.App.Store.ListArticles(c.Request().Context(), c.QueryParam("group"), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (ctrl *ArchiveController) HandleGet(c *echo.Context) error {
	art, err := ctrl.App.Store.GetArticle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, art)
}

// HandleGetByMessageID looks an article up by its message-id, with or
// without angle brackets.
func (ctrl *ArchiveController) HandleGetByMessageID(c *echo.Context) error {
	msgID, err := url.PathUnescape(c.Param("msgid"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	art, err := ctrl.App.Store.GetByMessageID(c.Request().Context(), msgID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, art)
}

// HandleBody streams the stored body as plain text.
func (ctrl *ArchiveController) HandleBody(c *echo.Context) error {
	art, err := ctrl.App.Store.GetArticle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !art.HasBody() {
		return fail(c, domain.ErrArticleNotFound)
	}

	rc, err := ctrl.App.Store.OpenBody(art.ID)
	if err != nil {
		return fail(c, err)
	}
	defer rc.Close()

	return c.Stream(http.StatusOK, "text/plain; charset=utf-8", rc)
}
