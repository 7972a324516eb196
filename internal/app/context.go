package app

import (
	"context"
	"io"

	"github.com/datallboy/gonews/internal/domain"
	"github.com/datallboy/gonews/internal/infra/config"
	"github.com/datallboy/gonews/internal/infra/logger"
	"github.com/datallboy/gonews/internal/news"
)

// ArticleStore is the local archive. This allows the api and cli to archive
// articles without importing the store package
type ArticleStore interface {
	SaveArticle(ctx context.Context, newsgroup string, a *news.Article) (*domain.ArchivedArticle, error)
	GetArticle(ctx context.Context, id string) (*domain.ArchivedArticle, error)
	GetByMessageID(ctx context.Context, messageID string) (*domain.ArchivedArticle, error)
	ListArticles(ctx context.Context, newsgroup string, limit int) ([]*domain.ArchivedArticle, error)
	OpenBody(id string) (io.ReadCloser, error)
	Close() error
}

// Context hold the core environment and shared resources for gonews.
// It acts as the "Single Source of Truth" for the application state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	// Session serialises access to the one news server connection
	Session *Session
	Store   ArticleStore
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}

// Close releases the session and the store, whichever were set up.
func (c *Context) Close() error {
	var err error
	if c.Session != nil {
		err = c.Session.Close()
	}
	if c.Store != nil {
		if serr := c.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}
