package controllers

import (
	"errors"
	"net/http"

	"github.com/datallboy/gonews/internal/domain"
	"github.com/datallboy/gonews/internal/news"
	"github.com/datallboy/gonews/internal/nntp"
	"github.com/labstack/echo/v5"
)

// statusFor maps client and server failures to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, nntp.ErrArticleNotFound),
		errors.Is(err, nntp.ErrNoSuchGroup),
		errors.Is(err, domain.ErrArticleNotFound):
		return http.StatusNotFound
	case errors.Is(err, news.ErrInvalidTimestamp),
		errors.Is(err, news.ErrInvalidArgument),
		errors.Is(err, nntp.ErrInvalidCommand),
		errors.Is(err, news.ErrNoHeaders),
		errors.Is(err, domain.ErrMissingMessageID):
		return http.StatusBadRequest
	case errors.Is(err, news.ErrConnection),
		errors.Is(err, nntp.ErrAuthRejected):
		return http.StatusServiceUnavailable
	}

	// 4xx replies may succeed on retry, 5xx will not
	var nerr *nntp.Error
	if errors.As(err, &nerr) && nerr.Temporary() {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func fail(c *echo.Context, err error) error {
	return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func badRequest(c *echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
