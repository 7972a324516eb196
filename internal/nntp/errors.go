package nntp

import (
	"errors"
	"fmt"
)

var ErrArticleNotFound = errors.New("article not found")
var ErrNoSuchGroup = errors.New("no such newsgroup")
var ErrAuthRejected = errors.New("authentication rejected")
var ErrConnClosed = errors.New("nntp connection closed")

// ErrInvalidCommand rejects a command line that would reach the server as
// more than one line.
var ErrInvalidCommand = errors.New("command contains a line break")

// Error is a 4xx or 5xx reply from the server.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%03d %s", e.Code, e.Msg)
}

// Temporary reports whether the server classified the failure as transient (4xx).
func (e *Error) Temporary() bool {
	return e.Code < 500
}

// Is lets callers match well known reply codes with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrArticleNotFound:
		return e.Code == 420 || e.Code == 423 || e.Code == 430
	case ErrNoSuchGroup:
		return e.Code == 411
	case ErrAuthRejected:
		return e.Code == 481 || e.Code == 482
	}
	return false
}

// ProtocolError is a reply that does not look like NNTP at all.
type ProtocolError string

func (p ProtocolError) Error() string {
	return "nntp protocol error: " + string(p)
}
