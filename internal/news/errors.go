package news

import "errors"

// ErrConnection wraps failures to open or authenticate the transport.
var ErrConnection = errors.New("nntp connection failed")

// ErrProtocol marks a reply whose shape does not match what the command promises.
var ErrProtocol = errors.New("malformed nntp response")

// ErrNoBody is returned by Article.Save when the article was fetched without a body.
var ErrNoBody = errors.New("article has no body")

// ErrNoHeaders is returned when header data is needed but was never parsed.
var ErrNoHeaders = errors.New("article has no headers")

// ErrInvalidTimestamp rejects a NEWGROUPS "since" value of an unsupported type.
var ErrInvalidTimestamp = errors.New("unsupported timestamp value")

// ErrInvalidArgument rejects a group name, wildmat, keyword or article
// reference that cannot be sent as a single command argument.
var ErrInvalidArgument = errors.New("invalid command argument")

// ErrClosed is returned by every operation after Server.Quit.
var ErrClosed = errors.New("server connection closed")
