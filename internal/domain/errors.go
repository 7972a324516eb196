package domain

import "errors"

// ErrArticleNotFound indicates the archive has no such article
var ErrArticleNotFound = errors.New("article not found in archive")

// ErrMissingMessageID rejects archiving an article without a Message-ID header
var ErrMissingMessageID = errors.New("article has no Message-ID header")
