package domain

import (
	"net/textproto"
	"time"
)

// ArchivedArticle is an article kept in the local archive. The body lives
// on disk at BodyPath; the headers are stored alongside the metadata.
type ArchivedArticle struct {
	ID        string               `json:"id"`
	MessageID string               `json:"messageId"`
	Newsgroup string               `json:"newsgroup"`
	Subject   string               `json:"subject"`
	Poster    string               `json:"poster"`
	Headers   textproto.MIMEHeader `json:"headers"`
	BodyPath  string               `json:"-"`
	BodySize  int64                `json:"bodySize"`
	BodyHash  string               `json:"bodyHash,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

func (a *ArchivedArticle) HasBody() bool { return a.BodyPath != "" }
