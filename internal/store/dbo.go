package store

import (
	"database/sql"
	"encoding/json"
	"net/textproto"
	"time"

	"github.com/datallboy/gonews/internal/domain"
)

// articleDBO maps to the articles table
type articleDBO struct {
	ID        string         `db:"id"`
	MessageID string         `db:"message_id"`
	Newsgroup string         `db:"newsgroup"`
	Subject   sql.NullString `db:"subject"`
	Poster    sql.NullString `db:"poster"`
	Headers   string         `db:"headers"`
	BodyPath  sql.NullString `db:"body_path"`
	BodySize  int64          `db:"body_size"`
	BodyHash  sql.NullString `db:"body_hash"`
	CreatedAt int64          `db:"created_at"`
}

// Mapper: DBO to Domain ArchivedArticle
func (a *articleDBO) ToDomain() (*domain.ArchivedArticle, error) {
	var headers textproto.MIMEHeader
	if err := json.Unmarshal([]byte(a.Headers), &headers); err != nil {
		return nil, err
	}

	return &domain.ArchivedArticle{
		ID:        a.ID,
		MessageID: a.MessageID,
		Newsgroup: a.Newsgroup,
		Subject:   a.Subject.String,
		Poster:    a.Poster.String,
		Headers:   headers,
		BodyPath:  a.BodyPath.String,
		BodySize:  a.BodySize,
		BodyHash:  a.BodyHash.String,
		CreatedAt: time.Unix(a.CreatedAt, 0),
	}, nil
}

// Mapper: Domain ArchivedArticle to DBO
func (a *articleDBO) FromDomain(art *domain.ArchivedArticle) error {
	headers, err := json.Marshal(art.Headers)
	if err != nil {
		return err
	}

	a.ID = art.ID
	a.MessageID = art.MessageID
	a.Newsgroup = art.Newsgroup
	a.Subject = sql.NullString{String: art.Subject, Valid: art.Subject != ""}
	a.Poster = sql.NullString{String: art.Poster, Valid: art.Poster != ""}
	a.Headers = string(headers)
	a.BodyPath = sql.NullString{String: art.BodyPath, Valid: art.BodyPath != ""}
	a.BodySize = art.BodySize
	a.BodyHash = sql.NullString{String: art.BodyHash, Valid: art.BodyHash != ""}

	if !art.CreatedAt.IsZero() {
		a.CreatedAt = art.CreatedAt.Unix()
	} else {
		a.CreatedAt = 0
	}
	return nil
}
