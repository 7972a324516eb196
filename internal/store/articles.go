package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datallboy/gonews/internal/domain"
	"github.com/datallboy/gonews/internal/news"
	"github.com/segmentio/ksuid"
)

const articleColumns = `id, message_id, newsgroup, subject, poster, headers, body_path, body_size, body_hash, created_at`

// SaveArticle archives a fetched article under newsgroup. The Message-ID
// header is the natural key: archiving the same article again refreshes
// its row and body file instead of adding a new one, and concurrent saves
// of one article settle on a single id. A header-only article keeps any
// body stored earlier. The returned record is read back after the commit.
func (s *PersistentStore) SaveArticle(ctx context.Context, newsgroup string, a *news.Article) (*domain.ArchivedArticle, error) {
	rawID, err := a.MessageID()
	if err != nil {
		return nil, err
	}
	msgID := domain.NormalizeMessageID(rawID)
	if msgID == "" {
		return nil, domain.ErrMissingMessageID
	}

	art := &domain.ArchivedArticle{
		MessageID: msgID,
		Newsgroup: newsgroup,
		Subject:   a.Get("Subject"),
		Poster:    a.Get("From"),
		Headers:   a.Header(),
	}

	// The body is staged under a unique name and only moved over the live
	// file once the row is committed.
	var staged string
	if a.HasBody() {
		staged = filepath.Join(s.blobDir, ksuid.New().String()+".tmp")
		if err := a.Save(staged); err != nil {
			return nil, fmt.Errorf("failed to write body for %s: %w", msgID, err)
		}
		defer os.Remove(staged)

		art.BodySize = int64(len(a.Body()))
		if art.BodyHash, err = domain.HashBody(strings.NewReader(a.Body())); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin archive of %s: %w", msgID, err)
	}
	defer tx.Rollback()

	// Claim the message-id, then read back whichever id owns it.
	// KSUIDs sort chronologically, which ListArticles relies on
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO articles (id, message_id, newsgroup, headers, body_size, created_at)
		VALUES (?, ?, ?, '{}', 0, ?)
		ON CONFLICT(message_id) DO NOTHING`),
		ksuid.New().String(), msgID, newsgroup, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to claim article %s: %w", msgID, err)
	}
	if err := tx.GetContext(ctx, &art.ID, tx.Rebind(`SELECT id FROM articles WHERE message_id = ?`), msgID); err != nil {
		return nil, fmt.Errorf("failed to read id of article %s: %w", msgID, err)
	}

	if staged != "" {
		art.BodyPath = s.bodyPath(art.ID)
	}

	var dbo articleDBO
	if err := dbo.FromDomain(art); err != nil {
		return nil, fmt.Errorf("failed to encode headers for %s: %w", msgID, err)
	}

	_, err = tx.NamedExecContext(ctx, `
		UPDATE articles SET
			newsgroup = :newsgroup,
			subject = :subject,
			poster = :poster,
			headers = :headers
		WHERE id = :id`, &dbo)
	if err != nil {
		return nil, fmt.Errorf("failed to update article %s: %w", msgID, err)
	}

	if staged != "" {
		_, err = tx.NamedExecContext(ctx, `
			UPDATE articles SET
				body_path = :body_path,
				body_size = :body_size,
				body_hash = :body_hash
			WHERE id = :id`, &dbo)
		if err != nil {
			return nil, fmt.Errorf("failed to update body of article %s: %w", msgID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit article %s: %w", msgID, err)
	}

	if staged != "" {
		if err := os.Rename(staged, art.BodyPath); err != nil {
			return nil, fmt.Errorf("failed to store body of article %s: %w", msgID, err)
		}
	}

	return s.GetArticle(ctx, art.ID)
}

// GetArticle fetches a single archived article by archive id
func (s *PersistentStore) GetArticle(ctx context.Context, id string) (*domain.ArchivedArticle, error) {
	return s.getOne(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ? LIMIT 1`, id)
}

// GetByMessageID accepts the id with or without angle brackets.
func (s *PersistentStore) GetByMessageID(ctx context.Context, messageID string) (*domain.ArchivedArticle, error) {
	return s.getOne(ctx, `SELECT `+articleColumns+` FROM articles WHERE message_id = ? LIMIT 1`,
		domain.NormalizeMessageID(messageID))
}

// ListArticles returns archived articles, oldest first. An empty
// newsgroup lists every group; limit <= 0 means no limit.
func (s *PersistentStore) ListArticles(ctx context.Context, newsgroup string, limit int) ([]*domain.ArchivedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any

	if newsgroup != "" {
		query += ` WHERE newsgroup = ?`
		args = append(args, newsgroup)
	}
	query += ` ORDER BY id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []articleDBO
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	out := make([]*domain.ArchivedArticle, 0, len(rows))
	for i := range rows {
		art, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode article %s: %w", rows[i].ID, err)
		}
		out = append(out, art)
	}
	return out, nil
}

func (s *PersistentStore) getOne(ctx context.Context, query string, arg any) (*domain.ArchivedArticle, error) {
	var dbo articleDBO
	err := s.db.GetContext(ctx, &dbo, s.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}
	return dbo.ToDomain()
}
