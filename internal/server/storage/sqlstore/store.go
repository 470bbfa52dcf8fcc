// Package sqlstore is a storage.Storage over database/sql. It speaks to
// PostgreSQL through pgx and to SQLite through modernc.org/sqlite, keeping
// every record type in one beans table keyed by (kind, id).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/dbx"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage"
	"github.com/google/uuid"
)

// Store persists records of one kind.
type Store[B bean.Bean] struct {
	db      *sql.DB
	dialect Dialect
	kind    string
	owner   func(B) string
}

// New returns a store of kind records on db. The schema must already be
// migrated.
func New[B bean.Bean](db *sql.DB, d Dialect, kind string, owner func(B) string) *Store[B] {
	return &Store[B]{db: db, dialect: d, kind: kind, owner: owner}
}

func (s *Store[B]) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *Store[B]) Load(ctx context.Context, id uuid.UUID) (B, error) {
	var zero B
	var token string
	var body []byte

	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT token, body FROM beans WHERE kind = ? AND id = ?`),
		s.kind, id.String()).Scan(&token, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, common.ErrorNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("error performing sql request: %w", err)
	}
	return storage.Decode[B](bean.Token(token), body)
}

func (s *Store[B]) List(ctx context.Context, q storage.Query) ([]B, error) {
	query := `SELECT token, body FROM beans WHERE kind = ?`
	args := []any{s.kind}
	if q.ID != uuid.Nil {
		query += ` AND id = ?`
		args = append(args, q.ID.String())
	}
	if q.Owner != "" {
		query += ` AND owner = ?`
		args = append(args, q.Owner)
	}
	query += ` ORDER BY published, id`
	switch {
	case q.Limit > 0:
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	case q.Offset > 0:
		query += s.dialect.noLimit()
	}
	if q.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []B
	for rows.Next() {
		var token string
		var body []byte
		if err := rows.Scan(&token, &body); err != nil {
			return nil, err
		}
		b, err := storage.Decode[B](bean.Token(token), body)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store[B]) Store(ctx context.Context, b B, expected bean.Token) (bean.Token, error) {
	meta := b.Metadata()
	id := meta.ID.String()
	owner := s.owner(b)
	published := meta.Published.UnixNano()

	body, err := bean.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	if expected.IsZero() {
		token, err := bean.TokenOf(1, body)
		if err != nil {
			return "", err
		}
		res, err := s.db.ExecContext(ctx, s.q(
			`INSERT INTO beans (kind, id, owner, published, revision, token, body)
			VALUES (?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT (kind, id) DO NOTHING`),
			s.kind, id, owner, published, string(token), body)
		if err != nil {
			return "", fmt.Errorf("error performing sql request: %w", err)
		}
		if err := dbx.ExpectRows(res, 1, common.ErrVersionConflict); err != nil {
			return "", err
		}
		return token, nil
	}

	var token bean.Token
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var revision int64
		var current string
		err := tx.QueryRowContext(ctx,
			s.q(`SELECT revision, token FROM beans WHERE kind = ? AND id = ?`),
			s.kind, id).Scan(&revision, &current)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		if bean.Token(current) != expected {
			return common.ErrVersionConflict
		}

		next, err := bean.TokenOf(revision+1, body)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.q(
			`UPDATE beans SET owner = ?, published = ?, revision = ?, token = ?, body = ?
			WHERE kind = ? AND id = ? AND token = ?`),
			owner, published, revision+1, string(next), body,
			s.kind, id, string(expected))
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		if err := dbx.ExpectRows(res, 1, common.ErrVersionConflict); err != nil {
			return err
		}
		token = next
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store[B]) Erase(ctx context.Context, id uuid.UUID, expected bean.Token) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			s.q(`DELETE FROM beans WHERE kind = ? AND id = ? AND token = ?`),
			s.kind, id.String(), string(expected))
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		err = dbx.ExpectRows(res, 1, common.ErrVersionConflict)
		if !errors.Is(err, common.ErrVersionConflict) {
			return err
		}

		var exists int
		err = tx.QueryRowContext(ctx,
			s.q(`SELECT 1 FROM beans WHERE kind = ? AND id = ?`),
			s.kind, id.String()).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return common.ErrVersionConflict
	})
}
