// Package postgres implements store.Store on database/sql with the lib/pq
// driver. Schema lives in the database package.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/store"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB // nil inside a transaction
	q   querier
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, q: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ store.Store = (*Store)(nil)

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Internal("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{q: tx, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Get().Warn("Transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit transaction", err)
	}
	return nil
}

// mapError classifies driver errors. notFound is the client message used for
// missing rows and broken references.
func mapError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(apperrors.KindNotFound, notFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return apperrors.Wrap(apperrors.KindConflict, "Resource already exists", err)
		case foreignKeyViolation:
			return apperrors.Wrap(apperrors.KindNotFound, notFound, err)
		case checkViolation:
			return apperrors.Wrap(apperrors.KindValidation, "Invalid request", err)
		}
	}
	return apperrors.Internal("database operation failed", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
