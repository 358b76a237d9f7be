package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/coworking-booking/internal/ledger"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are written against it so the same implementation runs
// inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore implements ledger.Store on MySQL.  ExecTx opens one
// transaction, hands transaction-bound repositories to the callback
// and commits only when it returns nil; the deferred rollback covers
// every early return.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a store bound to the given database.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// DB exposes the underlying pool for collaborators that manage their
// own queries (auth repositories, health checks).
func (s *SQLStore) DB() *sql.DB { return s.db }

// ExecTx runs fn inside a single database transaction.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(r ledger.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(reposOver(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Repos returns repositories over the autocommit connection for plain
// reads.
func (s *SQLStore) Repos() ledger.Repos { return reposOver(s.db) }

func reposOver(q dbtx) ledger.Repos {
	return ledger.Repos{
		Bookings:     &BookingRepo{q: q},
		Accounts:     &AccountRepo{q: q},
		Transactions: &TransactionRepo{q: q},
	}
}
