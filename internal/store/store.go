// Package store wraps db.Querier with transaction support, converts between
// database rows and model types, and groups the multi-step writes that must
// execute atomically.
//
// Dependency rule: store imports db and model only. It never imports api,
// worker, scoring, ai, or notify.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/db"
)

// ErrNotFound is returned when the requested row does not exist. Callers
// check it with errors.Is; every other error means the store is unhealthy.
var ErrNotFound = errors.New("store: not found")

// Store holds a *sql.DB for starting transactions and a db.Querier for
// executing queries outside of transactions. The operation files
// (profiles.go, checkins.go, assessments.go) attach methods to this type.
type Store struct {
	// pool is the raw connection pool, used only to begin transactions.
	pool *sql.DB

	// q is the Querier used for non-transactional calls.
	q db.Querier

	now func() time.Time
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via db.PingContext) before calling New.
func New(pool *sql.DB, q db.Querier) *Store {
	return &Store{pool: pool, q: q, now: time.Now}
}

// Ping verifies the pool is reachable. Used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.PingContext(ctx)
}

// txQuerier is a function that receives a transactional Querier and returns an
// error. Returning a non-nil error causes withTx to roll back automatically.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a transaction, passes a Querier scoped to that transaction to
// fn, and commits on success or rolls back on any error (including panics).
//
// Serializable isolation is used because the check-in write reads the
// profile's severity history before rewriting it.
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	queries, ok := s.q.(*db.Queries)
	if !ok {
		return fmt.Errorf("store: transactions need *db.Queries, got %T", s.q)
	}

	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps everything else.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

// day truncates t to its UTC calendar day.
func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
