package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrScopeClosed is returned by a Scope after Complete or Rollback.
var ErrScopeClosed = errors.New("scope is closed")

// Statement is one parameterized statement queued in a Scope.
type Statement struct {
	SQL    string
	Params []any
}

// Result is the outcome of one flushed statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Scope is a unit of work over one transaction.
//
// Statements are queued by Enqueue and sent to the database on Flush,
// before any Query, and on Complete. Complete commits; a scope dropped
// without Complete must be rolled back, conventionally with
// defer scope.Rollback(). Rollback after Complete is a no-op.
//
// Thread-safety: all methods are safe for concurrent use; statements run
// in Enqueue order.
type Scope struct {
	mu      sync.Mutex
	tx      *sql.Tx
	pending []Statement
	closed  bool
}

// Begin opens a scope. The store's single connection is held until the
// scope completes or rolls back.
func (s *Store) Begin(ctx context.Context) (*Scope, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}
	return &Scope{tx: tx}, nil
}

// Enqueue queues a statement without executing it.
func (sc *Scope) Enqueue(query string, params ...any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return ErrScopeClosed
	}
	sc.pending = append(sc.pending, Statement{SQL: query, Params: params})
	return nil
}

// Pending returns the number of queued statements.
func (sc *Scope) Pending() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.pending)
}

// Flush executes the queued statements in order. On failure the failing
// statement and everything after it stay queued and the error names the
// statement's position in the flush.
func (sc *Scope) Flush(ctx context.Context) ([]Result, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return nil, ErrScopeClosed
	}
	return sc.flush(ctx)
}

func (sc *Scope) flush(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(sc.pending))
	for i, st := range sc.pending {
		args, err := bindArgs(st.Params)
		if err != nil {
			sc.pending = sc.pending[i:]
			return results, fmt.Errorf("flush statement %d: %w", i, err)
		}
		res, err := sc.tx.ExecContext(ctx, st.SQL, args...)
		if err != nil {
			sc.pending = sc.pending[i:]
			return results, fmt.Errorf("flush statement %d: %w", i, err)
		}
		var r Result
		// SQLite always reports both; other drivers may not.
		r.RowsAffected, _ = res.RowsAffected()
		r.LastInsertID, _ = res.LastInsertId()
		results = append(results, r)
	}
	sc.pending = nil
	return results, nil
}

// Query flushes queued statements, then runs query inside the scope so it
// observes them. Callers close the rows before the next scope call.
func (sc *Scope) Query(ctx context.Context, query string, params ...any) (*sql.Rows, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return nil, ErrScopeClosed
	}
	if _, err := sc.flush(ctx); err != nil {
		return nil, err
	}
	args, err := bindArgs(params)
	if err != nil {
		return nil, err
	}
	return sc.tx.QueryContext(ctx, query, args...)
}

// Complete flushes and commits. A flush failure rolls the scope back.
func (sc *Scope) Complete(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return ErrScopeClosed
	}
	sc.closed = true
	if _, err := sc.flush(ctx); err != nil {
		sc.tx.Rollback()
		return err
	}
	if err := sc.tx.Commit(); err != nil {
		return fmt.Errorf("complete scope: %w", err)
	}
	return nil
}

// Rollback discards queued and flushed work. Safe to call more than once
// and after Complete.
func (sc *Scope) Rollback() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return nil
	}
	sc.closed = true
	sc.pending = nil
	if err := sc.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback scope: %w", err)
	}
	return nil
}
