package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// DomainDDL separates DDL content hashes from any other hashed content.
const DomainDDL = "objsql/ddl/v1"

// Migration is one recorded application of DDL text.
type Migration struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	CompileID string `json:"compile_id"`
	Dialect   string `json:"dialect"`
	SQL       string `json:"sql"`
}

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MigrationID is the content address of ddl. Identical text yields the
// same ID, which makes ApplyDDL idempotent.
func MigrationID(ddl string) string {
	return hashWithDomain(DomainDDL, []byte(ddl))
}

// ApplyDDL executes ddl (one or more statements, without parameters) and
// records it in one transaction. DDL whose content hash is already
// recorded is skipped; applied reports whether anything ran.
func (s *Store) ApplyDDL(ctx context.Context, compileID, dialect, ddl string) (applied bool, err error) {
	id := MigrationID(ddl)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("apply ddl: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM objsql_migrations WHERE id = ?", id).Scan(&exists)
	switch {
	case err == nil:
		return false, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("apply ddl: %w", err)
	}

	if _, err = tx.ExecContext(ctx, ddl); err != nil {
		return false, fmt.Errorf("apply ddl %s: %w", id[:12], err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO objsql_migrations (id, seq, compile_id, dialect, sql)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM objsql_migrations), ?, ?, ?)
	`, id, compileID, dialect, ddl)
	if err != nil {
		return false, fmt.Errorf("record migration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("apply ddl: %w", err)
	}
	return true, nil
}

// Migrations returns every recorded migration in application order.
// Returns an empty slice (not nil) when none exist.
func (s *Store) Migrations(ctx context.Context) ([]Migration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, compile_id, dialect, sql
		FROM objsql_migrations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	out := []Migration{}
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.ID, &m.Seq, &m.CompileID, &m.Dialect, &m.SQL); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migrations: %w", err)
	}
	return out, nil
}
