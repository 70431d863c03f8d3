package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/schema"
	"github.com/roach88/objsql/internal/sqlfmt"
)

const peopleSchema = `
entity: Address: properties: {
	Id:   {type: "long", primaryKey: true, autoIncrement: true}
	City: {type: "string", length: 64}
}

entity: Person: {
	table: "People"
	properties: {
		Id:      {type: "long", primaryKey: true, autoIncrement: true}
		Name:    {type: "string", length: 64}
		Email:   {type: "string", nullable: true, unique: true}
		Address: {ref: "Address", nullable: true}
	}
}

entity: Badge: properties: {
	Id:    {type: "guid", primaryKey: true}
	Score: {type: "decimal"}
}
`

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// peopleDDL renders the test schema for SQLite.
func peopleDDL(t *testing.T) string {
	t.Helper()
	reg, err := schema.CompileString("people.cue", peopleSchema)
	if err != nil {
		t.Fatalf("CompileString() failed: %v", err)
	}
	list, err := schema.BuildDDL(reg)
	if err != nil {
		t.Fatalf("BuildDDL() failed: %v", err)
	}
	res, err := sqlfmt.Format(list, dialect.SQLite{}, sqlfmt.Options{})
	if err != nil {
		t.Fatalf("Format() failed: %v", err)
	}
	return res.SQL
}

// createPeopleStore returns a store with the test schema applied.
func createPeopleStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	if _, err := s.ApplyDDL(context.Background(), "test", "sqlite", peopleDDL(t)); err != nil {
		t.Fatalf("ApplyDDL() failed: %v", err)
	}
	return s
}
