package sql

import (
	"strings"
	"testing"
)

func TestStatementsSplitsClickHouseDDL(t *testing.T) {
	stmts, err := Statements("clickhouse/marts.sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmts) != 5 {
		t.Fatalf("expected 5 mart tables, got %d", len(stmts))
	}
	for _, stmt := range stmts {
		if !strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS") {
			t.Fatalf("unexpected statement prefix: %.40s", stmt)
		}
	}
}

func TestStatementsPostgresSchemas(t *testing.T) {
	for _, path := range []string{"postgres/raw.sql", "postgres/ops.sql"} {
		stmts, err := Statements(path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", path, err)
		}
		if len(stmts) != 3 {
			t.Fatalf("%s: expected schema + 2 tables, got %d statements", path, len(stmts))
		}
		if !strings.HasPrefix(stmts[0], "CREATE SCHEMA") {
			t.Fatalf("%s: expected leading CREATE SCHEMA, got %.40s", path, stmts[0])
		}
	}
}

func TestStatementsMissingFile(t *testing.T) {
	if _, err := Statements("postgres/nope.sql"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
