// Package sql carries the embedded schema definitions for both stores.
// Postgres files may hold several statements; ClickHouse executes one
// statement per call, so consumers split files with Statements.
package sql

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed postgres/*.sql
//go:embed clickhouse/*.sql
var Content embed.FS

// Statements reads an embedded SQL file and splits it into individual
// statements, dropping empty fragments.
func Statements(path string) ([]string, error) {
	raw, err := Content.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedded sql %s: %w", path, err)
	}
	parts := strings.Split(string(raw), ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}
