// Package search provides a ready-made Postgres lookup for chat enrichment.
// It is one implementation of the agent.Lookup strategy; callers with other
// data sources supply their own.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"chatkit/internal/agent"
)

// identPattern restricts table and column names to plain identifiers, since
// they are interpolated into the statement text.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type PostgresLookup struct {
	db       *sql.DB
	settings agent.SearchSettings
}

var _ agent.Lookup = (*PostgresLookup)(nil)

// NewPostgres opens a connection pool and validates the search settings.
func NewPostgres(dsn string, settings agent.SearchSettings) (*PostgresLookup, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresLookup{db: db, settings: settings}, nil
}

func validateSettings(s agent.SearchSettings) error {
	if !identPattern.MatchString(s.TableName) {
		return fmt.Errorf("invalid table name %q", s.TableName)
	}
	if len(s.SearchColumns) == 0 {
		return fmt.Errorf("at least one search column is required")
	}
	for _, col := range s.SearchColumns {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
	}
	return nil
}

// Search matches any keyword case-insensitively against any configured
// column and returns up to MaxResults rows as column-keyed maps.
func (l *PostgresLookup) Search(ctx context.Context, keywords []string) (any, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords to search")
	}

	patterns := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, "%"+escapeLike(kw)+"%")
	}

	conditions := make([]string, 0, len(l.settings.SearchColumns))
	for _, col := range l.settings.SearchColumns {
		conditions = append(conditions, fmt.Sprintf("%s ILIKE ANY($1)", col))
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT %d",
		l.settings.TableName, strings.Join(conditions, " OR "), l.settings.Limit())

	rows, err := l.db.QueryContext(ctx, query, pq.Array(patterns))
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Close closes the underlying connection pool.
func (l *PostgresLookup) Close() error {
	return l.db.Close()
}

// escapeLike neutralizes LIKE metacharacters in a keyword.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// scanRows converts a result set into []map[string]any so the lookup result
// stays opaque to the agent and serializes cleanly into a prompt.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
