package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// LoadAll reads every row of the table.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	if err := s.db.SelectContext(ctx, &events, selectSQL(s.dialect, s.table)); err != nil {
		return nil, fmt.Errorf("load %s: %w", s.table, err)
	}
	return events, nil
}

// Version summarizes the table contents so callers can detect changes
// without reloading it.
func (s *Store) Version(ctx context.Context) (string, error) {
	q := fmt.Sprintf("SELECT COUNT(*), MAX(%s) FROM %s", s.dialect.Ident("updated"), s.dialect.Ident(s.table))
	var (
		count   int64
		updated sql.NullInt64
	)
	if err := s.db.QueryRowxContext(ctx, q).Scan(&count, &updated); err != nil {
		return "", fmt.Errorf("version %s: %w", s.table, err)
	}
	return fmt.Sprintf("rows=%d updated=%d", count, updated.Int64), nil
}

// Query executes the rendered SQL for a catalog entry and returns its result
// with cells normalized to nil, string, int64 or float64.
func (s *Store) Query(ctx context.Context, q catalog.Query) (catalog.Table, error) {
	text := strings.TrimSuffix(catalog.Render(q, s.dialect, s.table), ";")

	rows, err := s.db.QueryxContext(ctx, text)
	if err != nil {
		return catalog.Table{}, fmt.Errorf("query %d: %w", q.ID, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return catalog.Table{}, fmt.Errorf("query %d columns: %w", q.ID, err)
	}

	t := catalog.Table{Columns: q.Columns()}
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return catalog.Table{}, fmt.Errorf("query %d scan: %w", q.ID, err)
		}
		row := make([]any, len(raw))
		for i, v := range raw {
			row[i] = normalize(v, types[i].DatabaseTypeName())
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return catalog.Table{}, fmt.Errorf("query %d: %w", q.ID, err)
	}
	return t, nil
}

// normalize maps driver values onto the cell types the catalog engine
// produces. Text-protocol drivers return numbers as bytes.
func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return x
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case float64:
		return x
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case []byte:
		return parseText(string(x), dbType)
	case string:
		return parseText(x, dbType)
	default:
		return fmt.Sprint(x)
	}
}

func parseText(s, dbType string) any {
	switch strings.ToUpper(dbType) {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "INT2", "INT4", "INT8",
		"UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "DECIMAL", "NUMERIC", "DOUBLE", "FLOAT", "REAL", "FLOAT4", "FLOAT8", "DOUBLE PRECISION":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
