package sqlstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

type columnKind int

const (
	kindText columnKind = iota
	kindInt
	kindFloat
)

// columnKinds maps each db-tagged Event field to its storage kind.
var columnKinds = func() map[string]columnKind {
	kinds := make(map[string]columnKind)
	t := reflect.TypeOf(domain.Event{})
	for i := range t.NumField() {
		f := t.Field(i)
		name := f.Tag.Get("db")
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		switch ft.Kind() {
		case reflect.Int64:
			kinds[name] = kindInt
		case reflect.Float64:
			kinds[name] = kindFloat
		default:
			kinds[name] = kindText
		}
	}
	return kinds
}()

func sqlType(d catalog.Dialect, column string) string {
	switch columnKinds[column] {
	case kindInt:
		return "BIGINT"
	case kindFloat:
		if d == catalog.MySQL {
			return "DOUBLE"
		}
		if d == catalog.Postgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	default:
		if column == "id" && d == catalog.MySQL {
			return "VARCHAR(64)"
		}
		return "TEXT"
	}
}

// createTableSQL renders the DDL for the event table. The table has no
// primary key; reruns append.
func createTableSQL(d catalog.Dialect, table string) string {
	cols := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		cols[i] = fmt.Sprintf("\t%s %s", d.Ident(c), sqlType(d, c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", d.Ident(table), strings.Join(cols, ",\n"))
}

// insertSQL renders a named insert that sqlx expands for a slice of events.
func insertSQL(d catalog.Dialect, table string) string {
	cols := make([]string, len(domain.Columns))
	params := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		cols[i] = d.Ident(c)
		params[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Ident(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

// selectSQL lists every column in domain.Columns order.
func selectSQL(d catalog.Dialect, table string) string {
	cols := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		cols[i] = d.Ident(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), d.Ident(table))
}
