package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// TableName is the relational table every query reads from.
const TableName = "earthquakes_raw"

// Dialect selects the SQL flavor used to render query text.
type Dialect int

// Supported dialects.
const (
	MySQL Dialect = iota
	SQLite
	Postgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "mysql"
	}
}

// Ident quotes an identifier where the dialect folds case.
func (d Dialect) Ident(name string) string {
	if d == Postgres {
		return `"` + name + `"`
	}
	return name
}

// timestamp renders the event time as a UTC timestamp.
func (d Dialect) timestamp() string {
	switch d {
	case SQLite:
		return "time/1000, 'unixepoch'"
	case Postgres:
		return `to_timestamp("time"/1000.0) AT TIME ZONE 'UTC'`
	default:
		return "FROM_UNIXTIME(time/1000)"
	}
}

func (d Dialect) datePart(mysqlFunc, sqliteFmt, pgField string) string {
	switch d {
	case SQLite:
		return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", sqliteFmt, d.timestamp())
	case Postgres:
		return fmt.Sprintf("CAST(EXTRACT(%s FROM %s) AS INTEGER)", pgField, d.timestamp())
	default:
		return fmt.Sprintf("%s(%s)", mysqlFunc, d.timestamp())
	}
}

func (d Dialect) dayName() string {
	switch d {
	case SQLite:
		var b strings.Builder
		fmt.Fprintf(&b, "CASE strftime('%%w', %s)", d.timestamp())
		for i, name := range []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"} {
			fmt.Fprintf(&b, " WHEN '%d' THEN '%s'", i, name)
		}
		b.WriteString(" END")
		return b.String()
	case Postgres:
		return fmt.Sprintf("TO_CHAR(%s, 'FMDay')", d.timestamp())
	default:
		return fmt.Sprintf("DAYNAME(%s)", d.timestamp())
	}
}

func (d Dialect) weekend() string {
	switch d {
	case SQLite:
		return fmt.Sprintf("strftime('%%w', %s) IN ('0','6')", d.timestamp())
	case Postgres:
		return fmt.Sprintf("EXTRACT(DOW FROM %s) IN (0,6)", d.timestamp())
	default:
		return fmt.Sprintf("DAYOFWEEK(%s) IN (1,7)", d.timestamp())
	}
}

// Expr renders an expression without its alias.
func (d Dialect) Expr(e Expr) string {
	switch e.kind {
	case exprColumn:
		return d.Ident(e.column)
	case exprYear:
		return d.datePart("YEAR", "%Y", "YEAR")
	case exprMonth:
		return d.datePart("MONTH", "%m", "MONTH")
	case exprHour:
		return d.datePart("HOUR", "%H", "HOUR")
	case exprDayName:
		return d.dayName()
	case exprDayType:
		return fmt.Sprintf("CASE\n WHEN %s IS NULL THEN NULL\n WHEN %s THEN 'Weekend'\n ELSE 'Weekday'\nEND",
			d.Ident("time"), d.weekend())
	case exprAlert:
		return fmt.Sprintf("LOWER(COALESCE(NULLIF(TRIM(%s), ''), 'none'))", d.Ident("alert"))
	case exprDepthCategory:
		col := d.Ident("depth_km")
		return fmt.Sprintf("CASE\n WHEN %s IS NULL THEN NULL\n WHEN %s < %s THEN 'Shallow'\n WHEN %s > %s THEN 'Deep'\n ELSE 'Intermediate'\nEND",
			col, col, formatNumber(domain.ShallowMaxDepthKm), col, formatNumber(domain.DeepMinDepthKm))
	case exprRisk:
		col := d.Ident("mag")
		return fmt.Sprintf("CASE\n WHEN %s IS NULL THEN NULL\n WHEN %s >= %s THEN 'High'\n WHEN %s >= %s THEN 'Moderate'\n ELSE 'Low'\nEND",
			col, col, formatNumber(domain.HighRiskMag), col, formatNumber(domain.ModerateRiskMag))
	case exprRoundedMag:
		col := d.Ident("mag")
		if d == SQLite {
			// SQLite rounds halves away from zero; step back to the even neighbour.
			return fmt.Sprintf("CASE\n WHEN ABS(%s - CAST(%s AS INTEGER)) = 0.5 AND CAST(ROUND(%s) AS INTEGER) %% 2 <> 0\n THEN ROUND(%s) - (CASE WHEN %s > 0 THEN 1 ELSE -1 END)\n ELSE ROUND(%s)\nEND",
				col, col, col, col, col, col)
		}
		// MySQL and Postgres round DOUBLE values half to even.
		return fmt.Sprintf("ROUND(%s)", col)
	default:
		return "NULL"
	}
}

func (d Dialect) pred(p Pred) string {
	lhs := d.Expr(p.Expr)
	if p.Op == OpBetween {
		return fmt.Sprintf("%s BETWEEN %s AND %s", lhs, formatNumber(p.Value), formatNumber(p.Upper))
	}
	return fmt.Sprintf("%s %s %s", lhs, p.Op, formatNumber(p.Value))
}

func (d Dialect) agg(a Agg) string {
	arg := "*"
	if a.Column != "" {
		arg = d.Ident(a.Column)
	}
	return fmt.Sprintf("%s(%s) AS %s", a.Func, arg, d.Ident(a.Alias))
}

func (d Dialect) order(o Order) string {
	s := d.Ident(o.Column)
	if o.Desc {
		s += " DESC"
	}
	if d == Postgres {
		// Match MySQL and SQLite, which sort NULL as the smallest value.
		if o.Desc {
			s += " NULLS LAST"
		} else {
			s += " NULLS FIRST"
		}
	}
	return s
}

// SQL renders the query text for a dialect against TableName.
func SQL(q Query, d Dialect) string {
	return Render(q, d, TableName)
}

// Render renders the query text for a dialect and table. Grouped queries
// always end their ORDER BY with the group key so both engines agree on tie
// order.
func Render(q Query, d Dialect, table string) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	switch {
	case q.Agg != nil && q.GroupBy != nil:
		fmt.Fprintf(&b, "%s AS %s, %s", d.Expr(*q.GroupBy), d.Ident(q.GroupBy.Alias), d.agg(*q.Agg))
	case q.Agg != nil:
		b.WriteString(d.agg(*q.Agg))
	case len(q.Select) > 0:
		cols := make([]string, len(q.Select))
		for i, c := range q.Select {
			cols[i] = d.Ident(c)
		}
		b.WriteString(strings.Join(cols, ", "))
	default:
		b.WriteString("*")
	}

	fmt.Fprintf(&b, "\nFROM %s", d.Ident(table))

	if len(q.Where) > 0 {
		conds := make([]string, len(q.Where))
		for i, p := range q.Where {
			conds[i] = d.pred(p)
		}
		fmt.Fprintf(&b, "\nWHERE %s", strings.Join(conds, " AND "))
	}

	orders := q.OrderBy
	if q.Agg != nil && q.GroupBy != nil {
		fmt.Fprintf(&b, "\nGROUP BY %s", d.Expr(*q.GroupBy))
		if !hasOrder(orders, q.GroupBy.Alias) {
			orders = append(cloneOrders(orders), Asc(q.GroupBy.Alias))
		}
	}

	if len(orders) > 0 {
		parts := make([]string, len(orders))
		for i, o := range orders {
			parts[i] = d.order(o)
		}
		fmt.Fprintf(&b, "\nORDER BY %s", strings.Join(parts, ", "))
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", q.Limit)
	}
	b.WriteString(";")
	return b.String()
}

func hasOrder(orders []Order, column string) bool {
	for _, o := range orders {
		if o.Column == column {
			return true
		}
	}
	return false
}

// cloneOrders copies an order list so appending never aliases the catalog entry.
func cloneOrders(orders []Order) []Order {
	return append([]Order(nil), orders...)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
