// Package catalog defines the fixed set of dashboard queries over the
// earthquake table. Each query is a single declarative plan; the in-memory
// engine evaluates it and the SQL text shown on the dashboard is rendered from
// the same plan, so the two cannot drift apart.
package catalog

import (
	"math"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// Display tells the presentation layer how to show a result.
type Display int

const (
	// DisplayTable shows the result table only.
	DisplayTable Display = iota
	// DisplayChart shows the result table and a bar chart of its two columns.
	DisplayChart
)

func (d Display) String() string {
	if d == DisplayChart {
		return "chart"
	}
	return "table"
}

// MarshalText renders the display hint as "table" or "chart".
func (d Display) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Query is one analytical view of the earthquake table.
type Query struct {
	ID      int
	Section string
	Title   string
	Display Display

	// Select lists the projected columns of a row query. Empty selects every
	// column. Ignored when Agg is set.
	Select  []string
	Where   []Pred
	GroupBy *Expr
	Agg     *Agg
	OrderBy []Order
	// Limit caps the number of result rows. Zero means no limit.
	Limit int
}

// Columns returns the output column names of the query.
func (q Query) Columns() []string {
	if q.Agg != nil {
		if q.GroupBy != nil {
			return []string{q.GroupBy.Alias, q.Agg.Alias}
		}
		return []string{q.Agg.Alias}
	}
	if len(q.Select) > 0 {
		return q.Select
	}
	return domain.Columns
}

type exprKind int

const (
	exprColumn exprKind = iota
	exprYear
	exprMonth
	exprHour
	exprDayName
	exprDayType
	exprAlert
	exprDepthCategory
	exprRisk
	exprRoundedMag
)

// Expr is a value computed per row: a stored column or a derived field.
type Expr struct {
	kind   exprKind
	column string
	// Alias names the expression in result tables.
	Alias string
}

// Col references a stored column by name.
func Col(name string) Expr {
	return Expr{kind: exprColumn, column: name, Alias: name}
}

// As returns a copy of the expression with a different alias.
func (e Expr) As(alias string) Expr {
	e.Alias = alias
	return e
}

// Derived expressions. Every one of them is nil when its input is nil.
var (
	Year          = Expr{kind: exprYear, Alias: "year"}
	Month         = Expr{kind: exprMonth, Alias: "month"}
	Hour          = Expr{kind: exprHour, Alias: "hour"}
	DayName       = Expr{kind: exprDayName, Alias: "day"}
	DayType       = Expr{kind: exprDayType, Alias: "day_type"}
	Alert         = Expr{kind: exprAlert, Alias: "alert"}
	DepthCategory = Expr{kind: exprDepthCategory, Alias: "depth_category"}
	Risk          = Expr{kind: exprRisk, Alias: "risk"}
	RoundedMag    = Expr{kind: exprRoundedMag, Alias: "magnitude"}
)

// Eval computes the expression for one row.
func (e Expr) Eval(r domain.Row) any {
	switch e.kind {
	case exprColumn:
		v, _ := r.Column(e.column)
		return v
	case exprYear:
		return intPtr(r.Derived.Year)
	case exprMonth:
		return intPtr(r.Derived.Month)
	case exprHour:
		return intPtr(r.Derived.Hour)
	case exprDayName:
		if r.Derived.DayName == nil {
			return nil
		}
		return *r.Derived.DayName
	case exprDayType:
		if r.Derived.DayName == nil {
			return nil
		}
		return domain.DayType(*r.Derived.DayName)
	case exprAlert:
		return r.Derived.Alert
	case exprDepthCategory:
		if r.DepthKm == nil {
			return nil
		}
		return domain.DepthCategory(*r.DepthKm)
	case exprRisk:
		if r.Mag == nil {
			return nil
		}
		return domain.RiskLevel(*r.Mag)
	case exprRoundedMag:
		if r.Mag == nil {
			return nil
		}
		return math.RoundToEven(*r.Mag)
	default:
		return nil
	}
}

func intPtr(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

// Op is a comparison operator.
type Op string

// Supported comparison operators.
const (
	OpEq      Op = "="
	OpLt      Op = "<"
	OpGt      Op = ">"
	OpBetween Op = "BETWEEN"
)

// Pred is a row filter. Comparisons against nil are false, as in SQL.
type Pred struct {
	Expr  Expr
	Op    Op
	Value float64
	// Upper is the inclusive upper bound for OpBetween.
	Upper float64
}

// Match reports whether the row satisfies the predicate.
func (p Pred) Match(r domain.Row) bool {
	v, ok := toFloat(p.Expr.Eval(r))
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return v == p.Value
	case OpLt:
		return v < p.Value
	case OpGt:
		return v > p.Value
	case OpBetween:
		return v >= p.Value && v <= p.Upper
	default:
		return false
	}
}

// Where builds a comparison predicate on a stored column.
func Where(column string, op Op, value float64) Pred {
	return Pred{Expr: Col(column), Op: op, Value: value}
}

// Between builds an inclusive range predicate on a stored column.
func Between(column string, lo, hi float64) Pred {
	return Pred{Expr: Col(column), Op: OpBetween, Value: lo, Upper: hi}
}

// AggFunc is an aggregate function.
type AggFunc string

// Supported aggregate functions.
const (
	Count AggFunc = "COUNT"
	Avg   AggFunc = "AVG"
	Sum   AggFunc = "SUM"
)

// Agg is the single aggregate of a grouped or whole-table query.
type Agg struct {
	Func AggFunc
	// Column is the aggregated column; empty for COUNT(*).
	Column string
	Alias  string
}

// CountAll counts rows into the given alias.
func CountAll(alias string) *Agg {
	return &Agg{Func: Count, Alias: alias}
}

// Average averages a column into the given alias.
func Average(column, alias string) *Agg {
	return &Agg{Func: Avg, Column: column, Alias: alias}
}

// Order sorts by an output column.
type Order struct {
	Column string
	Desc   bool
}

// Desc sorts descending by an output column.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Asc sorts ascending by an output column.
func Asc(column string) Order { return Order{Column: column} }
