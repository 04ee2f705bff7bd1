package catalog

import (
	"slices"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// Run evaluates a query against an in-memory frame.
//
// Row queries keep the frame order unless the query sorts, and sorting is
// stable so ties fall back to the original row order. Grouped queries emit
// groups ordered by key (nil first) before any declared ordering is applied.
func Run(q Query, frame domain.Frame) Table {
	rows := filter(frame, q.Where)
	if q.Agg != nil {
		return limit(sortTable(aggregate(q, rows), q.OrderBy), q.Limit)
	}
	return limit(project(q, sortRows(rows, q.OrderBy)), q.Limit)
}

func filter(frame domain.Frame, preds []Pred) []domain.Row {
	out := make([]domain.Row, 0, len(frame))
	for _, r := range frame {
		keep := true
		for _, p := range preds {
			if !p.Match(r) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

func sortRows(rows []domain.Row, orders []Order) []domain.Row {
	if len(orders) == 0 {
		return rows
	}
	slices.SortStableFunc(rows, func(a, b domain.Row) int {
		for _, o := range orders {
			av, _ := a.Column(o.Column)
			bv, _ := b.Column(o.Column)
			c := compareValues(av, bv)
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return rows
}

func project(q Query, rows []domain.Row) Table {
	cols := q.Columns()
	t := Table{Columns: cols, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		out := make([]any, len(cols))
		for i, c := range cols {
			out[i], _ = r.Column(c)
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}

type group struct {
	key  any
	rows []domain.Row
}

func aggregate(q Query, rows []domain.Row) Table {
	t := Table{Columns: q.Columns()}
	if q.GroupBy == nil {
		t.Rows = [][]any{{reduce(*q.Agg, rows)}}
		return t
	}

	index := map[any]int{}
	var groups []group
	for _, r := range rows {
		k := q.GroupBy.Eval(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	slices.SortStableFunc(groups, func(a, b group) int {
		return compareValues(a.key, b.key)
	})

	t.Rows = make([][]any, 0, len(groups))
	for _, g := range groups {
		t.Rows = append(t.Rows, []any{g.key, reduce(*q.Agg, g.rows)})
	}
	return t
}

// reduce applies an aggregate with SQL semantics: COUNT(*) counts rows, AVG
// and SUM skip nil values and yield nil when nothing is left.
func reduce(a Agg, rows []domain.Row) any {
	if a.Func == Count {
		return int64(len(rows))
	}
	var sum float64
	var n int
	for _, r := range rows {
		v, _ := r.Column(a.Column)
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return nil
	}
	if a.Func == Avg {
		return sum / float64(n)
	}
	return sum
}

func sortTable(t Table, orders []Order) Table {
	if len(orders) == 0 {
		return t
	}
	idx := make([]int, len(orders))
	for i, o := range orders {
		idx[i] = t.Column(o.Column)
	}
	slices.SortStableFunc(t.Rows, func(a, b []any) int {
		for i, o := range orders {
			if idx[i] < 0 {
				continue
			}
			c := compareValues(a[idx[i]], b[idx[i]])
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return t
}

func limit(t Table, n int) Table {
	if n > 0 && len(t.Rows) > n {
		t.Rows = t.Rows[:n]
	}
	return t
}
