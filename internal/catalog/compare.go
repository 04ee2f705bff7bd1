package catalog

import (
	"fmt"
	"math"
)

// Equivalent reports the first difference between two result tables.
// Numbers compare by value within tol regardless of integer or float
// representation, so results from different engines can be checked against
// each other.
func Equivalent(want, got Table, tol float64) error {
	if len(want.Columns) != len(got.Columns) {
		return fmt.Errorf("column count: want %d, got %d", len(want.Columns), len(got.Columns))
	}
	for i := range want.Columns {
		if want.Columns[i] != got.Columns[i] {
			return fmt.Errorf("column %d: want %q, got %q", i, want.Columns[i], got.Columns[i])
		}
	}
	if want.Len() != got.Len() {
		return fmt.Errorf("row count: want %d, got %d", want.Len(), got.Len())
	}
	for r := range want.Rows {
		for c := range want.Columns {
			if !sameValue(want.Rows[r][c], got.Rows[r][c], tol) {
				return fmt.Errorf("row %d column %q: want %s, got %s",
					r, want.Columns[c], describe(want.Rows[r][c]), describe(got.Rows[r][c]))
			}
		}
	}
	return nil
}

func sameValue(a, b any, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return math.Abs(af-bf) <= tol
	}
	if aNum != bNum {
		return false
	}
	return FormatValue(a) == FormatValue(b)
}

func describe(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%q", FormatValue(v))
}
