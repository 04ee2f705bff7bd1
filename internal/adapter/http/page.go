package http

import (
	"html/template"
	"math"

	"github.com/couchcryptid/quake-trends-etl/internal/catalog"
	"github.com/couchcryptid/quake-trends-etl/internal/presenter"
)

type pageData struct {
	Error    string
	Sections []section
}

type section struct {
	Name  string
	Views []presenter.View
}

type bar struct {
	Label   string
	Value   float64
	Percent float64
}

var funcs = template.FuncMap{
	"cell": catalog.FormatValue,
	"bars": bars,
	"isChart": func(d catalog.Display) bool {
		return d == catalog.DisplayChart
	},
}

// groupSections keeps the catalog order and starts a new section whenever
// the section name changes.
func groupSections(views []presenter.View) []section {
	var out []section
	for _, v := range views {
		if len(out) == 0 || out[len(out)-1].Name != v.Section {
			out = append(out, section{Name: v.Section})
		}
		last := &out[len(out)-1]
		last.Views = append(last.Views, v)
	}
	return out
}

// bars scales chart values against the largest absolute value.
func bars(c *presenter.Chart) []bar {
	if c == nil {
		return nil
	}
	var peak float64
	for _, v := range c.Values {
		peak = max(peak, math.Abs(v))
	}
	out := make([]bar, len(c.Values))
	for i, v := range c.Values {
		out[i] = bar{Label: c.Labels[i], Value: v}
		if peak > 0 {
			out[i].Percent = math.Abs(v) / peak * 100
		}
	}
	return out
}
