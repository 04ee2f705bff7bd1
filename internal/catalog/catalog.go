package catalog

// Dashboard sections, in display order.
const (
	SectionMagnitude = "Magnitude & Depth"
	SectionTime      = "Time Analysis"
	SectionQuality   = "Quality & Event Type"
	SectionTsunami   = "Tsunami & Alerts"
	SectionPattern   = "Pattern & Risk"
)

// rowLimit caps row-listing queries.
const rowLimit = 15

func ptr(e Expr) *Expr { return &e }

var queries = []Query{
	// Magnitude & Depth
	{
		ID: 1, Section: SectionMagnitude, Title: "Top 15 strongest earthquakes",
		Select:  []string{"place", "mag", "depth_km"},
		OrderBy: []Order{Desc("mag")},
		Limit:   rowLimit,
	},
	{
		ID: 2, Section: SectionMagnitude, Title: "Top 15 deepest earthquakes",
		Select:  []string{"place", "depth_km", "mag"},
		OrderBy: []Order{Desc("depth_km")},
		Limit:   rowLimit,
	},
	{
		ID: 3, Section: SectionMagnitude, Title: "Shallow earthquakes (<50 km) with magnitude > 7.5",
		Where: []Pred{Where("depth_km", OpLt, 50), Where("mag", OpGt, 7.5)},
		Limit: rowLimit,
	},
	{
		ID: 4, Section: SectionMagnitude, Title: "Average depth of all earthquakes",
		Agg: Average("depth_km", "avg_depth"),
	},
	{
		ID: 5, Section: SectionMagnitude, Title: "Average magnitude by magnitude type",
		Display: DisplayChart,
		GroupBy: ptr(Col("magType")),
		Agg:     Average("mag", "avg_magnitude"),
	},

	// Time Analysis
	{
		ID: 6, Section: SectionTime, Title: "Year with the highest number of earthquakes",
		Display: DisplayChart,
		GroupBy: ptr(Year),
		Agg:     CountAll("count"),
		OrderBy: []Order{Desc("count")},
		Limit:   1,
	},
	{
		ID: 7, Section: SectionTime, Title: "Month with the highest number of earthquakes",
		Display: DisplayChart,
		GroupBy: ptr(Month),
		Agg:     CountAll("count"),
		OrderBy: []Order{Desc("count")},
		Limit:   1,
	},
	{
		ID: 8, Section: SectionTime, Title: "Day of the week with most earthquakes",
		Display: DisplayChart,
		GroupBy: ptr(DayName),
		Agg:     CountAll("count"),
		OrderBy: []Order{Desc("count")},
		Limit:   1,
	},
	{
		ID: 9, Section: SectionTime, Title: "Earthquake count per hour",
		Display: DisplayChart,
		GroupBy: ptr(Hour),
		Agg:     CountAll("count"),
	},
	{
		ID: 10, Section: SectionTime, Title: "Most active seismic network",
		Display: DisplayChart,
		GroupBy: ptr(Col("net")),
		Agg:     CountAll("count"),
		OrderBy: []Order{Desc("count")},
		Limit:   1,
	},

	// Quality & Event Type
	{
		ID: 11, Section: SectionQuality, Title: "Reviewed vs automatic events",
		Display: DisplayChart,
		GroupBy: ptr(Col("status")),
		Agg:     CountAll("count"),
	},
	{
		ID: 12, Section: SectionQuality, Title: "Number of earthquakes by event type",
		Display: DisplayChart,
		GroupBy: ptr(Col("eventType")),
		Agg:     CountAll("count"),
	},
	{
		ID: 13, Section: SectionQuality, Title: "Number of earthquakes by data type",
		Display: DisplayChart,
		GroupBy: ptr(Col("types")),
		Agg:     CountAll("count"),
	},
	{
		ID: 14, Section: SectionQuality, Title: "High station coverage earthquakes (nst > 50)",
		Where: []Pred{Where("nst", OpGt, 50)},
		Limit: rowLimit,
	},
	{
		ID: 15, Section: SectionQuality, Title: "Least reliable earthquakes (high RMS and gap)",
		OrderBy: []Order{Desc("rms"), Desc("gap")},
		Limit:   rowLimit,
	},

	// Tsunami & Alerts
	{
		ID: 16, Section: SectionTsunami, Title: "Total tsunami events",
		Where: []Pred{Where("tsunami", OpEq, 1)},
		Agg:   CountAll("tsunami_events"),
	},
	{
		ID: 17, Section: SectionTsunami, Title: "Tsunami events per year",
		Display: DisplayChart,
		Where:   []Pred{Where("tsunami", OpEq, 1)},
		GroupBy: ptr(Year),
		Agg:     CountAll("count"),
	},
	{
		ID: 18, Section: SectionTsunami, Title: "Earthquakes by alert level",
		Display: DisplayChart,
		GroupBy: ptr(Alert),
		Agg:     CountAll("count"),
	},
	{
		ID: 19, Section: SectionTsunami, Title: "Average magnitude by alert level",
		Display: DisplayChart,
		GroupBy: ptr(Alert),
		Agg:     Average("mag", "avg_magnitude"),
	},
	{
		ID: 20, Section: SectionTsunami, Title: "High-magnitude tsunami events (mag > 7)",
		Where: []Pred{Where("tsunami", OpEq, 1), Where("mag", OpGt, 7)},
		Limit: rowLimit,
	},

	// Pattern & Risk
	{
		ID: 21, Section: SectionPattern, Title: "Shallow vs intermediate vs deep earthquake count",
		Display: DisplayChart,
		GroupBy: ptr(DepthCategory),
		Agg:     CountAll("count"),
	},
	{
		ID: 22, Section: SectionPattern, Title: "15 most recent earthquakes",
		OrderBy: []Order{Desc("time")},
		Limit:   rowLimit,
	},
	{
		ID: 23, Section: SectionPattern, Title: "Earthquakes near the equator (±5° latitude)",
		Where: []Pred{Between("latitude", -5, 5)},
		Limit: rowLimit,
	},
	{
		ID: 24, Section: SectionPattern, Title: "Deep-focus earthquakes (>300 km)",
		Where: []Pred{Where("depth_km", OpGt, 300)},
		Limit: rowLimit,
	},
	{
		ID: 25, Section: SectionPattern, Title: "Average earthquake depth per year",
		Display: DisplayChart,
		GroupBy: ptr(Year),
		Agg:     Average("depth_km", "avg_depth"),
	},
	{
		ID: 26, Section: SectionPattern, Title: "Average earthquake magnitude per year",
		Display: DisplayChart,
		GroupBy: ptr(Year),
		Agg:     Average("mag", "avg_magnitude"),
	},
	{
		ID: 27, Section: SectionPattern, Title: "Weekend vs weekday earthquake count",
		Display: DisplayChart,
		GroupBy: ptr(DayType),
		Agg:     CountAll("count"),
	},
	{
		ID: 28, Section: SectionPattern, Title: "Rounded magnitude distribution",
		Display: DisplayChart,
		GroupBy: ptr(RoundedMag),
		Agg:     CountAll("count"),
		OrderBy: []Order{Asc("magnitude")},
	},
	{
		ID: 29, Section: SectionPattern, Title: "Risk classification based on magnitude",
		Display: DisplayChart,
		GroupBy: ptr(Risk),
		Agg:     CountAll("count"),
	},
	{
		ID: 30, Section: SectionPattern, Title: "Events with magnitude error greater than 0.5",
		Where: []Pred{Where("magError", OpGt, 0.5)},
		Limit: rowLimit,
	},
}

// List returns the dashboard queries in display order. The slice is a copy,
// but entries share their Where and OrderBy slices with the catalog.
func List() []Query {
	out := make([]Query, len(queries))
	copy(out, queries)
	return out
}

// Lookup returns the query with the given ID.
func Lookup(id int) (Query, bool) {
	for _, q := range queries {
		if q.ID == id {
			return q, true
		}
	}
	return Query{}, false
}
