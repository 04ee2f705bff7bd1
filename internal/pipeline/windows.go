package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/quake-trends-etl/internal/config"
	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// PlanWindows returns one window per calendar month from January of startYear
// through December of endYear, in chronological order.
//
// With config.WindowDay28 every window runs from day 1 to day 28, so events on
// days 29-31 are never requested. With config.WindowCalendar the window ends
// on the first day of the next month and the whole month is covered.
func PlanWindows(startYear, endYear int, policy string) ([]domain.Window, error) {
	if policy != config.WindowCalendar && policy != config.WindowDay28 {
		return nil, fmt.Errorf("unknown window policy %q", policy)
	}
	if endYear < startYear {
		return nil, nil
	}

	windows := make([]domain.Window, 0, (endYear-startYear+1)*12)
	for year := startYear; year <= endYear; year++ {
		for month := time.January; month <= time.December; month++ {
			start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, 0)
			if policy == config.WindowDay28 {
				end = time.Date(year, month, 28, 0, 0, 0, 0, time.UTC)
			}
			windows = append(windows, domain.Window{Start: start, End: end})
		}
	}
	return windows, nil
}
