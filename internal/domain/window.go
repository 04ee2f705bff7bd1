package domain

import "time"

// DateLayout is the calendar date format used by the USGS query parameters.
const DateLayout = "2006-01-02"

// Window is a half-open request interval [Start, End) over event time.
type Window struct {
	Start time.Time
	End   time.Time
}

// Label identifies the window in logs, e.g. "2024-01-01..2024-02-01".
func (w Window) Label() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}
