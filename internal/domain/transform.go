package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// AlertNone is the sentinel for events without a PAGER alert level.
const AlertNone = "none"

// Depth and risk thresholds used by the classification helpers.
const (
	ShallowMaxDepthKm = 70.0
	DeepMinDepthKm    = 300.0
	HighRiskMag       = 7.0
	ModerateRiskMag   = 5.0
)

// FlattenFeature converts a GeoJSON feature into an Event. Members that are
// missing or of an unexpected type become nil.
func FlattenFeature(f Feature) Event {
	props := decodeObject(f.Properties)

	var geo struct {
		Coordinates []any `json:"coordinates"`
	}
	if len(f.Geometry) > 0 {
		dec := json.NewDecoder(bytes.NewReader(f.Geometry))
		dec.UseNumber()
		if err := dec.Decode(&geo); err != nil {
			geo.Coordinates = nil
		}
	}

	var id string
	_ = json.Unmarshal(f.ID, &id)

	return Event{
		ID:             id,
		Time:           asInt(props["time"]),
		Updated:        asInt(props["updated"]),
		Latitude:       asFloat(coordinate(geo.Coordinates, 1)),
		Longitude:      asFloat(coordinate(geo.Coordinates, 0)),
		DepthKm:        asFloat(coordinate(geo.Coordinates, 2)),
		Place:          asString(props["place"]),
		Mag:            asFloat(props["mag"]),
		MagType:        asString(props["magType"]),
		Status:         asString(props["status"]),
		Tsunami:        asInt(props["tsunami"]),
		Sig:            asInt(props["sig"]),
		Alert:          asString(props["alert"]),
		Net:            asString(props["net"]),
		Nst:            asInt(props["nst"]),
		Dmin:           asFloat(props["dmin"]),
		RMS:            asFloat(props["rms"]),
		Gap:            asFloat(props["gap"]),
		MagError:       asFloat(props["magError"]),
		DepthError:     asFloat(props["depthError"]),
		MagNst:         asInt(props["magNst"]),
		LocationSource: asString(props["locationSource"]),
		MagSource:      asString(props["magSource"]),
		Sources:        asString(props["sources"]),
		IDs:            asString(props["ids"]),
		EventType:      asString(props["type"]),
		Types:          asString(props["types"]),
		Title:          asString(props["title"]),
		URL:            asString(props["url"]),
	}
}

func decodeObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	return m
}

func coordinate(coords []any, i int) any {
	if i >= len(coords) {
		return nil
	}
	return coords[i]
}

func asFloat(v any) *float64 {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseFloat parses a numeric text cell. Blank, malformed and non-finite
// values are nil.
func ParseFloat(s string) *float64 {
	return asFloat(json.Number(strings.TrimSpace(s)))
}

// ParseInt parses an integer text cell, accepting integral floats such as
// "12.0". Blank, malformed and fractional values are nil.
func ParseInt(s string) *int64 {
	return asInt(json.Number(strings.TrimSpace(s)))
}

// asInt accepts integral JSON numbers, including ones written with a
// fractional part of zero (e.g. 12.0).
func asInt(v any) *int64 {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	if i, err := n.Int64(); err == nil {
		return &i
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return nil
	}
	i := int64(f)
	return &i
}

func asString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// Earliest and latest instants representable as calendar dates (years 1-9999).
var (
	minEpochMillis = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxEpochMillis = time.Date(9999, 12, 31, 23, 59, 59, 999_000_000, time.UTC).UnixMilli()
)

// ParseEpochMillis converts an epoch-millisecond timestamp to UTC. Missing or
// out-of-range values report false.
func ParseEpochMillis(ms *int64) (time.Time, bool) {
	if ms == nil || *ms < minEpochMillis || *ms > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(*ms).UTC(), true
}

// Derived holds the calendar and normalization fields computed for display.
// They are never persisted.
type Derived struct {
	Year    *int
	Month   *int
	Hour    *int
	DayName *string
	Alert   string
}

// Derive computes the calendar fields from the event time and normalizes the
// alert level.
func Derive(e Event) Derived {
	d := Derived{Alert: NormalizeAlert(e.Alert)}
	t, ok := ParseEpochMillis(e.Time)
	if !ok {
		return d
	}
	year, month, hour := t.Year(), int(t.Month()), t.Hour()
	day := t.Weekday().String()
	d.Year = &year
	d.Month = &month
	d.Hour = &hour
	d.DayName = &day
	return d
}

// NormalizeAlert lower-cases an alert level, mapping nil and blank values to
// AlertNone.
func NormalizeAlert(alert *string) string {
	if alert == nil {
		return AlertNone
	}
	a := strings.ToLower(strings.TrimSpace(*alert))
	if a == "" {
		return AlertNone
	}
	return a
}

// DepthCategory buckets a hypocenter depth:
// < 70 km Shallow, > 300 km Deep, otherwise Intermediate.
func DepthCategory(depthKm float64) string {
	switch {
	case depthKm < ShallowMaxDepthKm:
		return "Shallow"
	case depthKm > DeepMinDepthKm:
		return "Deep"
	default:
		return "Intermediate"
	}
}

// RiskLevel buckets a magnitude: >= 7.0 High, >= 5.0 Moderate, otherwise Low.
func RiskLevel(mag float64) string {
	switch {
	case mag >= HighRiskMag:
		return "High"
	case mag >= ModerateRiskMag:
		return "Moderate"
	default:
		return "Low"
	}
}

// DayType reports "Weekend" for Saturday and Sunday and "Weekday" otherwise.
func DayType(dayName string) string {
	if dayName == time.Saturday.String() || dayName == time.Sunday.String() {
		return "Weekend"
	}
	return "Weekday"
}

// Row pairs a stored event with its derived fields.
type Row struct {
	Event
	Derived Derived
}

// Frame is the in-memory table the dashboard queries run against.
type Frame []Row

// NewFrame derives the display fields for every event, preserving order.
func NewFrame(events []Event) Frame {
	f := make(Frame, len(events))
	for i, e := range events {
		f[i] = Row{Event: e, Derived: Derive(e)}
	}
	return f
}

// Events returns the underlying events in frame order.
func (f Frame) Events() []Event {
	out := make([]Event, len(f))
	for i, r := range f {
		out[i] = r.Event
	}
	return out
}

// Dedup keeps the first event for each ID, preserving order. Events with an
// empty ID are kept as-is.
func Dedup(events []Event) []Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.ID != "" {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
		}
		out = append(out, e)
	}
	return out
}
