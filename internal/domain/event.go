package domain

import "encoding/json"

// Columns is the fixed column order shared by the CSV header and the
// earthquakes_raw table.
var Columns = []string{
	"id", "time", "updated", "latitude", "longitude", "depth_km", "place",
	"mag", "magType", "status", "tsunami", "sig", "alert", "net", "nst",
	"dmin", "rms", "gap", "magError", "depthError", "magNst",
	"locationSource", "magSource", "sources", "ids", "eventType", "types",
	"title", "url",
}

// Event is one flattened seismic event record. Every field except ID may be
// absent in the upstream feed; absent values are nil, never zero.
type Event struct {
	ID             string   `csv:"id" db:"id" json:"id"`
	Time           *int64   `csv:"time" db:"time" json:"time"`          // epoch milliseconds
	Updated        *int64   `csv:"updated" db:"updated" json:"updated"` // epoch milliseconds
	Latitude       *float64 `csv:"latitude" db:"latitude" json:"latitude"`
	Longitude      *float64 `csv:"longitude" db:"longitude" json:"longitude"`
	DepthKm        *float64 `csv:"depth_km" db:"depth_km" json:"depth_km"`
	Place          *string  `csv:"place" db:"place" json:"place"`
	Mag            *float64 `csv:"mag" db:"mag" json:"mag"`
	MagType        *string  `csv:"magType" db:"magType" json:"magType"`
	Status         *string  `csv:"status" db:"status" json:"status"` // "reviewed" or "automatic"
	Tsunami        *int64   `csv:"tsunami" db:"tsunami" json:"tsunami"`
	Sig            *int64   `csv:"sig" db:"sig" json:"sig"`
	Alert          *string  `csv:"alert" db:"alert" json:"alert"` // green, yellow, orange, red
	Net            *string  `csv:"net" db:"net" json:"net"`
	Nst            *int64   `csv:"nst" db:"nst" json:"nst"`
	Dmin           *float64 `csv:"dmin" db:"dmin" json:"dmin"`
	RMS            *float64 `csv:"rms" db:"rms" json:"rms"`
	Gap            *float64 `csv:"gap" db:"gap" json:"gap"`
	MagError       *float64 `csv:"magError" db:"magError" json:"magError"`
	DepthError     *float64 `csv:"depthError" db:"depthError" json:"depthError"`
	MagNst         *int64   `csv:"magNst" db:"magNst" json:"magNst"`
	LocationSource *string  `csv:"locationSource" db:"locationSource" json:"locationSource"`
	MagSource      *string  `csv:"magSource" db:"magSource" json:"magSource"`
	Sources        *string  `csv:"sources" db:"sources" json:"sources"`
	IDs            *string  `csv:"ids" db:"ids" json:"ids"`
	EventType      *string  `csv:"eventType" db:"eventType" json:"eventType"`
	Types          *string  `csv:"types" db:"types" json:"types"`
	Title          *string  `csv:"title" db:"title" json:"title"`
	URL            *string  `csv:"url" db:"url" json:"url"`
}

// Column returns the value stored under a column name as nil, string, int64
// or float64. The second result is false for unknown columns.
func (e Event) Column(name string) (any, bool) {
	switch name {
	case "id":
		return e.ID, true
	case "time":
		return intValue(e.Time), true
	case "updated":
		return intValue(e.Updated), true
	case "latitude":
		return floatValue(e.Latitude), true
	case "longitude":
		return floatValue(e.Longitude), true
	case "depth_km":
		return floatValue(e.DepthKm), true
	case "place":
		return stringValue(e.Place), true
	case "mag":
		return floatValue(e.Mag), true
	case "magType":
		return stringValue(e.MagType), true
	case "status":
		return stringValue(e.Status), true
	case "tsunami":
		return intValue(e.Tsunami), true
	case "sig":
		return intValue(e.Sig), true
	case "alert":
		return stringValue(e.Alert), true
	case "net":
		return stringValue(e.Net), true
	case "nst":
		return intValue(e.Nst), true
	case "dmin":
		return floatValue(e.Dmin), true
	case "rms":
		return floatValue(e.RMS), true
	case "gap":
		return floatValue(e.Gap), true
	case "magError":
		return floatValue(e.MagError), true
	case "depthError":
		return floatValue(e.DepthError), true
	case "magNst":
		return intValue(e.MagNst), true
	case "locationSource":
		return stringValue(e.LocationSource), true
	case "magSource":
		return stringValue(e.MagSource), true
	case "sources":
		return stringValue(e.Sources), true
	case "ids":
		return stringValue(e.IDs), true
	case "eventType":
		return stringValue(e.EventType), true
	case "types":
		return stringValue(e.Types), true
	case "title":
		return stringValue(e.Title), true
	case "url":
		return stringValue(e.URL), true
	default:
		return nil, false
	}
}

// Values returns every column value in Columns order.
func (e Event) Values() []any {
	out := make([]any, len(Columns))
	for i, c := range Columns {
		out[i], _ = e.Column(c)
	}
	return out
}

func intValue(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// FeatureCollection is the GeoJSON document returned by the FDSN event API.
type FeatureCollection struct {
	Features []Feature `json:"features"`
}

// Feature keeps its nested members raw so that a malformed member degrades
// to nil fields instead of failing the whole response.
type Feature struct {
	ID         json.RawMessage `json:"id"`
	Properties json.RawMessage `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}
