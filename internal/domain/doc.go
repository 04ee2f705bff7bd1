// Package domain models USGS earthquake event records.
//
// # Data Source
//
// Events come from the USGS FDSN event web service
// (https://earthquake.usgs.gov/fdsnws/event/1/query) in GeoJSON format. Each
// feature carries a flat "properties" object and a "geometry" point.
//
// # GeoJSON Conventions
//
// Coordinates:
//
//	geometry.coordinates = [longitude, latitude, depth]
//	Depth is in kilometers, positive down. Longitude comes first, so the
//	flattened record maps latitude/longitude/depth to elements [1]/[0]/[2].
//
// Timestamps:
//
//	properties.time and properties.updated are epoch milliseconds (UTC).
//	Derived calendar fields (year, month, weekday name, hour) are computed in
//	UTC. Values outside years 1-9999 are treated as missing.
//
// Missing values:
//
//	Most properties are optional (alert is absent for the majority of events;
//	nst, dmin, gap and the error estimates depend on the network). A missing
//	member, a null, or a value of the wrong JSON type becomes a nil field.
//	Nothing is coerced to zero.
//
// Alert levels:
//
//	PAGER alert levels are "green", "yellow", "orange" and "red". For grouping,
//	levels are lower-cased and a missing level is reported as "none", so a
//	null alert and the literal "none" land in the same bucket.
//
// # Classification
//
//	Depth:  < 70 km Shallow | 70-300 km Intermediate | > 300 km Deep
//	Risk:   < 5.0 Low | 5.0-6.99 Moderate | >= 7.0 High
//	Day:    Saturday and Sunday are Weekend, all other days Weekday
//
// Boundaries are exact: a depth of exactly 70 km or 300 km is Intermediate and
// a magnitude of exactly 7.0 is High.
package domain
