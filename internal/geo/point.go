// Package geo holds the canonical point and segment model shared by all
// readers and exporters, plus the distance math between points.
package geo

// CoordinatePoint is a single sampled location. X and Y carry the source
// coordinates as read (projected meters or geographic degrees). Lon and Lat
// are filled in once a transform to WGS84 is available; for sources that are
// already geographic they simply mirror X and Y.
type CoordinatePoint struct {
	Index int      `json:"index"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Z     *float64 `json:"z,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
}

// Metadata describes one parsed input source.
type Metadata struct {
	ShapeTypeName string   `json:"shape_type_name"`
	CRSEPSG       *int     `json:"crs_epsg,omitempty"`
	CRSName       *string  `json:"crs_name,omitempty"`
	IsProjected   *bool    `json:"is_projected,omitempty"`
	NumPoints     int      `json:"num_points"`
	HasZ          bool     `json:"has_z"`
	Fields        []string `json:"fields"`
}

// Segment joins two consecutive coordinate points. Segments are built once
// from a finalized point list and never mutated afterwards.
type Segment struct {
	Label             string   `json:"segment"`
	StartPoint        int      `json:"start_point"`
	EndPoint          int      `json:"end_point"`
	StartX            float64  `json:"start_x"`
	StartY            float64  `json:"start_y"`
	EndX              float64  `json:"end_x"`
	EndY              float64  `json:"end_y"`
	StartZ            *float64 `json:"start_z,omitempty"`
	EndZ              *float64 `json:"end_z,omitempty"`
	ZChange           *float64 `json:"z_change,omitempty"`
	LengthM           float64  `json:"length_m"`
	LengthKM          float64  `json:"length_km"`
	CumulativeKMStart float64  `json:"cumulative_km_start"`
	CumulativeKMEnd   float64  `json:"cumulative_km_end"`
}

// Result is the complete output of one pipeline run.
type Result struct {
	Metadata Metadata  `json:"metadata"`
	Segments []Segment `json:"segments"`
}

// Float returns a pointer to v. Convenience for the optional model fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
