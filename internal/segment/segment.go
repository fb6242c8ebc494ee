// Package segment folds an ordered point list into consecutive-pair segments
// with lengths and cumulative kilometer points (KP).
package segment

import (
	"errors"
	"fmt"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// ErrInsufficientPoints is returned when fewer than two points are available.
var ErrInsufficientPoints = errors.New("at least 2 points are required to compute segments")

// Metric selects how pairwise distances are measured. The choice is fixed per
// point set and never mixed within one run.
type Metric int

const (
	// Planar measures Euclidean distance on projected x/y in meters.
	Planar Metric = iota
	// GreatCircle measures haversine distance on geographic lat/lon.
	GreatCircle
)

// MetricFor picks the distance metric for a parsed source: geographic-only
// sources (KML, DMS) carry degrees in x/y and need great-circle distance,
// everything else is treated as planar meters.
func MetricFor(meta geo.Metadata) Metric {
	if meta.IsProjected != nil && !*meta.IsProjected {
		return GreatCircle
	}
	return Planar
}

// Compute derives N-1 segments from N ordered points. Cumulative distance
// accumulates strictly left to right starting at zero; the fold order is part
// of the contract and must not be parallelized.
func Compute(points []geo.CoordinatePoint, metric Metric) ([]geo.Segment, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientPoints
	}

	segments := make([]geo.Segment, 0, len(points)-1)
	cumulativeKM := 0.0

	for i := 1; i < len(points); i++ {
		p1, p2 := points[i-1], points[i]

		lengthM := distance(p1, p2, metric)
		lengthKM := lengthM / 1000

		var zChange *float64
		if p1.Z != nil && p2.Z != nil {
			zChange = geo.Float(*p2.Z - *p1.Z)
		}

		segments = append(segments, geo.Segment{
			Label:             fmt.Sprintf("%d -> %d", p1.Index, p2.Index),
			StartPoint:        p1.Index,
			EndPoint:          p2.Index,
			StartX:            p1.X,
			StartY:            p1.Y,
			EndX:              p2.X,
			EndY:              p2.Y,
			StartZ:            p1.Z,
			EndZ:              p2.Z,
			ZChange:           zChange,
			LengthM:           lengthM,
			LengthKM:          lengthKM,
			CumulativeKMStart: cumulativeKM,
			CumulativeKMEnd:   cumulativeKM + lengthKM,
		})
		cumulativeKM += lengthKM
	}

	return segments, nil
}

func distance(p1, p2 geo.CoordinatePoint, metric Metric) float64 {
	if metric == GreatCircle {
		lat1, lon1 := latLon(p1)
		lat2, lon2 := latLon(p2)
		return geo.Haversine(lat1, lon1, lat2, lon2)
	}
	return geo.PlanarDistance(p1.X, p1.Y, p2.X, p2.Y)
}

// latLon prefers the populated geographic fields and falls back to y/x, which
// for geographic-only sources hold the same degrees.
func latLon(p geo.CoordinatePoint) (lat, lon float64) {
	if p.Lat != nil && p.Lon != nil {
		return *p.Lat, *p.Lon
	}
	return p.Y, p.X
}
