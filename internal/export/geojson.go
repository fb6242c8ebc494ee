package export

import (
	"encoding/json"
	"io"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// WriteGeoJSON writes the route as a single LineString feature. Coordinates
// prefer WGS84 lon/lat when populated, falling back to raw x/y for sources
// without a resolved transform.
func WriteGeoJSON(w io.Writer, points []geo.CoordinatePoint, result geo.Result) error {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		if p.Lon != nil && p.Lat != nil {
			coords = append(coords, []float64{*p.Lon, *p.Lat})
		} else {
			coords = append(coords, []float64{p.X, p.Y})
		}
	}

	props := map[string]interface{}{
		"shape_type_name": result.Metadata.ShapeTypeName,
		"num_points":      result.Metadata.NumPoints,
		"num_segments":    len(result.Segments),
	}
	if result.Metadata.CRSEPSG != nil {
		props["source_epsg"] = *result.Metadata.CRSEPSG
	}
	if n := len(result.Segments); n > 0 {
		props["total_km"] = result.Segments[n-1].CumulativeKMEnd
	}

	fc := geo.GeoJSONFeatureCollection{
		Type: "FeatureCollection",
		Features: []geo.GeoJSONFeature{{
			Type: "Feature",
			Geometry: geo.GeoJSONGeometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: props,
		}},
	}

	return json.NewEncoder(w).Encode(fc)
}
