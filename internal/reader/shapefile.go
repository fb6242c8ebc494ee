package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/Jerell/bathymetry-tool/internal/crs"
	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// ReadShapefile reads a .shp file (with optional .dbf/.prj companions next to
// it) into an ordered point list plus metadata. Polygon shape types are
// rejected. For point types each record contributes its single vertex; for
// polyline types all parts of all records are flattened in order.
func ReadShapefile(path string) ([]geo.CoordinatePoint, geo.Metadata, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, geo.Metadata{}, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	typeName := shapeTypeName(r.GeometryType)
	upper := strings.ToUpper(typeName)

	if strings.Contains(upper, "POLYGON") {
		return nil, geo.Metadata{}, &UnsupportedShapeError{TypeName: typeName}
	}

	fields := make([]string, 0, len(r.Fields()))
	for _, f := range r.Fields() {
		fields = append(fields, f.String())
	}

	hasZ := strings.HasSuffix(upper, "Z")

	points, err := extractPoints(r, upper)
	if err != nil {
		return nil, geo.Metadata{}, err
	}

	info, wkt := detectPrj(path)
	if info.IsProjected != nil && *info.IsProjected && info.EPSG != nil {
		crs.PopulateLonLat(points, wkt)
	}

	meta := geo.Metadata{
		ShapeTypeName: typeName,
		CRSEPSG:       info.EPSG,
		CRSName:       info.Name,
		IsProjected:   info.IsProjected,
		NumPoints:     len(points),
		HasZ:          hasZ,
		Fields:        fields,
	}
	return points, meta, nil
}

// detectPrj looks for a .prj next to the .shp and parses it. A missing or
// unreadable .prj is not an error, it just leaves the CRS unknown.
func detectPrj(shpPath string) (crs.Info, string) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prjPath)
	if err != nil {
		return crs.Info{}, ""
	}
	wkt := string(data)
	return crs.Detect(wkt), wkt
}

func extractPoints(r *shp.Reader, upper string) ([]geo.CoordinatePoint, error) {
	var points []geo.CoordinatePoint
	idx := 1

	add := func(x, y float64, z *float64) {
		points = append(points, geo.CoordinatePoint{Index: idx, X: x, Y: y, Z: z})
		idx++
	}

	addLine := func(parts []int32, vertices []shp.Point, zs []float64) {
		starts := make([]int, 0, len(parts))
		for _, p := range parts {
			starts = append(starts, int(p))
		}
		for pi := range starts {
			end := len(vertices)
			if pi+1 < len(starts) {
				end = starts[pi+1]
			}
			for v := starts[pi]; v < end; v++ {
				var z *float64
				if zs != nil && v < len(zs) {
					z = geo.Float(zs[v])
				}
				add(vertices[v].X, vertices[v].Y, z)
			}
		}
	}

	for r.Next() {
		_, shape := r.Shape()

		switch s := shape.(type) {
		case *shp.Point:
			add(s.X, s.Y, nil)
		case *shp.PointM:
			add(s.X, s.Y, nil)
		case *shp.PointZ:
			add(s.X, s.Y, geo.Float(s.Z))
		case *shp.PolyLine:
			addLine(s.Parts, s.Points, nil)
		case *shp.PolyLineM:
			addLine(s.Parts, s.Points, nil)
		case *shp.PolyLineZ:
			addLine(s.Parts, s.Points, s.ZArray)
		case *shp.Null:
			// empty record, nothing to extract
		default:
			return nil, &UnsupportedShapeError{TypeName: upper}
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile records: %w", err)
	}

	return points, nil
}

func shapeTypeName(t shp.ShapeType) string {
	switch t {
	case shp.NULL:
		return "NULL"
	case shp.POINT:
		return "POINT"
	case shp.POINTM:
		return "POINTM"
	case shp.POINTZ:
		return "POINTZ"
	case shp.POLYLINE:
		return "POLYLINE"
	case shp.POLYLINEM:
		return "POLYLINEM"
	case shp.POLYLINEZ:
		return "POLYLINEZ"
	case shp.POLYGON:
		return "POLYGON"
	case shp.POLYGONM:
		return "POLYGONM"
	case shp.POLYGONZ:
		return "POLYGONZ"
	case shp.MULTIPOINT:
		return "MULTIPOINT"
	case shp.MULTIPOINTM:
		return "MULTIPOINTM"
	case shp.MULTIPOINTZ:
		return "MULTIPOINTZ"
	case shp.MULTIPATCH:
		return "MULTIPATCH"
	default:
		return fmt.Sprintf("TYPE_%d", int(t))
	}
}
