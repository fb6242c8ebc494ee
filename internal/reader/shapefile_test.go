package reader

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
)

const utm30WKT = `PROJCS["WGS 84 / UTM zone 30N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-3],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AUTHORITY["EPSG","32630"]]`

func writePointZFixture(t *testing.T, path string, n int) {
	t.Helper()
	w, err := shp.Create(path, shp.POINTZ)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.SetFields([]shp.Field{shp.StringField("NAME", 25)})
	for i := 0; i < n; i++ {
		w.Write(&shp.PointZ{
			X: 500000 + float64(i),
			Y: 5920000 + float64(i),
			Z: -40 - float64(i),
		})
		if err := w.WriteAttribute(i, 0, "KP"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReadPointZShapefile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kp_points.shp")
	writePointZFixture(t, path, 10)

	points, meta, err := ReadShapefile(path)
	if err != nil {
		t.Fatal(err)
	}

	if meta.ShapeTypeName != "POINTZ" {
		t.Errorf("shape type = %q, want POINTZ", meta.ShapeTypeName)
	}
	if len(points) != 10 || meta.NumPoints != 10 {
		t.Fatalf("got %d points (meta %d), want 10", len(points), meta.NumPoints)
	}
	if !meta.HasZ {
		t.Error("has_z should be true for POINTZ")
	}
	if len(meta.Fields) != 1 || meta.Fields[0] != "NAME" {
		t.Errorf("fields = %v, want [NAME]", meta.Fields)
	}

	for i, p := range points {
		if p.Index != i+1 {
			t.Errorf("point %d: index = %d, want %d", i, p.Index, i+1)
		}
		if p.Z == nil {
			t.Fatalf("point %d: z missing", i)
		}
		if *p.Z != -40-float64(i) {
			t.Errorf("point %d: z = %v, want %v", i, *p.Z, -40-float64(i))
		}
	}
}

func TestReadPointZWithPrj(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kp_points.shp")
	writePointZFixture(t, path, 3)
	if err := os.WriteFile(filepath.Join(dir, "kp_points.prj"), []byte(utm30WKT), 0644); err != nil {
		t.Fatal(err)
	}

	points, meta, err := ReadShapefile(path)
	if err != nil {
		t.Fatal(err)
	}

	if meta.CRSEPSG == nil || *meta.CRSEPSG != 32630 {
		t.Fatalf("epsg = %v, want 32630", meta.CRSEPSG)
	}
	if meta.IsProjected == nil || !*meta.IsProjected {
		t.Fatal("is_projected should be true")
	}
	for _, p := range points {
		if p.Lon == nil || p.Lat == nil {
			t.Fatalf("point %d: lon/lat not populated", p.Index)
		}
		if math.Abs(*p.Lon-(-3)) > 0.01 {
			t.Errorf("point %d: lon = %v, want about -3", p.Index, *p.Lon)
		}
		if *p.Lat < 53 || *p.Lat > 54 {
			t.Errorf("point %d: lat = %v, want within (53, 54)", p.Index, *p.Lat)
		}
	}
}

func TestReadPointZWithoutPrj(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kp_points.shp")
	writePointZFixture(t, path, 3)

	points, meta, err := ReadShapefile(path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.CRSEPSG != nil || meta.CRSName != nil || meta.IsProjected != nil {
		t.Error("CRS fields should all be unknown without a .prj")
	}
	for _, p := range points {
		if p.Lon != nil || p.Lat != nil {
			t.Error("lon/lat should stay unset without a resolved CRS")
		}
	}
}

func TestReadPolylineFlattensParts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.shp")

	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		t.Fatal(err)
	}
	// two records, the first with two parts
	w.Write(shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}},
		{{X: 2, Y: 1}, {X: 3, Y: 1}},
	}))
	w.Write(shp.NewPolyLine([][]shp.Point{
		{{X: 4, Y: 2}, {X: 5, Y: 2}},
	}))
	w.Close()

	points, meta, err := ReadShapefile(path)
	if err != nil {
		t.Fatal(err)
	}

	if meta.ShapeTypeName != "POLYLINE" {
		t.Errorf("shape type = %q, want POLYLINE", meta.ShapeTypeName)
	}
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7 (3+2+2 across parts and records)", len(points))
	}
	if meta.HasZ {
		t.Error("has_z should be false for POLYLINE")
	}

	// record and part order preserved
	wantX := []float64{0, 1, 2, 2, 3, 4, 5}
	for i, p := range points {
		if p.X != wantX[i] {
			t.Errorf("point %d: x = %v, want %v", i, p.X, wantX[i])
		}
		if p.Index != i+1 {
			t.Errorf("point %d: index = %d, want %d", i, p.Index, i+1)
		}
	}
}

// writeHeaderOnly writes a bare shapefile header declaring the given shape
// type, enough for the reader to inspect the geometry type.
func writeHeaderOnly(t *testing.T, path string, shapeType uint32) {
	t.Helper()
	buf := make([]byte, 100)
	binary.BigEndian.PutUint32(buf[0:4], 9994)
	binary.BigEndian.PutUint32(buf[24:28], 50) // length in 16-bit words
	binary.LittleEndian.PutUint32(buf[28:32], 1000)
	binary.LittleEndian.PutUint32(buf[32:36], shapeType)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadPolygonRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "area.shp")
	writeHeaderOnly(t, path, 5) // POLYGON

	_, _, err := ReadShapefile(path)
	var unsupported *UnsupportedShapeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedShapeError", err)
	}
	if unsupported.TypeName != "POLYGON" {
		t.Errorf("type name = %q, want POLYGON", unsupported.TypeName)
	}
}

func TestReadFileDispatch(t *testing.T) {
	if _, _, err := ReadFile("route.gpx"); err == nil {
		t.Error("expected an error for an unrecognized extension")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "kp_points.shp")
	writePointZFixture(t, path, 2)
	if _, _, err := ReadFile(path); err != nil {
		t.Errorf("ReadFile(.shp) failed: %v", err)
	}
}
