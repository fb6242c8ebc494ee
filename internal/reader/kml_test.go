package reader

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

const kmlLineString = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <LineString>
        <coordinates>-3.5,53.5,-10 -3.4,53.6,-20 -3.3,53.7,-30</coordinates>
      </LineString>
    </Placemark>
  </Document>
</kml>`

const kmlPoints = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><Point><coordinates>1.0,2.0,100</coordinates></Point></Placemark>
    <Placemark><Point><coordinates>3.0,4.0,200</coordinates></Point></Placemark>
  </Document>
</kml>`

const kmlNoZ = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <LineString>
        <coordinates>0,0 1,1 2,2</coordinates>
      </LineString>
    </Placemark>
  </Document>
</kml>`

const kmlMixed = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><Point><coordinates>1.0,2.0</coordinates></Point></Placemark>
    <Placemark>
      <LineString><coordinates>0,0 1,1</coordinates></LineString>
    </Placemark>
  </Document>
</kml>`

func TestKMLLineString(t *testing.T) {
	points, meta, err := ReadKMZ([]byte(kmlLineString))
	if err != nil {
		t.Fatal(err)
	}

	if meta.ShapeTypeName != "KML_LINESTRING" {
		t.Errorf("shape type = %q, want KML_LINESTRING", meta.ShapeTypeName)
	}
	if len(points) != 3 || meta.NumPoints != 3 {
		t.Fatalf("got %d points (meta %d), want 3", len(points), meta.NumPoints)
	}
	if !meta.HasZ {
		t.Error("has_z should be true")
	}
	if *points[0].Z != -10 || *points[2].Z != -30 {
		t.Errorf("z values = %v, %v; want -10, -30", *points[0].Z, *points[2].Z)
	}
	for i, p := range points {
		if p.Index != i+1 {
			t.Errorf("point %d: index = %d, want %d", i, p.Index, i+1)
		}
	}
}

func TestKMLGeographicPassthrough(t *testing.T) {
	points, meta, err := ReadKMZ([]byte(kmlLineString))
	if err != nil {
		t.Fatal(err)
	}

	if meta.CRSEPSG == nil || *meta.CRSEPSG != 4326 {
		t.Errorf("epsg = %v, want 4326", meta.CRSEPSG)
	}
	if meta.IsProjected == nil || *meta.IsProjected {
		t.Error("KML sources are geographic")
	}
	for _, p := range points {
		if p.Lon == nil || p.Lat == nil {
			t.Fatalf("point %d: lon/lat missing", p.Index)
		}
		if *p.Lon != p.X || *p.Lat != p.Y {
			t.Errorf("point %d: lon/lat %v,%v should equal x/y %v,%v", p.Index, *p.Lon, *p.Lat, p.X, p.Y)
		}
	}
}

func TestKMLPoints(t *testing.T) {
	points, meta, err := ReadKMZ([]byte(kmlPoints))
	if err != nil {
		t.Fatal(err)
	}
	if meta.ShapeTypeName != "KML_POINT" {
		t.Errorf("shape type = %q, want KML_POINT", meta.ShapeTypeName)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].X != 1.0 || *points[1].Z != 200 {
		t.Errorf("unexpected values: x=%v z=%v", points[0].X, *points[1].Z)
	}
}

func TestKMLNoAltitude(t *testing.T) {
	points, meta, err := ReadKMZ([]byte(kmlNoZ))
	if err != nil {
		t.Fatal(err)
	}
	if meta.HasZ {
		t.Error("has_z should be false")
	}
	for _, p := range points {
		if p.Z != nil {
			t.Errorf("point %d: z = %v, want absent", p.Index, *p.Z)
		}
	}
}

func TestKMLMixedGeometries(t *testing.T) {
	points, meta, err := ReadKMZ([]byte(kmlMixed))
	if err != nil {
		t.Fatal(err)
	}
	if meta.ShapeTypeName != "KML_MIXED" {
		t.Errorf("shape type = %q, want KML_MIXED", meta.ShapeTypeName)
	}
	if len(points) != 3 {
		t.Errorf("got %d points, want 3", len(points))
	}
}

func TestKMLNoGeometry(t *testing.T) {
	_, meta, err := ReadKMZ([]byte(`<kml xmlns="http://www.opengis.net/kml/2.2"><Document/></kml>`))
	if err != nil {
		t.Fatal(err)
	}
	if meta.ShapeTypeName != "KML_UNKNOWN" {
		t.Errorf("shape type = %q, want KML_UNKNOWN", meta.ShapeTypeName)
	}
	if meta.NumPoints != 0 {
		t.Errorf("num_points = %d, want 0", meta.NumPoints)
	}
}

func kmzBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestKMZArchive(t *testing.T) {
	data := kmzBytes(t, map[string]string{"doc.kml": kmlLineString})

	points, meta, err := ReadKMZ(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Errorf("got %d points, want 3", len(points))
	}
	if meta.ShapeTypeName != "KML_LINESTRING" {
		t.Errorf("shape type = %q", meta.ShapeTypeName)
	}
}

func TestKMZPrefersDocKML(t *testing.T) {
	data := kmzBytes(t, map[string]string{
		"other.kml": kmlPoints,
		"doc.kml":   kmlLineString,
	})

	_, meta, err := ReadKMZ(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ShapeTypeName != "KML_LINESTRING" {
		t.Errorf("shape type = %q, want the doc.kml payload", meta.ShapeTypeName)
	}
}

func TestKMZWithoutKML(t *testing.T) {
	data := kmzBytes(t, map[string]string{"readme.txt": "nothing here"})

	_, _, err := ReadKMZ(data)
	if !errors.Is(err, ErrNoKML) {
		t.Errorf("err = %v, want ErrNoKML", err)
	}
}

func TestKMLShortTuplesSkipped(t *testing.T) {
	kml := `<kml xmlns="http://www.opengis.net/kml/2.2"><Placemark><LineString>
		<coordinates>0,0 garbage 1,1</coordinates>
	</LineString></Placemark></kml>`

	// a tuple without a comma has fewer than two components and is dropped
	points, _, err := ReadKMZ([]byte(kml))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Errorf("got %d points, want 2", len(points))
	}
}

func TestKMLBadNumberFails(t *testing.T) {
	kml := `<kml xmlns="http://www.opengis.net/kml/2.2"><Placemark><Point>
		<coordinates>abc,53.5</coordinates>
	</Point></Placemark></kml>`

	if _, _, err := ReadKMZ([]byte(kml)); err == nil {
		t.Error("expected an error for a malformed numeric component")
	}
}
