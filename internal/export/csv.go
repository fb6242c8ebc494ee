// Package export serializes finalized segment lists to CSV, JSON, GeoJSON and
// profile plot images.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// CSVHeader is the fixed column order of the segment CSV.
var CSVHeader = []string{
	"segment", "start_point", "end_point",
	"start_x", "start_y", "end_x", "end_y",
	"start_z", "end_z", "z_change",
	"length_m", "length_km",
	"cumulative_km_start", "cumulative_km_end",
}

// WriteCSV writes the header row followed by one row per segment. Absent
// optional values are written as empty cells.
func WriteCSV(w io.Writer, segments []geo.Segment) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, s := range segments {
		row := []string{
			s.Label,
			strconv.Itoa(s.StartPoint),
			strconv.Itoa(s.EndPoint),
			formatFloat(s.StartX),
			formatFloat(s.StartY),
			formatFloat(s.EndX),
			formatFloat(s.EndY),
			formatOptional(s.StartZ),
			formatOptional(s.EndZ),
			formatOptional(s.ZChange),
			formatFloat(s.LengthM),
			formatFloat(s.LengthKM),
			formatFloat(s.CumulativeKMStart),
			formatFloat(s.CumulativeKMEnd),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
