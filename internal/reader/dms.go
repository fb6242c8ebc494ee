package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Jerell/bathymetry-tool/internal/geo"
)

// ReadDMSFile reads a fixed-format DMS survey listing from disk.
func ReadDMSFile(path string) ([]geo.CoordinatePoint, geo.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, geo.Metadata{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadDMS(f)
}

// ReadDMS parses a degrees-minutes-seconds survey listing. Each line carries
// a whitespace-joined pair of DMS tokens with hemisphere suffixes, a tab, and
// a depth value:
//
//	3°25'12.5"W 53°30'00"N	-41.2
//
// Tokens may also use plain whitespace in place of the degree/minute/second
// symbols. Hemispheres S and W yield negative decimal degrees. Lines that do
// not match the pattern are skipped without aborting the parse.
func ReadDMS(r io.Reader) ([]geo.CoordinatePoint, geo.Metadata, error) {
	var points []geo.CoordinatePoint
	idx := 1

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		lon, lat, depth, ok := parseDMSLine(line)
		if !ok {
			log.Debug().Int("line", lineNo).Msg("Skipping unparseable DMS line")
			continue
		}

		points = append(points, geo.CoordinatePoint{
			Index: idx,
			X:     lon,
			Y:     lat,
			Z:     geo.Float(depth),
			Lon:   geo.Float(lon),
			Lat:   geo.Float(lat),
		})
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, geo.Metadata{}, fmt.Errorf("read DMS listing: %w", err)
	}

	meta := geo.Metadata{
		ShapeTypeName: "DMS_TEXT",
		CRSEPSG:       geo.Int(4326),
		CRSName:       geo.String("WGS 84"),
		IsProjected:   geo.Bool(false),
		NumPoints:     len(points),
		HasZ:          len(points) > 0,
		Fields:        []string{},
	}
	return points, meta, nil
}

// parseDMSLine splits a listing line into lon, lat, depth. The coordinate
// part is everything before the first tab, the depth follows it.
func parseDMSLine(line string) (lon, lat, depth float64, ok bool) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return 0, 0, 0, false
	}

	depth, err := strconv.ParseFloat(strings.TrimSpace(line[tab+1:]), 64)
	if err != nil {
		return 0, 0, 0, false
	}

	tokens := splitDMSTokens(line[:tab])
	if len(tokens) != 2 {
		return 0, 0, 0, false
	}

	var haveLon, haveLat bool
	for _, tok := range tokens {
		deg, hemi, ok := parseDMSToken(tok)
		if !ok {
			return 0, 0, 0, false
		}
		switch hemi {
		case 'E', 'W':
			lon, haveLon = deg, true
		case 'N', 'S':
			lat, haveLat = deg, true
		}
	}
	if !haveLon || !haveLat {
		return 0, 0, 0, false
	}

	return lon, lat, depth, true
}

// splitDMSTokens cuts the coordinate field at each hemisphere letter, so both
// symbol form (3°25'12"W) and space form (3 25 12 W) come out as two tokens.
func splitDMSTokens(s string) []string {
	var tokens []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'N', 'S', 'E', 'W':
			tok := strings.TrimSpace(s[start : i+1])
			if tok != "" {
				tokens = append(tokens, tok)
			}
			start = i + 1
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		// trailing garbage after the last hemisphere letter
		return nil
	}
	return tokens
}

// parseDMSToken converts one DMS token with hemisphere suffix into signed
// decimal degrees. Seconds are optional.
func parseDMSToken(tok string) (float64, byte, bool) {
	if tok == "" {
		return 0, 0, false
	}
	hemi := tok[len(tok)-1]
	switch hemi {
	case 'N', 'S', 'E', 'W':
	default:
		return 0, 0, false
	}

	body := strings.Map(func(r rune) rune {
		switch r {
		case '°', '\'', '"', '”', '’':
			return ' '
		}
		return r
	}, tok[:len(tok)-1])

	parts := strings.Fields(body)
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}

	degrees, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	seconds := 0.0
	if len(parts) == 3 {
		seconds, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, 0, false
		}
	}

	decimal := degrees + minutes/60 + seconds/3600
	if hemi == 'S' || hemi == 'W' {
		decimal = -decimal
	}
	return decimal, hemi, true
}
