package route

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"backend-trekhub/internal/shared/geo"
	"backend-trekhub/internal/storage"
)

var (
	ErrUnsupportedFile = errors.New("file must have a .gpx extension")
	ErrNoPoints        = errors.New("gpx file contains no track points")
)

const (
	gpxHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<gpx version="1.1" creator="trekhub" xmlns="http://www.topografix.com/GPX/1/1">` + "\n" +
		`<trk><name>`
	gpxFooter = `</trkseg></trk></gpx>`
)

// SampleGPX is the bundled demo track offered when no file is at hand.
const SampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="trekhub" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Mountain Trail</name>
    <trkseg>
      <trkpt lat="45.4642" lon="9.1900"></trkpt>
      <trkpt lat="45.4700" lon="9.2000"></trkpt>
      <trkpt lat="45.4750" lon="9.2100"></trkpt>
      <trkpt lat="45.4800" lon="9.2200"></trkpt>
      <trkpt lat="45.4850" lon="9.2300"></trkpt>
      <trkpt lat="45.4900" lon="9.2400"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const SampleName = "Mountain Trail"

// encoding/xml cuts unquoted attribute values at the first '.', so bare
// lat/lon values are quoted before decoding.
var unquotedCoord = regexp.MustCompile(`(?i)(\s(?:lat|lon)\s*=\s*)([^\s"'>/]+)`)

// Import checks the file name and extracts the points of a GPX document.
func Import(name string, r io.Reader) ([]TrackPoint, error) {
	if !storage.IsGPXName(name) {
		return nil, ErrUnsupportedFile
	}
	points, err := ParseGPX(r)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	return points, nil
}

// ParseGPX reads the whole document into memory, quotes bare lat/lon values
// and then tokenizes it for track and route points, falling back to
// waypoints when the file has neither. Callers bound the input size; the
// upload handlers cap it at MAX_UPLOAD_BYTES. Element names are matched
// without their namespace. Points with a missing or invalid coordinate are
// skipped. A syntax error stops the scan and the points read so far are
// returned.
func ParseGPX(r io.Reader) ([]TrackPoint, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = unquotedCoord.ReplaceAll(raw, []byte(`${1}"${2}"`))

	d := xml.NewDecoder(bytes.NewReader(raw))
	d.Strict = false
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var track, waypoints []TrackPoint
	var current *[]TrackPoint
	for {
		tok, err := d.Token()
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.Is(err, io.EOF) || errors.As(err, &syntaxErr) {
				break
			}
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(el.Name.Local) {
			case "trkpt", "rtept":
				current = appendPoint(&track, el)
			case "wpt":
				current = appendPoint(&waypoints, el)
			case "ele":
				if current == nil {
					continue
				}
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					var syntaxErr *xml.SyntaxError
					if errors.As(err, &syntaxErr) {
						return pick(track, waypoints), nil
					}
					return nil, err
				}
				if ele, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
					pts := *current
					pts[len(pts)-1].Ele = &ele
				}
			}
		case xml.EndElement:
			switch strings.ToLower(el.Name.Local) {
			case "trkpt", "rtept", "wpt":
				current = nil
			}
		}
	}
	return pick(track, waypoints), nil
}

func pick(track, waypoints []TrackPoint) []TrackPoint {
	if len(track) > 0 {
		return track
	}
	return waypoints
}

// appendPoint adds the point described by el to dst and returns dst, or nil
// when the coordinates are unusable.
func appendPoint(dst *[]TrackPoint, el xml.StartElement) *[]TrackPoint {
	var lat, lon string
	var haveLat, haveLon bool
	for _, a := range el.Attr {
		switch strings.ToLower(a.Name.Local) {
		case "lat":
			lat, haveLat = a.Value, true
		case "lon":
			lon, haveLon = a.Value, true
		}
	}
	if !haveLat || !haveLon {
		return nil
	}
	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil
	}
	lonF, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return nil
	}
	if !(geo.Point{Lat: latF, Lng: lonF}).Valid() {
		return nil
	}
	*dst = append(*dst, TrackPoint{Lat: latF, Lng: lonF})
	return dst
}

// EncodeGPX renders points as a single-segment GPX 1.1 track.
func EncodeGPX(name string, points []TrackPoint) []byte {
	if name == "" {
		name = DefaultName
	}
	var b bytes.Buffer
	b.WriteString(gpxHeader)
	_ = xml.EscapeText(&b, []byte(name))
	b.WriteString("</name><trkseg>\n")
	for _, p := range points {
		b.WriteString(`<trkpt lat="`)
		b.WriteString(formatCoord(p.Lat))
		b.WriteString(`" lon="`)
		b.WriteString(formatCoord(p.Lng))
		b.WriteString(`">`)
		if p.Ele != nil {
			b.WriteString("<ele>")
			b.WriteString(formatCoord(*p.Ele))
			b.WriteString("</ele>")
		}
		b.WriteString("</trkpt>\n")
	}
	b.WriteString(gpxFooter)
	return b.Bytes()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FileName turns a route name into a download name ending in .gpx.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "route"
	}
	return slug + ".gpx"
}

// nameFromFile strips directory and extension from an uploaded file name.
func nameFromFile(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
