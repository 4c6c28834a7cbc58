package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cqlio/dsbulk/internal/convert"
)

// Point is the internal representation of a CQL point literal.
type Point struct{ X, Y float64 }

// LineString is an ordered sequence of points.
type LineString []Point

// Polygon is an ordered sequence of rings; ring 0 is the exterior ring.
type Polygon [][]Point

// PointCodec converts between WKT/GeoJSON point literals and Point.
type PointCodec struct{}

func (PointCodec) ExternalType() ExternalType { return ExternalText }
func (PointCodec) InternalType() InternalType { return InternalPoint }

func (c PointCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	coords, err := parseGeometry(external, "POINT")
	if err != nil {
		return nil, err
	}
	if len(coords) != 1 || len(coords[0]) != 1 {
		return nil, fmt.Errorf("codec: point literal must contain exactly one coordinate pair")
	}
	return coords[0][0], nil
}

func (c PointCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	p, ok := internal.(Point)
	if !ok {
		return nil, fmt.Errorf("codec: point expects a Point internal value, got %T", internal)
	}
	return fmt.Sprintf("POINT (%s %s)", formatCoord(p.X), formatCoord(p.Y)), nil
}

// LineStringCodec converts between WKT/GeoJSON linestring literals and
// LineString.
type LineStringCodec struct{}

func (LineStringCodec) ExternalType() ExternalType { return ExternalText }
func (LineStringCodec) InternalType() InternalType { return InternalLineString }

func (c LineStringCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	coords, err := parseGeometry(external, "LINESTRING")
	if err != nil {
		return nil, err
	}
	if len(coords) != 1 {
		return nil, fmt.Errorf("codec: linestring literal must contain exactly one coordinate list")
	}
	return LineString(coords[0]), nil
}

func (c LineStringCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	ls, ok := internal.(LineString)
	if !ok {
		return nil, fmt.Errorf("codec: linestring expects a LineString internal value, got %T", internal)
	}
	return fmt.Sprintf("LINESTRING (%s)", formatPointList(ls)), nil
}

// PolygonCodec converts between WKT/GeoJSON polygon literals and Polygon.
type PolygonCodec struct{}

func (PolygonCodec) ExternalType() ExternalType { return ExternalText }
func (PolygonCodec) InternalType() InternalType { return InternalPolygon }

func (c PolygonCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	coords, err := parseGeometry(external, "POLYGON")
	if err != nil {
		return nil, err
	}
	return Polygon(coords), nil
}

func (c PolygonCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	poly, ok := internal.(Polygon)
	if !ok {
		return nil, fmt.Errorf("codec: polygon expects a Polygon internal value, got %T", internal)
	}
	rings := make([]string, len(poly))
	for i, ring := range poly {
		rings[i] = fmt.Sprintf("(%s)", formatPointList(ring))
	}
	return fmt.Sprintf("POLYGON (%s)", strings.Join(rings, ", ")), nil
}

// parseGeometry dispatches to the WKT tokenizer or the GeoJSON reader
// depending on the shape of external, validating the WKT keyword when
// that path is taken.
func parseGeometry(external interface{}, keyword string) ([][]Point, error) {
	switch v := external.(type) {
	case string:
		return parseWKT(v, keyword)
	case map[string]interface{}:
		return parseGeoJSON(v)
	default:
		return nil, fmt.Errorf("codec: geometry expects a WKT string or GeoJSON object, got %T", external)
	}
}

// parseWKT is a small hand-rolled tokenizer: KEYWORD ( coordList | ( coordList ), ( coordList ) ... ).
// It accepts nested ring groups (polygons) and flat coordinate lists
// (points, linestrings) without a general-purpose grammar.
func parseWKT(s string, keyword string) ([][]Point, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, keyword) {
		return nil, fmt.Errorf("codec: expected WKT %s literal, got %q", keyword, s)
	}
	rest := strings.TrimSpace(s[len(keyword):])
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return nil, fmt.Errorf("codec: malformed WKT %s literal %q", keyword, s)
	}
	body := rest[1 : len(rest)-1]

	if keyword == "POLYGON" {
		rings, err := splitRings(body)
		if err != nil {
			return nil, err
		}
		out := make([][]Point, 0, len(rings))
		for _, ring := range rings {
			pts, err := parseCoordList(ring)
			if err != nil {
				return nil, err
			}
			out = append(out, pts)
		}
		return out, nil
	}

	pts, err := parseCoordList(body)
	if err != nil {
		return nil, err
	}
	return [][]Point{pts}, nil
}

// splitRings splits "(a, b), (c, d)" into ["a, b", "c, d"], respecting
// parenthesis nesting depth.
func splitRings(body string) ([]string, error) {
	var rings []string
	depth := 0
	start := -1
	for i, r := range body {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				if start < 0 {
					return nil, fmt.Errorf("codec: unbalanced parentheses in WKT polygon")
				}
				rings = append(rings, body[start:i])
				start = -1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("codec: unbalanced parentheses in WKT polygon")
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("codec: WKT polygon has no rings")
	}
	return rings, nil
}

// parseCoordList parses "x1 y1, x2 y2, ..." into Points.
func parseCoordList(s string) ([]Point, error) {
	parts := strings.Split(s, ",")
	pts := make([]Point, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) != 2 {
			return nil, fmt.Errorf("codec: malformed WKT coordinate pair %q", part)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("codec: malformed WKT x coordinate %q: %w", fields[0], err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("codec: malformed WKT y coordinate %q: %w", fields[1], err)
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts, nil
}

// parseGeoJSON reads the {"type": ..., "coordinates": [...]} shape
// produced by a JSON connector already decoded into Go values.
func parseGeoJSON(m map[string]interface{}) ([][]Point, error) {
	raw, ok := m["coordinates"]
	if !ok {
		return nil, fmt.Errorf("codec: GeoJSON geometry missing coordinates")
	}
	typ, _ := m["type"].(string)
	switch typ {
	case "Point":
		pair, ok := raw.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("codec: malformed GeoJSON point coordinates")
		}
		pt, err := geoJSONPoint(pair)
		if err != nil {
			return nil, err
		}
		return [][]Point{{pt}}, nil
	case "LineString":
		pts, err := geoJSONPointList(raw)
		if err != nil {
			return nil, err
		}
		return [][]Point{pts}, nil
	case "Polygon":
		ringsRaw, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("codec: malformed GeoJSON polygon coordinates")
		}
		out := make([][]Point, 0, len(ringsRaw))
		for _, ringRaw := range ringsRaw {
			pts, err := geoJSONPointList(ringRaw)
			if err != nil {
				return nil, err
			}
			out = append(out, pts)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("codec: unsupported GeoJSON geometry type %q", typ)
	}
}

func geoJSONPointList(raw interface{}) ([]Point, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("codec: malformed GeoJSON coordinate list")
	}
	pts := make([]Point, 0, len(list))
	for _, item := range list {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("codec: malformed GeoJSON coordinate pair")
		}
		pt, err := geoJSONPoint(pair)
		if err != nil {
			return nil, err
		}
		pts = append(pts, pt)
	}
	return pts, nil
}

func geoJSONPoint(pair []interface{}) (Point, error) {
	x, xok := toFloat(pair[0])
	y, yok := toFloat(pair[1])
	if !xok || !yok {
		return Point{}, fmt.Errorf("codec: malformed GeoJSON coordinate pair")
	}
	return Point{X: x, Y: y}, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatPointList(pts []Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%s %s", formatCoord(p.X), formatCoord(p.Y))
	}
	return strings.Join(parts, ", ")
}
