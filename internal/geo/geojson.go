// Package geo handles geographic data structures, coordinate conversions and
// the distance and area measurements on a sphere or a flat plane.
package geo

import (
	"encoding/json"
	"fmt"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties"`
	Type       string                 `json:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature.
// Coordinates are kept raw since their nesting depends on Type.
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPointGeometry builds a Point geometry.
func NewPointGeometry(p Point) GeoJSONGeometry {
	raw, _ := json.Marshal([]float64{p.Lng, p.Lat})
	return GeoJSONGeometry{Type: "Point", Coordinates: raw}
}

// NewLineString builds a LineString geometry from points.
func NewLineString(points []Point) GeoJSONGeometry {
	raw, _ := json.Marshal(positions(points))
	return GeoJSONGeometry{Type: "LineString", Coordinates: raw}
}

// NewPolygon builds a single-ring Polygon geometry, closing the ring.
func NewPolygon(points []Point) GeoJSONGeometry {
	ring := positions(points)
	if len(points) > 0 && !points[0].Equal(points[len(points)-1]) {
		ring = append(ring, []float64{points[0].Lng, points[0].Lat})
	}
	raw, _ := json.Marshal([][][]float64{ring})
	return GeoJSONGeometry{Type: "Polygon", Coordinates: raw}
}

// Points returns the vertices of a Point, MultiPoint, LineString or Polygon
// geometry. For polygons only the outer ring is used and its closing
// vertex is dropped.
func (g GeoJSONGeometry) Points() ([]Point, error) {
	switch g.Type {
	case "Point":
		var pos []float64
		if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
			return nil, fmt.Errorf("decode point: %w", err)
		}
		p, err := fromPosition(pos)
		if err != nil {
			return nil, err
		}
		return []Point{p}, nil

	case "MultiPoint", "LineString":
		var line [][]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("decode %s: %w", g.Type, err)
		}
		return fromPositions(line)

	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		if len(rings) == 0 {
			return nil, nil
		}
		points, err := fromPositions(rings[0])
		if err != nil {
			return nil, err
		}
		if n := len(points); n > 1 && points[0].Equal(points[n-1]) {
			points = points[:n-1]
		}
		return points, nil

	default:
		return nil, fmt.Errorf("%w: unsupported geometry %q", ErrInvalidInput, g.Type)
	}
}

func positions(points []Point) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		out = append(out, []float64{p.Lng, p.Lat})
	}
	return out
}

func fromPositions(line [][]float64) ([]Point, error) {
	out := make([]Point, 0, len(line))
	for _, pos := range line {
		p, err := fromPosition(pos)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// fromPosition reads a GeoJSON [lon, lat(, alt)] position.
func fromPosition(pos []float64) (Point, error) {
	if len(pos) < 2 {
		return Point{}, fmt.Errorf("%w: position needs 2 values, got %d", ErrInvalidInput, len(pos))
	}
	p := Point{Lat: pos[1], Lng: pos[0]}
	return p, p.Validate()
}
