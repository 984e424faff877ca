package geo

import (
	"fmt"
	"math"
	"strings"
)

// EarthRadius is the sphere radius used by Leaflet's L.CRS.Earth, in meters.
const EarthRadius = 6378137.0

// CRS selects how distances and areas are measured.
// A positive Radius measures on a sphere, zero measures on a flat plane
// where coordinates are treated as Cartesian units.
type CRS struct {
	Name   string  `json:"name" yaml:"name"`
	Radius float64 `json:"radius" yaml:"radius"`
}

var (
	// Earth is the spherical earth model.
	Earth = CRS{Name: "earth", Radius: EarthRadius}
	// Simple is an infinite flat plane (Leaflet L.CRS.Simple).
	Simple = CRS{Name: "simple"}
)

// ParseCRS resolves a CRS by name. A non-zero radius overrides the
// named model's radius ("sphere" requires one).
func ParseCRS(name string, radius float64) (CRS, error) {
	if radius < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return CRS{}, fmt.Errorf("%w: crs radius %v", ErrInvalidInput, radius)
	}

	switch strings.ToLower(name) {
	case "", "earth", "epsg3857", "epsg4326":
		crs := Earth
		if radius > 0 {
			crs.Radius = radius
		}
		return crs, nil
	case "simple", "flat", "plane":
		return Simple, nil
	case "sphere":
		if radius == 0 {
			return CRS{}, fmt.Errorf("%w: crs sphere needs a radius", ErrInvalidInput)
		}
		return CRS{Name: "sphere", Radius: radius}, nil
	default:
		return CRS{}, fmt.Errorf("%w: unknown crs %q", ErrInvalidInput, name)
	}
}

// Spherical reports whether the CRS measures on a sphere.
func (c CRS) Spherical() bool {
	return c.Radius > 0
}

// Distance returns the distance between a and b in this CRS.
func (c CRS) Distance(a, b Point) float64 {
	return Distance(a, b, c.Radius)
}

// Area returns the area enclosed by the closed ring of points in this CRS.
func (c CRS) Area(points []Point) float64 {
	return EnclosedArea(points, c.Radius)
}

// Distance returns the great-circle (haversine) distance between a and b
// on a sphere of the given radius. A zero radius falls back to
// PlanarDistance.
func Distance(a, b Point, radius float64) float64 {
	if radius <= 0 {
		return PlanarDistance(a, b)
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	// rounding can push h slightly above 1 for antipodal points
	h = math.Min(h, 1)

	return 2 * radius * math.Asin(math.Sqrt(h))
}

// PlanarDistance is the Euclidean distance with (Lng, Lat) used as (x, y).
func PlanarDistance(a, b Point) float64 {
	return math.Hypot(b.Lng-a.Lng, b.Lat-a.Lat)
}

// EnclosedArea returns the area of the closed ring formed by points.
//
// With a positive radius it uses the spherical excess approximation, which
// is accurate for polygons small relative to the sphere and does not handle
// rings crossing the antimeridian. With a zero radius it uses the shoelace
// formula on raw (Lng, Lat). Fewer than three points enclose nothing.
func EnclosedArea(points []Point, radius float64) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	var sum float64
	prev := points[n-1]
	for _, cur := range points {
		if radius > 0 {
			sum += toRadians(cur.Lng-prev.Lng) *
				(2 + math.Sin(toRadians(prev.Lat)) + math.Sin(toRadians(cur.Lat)))
		} else {
			sum += prev.Lng*cur.Lat - prev.Lat*cur.Lng
		}
		prev = cur
	}

	if radius > 0 {
		sum *= radius * radius
	}

	return math.Abs(sum / 2)
}

// PathLength returns the sum of segment distances along points.
func PathLength(points []Point, radius float64) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i], radius)
	}
	return total
}
