package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for coordinates that cannot be measured.
var ErrInvalidInput = errors.New("invalid input")

// Point is a geographic coordinate in degrees (WGS84-like).
// On a flat plane (Simple CRS) Lng is used as X and Lat as Y.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Validate reports ErrInvalidInput when a component is NaN or infinite.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: point (%v, %v)", ErrInvalidInput, p.Lat, p.Lng)
	}
	return nil
}

// Equal reports whether both points have exactly the same coordinates.
func (p Point) Equal(o Point) bool {
	return p.Lat == o.Lat && p.Lng == o.Lng
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// ValidatePoints returns the first validation error in points, with its index.
func ValidatePoints(points []Point) error {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}
