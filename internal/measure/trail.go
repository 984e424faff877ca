package measure

import "github.com/woozymasta/dzmeasure/internal/geo"

// Trail is the ordered list of points placed in a session together with
// the distance of each point from its predecessor (0 for the first one).
type Trail struct {
	points    []geo.Point
	distances []float64
	total     float64
}

// Len returns the number of placed points.
func (t *Trail) Len() int {
	return len(t.points)
}

// Points returns a copy of the placed points.
func (t *Trail) Points() []geo.Point {
	return append([]geo.Point(nil), t.points...)
}

// Distances returns a copy of the per-segment distances.
func (t *Trail) Distances() []float64 {
	return append([]float64(nil), t.distances...)
}

// Total returns the cumulative distance along the trail.
func (t *Trail) Total() float64 {
	return t.total
}

// Last returns the most recently placed point.
func (t *Trail) Last() (geo.Point, bool) {
	if len(t.points) == 0 {
		return geo.Point{}, false
	}
	return t.points[len(t.points)-1], true
}

func (t *Trail) append(p geo.Point, distance float64) {
	t.points = append(t.points, p)
	t.distances = append(t.distances, distance)
	t.total += distance
}

func (t *Trail) reset() {
	t.points = nil
	t.distances = nil
	t.total = 0
}
