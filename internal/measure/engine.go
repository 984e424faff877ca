// Package measure drives interactive distance and area measurements: it keeps
// the trail of placed points, computes distances and areas in the map's CRS
// and hands formatted labels to a Renderer.
package measure

import (
	"fmt"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/units"
)

// Config is the canonical, validated measurement configuration of one map.
// It is built once (see internal/config) and not modified afterwards.
type Config struct {
	CRS           geo.CRS
	DistanceUnits units.Table
	AreaUnits     units.Table
	Format        units.Options
	StartLabel    string
}

// DefaultConfig returns the metric configuration on the earth sphere.
func DefaultConfig() Config {
	return Config{
		CRS:           geo.Earth,
		DistanceUnits: units.MetricDistance.Clone(),
		AreaUnits:     units.MetricArea.Clone(),
		Format:        units.DefaultOptions(),
		StartLabel:    "Start",
	}
}

// Engine measures and formats distances and areas for one Config.
type Engine struct {
	crs      geo.CRS
	start    string
	distance *units.Formatter
	area     *units.Formatter
}

// NewEngine validates cfg and builds an Engine. Invalid unit tables or
// format options are reported as units.ErrInvalidConfig.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.CRS.Radius < 0 {
		return nil, fmt.Errorf("%w: crs radius %v", units.ErrInvalidConfig, cfg.CRS.Radius)
	}

	distance, err := units.NewFormatter(cfg.DistanceUnits, cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("distance units: %w", err)
	}
	area, err := units.NewFormatter(cfg.AreaUnits, cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("area units: %w", err)
	}

	return &Engine{
		crs:      cfg.CRS,
		start:    cfg.StartLabel,
		distance: distance,
		area:     area,
	}, nil
}

// CRS returns the coordinate reference system measurements are made in.
func (e *Engine) CRS() geo.CRS {
	return e.crs
}

// Distance returns the distance between a and b.
func (e *Engine) Distance(a, b geo.Point) float64 {
	return e.crs.Distance(a, b)
}

// Area returns the area enclosed by points, 0 for fewer than three points.
func (e *Engine) Area(points []geo.Point) float64 {
	return e.crs.Area(points)
}

// DistanceString formats a distance in meters.
func (e *Engine) DistanceString(meters float64) string {
	return e.distance.String(meters)
}

// AreaString measures the area enclosed by points and formats it.
func (e *Engine) AreaString(points []geo.Point) (float64, string) {
	a := e.Area(points)
	return a, e.area.String(a)
}

// Measure computes the result for a complete list of points without an
// interactive session.
func (e *Engine) Measure(mode Mode, points []geo.Point) (Result, error) {
	if err := geo.ValidatePoints(points); err != nil {
		return Result{}, err
	}

	res := Result{Mode: mode, Points: append([]geo.Point(nil), points...)}
	switch mode {
	case ModeDistance:
		res.Value = geo.PathLength(points, e.crs.Radius)
		res.Unit, _ = e.distance.Unit(res.Value)
		res.Text = e.distance.String(res.Value)
	case ModeArea:
		res.Value = e.Area(points)
		res.Unit, _ = e.area.Unit(res.Value)
		res.Text = e.area.String(res.Value)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	return res, nil
}

// Result is the outcome of a finished measurement.
type Result struct {
	Mode   Mode        `json:"mode" yaml:"mode"`
	Value  float64     `json:"value" yaml:"value"`
	Unit   string      `json:"unit" yaml:"unit"`
	Text   string      `json:"text" yaml:"text"`
	Points []geo.Point `json:"points" yaml:"points"`
}
