package source

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"

	"github.com/rs/zerolog/log"
)

// ResultFeature converts a measurement into a GeoJSON feature: a LineString
// for distances, a Polygon for areas.
func ResultFeature(res measure.Result) geo.GeoJSONFeature {
	geometry := geo.NewLineString(res.Points)
	if res.Mode == measure.ModeArea {
		geometry = geo.NewPolygon(res.Points)
	}

	return geo.GeoJSONFeature{
		Type:     "Feature",
		Geometry: geometry,
		Properties: map[string]interface{}{
			"mode":  string(res.Mode),
			"value": res.Value,
			"unit":  res.Unit,
			"text":  res.Text,
		},
	}
}

// SaveGeoJSON writes results as a feature collection to path.
func SaveGeoJSON(path string, results ...measure.Result) error {
	fc := geo.GeoJSONFeatureCollection{Type: "FeatureCollection", Features: make([]geo.GeoJSONFeature, 0, len(results))}
	for _, res := range results {
		fc.Features = append(fc.Features, ResultFeature(res))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
