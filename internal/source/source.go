// Package source loads measurement trails from files, stdin or URLs and
// writes finished measurements back out as GeoJSON.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/dzmeasure/internal/geo"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Supported trail formats.
const (
	FormatAuto    = "auto"
	FormatGeoJSON = "geojson"
	FormatPoints  = "points" // [{lat, lng}, ...] as JSON or YAML
	FormatGame    = "game"   // [[x, z], ...] game coordinates, needs a map size
)

// Options controls how a trail is decoded.
type Options struct {
	Format  string
	MapSize float64
}

// Load reads a trail from src: a file path, "-" for stdin or an http(s) URL.
func Load(client *http.Client, src string, opts Options) ([]geo.Point, error) {
	data, err := read(client, src)
	if err != nil {
		return nil, err
	}

	format := opts.Format
	if format == "" || format == FormatAuto {
		format = detect(src, data)
	}

	log.Debug().
		Str("source", src).
		Str("format", format).
		Int("bytes", len(data)).
		Msg("Decoding trail")

	points, err := Decode(data, format, opts.MapSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return points, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format string, mapSize float64) ([]geo.Point, error) {
	var points []geo.Point
	var err error

	switch format {
	case FormatGeoJSON:
		points, err = decodeGeoJSON(data)
	case FormatPoints:
		err = yaml.Unmarshal(data, &points)
	case FormatGame:
		points, err = decodeGame(data, mapSize)
	default:
		return nil, fmt.Errorf("%w: unknown trail format %q", geo.ErrInvalidInput, format)
	}
	if err != nil {
		return nil, err
	}

	if err := geo.ValidatePoints(points); err != nil {
		return nil, err
	}
	return points, nil
}

func read(client *http.Client, src string) ([]byte, error) {
	switch {
	case src == "-" || src == "":
		return io.ReadAll(os.Stdin)

	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		if client == nil {
			client = http.DefaultClient
		}
		log.Info().Str("url", src).Msg("Downloading trail")

		resp, err := client.Get(src)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download %s: status %d", src, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)

	default:
		return os.ReadFile(src)
	}
}

// detect guesses the format from the file extension, then the content.
func detect(src string, data []byte) string {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".geojson":
		return FormatGeoJSON
	case ".yaml", ".yml":
		return FormatPoints
	}

	var probe struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(bytes.TrimSpace(data), &probe) == nil && probe.Type != "" {
		return FormatGeoJSON
	}
	return FormatPoints
}

// decodeGeoJSON accepts a FeatureCollection, a Feature or a bare geometry.
// A collection yields the vertices of all features in order, so a set of
// Point features reads as a trail.
func decodeGeoJSON(data []byte) ([]geo.Point, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc geo.GeoJSONFeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		var out []geo.Point
		for i, f := range fc.Features {
			pts, err := f.Geometry.Points()
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			out = append(out, pts...)
		}
		return out, nil

	case "Feature":
		var f geo.GeoJSONFeature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		return f.Geometry.Points()

	default:
		var g geo.GeoJSONGeometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		return g.Points()
	}
}

// decodeGame reads [x, z] game positions and projects them like the map
// tiles are projected.
func decodeGame(data []byte, mapSize float64) ([]geo.Point, error) {
	if mapSize <= 0 {
		return nil, fmt.Errorf("%w: game coordinates need a map size > 0", geo.ErrInvalidInput)
	}

	var positions [][]float64
	if err := yaml.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("decode game positions: %w", err)
	}

	out := make([]geo.Point, 0, len(positions))
	for i, pos := range positions {
		if len(pos) < 2 {
			return nil, fmt.Errorf("%w: position %d needs x and z", geo.ErrInvalidInput, i)
		}
		// [x, y, z] world positions carry height in the middle
		x, z := pos[0], pos[1]
		if len(pos) >= 3 {
			z = pos[2]
		}
		out = append(out, geo.GamePoint(x, z, mapSize))
	}
	return out, nil
}
