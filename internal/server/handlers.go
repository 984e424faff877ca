// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"
	"github.com/woozymasta/dzmeasure/internal/render"
	"github.com/woozymasta/dzmeasure/internal/units"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// mapInfo is the public description of a map and its measure control.
type mapInfo struct {
	Name          string         `json:"name"`
	Attribution   string         `json:"attribution,omitempty"`
	CRS           geo.CRS        `json:"crs"`
	Size          float64        `json:"size,omitempty"`
	DistanceUnits units.Table    `json:"distance_units"`
	AreaUnits     units.Table    `json:"area_units"`
	Control       config.Measure `json:"control"`
	Format        units.Options  `json:"format"`
}

// HandleMapsList serves the JSON configuration of available maps.
func (s *ServerContext) HandleMapsList(w http.ResponseWriter, r *http.Request) {
	list := make([]mapInfo, 0, len(s.Config.Maps))
	for i := range s.Config.Maps {
		m := &s.Config.Maps[i]
		mc, err := s.Config.Measurement(m)
		if err != nil {
			// validated at load time
			continue
		}

		control := s.Config.Measure
		control.DistanceUnits, control.AreaUnits = nil, nil
		control.Symbols, control.Decimals = nil, nil

		list = append(list, mapInfo{
			Name:          m.Name,
			Attribution:   m.Attribution,
			CRS:           mc.CRS,
			Size:          m.Size,
			DistanceUnits: mc.DistanceUnits,
			AreaUnits:     mc.AreaUnits,
			Control:       control,
			Format:        mc.Format,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(list)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// measureRequest is the body of the measure and render endpoints. Points
// may be given directly or as a GeoJSON geometry.
type measureRequest struct {
	Mode     string               `json:"mode"`
	Points   []geo.Point          `json:"points"`
	Geometry *geo.GeoJSONGeometry `json:"geometry"`
}

// HandleMeasure measures a complete trail: POST /api/measure/{map}.
func (s *ServerContext) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	engine, mode, points, ok := s.decodeMeasure(w, r, "/api/measure/")
	if !ok {
		return
	}

	res, err := engine.Measure(mode, points)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HandleRender replays a trail through a measurement session and returns
// a preview image: POST /api/render/{map}?format=webp|png&width=&height=.
func (s *ServerContext) HandleRender(w http.ResponseWriter, r *http.Request) {
	engine, mode, points, ok := s.decodeMeasure(w, r, "/api/render/")
	if !ok {
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "webp"
	}
	if format != "webp" && format != "png" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}

	opts := render.DefaultOptions()
	opts.CRS = engine.CRS()
	if c, err := render.ParseHexColor(s.Config.Measure.Color); err == nil {
		opts.Color = c
	}
	if c, err := render.ParseHexColor(s.Config.Measure.PointColor); err == nil {
		opts.PointColor = c
	}
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v > 0 && v <= 4096 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v > 0 && v <= 4096 {
		opts.Height = v
	}

	canvas := render.NewCanvas(opts)
	session, err := measure.NewSession(engine, mode, canvas)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for _, p := range points {
		if err := session.Click(p); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if _, err := session.Finish(measure.EventDoubleClick); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Cache-Control", "no-store")
	if err := canvas.Encode(w, format); err != nil {
		log.Error().Err(err).Str("format", format).Msg("Failed to encode preview")
	}
}

// decodeMeasure resolves the map from the path after prefix and decodes
// the request body. On failure the response is already written.
func (s *ServerContext) decodeMeasure(w http.ResponseWriter, r *http.Request, prefix string) (*measure.Engine, measure.Mode, []geo.Point, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return nil, "", nil, false
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	_, engine, ok := s.engine(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown map %q", name))
		return nil, "", nil, false
	}

	var req measureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return nil, "", nil, false
	}

	modeName := req.Mode
	if q := r.URL.Query().Get("mode"); q != "" {
		modeName = q
	}
	mode, err := measure.ParseMode(modeName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, "", nil, false
	}

	points := req.Points
	if req.Geometry != nil {
		points, err = req.Geometry.Points()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return nil, "", nil, false
		}
	}
	if err := geo.ValidatePoints(points); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, "", nil, false
	}

	return engine, mode, points, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
