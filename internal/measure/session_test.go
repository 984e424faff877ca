package measure

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/units"
)

// recorder keeps the renderer calls as readable strings.
type recorder struct {
	calls   []string
	labels  []string
	cleared int
}

func (r *recorder) DrawPath(points []geo.Point, mode Mode, preview bool) {
	r.calls = append(r.calls, fmt.Sprintf("path %s %d preview=%t", mode, len(points), preview))
}

func (r *recorder) DrawMarker(p geo.Point) {
	r.calls = append(r.calls, "marker "+p.String())
}

func (r *recorder) DrawLabel(p geo.Point, text string, final bool) {
	r.labels = append(r.labels, fmt.Sprintf("%s final=%t", text, final))
}

func (r *recorder) Clear() {
	r.cleared++
	r.labels = nil
	r.calls = nil
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestSessionDistance(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newEngine(t), ModeDistance, rec)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Click(geo.Point{Lat: 0, Lng: 0}))
	assert.Equal(t, StateActive, s.State())
	require.NoError(t, s.Click(geo.Point{Lat: 0, Lng: 0.01}))
	require.NoError(t, s.Click(geo.Point{Lat: 0, Lng: 0.02}))

	trail := s.Trail()
	assert.Equal(t, 3, trail.Len())
	require.Len(t, trail.Distances(), 3)
	assert.Zero(t, trail.Distances()[0])
	assert.InDelta(t, 2226.4, trail.Total(), 1)

	assert.Equal(t, []string{"Start final=false", "1,113 m final=false", "2.23 km final=false"}, rec.labels)

	res, err := s.Finish(EventDoubleClick)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, ModeDistance, res.Mode)
	assert.Equal(t, "kilometer", res.Unit)
	assert.Equal(t, "2.23 km", res.Text)
	assert.Equal(t, "2.23 km final=true", rec.labels[len(rec.labels)-1])
	assert.Equal(t, StateFinished, s.State())
	assert.Same(t, res, s.Result())

	assert.Equal(t, 0, trailOf(s).Len(), "trail is dropped once the session ends")
	assert.Zero(t, trailOf(s).Total())
	assert.Len(t, res.Points, 3)
}

func TestSessionDuplicateClickIgnored(t *testing.T) {
	s, err := NewSession(newEngine(t), ModeDistance, nil)
	require.NoError(t, err)

	p := geo.Point{Lat: 10, Lng: 10}
	require.NoError(t, s.Click(p))
	require.NoError(t, s.Click(p))
	assert.Equal(t, 1, trailOf(s).Len())
}

func TestSessionMoveDoesNotMutateTrail(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newEngine(t), ModeDistance, rec)
	require.NoError(t, err)

	// before the first point a move draws nothing
	require.NoError(t, s.Move(geo.Point{Lat: 1, Lng: 1}))
	assert.Empty(t, rec.calls)

	require.NoError(t, s.Click(geo.Point{Lat: 0, Lng: 0}))
	rec.calls = nil
	require.NoError(t, s.Move(geo.Point{Lat: 1, Lng: 1}))
	require.NoError(t, s.Move(geo.Point{Lat: 2, Lng: 2}))

	assert.Equal(t, []string{"path distance 2 preview=true", "path distance 2 preview=true"}, rec.calls)
	assert.Equal(t, 1, trailOf(s).Len())
	assert.Equal(t, StateActive, s.State())
}

func TestSessionArea(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newEngine(t), ModeArea, rec)
	require.NoError(t, err)

	side := 1000 / geo.EarthRadius * 180 / math.Pi
	for _, p := range []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: side}, {Lat: side, Lng: side}, {Lat: side, Lng: 0}} {
		require.NoError(t, s.Click(p))
	}
	assert.Empty(t, rec.labels, "area mode labels only the result")

	res, err := s.Handle(Event{Type: EventRightClick})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InEpsilon(t, 1e6, res.Value, 0.01)
	// spherical excess lands a hair under 1 km²
	assert.Equal(t, "hectare", res.Unit)
	assert.Equal(t, "100.00 ha", res.Text)
	assert.Equal(t, []string{res.Text + " final=true"}, rec.labels)
}

func TestSessionAreaTwoPointsIsZero(t *testing.T) {
	s, err := NewSession(newEngine(t), ModeArea, nil)
	require.NoError(t, err)

	require.NoError(t, s.Click(geo.Point{Lat: 0, Lng: 0}))
	require.NoError(t, s.Click(geo.Point{Lat: 1, Lng: 1}))
	res, err := s.Finish(EventDoubleClick)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Zero(t, res.Value)
	assert.Equal(t, "0 m²", res.Text)
}

func TestSessionFinishSinglePointDiscards(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newEngine(t), ModeDistance, rec)
	require.NoError(t, err)

	require.NoError(t, s.Click(geo.Point{Lat: 5, Lng: 5}))
	res, err := s.Finish(EventDoubleClick)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, rec.cleared)
	assert.Equal(t, 0, trailOf(s).Len())
	assert.Equal(t, StateFinished, s.State())
}

func TestSessionClosedRejectsEvents(t *testing.T) {
	s, err := NewSession(newEngine(t), ModeDistance, nil)
	require.NoError(t, err)
	s.Cancel()

	assert.ErrorIs(t, s.Click(geo.Point{}), ErrSessionClosed)
	assert.ErrorIs(t, s.Move(geo.Point{}), ErrSessionClosed)
	assert.ErrorIs(t, s.SetMode(ModeArea), ErrSessionClosed)
	_, err = s.Finish(EventDoubleClick)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionInvalidPoint(t *testing.T) {
	s, err := NewSession(newEngine(t), ModeDistance, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Click(geo.Point{Lat: math.NaN()}), geo.ErrInvalidInput)
	assert.ErrorIs(t, s.Move(geo.Point{Lng: math.Inf(-1)}), geo.ErrInvalidInput)
	assert.Equal(t, StateIdle, s.State())

	_, err = s.Handle(Event{Type: "wheel"})
	assert.ErrorIs(t, err, geo.ErrInvalidInput)
}

func TestSessionSetModeRedraws(t *testing.T) {
	rec := &recorder{}
	s, err := NewSession(newEngine(t), ModeDistance, rec)
	require.NoError(t, err)

	points := []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.01}, {Lat: 0.01, Lng: 0.01}}
	for _, p := range points {
		require.NoError(t, s.Click(p))
	}

	require.NoError(t, s.SetMode(ModeArea))
	assert.Equal(t, 1, rec.cleared)
	assert.Empty(t, rec.labels)
	assert.Contains(t, rec.calls, "path area 3 preview=false")
	assert.Equal(t, 3, trailOf(s).Len())

	require.NoError(t, s.SetMode(ModeDistance))
	assert.Equal(t, []string{"Start final=false", "1,113 m final=false", "2.23 km final=false"}, rec.labels)

	assert.ErrorIs(t, s.SetMode("volume"), ErrUnknownMode)
}

func TestNewSessionUnknownMode(t *testing.T) {
	_, err := NewSession(newEngine(t), "perimeter", nil)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestEngineInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AreaUnits = units.Table{}
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, units.ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.DistanceUnits = units.Table{"meter": 0}
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, units.ErrInvalidConfig)
}

func TestEngineMeasure(t *testing.T) {
	e := newEngine(t)

	res, err := e.Measure(ModeDistance, []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.01}})
	require.NoError(t, err)
	assert.InDelta(t, 1113.2, res.Value, 1)
	assert.Equal(t, "1.11 km", res.Text)

	_, err = e.Measure("volume", nil)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = e.Measure(ModeArea, []geo.Point{{Lat: math.NaN(), Lng: 0}})
	assert.ErrorIs(t, err, geo.ErrInvalidInput)
}

func TestEngineSimpleCRS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CRS = geo.Simple
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.Measure(ModeArea, []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 200}, {Lat: 100, Lng: 200}, {Lat: 100, Lng: 0}})
	require.NoError(t, err)
	assert.Equal(t, 20000.0, res.Value)
	assert.Equal(t, "2.00 ha", res.Text)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Linear")
	require.NoError(t, err)
	assert.Equal(t, ModeDistance, m)

	m, err = ParseMode("area")
	require.NoError(t, err)
	assert.Equal(t, ModeArea, m)

	_, err = ParseMode("volume")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

// trailOf returns an addressable copy of the session's trail so that its
// pointer-receiver accessors can be called.
func trailOf(s *Session) *Trail {
	tr := s.Trail()
	return &tr
}
