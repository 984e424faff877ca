package measure

import (
	"fmt"
	"sync"

	"github.com/woozymasta/dzmeasure/internal/geo"
)

// EventType is the kind of input event delivered to a session.
type EventType string

const (
	EventClick       EventType = "click"
	EventMove        EventType = "move"
	EventDoubleClick EventType = "doubleclick"
	EventRightClick  EventType = "rightclick"
	EventCancel      EventType = "cancel"
)

// Event is a single input event in map coordinates.
type Event struct {
	Type  EventType `json:"type"`
	Point geo.Point `json:"point"`
}

// Session is one interactive measurement: Idle until the first point is
// placed, Active while points are added and Finished once finalized or
// cancelled. A finished session rejects further events.
//
// Events must be delivered in arrival order; methods are safe to call from
// several goroutines but the session does not reorder them.
type Session struct {
	mu       sync.Mutex
	engine   *Engine
	renderer Renderer
	mode     Mode
	state    State
	trail    Trail
	result   *Result
}

// NewSession creates an idle session. A nil renderer discards drawing.
func NewSession(engine *Engine, mode Mode, renderer Renderer) (*Session, error) {
	if mode != ModeDistance && mode != ModeArea {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Session{engine: engine, renderer: renderer, mode: mode}, nil
}

// Mode returns the current measurement mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trail returns a snapshot of the placed points and segment distances.
func (s *Session) Trail() Trail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Trail{points: s.trail.Points(), distances: s.trail.Distances(), total: s.trail.total}
}

// Result returns the result of a finalized session, nil otherwise.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Handle dispatches ev. Only finalizing events return a result.
func (s *Session) Handle(ev Event) (*Result, error) {
	switch ev.Type {
	case EventClick:
		return nil, s.Click(ev.Point)
	case EventMove:
		return nil, s.Move(ev.Point)
	case EventDoubleClick, EventRightClick:
		return s.Finish(ev.Type)
	case EventCancel:
		s.Cancel()
		return nil, nil
	}
	return nil, fmt.Errorf("%w: event type %q", geo.ErrInvalidInput, ev.Type)
}

// Click places a point. A click on the last placed point is ignored, as a
// double click delivers two clicks before finishing.
func (s *Session) Click(p geo.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return ErrSessionClosed
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if last, ok := s.trail.Last(); ok && last.Equal(p) {
		return nil
	}

	if s.trail.Len() == 0 {
		s.state = StateActive
		s.trail.append(p, 0)
	} else {
		last, _ := s.trail.Last()
		s.trail.append(p, s.engine.Distance(last, p))
	}

	points := s.trail.points
	s.renderer.DrawPath(points, s.mode, false)
	s.renderer.DrawPath(points, s.mode, true)
	s.renderer.DrawMarker(p)
	if s.mode == ModeDistance {
		s.renderer.DrawLabel(p, s.runningLabel(), false)
	}

	return nil
}

// Move previews the path extended to p without changing the trail.
func (s *Session) Move(p geo.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return ErrSessionClosed
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if s.trail.Len() == 0 {
		return nil
	}

	preview := make([]geo.Point, 0, s.trail.Len()+1)
	preview = append(preview, s.trail.points...)
	preview = append(preview, p)
	s.renderer.DrawPath(preview, s.mode, true)

	return nil
}

// Finish finalizes the session. With at least two points the result is
// computed, labelled and returned; otherwise the overlays are discarded and
// the result is nil. kind is the triggering event, EventDoubleClick or
// EventRightClick.
func (s *Session) Finish(kind EventType) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return nil, ErrSessionClosed
	}
	s.state = StateFinished

	if s.trail.Len() < 2 {
		s.renderer.Clear()
		s.trail.reset()
		return nil, nil
	}

	points := s.trail.Points()
	last := points[len(points)-1]

	// drop the rubber band vertex
	s.renderer.DrawPath(nil, s.mode, true)
	if kind == EventRightClick {
		s.renderer.DrawPath(points, s.mode, false)
	}

	res := s.compute(points)
	s.renderer.DrawLabel(last, res.Text, true)
	s.result = &res
	s.trail.reset()

	return &res, nil
}

// Cancel discards the session without a result.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return
	}
	s.state = StateFinished
	s.trail.reset()
	s.renderer.Clear()
}

// SetMode switches between distance and area, keeping the placed points
// and redrawing paths, markers and labels from the trail.
func (s *Session) SetMode(mode Mode) error {
	if mode != ModeDistance && mode != ModeArea {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return ErrSessionClosed
	}
	if s.mode == mode {
		return nil
	}
	s.mode = mode
	s.redraw()

	return nil
}

func (s *Session) redraw() {
	s.renderer.Clear()

	points := s.trail.points
	if len(points) == 0 {
		return
	}

	s.renderer.DrawPath(points, s.mode, false)
	s.renderer.DrawPath(points, s.mode, true)
	for _, p := range points {
		s.renderer.DrawMarker(p)
	}

	if s.mode != ModeDistance {
		return
	}

	var running float64
	for i, p := range points {
		running += s.trail.distances[i]
		if i == 0 {
			s.renderer.DrawLabel(p, s.engine.start, false)
			continue
		}
		s.renderer.DrawLabel(p, s.engine.DistanceString(running), false)
	}
}

func (s *Session) runningLabel() string {
	if s.trail.Len() == 1 {
		return s.engine.start
	}
	return s.engine.DistanceString(s.trail.total)
}

func (s *Session) compute(points []geo.Point) Result {
	res := Result{Mode: s.mode, Points: points}
	if s.mode == ModeArea {
		res.Value, res.Text = s.engine.AreaString(points)
		res.Unit, _ = s.engine.area.Unit(res.Value)
		return res
	}
	res.Value = s.trail.total
	res.Unit, _ = s.engine.distance.Unit(res.Value)
	res.Text = s.engine.DistanceString(res.Value)
	return res
}
