package measure

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry tracks the active session of each map context. A context has at
// most one active session; starting another one reuses it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Start returns the active session of id, switching it to mode, or creates
// a new one. reused reports whether an existing session was returned.
func (r *Registry) Start(id string, engine *Engine, mode Mode, renderer Renderer) (s *Session, reused bool, err error) {
	r.mu.Lock()
	if cur, ok := r.sessions[id]; ok && cur.State() != StateFinished {
		r.mu.Unlock()

		// redraws through the renderer, so outside the registry lock
		if err := cur.SetMode(mode); err != nil {
			return nil, false, err
		}
		log.Debug().
			Str("context", id).
			Str("mode", string(mode)).
			Msg("Reusing active measurement session")
		return cur, true, nil
	}
	defer r.mu.Unlock()

	s, err = NewSession(engine, mode, renderer)
	if err != nil {
		return nil, false, err
	}
	r.sessions[id] = s

	log.Debug().
		Str("context", id).
		Str("mode", string(mode)).
		Msg("Measurement session started")

	return s, false, nil
}

// Get returns the session registered for id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Switch changes the mode of the active session of id.
func (r *Registry) Switch(id string, mode Mode) error {
	s, ok := r.Get(id)
	if !ok {
		return ErrSessionClosed
	}
	return s.SetMode(mode)
}

// End finalizes the session of id like a double click and removes it.
// The session stops accepting events before any new session of id can
// start.
func (r *Registry) End(id string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	delete(r.sessions, id)

	if s.State() == StateFinished {
		return s.Result(), nil
	}

	res, err := s.Finish(EventDoubleClick)
	if err != nil {
		return nil, err
	}

	ev := log.Debug().Str("context", id)
	if res != nil {
		ev = ev.Str("result", res.Text)
	}
	ev.Msg("Measurement session ended")

	return res, nil
}

// Cancel discards the session of id without a result and removes it.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	s.Cancel()

	log.Debug().Str("context", id).Msg("Measurement session cancelled")
}

// CancelSession discards s if it is still the session registered for id.
// It reports whether s was removed; a session that replaced s is left alone.
func (r *Registry) CancelSession(id string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[id]; !ok || cur != s {
		return false
	}
	delete(r.sessions, id)
	s.Cancel()

	log.Debug().Str("context", id).Msg("Measurement session cancelled")
	return true
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
