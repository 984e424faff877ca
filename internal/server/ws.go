package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var clientSeq atomic.Uint64

// wsClient is the live connection registered for a context id.
type wsClient struct {
	conn *websocket.Conn
	done chan struct{}
}

// wsClients tracks the newest connection of each context id.
type wsClients struct {
	mu   sync.Mutex
	byID map[string]*wsClient
}

// attach registers conn as the connection of id and returns the one it
// replaces, if any.
func (c *wsClients) attach(id string, conn *websocket.Conn) (cur, stale *wsClient) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.byID == nil {
		c.byID = make(map[string]*wsClient)
	}
	stale = c.byID[id]
	cur = &wsClient{conn: conn, done: make(chan struct{})}
	c.byID[id] = cur
	return cur, stale
}

// detach unregisters cl unless a newer connection took its place, and
// signals that cl has released its session.
func (c *wsClients) detach(id string, cl *wsClient) {
	c.mu.Lock()
	if c.byID[id] == cl {
		delete(c.byID, id)
	}
	c.mu.Unlock()
	close(cl.done)
}

// clientMessage is an input event or control command sent by the browser.
type clientMessage struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Mode string  `json:"mode,omitempty"`
}

// serverMessage is a render operation, result or error sent to the browser.
type serverMessage struct {
	Op      string          `json:"op"`
	Mode    measure.Mode    `json:"mode,omitempty"`
	Points  []geo.Point     `json:"points,omitempty"`
	Point   *geo.Point      `json:"point,omitempty"`
	Preview bool            `json:"preview,omitempty"`
	Text    string          `json:"text,omitempty"`
	Final   bool            `json:"final,omitempty"`
	State   string          `json:"state,omitempty"`
	Result  *measure.Result `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// wsRenderer streams render operations to one connection. It is only used
// from the connection's read loop, so writes never overlap.
type wsRenderer struct {
	conn *websocket.Conn
	err  error
}

func (r *wsRenderer) send(m serverMessage) {
	if r.err != nil {
		return
	}
	r.err = r.conn.WriteJSON(m)
}

func (r *wsRenderer) DrawPath(points []geo.Point, mode measure.Mode, preview bool) {
	r.send(serverMessage{Op: "path", Points: points, Mode: mode, Preview: preview})
}

func (r *wsRenderer) DrawMarker(p geo.Point) {
	r.send(serverMessage{Op: "marker", Point: &p})
}

func (r *wsRenderer) DrawLabel(p geo.Point, text string, final bool) {
	r.send(serverMessage{Op: "label", Point: &p, Text: text, Final: final})
}

func (r *wsRenderer) Clear() {
	r.send(serverMessage{Op: "clear"})
}

// HandleSession runs interactive measurements over a WebSocket:
// GET /api/session/{map}?mode=distance|area&client=ID.
//
// Each connection owns the session registered as "{map}/{client}". The
// browser sends events ({"type":"click","lat":..,"lng":..}) and commands
// (start, mode, end, cancel); the server answers with render operations.
// A reconnect with the same client id closes the previous connection and
// waits for it to drop its session before starting a new one.
func (s *ServerContext) HandleSession(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/session/"), "/")
	mapName, engine, ok := s.engine(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	mode, err := measure.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	client := r.URL.Query().Get("client")
	if client == "" {
		client = strconv.FormatUint(clientSeq.Add(1), 10)
	}
	id := mapName + "/" + client

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("context", id).Msg("WebSocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	cl, stale := s.clients.attach(id, conn)
	defer s.clients.detach(id, cl)

	if stale != nil {
		// only the owning handler writes to a connection; closing it makes
		// that handler cancel its session on its own goroutine
		log.Debug().Str("context", id).Msg("Replacing previous measurement client")
		_ = stale.conn.Close()
		select {
		case <-stale.done:
		case <-r.Context().Done():
			return
		}
	}

	wc := &wsConn{srv: s, id: id, engine: engine, rend: &wsRenderer{conn: conn}}
	defer wc.release()

	if err := wc.start(mode); err != nil {
		wc.rend.send(serverMessage{Op: "error", Error: err.Error()})
		return
	}

	log.Info().Str("context", id).Str("mode", string(mode)).Msg("Measurement client connected")

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("context", id).Msg("WebSocket read failed")
			}
			break
		}

		res, err := wc.dispatch(msg)
		if err != nil {
			wc.rend.send(serverMessage{Op: "error", Error: err.Error()})
		} else if res != nil {
			wc.rend.send(serverMessage{Op: "result", Result: res})
		}
		if wc.rend.err != nil {
			log.Debug().Err(wc.rend.err).Str("context", id).Msg("WebSocket write failed")
			break
		}
	}

	log.Info().Str("context", id).Msg("Measurement client disconnected")
}

// wsConn is the per-connection state of a measurement client. It is only
// used from the connection's handler goroutine.
type wsConn struct {
	srv     *ServerContext
	id      string
	engine  *measure.Engine
	rend    *wsRenderer
	session *measure.Session
}

// start starts a session in mode or switches the active one.
func (c *wsConn) start(mode measure.Mode) error {
	session, _, err := c.srv.Registry.Start(c.id, c.engine, mode, c.rend)
	if err != nil {
		return err
	}
	c.session = session
	c.rend.send(serverMessage{Op: "state", Mode: session.Mode(), State: session.State().String()})
	return nil
}

// release cancels the session of this connection, leaving alone any
// session a newer connection registered under the same id.
func (c *wsConn) release() {
	if c.session != nil {
		c.srv.Registry.CancelSession(c.id, c.session)
	}
}

// dispatch applies one client message to the connection's session.
func (c *wsConn) dispatch(msg clientMessage) (*measure.Result, error) {
	switch msg.Type {
	case "start":
		mode, err := measure.ParseMode(msg.Mode)
		if err != nil {
			return nil, err
		}
		return nil, c.start(mode)

	case "mode":
		mode, err := measure.ParseMode(msg.Mode)
		if err != nil {
			return nil, err
		}
		if c.session == nil {
			return nil, measure.ErrSessionClosed
		}
		return nil, c.session.SetMode(mode)

	case "end":
		msg.Type = string(measure.EventDoubleClick)
	}

	if c.session == nil {
		return nil, measure.ErrSessionClosed
	}

	ev := measure.Event{Type: measure.EventType(msg.Type), Point: geo.Point{Lat: msg.Lat, Lng: msg.Lng}}
	res, err := c.session.Handle(ev)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidInput) {
			return nil, fmt.Errorf("event %q: %w", msg.Type, err)
		}
		return nil, err
	}

	if c.session.State() == measure.StateFinished {
		// drop the finished session so the next start creates a new one
		c.srv.Registry.CancelSession(c.id, c.session)
		c.rend.send(serverMessage{Op: "state", Mode: c.session.Mode(), State: measure.StateFinished.String()})
	}

	return res, nil
}
