package measure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned for modes other than distance and area.
	ErrUnknownMode = errors.New("unknown measurement mode")
	// ErrSessionClosed is returned for events sent to a finished session.
	ErrSessionClosed = errors.New("measurement session closed")
)

// Mode is the kind of measurement.
type Mode string

const (
	ModeDistance Mode = "distance"
	ModeArea     Mode = "area"
)

// ParseMode parses a mode name, accepting "linear" as an alias of distance.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "distance", "linear", "":
		return ModeDistance, nil
	case "area":
		return ModeArea, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// State is a session's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}
