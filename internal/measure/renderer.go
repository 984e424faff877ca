package measure

import "github.com/woozymasta/dzmeasure/internal/geo"

// Renderer draws a session's overlays. Implementations never feed back
// into the session.
type Renderer interface {
	// DrawPath replaces the measured path (preview false) or the rubber-band
	// preview (preview true). Area mode draws a polygon.
	DrawPath(points []geo.Point, mode Mode, preview bool)
	// DrawMarker drops a point marker.
	DrawMarker(p geo.Point)
	// DrawLabel places a text label; final labels carry the result.
	DrawLabel(p geo.Point, text string, final bool)
	// Clear removes every overlay of the session.
	Clear()
}

// NopRenderer discards all drawing calls.
type NopRenderer struct{}

func (NopRenderer) DrawPath([]geo.Point, Mode, bool) {}
func (NopRenderer) DrawMarker(geo.Point) {}
func (NopRenderer) DrawLabel(geo.Point, string, bool) {}
func (NopRenderer) Clear() {}
