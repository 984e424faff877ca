// Package render draws measurement overlays into raster images, for
// previews served over HTTP and written by the command line tool.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"

	"github.com/chai2010/webp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Options configures a Canvas.
type Options struct {
	Width      int
	Height     int
	Padding    int
	CRS        geo.CRS
	Color      color.RGBA
	PointColor color.RGBA
	Background color.RGBA
}

// DefaultOptions mirrors the colors of the map control.
func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		Padding:    32,
		CRS:        geo.Earth,
		Color:      color.RGBA{R: 0xff, G: 0x00, B: 0x80, A: 0xff},
		PointColor: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Background: color.RGBA{R: 0xf2, G: 0xef, B: 0xe9, A: 0xff},
	}
}

type label struct {
	at    geo.Point
	text  string
	final bool
}

// Canvas is a measure.Renderer that keeps the overlays of one session and
// rasterizes them on demand. The view is fitted to the drawn geometry.
type Canvas struct {
	mu      sync.Mutex
	opts    Options
	mode    measure.Mode
	path    []geo.Point
	preview []geo.Point
	markers []geo.Point
	labels  []label
}

// NewCanvas returns an empty canvas.
func NewCanvas(opts Options) *Canvas {
	if opts.Width <= 0 {
		opts.Width = 512
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}
	if opts.Padding < 0 || 2*opts.Padding >= min(opts.Width, opts.Height) {
		opts.Padding = 0
	}
	return &Canvas{opts: opts, mode: measure.ModeDistance}
}

// DrawPath implements measure.Renderer.
func (c *Canvas) DrawPath(points []geo.Point, mode measure.Mode, preview bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = mode
	cp := append([]geo.Point(nil), points...)
	if preview {
		c.preview = cp
	} else {
		c.path = cp
	}
}

// DrawMarker implements measure.Renderer.
func (c *Canvas) DrawMarker(p geo.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers = append(c.markers, p)
}

// DrawLabel implements measure.Renderer.
func (c *Canvas) DrawLabel(p geo.Point, text string, final bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, label{at: p, text: text, final: final})
}

// Clear implements measure.Renderer.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path, c.preview, c.markers, c.labels = nil, nil, nil, nil
}

// Image rasterizes the current overlays.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	o := c.opts
	img := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(o.Background), image.Point{}, draw.Src)

	view := c.fit()

	if len(c.path) > 0 {
		pts := view.project(c.path)
		if c.mode == measure.ModeArea && len(pts) >= 3 {
			fillPolygon(img, pts, withAlpha(o.Color, 0.5))
		}
		strokePath(img, pts, c.mode == measure.ModeArea, 2, o.Color, 0)
	}
	if len(c.preview) > 1 {
		strokePath(img, view.project(c.preview), c.mode == measure.ModeArea, 2, o.Color, 5)
	}
	for _, m := range c.markers {
		p := view.point(m)
		fillCircle(img, p, 4, o.Color)
		fillCircle(img, p, 3, o.PointColor)
	}
	for _, l := range c.labels {
		drawLabel(img, view.point(l.at), l.text, l.final)
	}

	return img
}

// Encode writes the image as "webp" (lossless) or "png".
func (c *Canvas) Encode(w io.Writer, format string) error {
	img := c.Image()

	switch format {
	case "webp", "":
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	case "png":
		return png.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// viewport maps projected coordinates into pixels.
type viewport struct {
	crs        geo.CRS
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func (c *Canvas) fit() viewport {
	v := viewport{crs: c.opts.CRS, scale: 1}

	var all []geo.Point
	all = append(all, c.path...)
	all = append(all, c.preview...)
	all = append(all, c.markers...)
	for _, l := range c.labels {
		all = append(all, l.at)
	}
	if len(all) == 0 {
		return v
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range all {
		x, y := v.xy(p)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	innerW := float64(c.opts.Width - 2*c.opts.Padding)
	innerH := float64(c.opts.Height - 2*c.opts.Padding)
	spanX, spanY := maxX-minX, maxY-minY

	switch {
	case spanX == 0 && spanY == 0:
		v.scale = 1
	case spanX == 0:
		v.scale = innerH / spanY
	case spanY == 0:
		v.scale = innerW / spanX
	default:
		v.scale = math.Min(innerW/spanX, innerH/spanY)
	}

	v.minX, v.maxY = minX, maxY
	v.offX = float64(c.opts.Padding) + (innerW-spanX*v.scale)/2
	v.offY = float64(c.opts.Padding) + (innerH-spanY*v.scale)/2
	return v
}

// xy projects a point: Web Mercator on a sphere, identity on a plane.
func (v viewport) xy(p geo.Point) (float64, float64) {
	if v.crs.Spherical() {
		return p.Lng * math.Pi / 180, geo.MercatorY(p.Lat)
	}
	return p.Lng, p.Lat
}

func (v viewport) point(p geo.Point) [2]float32 {
	x, y := v.xy(p)
	return [2]float32{
		float32(v.offX + (x-v.minX)*v.scale),
		float32(v.offY + (v.maxY-y)*v.scale),
	}
}

func (v viewport) project(points []geo.Point) [][2]float32 {
	out := make([][2]float32, 0, len(points))
	for _, p := range points {
		out = append(out, v.point(p))
	}
	return out
}

func fillPolygon(img *image.RGBA, pts [][2]float32, c color.RGBA) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	z.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		z.LineTo(p[0], p[1])
	}
	z.ClosePath()
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

// strokePath draws each segment as a quad; dash > 0 draws dashes of that
// length in pixels.
func strokePath(img *image.RGBA, pts [][2]float32, closed bool, width float32, c color.RGBA, dash float32) {
	if len(pts) < 2 {
		return
	}
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	segment := func(a, e [2]float32) {
		dx, dy := e[0]-a[0], e[1]-a[1]
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			return
		}
		nx, ny := -dy/length*width/2, dx/length*width/2
		z.MoveTo(a[0]+nx, a[1]+ny)
		z.LineTo(e[0]+nx, e[1]+ny)
		z.LineTo(e[0]-nx, e[1]-ny)
		z.LineTo(a[0]-nx, a[1]-ny)
		z.ClosePath()
	}

	line := func(a, e [2]float32) {
		if dash <= 0 {
			segment(a, e)
			return
		}
		dx, dy := e[0]-a[0], e[1]-a[1]
		length := float32(math.Hypot(float64(dx), float64(dy)))
		for t := float32(0); t < length; t += 2 * dash {
			t2 := min(t+dash, length)
			segment(
				[2]float32{a[0] + dx*t/length, a[1] + dy*t/length},
				[2]float32{a[0] + dx*t2/length, a[1] + dy*t2/length},
			)
		}
	}

	for i := 1; i < len(pts); i++ {
		line(pts[i-1], pts[i])
	}
	if closed && len(pts) > 2 {
		line(pts[len(pts)-1], pts[0])
	}

	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

func fillCircle(img *image.RGBA, center [2]float32, r float32, c color.RGBA) {
	const steps = 16
	pts := make([][2]float32, 0, steps)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		pts = append(pts, [2]float32{
			center[0] + r*float32(math.Cos(a)),
			center[1] + r*float32(math.Sin(a)),
		})
	}
	fillPolygon(img, pts, c)
}

// drawLabel renders text on a light box above p; final labels get a
// colored border.
func drawLabel(img *image.RGBA, p [2]float32, text string, final bool) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}

	w := d.MeasureString(text).Ceil()
	x := int(p[0]) - w/2
	y := int(p[1]) - 10

	box := image.Rect(x-3, y-face.Ascent-2, x+w+3, y+face.Descent+2)
	if final {
		draw.Draw(img, box.Inset(-1), image.Black, image.Point{}, draw.Src)
	}
	draw.Draw(img, box, image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xe6}), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}
