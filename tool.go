package stamp

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/stamp/utils"
	"seehuhn.de/go/geom/vec"
)

// ErrNoStroke is returned when the pre-stroke copy is requested outside a stroke.
var ErrNoStroke = errors.New("no stroke in progress")

// DirectTool paints strokes directly into a layer. A copy of the layer is
// kept while a stroke is in progress, for tools that need the original pixels.
type DirectTool struct {
	brush  Brush
	canvas *Canvas
	engine *DabsEngine

	// Clip, when not empty, restricts painting to the rectangle.
	Clip image.Rectangle
	// Composite and Blend select how stamps are mixed with the layer.
	Composite string
	Blend     string

	snapshot *image.NRGBA
	damaged  image.Rectangle
}

// NewDirectTool creates a tool painting with the brush.
func NewDirectTool(b Brush) *DirectTool {
	return &DirectTool{brush: b}
}

// SetRadius sets the brush radius, clamped to the supported range.
func (t *DirectTool) SetRadius(r float64) {
	t.brush.SetRadius(ClampRadius(r))
}

// Press starts a stroke at p, painting with the color c into the layer.
func (t *DirectTool) Press(layer *image.NRGBA, c color.Color, p vec.Vec2) error {
	t.canvas = NewCanvas(layer)
	t.canvas.SetColor(c)
	t.canvas.SetClip(t.Clip)
	if t.Composite != "" {
		if err := t.canvas.SetComposite(t.Composite); err != nil {
			return err
		}
	}
	if err := t.canvas.SetBlend(t.Blend); err != nil {
		return err
	}

	t.snapshot = imaging.Clone(layer)
	t.damaged = image.Rectangle{}
	t.brush.SetTarget(t.canvas, t)
	t.engine = NewDabsEngine(t.brush)

	return t.engine.Start(p)
}

// Drag extends the stroke to p.
func (t *DirectTool) Drag(p vec.Vec2) error {
	if t.engine == nil {
		return ErrNoStroke
	}
	return t.engine.LineTo(p)
}

// Release ends the stroke, drops the pre-stroke copy and returns the
// region changed by the stroke.
func (t *DirectTool) Release() image.Rectangle {
	t.snapshot = nil
	t.engine = nil
	return t.damaged
}

// Original returns the layer as it was when the stroke started.
func (t *DirectTool) Original() (*image.NRGBA, error) {
	if t.snapshot == nil {
		return nil, ErrNoStroke
	}
	return t.snapshot, nil
}

// Dabs returns the number of dabs of the current stroke.
func (t *DirectTool) Dabs() int {
	if t.engine == nil {
		return 0
	}
	return t.engine.Dabs()
}

// Damage accumulates the regions changed by the brush.
func (t *DirectTool) Damage(r image.Rectangle) {
	t.damaged = t.damaged.Union(r.Intersect(t.canvas.Clip()))
}

// ClampRadius limits a requested brush radius to [MinBrushRadius, MaxBrushRadius].
func ClampRadius(r float64) float64 {
	if math.IsNaN(r) {
		return MinBrushRadius
	}
	return utils.Clamp(r, MinBrushRadius, MaxBrushRadius)
}
