package stamp

import (
	"image"
	"image/color"

	"github.com/esimov/stamp/imop"
	"golang.org/x/image/draw"
)

// Interpolation is the resampling quality hint used when a raster is drawn
// through a non-translation transform.
type Interpolation int

// Supported interpolation hints.
const (
	NearestNeighbor Interpolation = iota
	Bilinear
)

// Surface is the drawing target of a brush.
type Surface interface {
	// Color returns the current stroke color.
	Color() color.Color
	// Transform returns the current user to device transform.
	Transform() Matrix
	// SetTransform replaces the current transform.
	SetTransform(Matrix)
	// Rotate rotates the coordinate system by theta radians around (x, y).
	Rotate(theta, x, y float64)
	// Interpolation returns the current interpolation hint.
	Interpolation() Interpolation
	// SetInterpolation replaces the interpolation hint.
	SetInterpolation(Interpolation)
	// DrawImage draws img with its top-left corner at (x, y) in user space.
	DrawImage(img image.Image, x, y int)
}

// withSavedState runs fn and then restores the transform and the
// interpolation hint the surface had before, on every exit path.
func withSavedState(s Surface, fn func()) {
	m, q := s.Transform(), s.Interpolation()
	defer func() {
		s.SetTransform(m)
		s.SetInterpolation(q)
	}()
	fn()
}

// DamageSink receives the device regions changed by a brush.
type DamageSink interface {
	Damage(r image.Rectangle)
}

// DamageFunc adapts a function to a DamageSink.
type DamageFunc func(r image.Rectangle)

// Damage calls f(r).
func (f DamageFunc) Damage(r image.Rectangle) { f(r) }

// Canvas is a Surface drawing into an NRGBA layer.
// It is not safe for concurrent use.
type Canvas struct {
	layer  *image.NRGBA
	color  color.Color
	ctm    Matrix
	interp Interpolation
	clip   image.Rectangle

	comp  *imop.Composite
	blend *imop.Blend
}

var _ Surface = (*Canvas)(nil)

// NewCanvas creates a canvas over the layer, painting black with the
// source-over operation and no clipping.
func NewCanvas(layer *image.NRGBA) *Canvas {
	return &Canvas{
		layer: layer,
		color: color.Black,
		ctm:   Identity(),
		clip:  layer.Bounds(),
		comp:  imop.InitOp(),
	}
}

// Layer returns the image the canvas draws into.
func (c *Canvas) Layer() *image.NRGBA {
	return c.layer
}

// Color returns the current stroke color.
func (c *Canvas) Color() color.Color {
	return c.color
}

// SetColor sets the stroke color.
func (c *Canvas) SetColor(col color.Color) {
	c.color = col
}

// Transform returns the current transform.
func (c *Canvas) Transform() Matrix {
	return c.ctm
}

// SetTransform replaces the current transform.
func (c *Canvas) SetTransform(m Matrix) {
	c.ctm = m
}

// Rotate rotates the coordinate system by theta radians around (x, y).
func (c *Canvas) Rotate(theta, x, y float64) {
	c.ctm = c.ctm.Multiply(RotateAbout(theta, x, y))
}

// Interpolation returns the current interpolation hint.
func (c *Canvas) Interpolation() Interpolation {
	return c.interp
}

// SetInterpolation replaces the interpolation hint.
func (c *Canvas) SetInterpolation(q Interpolation) {
	c.interp = q
}

// Clip returns the clip rectangle, in device space.
func (c *Canvas) Clip() image.Rectangle {
	return c.clip
}

// SetClip restricts drawing to r. An empty rectangle resets the clip to the whole layer.
func (c *Canvas) SetClip(r image.Rectangle) {
	if r.Empty() {
		c.clip = c.layer.Bounds()
		return
	}
	c.clip = r.Intersect(c.layer.Bounds())
}

// SetComposite selects the Porter-Duff operation used to draw stamps.
func (c *Canvas) SetComposite(op string) error {
	return c.comp.Set(op)
}

// SetBlend selects the blend mode. An empty mode disables blending.
func (c *Canvas) SetBlend(mode string) error {
	if mode == "" || mode == imop.Normal {
		c.blend = nil
		return nil
	}
	b := imop.NewBlend()
	if err := b.Set(mode); err != nil {
		return err
	}
	c.blend = b
	return nil
}

// DrawImage draws img with its top-left corner at (x, y) in user space,
// mapped to the layer through the current transform.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	sb := img.Bounds()
	m := c.ctm.Multiply(Translate(float64(x-sb.Min.X), float64(y-sb.Min.Y)))

	var (
		src *image.NRGBA
		dr  image.Rectangle
		sp  image.Point
	)
	if m.IsTranslation() && m.C == float64(int(m.C)) && m.F == float64(int(m.F)) {
		// integer translation: no resampling needed
		src = imgToNRGBA(img)
		origin := image.Pt(int(m.C)+sb.Min.X, int(m.F)+sb.Min.Y)
		dr = src.Bounds().Add(origin).Intersect(c.clip)
		sp = dr.Min.Sub(origin)
	} else {
		dr = m.Bounds(sb).Intersect(c.clip)
		if dr.Empty() {
			return
		}
		src = image.NewNRGBA(dr)
		c.interpolator().Transform(src, m.Aff3(), img, sb, draw.Src, nil)
		sp = dr.Min
	}
	if dr.Empty() {
		return
	}

	if c.comp.Get() == imop.SrcOver && c.blend == nil {
		draw.Draw(c.layer, dr, src, sp, draw.Over)
		return
	}
	c.comp.Draw(c.layer, dr, src, sp, c.blend)
}

func (c *Canvas) interpolator() draw.Interpolator {
	if c.interp == Bilinear {
		return draw.BiLinear
	}
	return draw.NearestNeighbor
}
