package stamp

import (
	"fmt"
	"image"
	"math"
)

// Brush places dabs on a target surface.
type Brush interface {
	// SetTarget sets the surface dabs are drawn on and the sink notified
	// of the changed regions. The sink may be nil.
	SetTarget(s Surface, damage DamageSink)
	// SetRadius sets the brush radius in pixels.
	SetRadius(r float64)
	// Radius returns the brush radius.
	Radius() float64
	// SpacingRatio returns the distance between two dab centers as a fraction of the diameter.
	SpacingRatio() float64
	// PutDab places a dab centered at (x, y), rotated by theta radians if the brush is angle aware.
	PutDab(x, y, theta float64) error
}

// ImageBrush is a uniform dabs brush stamping a colorized copy of a greyscale template.
// Brushes created from the same TemplateCache and shape share the template raster
// but keep their own stamp cache.
type ImageBrush struct {
	shape      Shape
	template   *image.NRGBA
	spacing    float64
	angleAware bool
	radius     float64

	stamp  *StampCache
	target Surface
	damage DamageSink
}

var _ Brush = (*ImageBrush)(nil)

// NewImageBrush creates a brush stamping the template of the shape.
func NewImageBrush(templates *TemplateCache, shape Shape, spacingRatio float64, angleAware bool) (*ImageBrush, error) {
	tpl, err := templates.Get(shape)
	if err != nil {
		return nil, fmt.Errorf("cannot create brush: %w", err)
	}
	return &ImageBrush{
		shape:      shape,
		template:   tpl,
		spacing:    spacingRatio,
		angleAware: angleAware,
		stamp:      NewStampCache(tpl),
	}, nil
}

// Shape returns the shape of the brush.
func (b *ImageBrush) Shape() Shape { return b.shape }

// Template returns the shared template raster.
func (b *ImageBrush) Template() *image.NRGBA { return b.template }

// AngleAware reports whether dabs follow the stroke direction.
func (b *ImageBrush) AngleAware() bool { return b.angleAware }

// SpacingRatio returns the dab spacing as a fraction of the diameter.
func (b *ImageBrush) SpacingRatio() float64 { return b.spacing }

// Radius returns the brush radius.
func (b *ImageBrush) Radius() float64 { return b.radius }

// SetRadius sets the brush radius. The stamp is resized lazily on the next dab.
func (b *ImageBrush) SetRadius(r float64) { b.radius = r }

// Diameter returns the stamp diameter.
func (b *ImageBrush) Diameter() float64 { return 2 * b.radius }

// SetTarget sets the surface dabs are drawn on.
func (b *ImageBrush) SetTarget(s Surface, damage DamageSink) {
	b.target = s
	b.damage = damage
}

// Cache returns the stamp cache of the brush.
func (b *ImageBrush) Cache() *StampCache { return b.stamp }

// PutDab places one stamp centered at (x, y). Non angle aware brushes and
// zero angles draw at integer coordinates; otherwise the stamp is rotated
// around the center with bilinear interpolation and the surface transform
// is restored afterwards.
func (b *ImageBrush) PutDab(x, y, theta float64) error {
	if b.target == nil {
		return ErrNoTarget
	}
	stamp, err := b.stamp.Ensure(b.target.Color(), b.Diameter())
	if err != nil {
		return err
	}

	r := int(b.radius)
	ix, iy := int(x), int(y)
	rotated := b.angleAware && theta != 0

	if !rotated {
		b.target.DrawImage(stamp, ix-r, iy-r)
	} else {
		withSavedState(b.target, func() {
			b.target.Rotate(theta, x, y)
			b.target.SetInterpolation(Bilinear)
			b.target.DrawImage(stamp, ix-r, iy-r)
		})
	}

	if b.damage != nil {
		b.damage.Damage(dabRegion(ix, iy, stamp.Bounds().Dx(), r, rotated, theta))
	}
	return nil
}

// dabRegion returns the region covered by a dab of the given side drawn at (ix-r, iy-r),
// or the bounding box of its rotation around (ix, iy).
func dabRegion(ix, iy, side, r int, rotated bool, theta float64) image.Rectangle {
	if !rotated {
		return image.Rect(ix-r, iy-r, ix-r+side, iy-r+side)
	}
	sin, cos := math.Sincos(theta)
	half := int(math.Ceil(float64(side)*(math.Abs(sin)+math.Abs(cos))/2)) + 2
	return image.Rect(ix-half, iy-half, ix+half, iy+half)
}
