package stamp

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"math/rand"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/esimov/stamp/utils"
	"go.uber.org/zap"
)

// Brush radius limits, in pixels. Templates are synthesized at MaxBrushRadius,
// so the template side is 2*MaxBrushRadius.
const (
	MinBrushRadius = 1
	MaxBrushRadius = 100
)

// Shape identifies a brush template.
type Shape string

// Built-in brush shapes.
const (
	Hard   Shape = "hard"
	Soft   Shape = "soft"
	Square Shape = "square"
	Ring   Shape = "ring"
	Star   Shape = "star"
	Spray  Shape = "spray"
)

// ErrUnknownShape is returned when no template generator is registered for a shape.
var ErrUnknownShape = errors.New("unknown brush shape")

// TemplateFunc synthesizes a square greyscale template of side 2*radius.
// Dark pixels are painted, light pixels are left transparent.
type TemplateFunc func(radius int) *image.NRGBA

type templateEntry struct {
	once sync.Once
	img  *image.NRGBA
	err  error
}

// TemplateCache maps a brush shape to its immutable template raster,
// shared by every brush using that shape. Entries are created lazily on
// first use and never evicted. It is safe for concurrent use.
type TemplateCache struct {
	radius int

	mu         sync.Mutex
	generators map[Shape]TemplateFunc
	entries    map[Shape]*templateEntry
}

// DefaultTemplates is the process-wide template cache.
var DefaultTemplates = NewTemplateCache(MaxBrushRadius)

// NewTemplateCache creates a cache synthesizing templates at the given radius,
// with the built-in shapes registered.
func NewTemplateCache(radius int) *TemplateCache {
	return &TemplateCache{
		radius: utils.Max(radius, MinBrushRadius),
		generators: map[Shape]TemplateFunc{
			Hard:   hardDisc,
			Soft:   softDisc,
			Square: square,
			Ring:   ring,
			Star:   star,
			Spray:  spray,
		},
		entries: make(map[Shape]*templateEntry),
	}
}

// Radius returns the radius templates are synthesized at.
func (c *TemplateCache) Radius() int {
	return c.radius
}

// RegisterShape registers a generator for the shape. A template already
// synthesized for the shape is kept.
func (c *TemplateCache) RegisterShape(shape Shape, fn TemplateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generators[shape] = fn
}

// Get returns the template of the shape, synthesizing it on the first call.
// The returned raster is shared and must not be modified.
func (c *TemplateCache) Get(shape Shape) (*image.NRGBA, error) {
	c.mu.Lock()
	fn, ok := c.generators[shape]
	e, cached := c.entries[shape]
	if !cached && ok {
		e = &templateEntry{}
		c.entries[shape] = e
	}
	c.mu.Unlock()

	if !ok && !cached {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
	}

	e.once.Do(func() {
		img := fn(c.radius)

		c.mu.Lock()
		defer c.mu.Unlock()
		if img == nil || img.Bounds().Empty() {
			e.err = fmt.Errorf("empty template for shape %q", shape)
			return
		}
		e.img = img
		Logger().Debug("template synthesized",
			zap.String("shape", string(shape)),
			zap.Int("side", img.Bounds().Dx()))
	})
	return e.img, e.err
}

// Len returns the number of templates synthesized so far.
func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.img != nil {
			n++
		}
	}
	return n
}

// ImageTemplate returns a TemplateFunc built from an arbitrary image.
// Transparent areas are flattened onto white, so they stay unpainted.
func ImageTemplate(src image.Image) TemplateFunc {
	return func(radius int) *image.NRGBA {
		b := src.Bounds()
		bg := imaging.New(b.Dx(), b.Dy(), color.White)
		flat := imaging.Overlay(bg, src, image.Point{}, 1.0)
		return imaging.Resize(flat, 2*radius, 2*radius, imaging.Lanczos)
	}
}

// LoadTemplate decodes a template image from a local path or an URL.
func LoadTemplate(src string) (TemplateFunc, error) {
	var r io.Reader
	if utils.IsValidUrl(src) {
		data, err := utils.DownloadImage(src)
		if err != nil {
			return nil, err
		}
		r = data
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("could not open the template file: %w", err)
		}
		defer f.Close()
		r = f
	}

	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the template file: %w", err)
	}
	return ImageTemplate(img), nil
}

// newTemplate creates a template of side 2*radius filled by the intensity
// function, which receives the pixel center relative to the template center
// and returns the grey value (0 paints, 255 leaves transparent).
func newTemplate(radius int, intensity func(dx, dy, r float64) float64) *image.NRGBA {
	side := 2 * radius
	dst := image.NewNRGBA(image.Rect(0, 0, side, side))
	r := float64(radius)

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			v := uint8(utils.Clamp(math.Round(intensity(dx, dy, r)), 0, 255))
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = v
			dst.Pix[i+1] = v
			dst.Pix[i+2] = v
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

// coverage maps a signed distance to the shape edge (negative inside)
// to the grey value using a one pixel wide antialiased edge.
func coverage(dist float64) float64 {
	return 255 * utils.Clamp(dist+0.5, 0, 1)
}

func hardDisc(radius int) *image.NRGBA {
	return newTemplate(radius, func(dx, dy, r float64) float64 {
		return coverage(math.Hypot(dx, dy) - r)
	})
}

func softDisc(radius int) *image.NRGBA {
	return newTemplate(radius, func(dx, dy, r float64) float64 {
		d := math.Hypot(dx, dy) / r
		if d >= 1 {
			return 255
		}
		// smoothstep falloff from the opaque center to the transparent rim
		t := 1 - d
		return 255 * (1 - t*t*(3-2*t))
	})
}

func square(radius int) *image.NRGBA {
	return newTemplate(radius, func(dx, dy, r float64) float64 {
		return 0
	})
}

func ring(radius int) *image.NRGBA {
	return newTemplate(radius, func(dx, dy, r float64) float64 {
		width := math.Max(1, r/4)
		d := math.Hypot(dx, dy)
		return coverage(math.Abs(d-(r-width/2)) - width/2)
	})
}

func star(radius int) *image.NRGBA {
	const points = 5
	return newTemplate(radius, func(dx, dy, r float64) float64 {
		// Angular distance to the nearest spike defines the local outer radius,
		// interpolating between the inner and the outer vertices.
		phi := math.Atan2(dx, -dy)
		sector := 2 * math.Pi / points
		a := math.Mod(math.Abs(phi), sector)
		t := math.Abs(a-sector/2) / (sector / 2)
		inner := r * 0.4
		edge := inner + (r-inner)*t*t
		return coverage(math.Hypot(dx, dy) - edge)
	})
}

func spray(radius int) *image.NRGBA {
	side := 2 * radius
	dst := newTemplate(radius, func(dx, dy, r float64) float64 {
		return 255
	})

	// Deterministic seed: every cache synthesizes the same spray pattern.
	rnd := rand.New(rand.NewSource(int64(radius)))
	dots := side * side / 40
	for i := 0; i < dots; i++ {
		// uniform in the disc
		rr := float64(radius) * math.Sqrt(rnd.Float64())
		th := 2 * math.Pi * rnd.Float64()
		x := radius + int(rr*math.Cos(th))
		y := radius + int(rr*math.Sin(th))
		if !(image.Point{X: x, Y: y}).In(dst.Bounds()) {
			continue
		}
		v := uint8(rnd.Intn(128))
		j := dst.PixOffset(x, y)
		dst.Pix[j+0] = v
		dst.Pix[j+1] = v
		dst.Pix[j+2] = v
	}
	return dst
}
