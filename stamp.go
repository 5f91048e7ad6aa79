package stamp

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"go.uber.org/zap"
)

// Precondition violations reported by the brush core.
var (
	ErrInvalidDiameter = errors.New("invalid stamp diameter")
	ErrNoTarget        = errors.New("brush has no target surface")
	ErrNoColor         = errors.New("target surface has no color")
	ErrNoTemplate      = errors.New("brush has no template")
)

// CacheState describes how much of a StampCache must be recomputed
// for a requested color and diameter.
type CacheState int

const (
	// StampValid means the scaled stamp can be reused as is.
	StampValid CacheState = iota
	// StampSizeStale means only the scaled stamp must be recomputed.
	StampSizeStale
	// StampColorStale means both the colorized and the scaled stamp must be recomputed.
	StampColorStale
)

func (s CacheState) String() string {
	switch s {
	case StampValid:
		return "valid"
	case StampSizeStale:
		return "size-stale"
	case StampColorStale:
		return "color-stale"
	}
	return "unknown"
}

// Stats counts the work done by a StampCache.
type Stats struct {
	Colorized int // colorize passes
	Resized   int // resize passes
	Released  int // rasters dropped before being replaced
}

// StampCache holds the last colorized and the last scaled stamp of a brush.
// A color change invalidates both, a diameter change only the scaled one.
// It is not safe for concurrent use.
type StampCache struct {
	template *image.NRGBA

	hasColor  bool
	lastColor color.NRGBA
	colored   *image.NRGBA
	scaled    *image.NRGBA

	stats Stats
}

// NewStampCache creates a cache deriving its stamps from the template.
func NewStampCache(template *image.NRGBA) *StampCache {
	return &StampCache{template: template}
}

// State reports which part of the cache is stale for the color and diameter.
func (c *StampCache) State(col color.Color, diameter float64) CacheState {
	if col == nil || !c.hasColor || c.lastColor != toNRGBA(col) {
		return StampColorStale
	}
	side, err := stampSide(diameter)
	if err != nil || c.scaled == nil || c.scaled.Bounds().Dx() != side {
		return StampSizeStale
	}
	return StampValid
}

// Ensure makes the cached stamp match the color and diameter and returns it.
// A color change always recolors and then resizes, even when the diameter
// is unchanged.
func (c *StampCache) Ensure(col color.Color, diameter float64) (*image.NRGBA, error) {
	if c.template == nil {
		return nil, ErrNoTemplate
	}
	if col == nil {
		return nil, ErrNoColor
	}
	if _, err := stampSide(diameter); err != nil {
		return nil, err
	}

	switch c.State(col, diameter) {
	case StampColorStale:
		nc := toNRGBA(col)
		c.release(&c.colored)
		c.colored = Colorize(c.template, nc)
		c.lastColor = nc
		c.hasColor = true
		c.stats.Colorized++
		Logger().Debug("stamp recolored", zap.String("color", fmt.Sprintf("#%02x%02x%02x", nc.R, nc.G, nc.B)))
		fallthrough
	case StampSizeStale:
		scaled, err := Resize(c.colored, diameter)
		if err != nil {
			return nil, err
		}
		c.release(&c.scaled)
		c.scaled = scaled
		c.stats.Resized++
		Logger().Debug("stamp resized", zap.Int("side", scaled.Bounds().Dx()))
	}
	return c.scaled, nil
}

// Stamp returns the current scaled stamp, nil before the first Ensure.
func (c *StampCache) Stamp() *image.NRGBA {
	return c.scaled
}

// Stats returns the work counters of the cache.
func (c *StampCache) Stats() Stats {
	return c.stats
}

// release drops a held raster so it can be collected before its replacement is allocated.
func (c *StampCache) release(img **image.NRGBA) {
	if *img == nil {
		return
	}
	*img = nil
	c.stats.Released++
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
