// Package imop implements the Porter-Duff composition operations and the
// separable blend modes used when a brush stamp is mixed with its backdrop.
// The image/draw core package implements only the source-over-destination
// and source operations; this package covers the rest, so brushes can
// paint, erase (dst_out) or mask (src_atop) the target layer.
package imop

import (
	"fmt"
	"math"

	"github.com/esimov/stamp/utils"
)

// Separable blend modes.
const (
	Normal     = "normal"
	Darken     = "darken"
	Lighten    = "lighten"
	Multiply   = "multiply"
	Screen     = "screen"
	Overlay    = "overlay"
	Difference = "difference"
)

var blendModes = []string{Normal, Darken, Lighten, Multiply, Screen, Overlay, Difference}

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(opType string) error {
	if !utils.Contains(blendModes, opType) {
		return fmt.Errorf("unsupported blend mode: %q", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.OpType
}

// mix applies the blend function to a normalized source and backdrop channel.
func (o *Blend) mix(cs, cb float64) float64 {
	switch o.OpType {
	case Darken:
		return utils.Min(cs, cb)
	case Lighten:
		return utils.Max(cs, cb)
	case Multiply:
		return cs * cb
	case Screen:
		return 1 - (1-cs)*(1-cb)
	case Overlay:
		if cb <= 0.5 {
			return 2 * cs * cb
		}
		return 1 - 2*(1-cs)*(1-cb)
	case Difference:
		return math.Abs(cs - cb)
	}
	return cs
}
