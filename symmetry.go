package stamp

import (
	"fmt"
	"math"
)

// Symmetry selects how a stroke is mirrored over the canvas.
type Symmetry string

// Supported symmetries.
const (
	NoSymmetry       Symmetry = "none"
	VerticalMirror   Symmetry = "vertical"   // mirror across the vertical center line
	HorizontalMirror Symmetry = "horizontal" // mirror across the horizontal center line
	CentralSymmetry  Symmetry = "central"    // point reflection through the center
	FourWayMirror    Symmetry = "four"       // both mirrors and the central reflection
)

// mirror maps a dab onto its mirror image over a canvas of size w x h.
type mirror func(x, y, theta, w, h float64) (float64, float64, float64)

func identityMirror(x, y, theta, w, h float64) (float64, float64, float64) {
	return x, y, theta
}

func verticalMirror(x, y, theta, w, h float64) (float64, float64, float64) {
	return w - x, y, math.Pi - theta
}

func horizontalMirror(x, y, theta, w, h float64) (float64, float64, float64) {
	return x, h - y, -theta
}

func centralMirror(x, y, theta, w, h float64) (float64, float64, float64) {
	return w - x, h - y, theta + math.Pi
}

func (s Symmetry) mirrors() ([]mirror, error) {
	switch s {
	case NoSymmetry, "":
		return []mirror{identityMirror}, nil
	case VerticalMirror:
		return []mirror{identityMirror, verticalMirror}, nil
	case HorizontalMirror:
		return []mirror{identityMirror, horizontalMirror}, nil
	case CentralSymmetry:
		return []mirror{identityMirror, centralMirror}, nil
	case FourWayMirror:
		return []mirror{identityMirror, verticalMirror, horizontalMirror, centralMirror}, nil
	}
	return nil, fmt.Errorf("unsupported symmetry: %q", s)
}

// SymmetryBrush duplicates every dab onto its mirror images. Each mirror
// image is painted by its own ImageBrush; all of them share the template.
type SymmetryBrush struct {
	brushes []*ImageBrush
	mirrors []mirror
	width   float64
	height  float64
}

var _ Brush = (*SymmetryBrush)(nil)

// NewSymmetryBrush creates the brush instances needed by the symmetry on a
// canvas of the given size.
func NewSymmetryBrush(
	templates *TemplateCache,
	shape Shape,
	spacingRatio float64,
	angleAware bool,
	sym Symmetry,
	width, height int,
) (*SymmetryBrush, error) {
	mirrors, err := sym.mirrors()
	if err != nil {
		return nil, err
	}

	sb := &SymmetryBrush{
		mirrors: mirrors,
		width:   float64(width),
		height:  float64(height),
	}
	for range mirrors {
		b, err := NewImageBrush(templates, shape, spacingRatio, angleAware)
		if err != nil {
			return nil, err
		}
		sb.brushes = append(sb.brushes, b)
	}
	return sb, nil
}

// Brushes returns the brush instances, one per mirror image.
func (s *SymmetryBrush) Brushes() []*ImageBrush {
	return s.brushes
}

// SetTarget sets the surface of every instance.
func (s *SymmetryBrush) SetTarget(t Surface, damage DamageSink) {
	for _, b := range s.brushes {
		b.SetTarget(t, damage)
	}
}

// SetRadius sets the radius of every instance.
func (s *SymmetryBrush) SetRadius(r float64) {
	for _, b := range s.brushes {
		b.SetRadius(r)
	}
}

// Radius returns the brush radius.
func (s *SymmetryBrush) Radius() float64 {
	return s.brushes[0].Radius()
}

// SpacingRatio returns the dab spacing ratio.
func (s *SymmetryBrush) SpacingRatio() float64 {
	return s.brushes[0].SpacingRatio()
}

// PutDab places the dab and all its mirror images.
func (s *SymmetryBrush) PutDab(x, y, theta float64) error {
	for i, b := range s.brushes {
		mx, my, mt := s.mirrors[i](x, y, theta, s.width, s.height)
		if err := b.PutDab(mx, my, mt); err != nil {
			return err
		}
	}
	return nil
}
