package stamp

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// DabsEngine walks a stroke and decides where the next dab goes. Dabs are
// placed uniformly, spacingRatio*diameter pixels apart, with the angle of
// the segment they lie on. The first dab of a stroke has angle 0.
type DabsEngine struct {
	brush Brush

	prev     vec.Vec2
	started  bool
	traveled float64 // distance since the last dab
	dabs     int
}

// NewDabsEngine creates an engine driving the brush.
func NewDabsEngine(b Brush) *DabsEngine {
	return &DabsEngine{brush: b}
}

// Spacing returns the distance between two consecutive dab centers, never below one pixel.
func (e *DabsEngine) Spacing() float64 {
	return math.Max(1, e.brush.SpacingRatio()*2*e.brush.Radius())
}

// Dabs returns the number of dabs placed since the stroke started.
func (e *DabsEngine) Dabs() int {
	return e.dabs
}

// Start begins a new stroke with a dab at p.
func (e *DabsEngine) Start(p vec.Vec2) error {
	e.prev = p
	e.started = true
	e.traveled = 0
	e.dabs = 0
	return e.put(p, 0)
}

// LineTo extends the stroke to p, placing every dab due on the way.
// A stroke that was not started is started at p.
func (e *DabsEngine) LineTo(p vec.Vec2) error {
	if !e.started {
		return e.Start(p)
	}

	d := p.Sub(e.prev)
	length := d.Length()
	if length == 0 {
		return nil
	}
	dir := d.Mul(1 / length)
	theta := math.Atan2(dir.Y, dir.X)
	spacing := e.Spacing()

	// The spacing may have shrunk since the last dab: an overdue dab goes
	// at the segment start, never behind it.
	t := math.Max(0, spacing-e.traveled)
	for ; t <= length; t += spacing {
		if err := e.put(e.prev.Add(dir.Mul(t)), theta); err != nil {
			return err
		}
	}
	e.traveled = length - (t - spacing)
	e.prev = p
	return nil
}

// Stroke places the dabs of a whole polyline.
func (e *DabsEngine) Stroke(points []vec.Vec2) error {
	for i, p := range points {
		var err error
		if i == 0 {
			err = e.Start(p)
		} else {
			err = e.LineTo(p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *DabsEngine) put(p vec.Vec2, theta float64) error {
	if err := e.brush.PutDab(p.X, p.Y, theta); err != nil {
		return err
	}
	e.dabs++
	return nil
}
