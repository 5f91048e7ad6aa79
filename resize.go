package stamp

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Resize scales a colorized stamp to a square of side floor(diameter),
// using bilinear resampling.
func Resize(src *image.NRGBA, diameter float64) (*image.NRGBA, error) {
	side, err := stampSide(diameter)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(src, side, side, imaging.Linear), nil
}

// stampSide returns the integer side of a stamp of the given diameter.
func stampSide(diameter float64) (int, error) {
	if math.IsNaN(diameter) || math.IsInf(diameter, 0) || diameter < 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDiameter, diameter)
	}
	return int(math.Floor(diameter)), nil
}
