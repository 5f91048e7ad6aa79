package imop

import (
	"fmt"
	"image"
	"math"

	"github.com/esimov/stamp/utils"
)

// Porter-Duff composite operations.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// factors holds the Porter-Duff coefficients of an operation as functions
// of the source and backdrop alpha: co = as*Fa*cs + ab*Fb*cb.
type factors func(as, ab float64) (fa, fb float64)

var compOps = map[string]factors{
	Clear:   func(as, ab float64) (float64, float64) { return 0, 0 },
	Copy:    func(as, ab float64) (float64, float64) { return 1, 0 },
	Dst:     func(as, ab float64) (float64, float64) { return 0, 1 },
	SrcOver: func(as, ab float64) (float64, float64) { return 1, 1 - as },
	DstOver: func(as, ab float64) (float64, float64) { return 1 - ab, 1 },
	SrcIn:   func(as, ab float64) (float64, float64) { return ab, 0 },
	DstIn:   func(as, ab float64) (float64, float64) { return 0, as },
	SrcOut:  func(as, ab float64) (float64, float64) { return 1 - ab, 0 },
	DstOut:  func(as, ab float64) (float64, float64) { return 0, 1 - as },
	SrcAtop: func(as, ab float64) (float64, float64) { return ab, 1 - as },
	DstAtop: func(as, ab float64) (float64, float64) { return 1 - ab, as },
	Xor:     func(as, ab float64) (float64, float64) { return 1 - ab, 1 - as },
}

// Composite holds the currently active composite operation.
type Composite struct {
	current string
}

// InitOp initializes a Composite with the source-over-destination operation.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported composite operations.
func (op *Composite) Set(cop string) error {
	if _, ok := compOps[cop]; !ok {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the currently active composite operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites src over the backdrop dst inside the rectangle r and
// stores the result in dst. sp is the point of src aligned with r.Min.
// The blend mode, when not nil, mixes the source and backdrop colors first.
func (op *Composite) Draw(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, sp image.Point, blend *Blend) {
	// delta maps src coordinates onto dst coordinates.
	delta := r.Min.Sub(sp)
	r = r.Intersect(dst.Bounds()).Intersect(src.Bounds().Add(delta))
	if r.Empty() {
		return
	}

	factor := compOps[op.current]
	if factor == nil {
		factor = compOps[SrcOver]
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X-delta.X, y-delta.Y)
		for x := r.Min.X; x < r.Max.X; x++ {
			s := src.Pix[si : si+4 : si+4]
			d := dst.Pix[di : di+4 : di+4]

			as := float64(s[3]) / 255
			ab := float64(d[3]) / 255
			fa, fb := factor(as, ab)
			ao := as*fa + ab*fb

			if ao <= 0 {
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0
			} else {
				for c := 0; c < 3; c++ {
					cs := float64(s[c]) / 255
					cb := float64(d[c]) / 255
					if blend != nil {
						cs = (1-ab)*cs + ab*blend.mix(cs, cb)
					}
					co := (as*fa*cs + ab*fb*cb) / ao
					d[c] = toUint8(co)
				}
				d[3] = toUint8(ao)
			}

			si += 4
			di += 4
		}
	}
}

func toUint8(v float64) uint8 {
	return uint8(math.Round(utils.Clamp(v, 0, 1) * 255))
}
