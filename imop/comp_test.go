package imop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComp_Basic(t *testing.T) {
	assert := assert.New(t)

	op := InitOp()
	assert.Equal(SrcOver, op.Get())

	assert.NoError(op.Set(Clear))
	assert.Equal(Clear, op.Get())

	assert.Error(op.Set("unsupported_composite_operation"))
	assert.Equal(Clear, op.Get())

	assert.NoError(op.Set(Dst))
	assert.Equal(Dst, op.Get())
}

func TestComp_Ops(t *testing.T) {
	transparent := color.NRGBA{R: 0, G: 0, B: 0, A: 0}
	cyan := color.NRGBA{R: 33, G: 150, B: 243, A: 255}
	magenta := color.NRGBA{R: 233, G: 30, B: 99, A: 255}

	rect := image.Rect(0, 0, 10, 10)
	source := image.NewNRGBA(rect)
	draw.Draw(source, image.Rect(0, 4, 6, 10), &image.Uniform{cyan}, image.Point{}, draw.Src)

	// Pick three representative pixels: the top right is covered only by the backdrop,
	// the bottom left only by the source and the center by both.
	testCases := []struct {
		op         string
		topRight   color.NRGBA
		bottomLeft color.NRGBA
		center     color.NRGBA
	}{
		{Clear, transparent, transparent, transparent},
		{Copy, transparent, cyan, cyan},
		{Dst, magenta, transparent, magenta},
		{SrcOver, magenta, cyan, cyan},
		{DstOver, magenta, cyan, magenta},
		{SrcIn, transparent, transparent, cyan},
		{DstIn, transparent, transparent, magenta},
		{SrcOut, transparent, cyan, transparent},
		{DstOut, magenta, transparent, transparent},
		{SrcAtop, magenta, transparent, cyan},
		{DstAtop, transparent, cyan, magenta},
		{Xor, magenta, cyan, transparent},
	}

	for _, tc := range testCases {
		t.Run(tc.op, func(t *testing.T) {
			backdrop := image.NewNRGBA(rect)
			draw.Draw(backdrop, image.Rect(4, 0, 10, 6), &image.Uniform{magenta}, image.Point{}, draw.Src)

			op := InitOp()
			assert.NoError(t, op.Set(tc.op))
			op.Draw(backdrop, rect, source, image.Point{}, nil)

			assert.Equal(t, tc.topRight, backdrop.NRGBAAt(9, 0))
			assert.Equal(t, tc.bottomLeft, backdrop.NRGBAAt(0, 9))
			assert.Equal(t, tc.center, backdrop.NRGBAAt(5, 5))
		})
	}
}

func TestComp_DrawWithOffset(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}

	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(src, src.Bounds(), &image.Uniform{red}, image.Point{}, draw.Src)
	dst := image.NewNRGBA(image.Rect(0, 0, 6, 6))

	// The rectangle partly falls outside the backdrop and must be clipped.
	op := InitOp()
	op.Draw(dst, image.Rect(5, 5, 7, 7), src, image.Point{}, nil)

	assert.Equal(t, red, dst.NRGBAAt(5, 5))
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(4, 4))
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(4, 5))
}

func TestComp_DstOutErasesByAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{A: 128})
	dst := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	dst.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	op := InitOp()
	assert.NoError(t, op.Set(DstOut))
	op.Draw(dst, dst.Bounds(), src, image.Point{}, nil)

	// The backdrop color survives, only its coverage shrinks.
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 127}, dst.NRGBAAt(0, 0))
}
