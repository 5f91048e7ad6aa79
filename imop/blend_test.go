package imop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend_Basic(t *testing.T) {
	assert := assert.New(t)

	op := NewBlend()
	assert.Empty(op.Get())

	err := op.Set("blend_mode_not_supported")
	assert.Error(err)

	assert.NoError(op.Set(Darken))
	assert.Equal(Darken, op.Get())
	assert.NoError(op.Set(Lighten))
	assert.Equal(Lighten, op.Get())
}

func TestBlend_Modes(t *testing.T) {
	pinkFront := color.NRGBA{R: 214, G: 20, B: 65, A: 255}
	orangeBack := color.NRGBA{R: 250, G: 121, B: 17, A: 255}

	testCases := []struct {
		mode     string
		expected []uint8
	}{
		{Normal, []uint8{214, 20, 65, 255}},
		{Darken, []uint8{214, 20, 17, 255}},
		{Lighten, []uint8{250, 121, 65, 255}},
		{Multiply, []uint8{210, 9, 4, 255}},
		{Screen, []uint8{254, 132, 78, 255}},
		{Overlay, []uint8{253, 19, 9, 255}},
		{Difference, []uint8{36, 101, 48, 255}},
	}

	rect := image.Rect(0, 0, 1, 1)
	source := image.NewNRGBA(rect)
	draw.Draw(source, rect, &image.Uniform{pinkFront}, image.Point{}, draw.Src)

	for _, tc := range testCases {
		t.Run(tc.mode, func(t *testing.T) {
			backdrop := image.NewNRGBA(rect)
			draw.Draw(backdrop, rect, &image.Uniform{orangeBack}, image.Point{}, draw.Src)

			blend := NewBlend()
			assert.NoError(t, blend.Set(tc.mode))
			InitOp().Draw(backdrop, rect, source, image.Point{}, blend)

			assert.EqualValues(t, tc.expected, backdrop.Pix)
		})
	}
}

func TestBlend_TransparentBackdropKeepsSource(t *testing.T) {
	// Over a fully transparent backdrop the blend function has no effect.
	rect := image.Rect(0, 0, 1, 1)
	source := image.NewNRGBA(rect)
	source.SetNRGBA(0, 0, color.NRGBA{R: 214, G: 20, B: 65, A: 255})
	backdrop := image.NewNRGBA(rect)

	blend := NewBlend()
	assert.NoError(t, blend.Set(Multiply))
	InitOp().Draw(backdrop, rect, source, image.Point{}, blend)

	assert.EqualValues(t, []uint8{214, 20, 65, 255}, backdrop.Pix)
}
