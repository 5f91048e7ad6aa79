package stamp

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorize_MidGrey(t *testing.T) {
	tpl := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	fill(tpl, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	out := Colorize(tpl, color.NRGBA{R: 255, A: 255})
	assert.Equal(t, tpl.Bounds(), out.Bounds())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, color.NRGBA{R: 255, G: 0, B: 0, A: 127}, out.NRGBAAt(x, y))
		}
	}
}

func TestColorize_AlphaFromLuminance(t *testing.T) {
	tpl := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	tpl.SetNRGBA(0, 0, color.NRGBA{A: 255})
	tpl.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	tpl.SetNRGBA(2, 0, color.NRGBA{R: 10, G: 20, B: 31, A: 255})

	out := Colorize(tpl, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	assert.Equal(t, uint8(255), out.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(1, 0).A)
	// (10+20+31)/3 = 20 with integer division
	assert.Equal(t, uint8(235), out.NRGBAAt(2, 0).A)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 235}, out.NRGBAAt(2, 0))
}

func TestColorize_IgnoresTemplateAlpha(t *testing.T) {
	tpl := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	tpl.Pix[3] = 0 // fully transparent black

	out := Colorize(tpl, color.White)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(0, 0))
}

func TestColorize_IgnoresColorAlpha(t *testing.T) {
	tpl := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	tpl.Pix[3] = 0xff

	out := Colorize(tpl, color.NRGBA{R: 40, G: 50, B: 60, A: 10})
	assert.Equal(t, color.NRGBA{R: 40, G: 50, B: 60, A: 255}, out.NRGBAAt(0, 0))
}

func TestColorize_OffsetTemplate(t *testing.T) {
	tpl := image.NewNRGBA(image.Rect(2, 2, 4, 5))
	out := Colorize(tpl, color.Black)
	assert.Equal(t, image.Rect(0, 0, 2, 3), out.Bounds())
}

// fill paints the whole image with c.
func fill(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}
