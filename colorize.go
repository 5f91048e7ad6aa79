package stamp

import (
	"image"
	"image/color"
)

// Colorize turns a template into a stamp of the flat color c.
// The output alpha is derived from the template luminance: alpha = 255 - (R+G+B)/3,
// so black template pixels become opaque and white ones transparent.
// The template alpha channel is ignored. Only the RGB channels of c are used.
func Colorize(template *image.NRGBA, c color.Color) *image.NRGBA {
	var (
		bounds = template.Bounds()
		dx     = bounds.Dx()
		dy     = bounds.Dy()
		dst    = image.NewNRGBA(image.Rect(0, 0, dx, dy))
		col    = color.NRGBAModel.Convert(c).(color.NRGBA)
	)

	for y := 0; y < dy; y++ {
		si := template.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < dx; x++ {
			s := template.Pix[si : si+4 : si+4]
			avg := (int(s[0]) + int(s[1]) + int(s[2])) / 3

			d := dst.Pix[di : di+4 : di+4]
			d[0] = col.R
			d[1] = col.G
			d[2] = col.B
			d[3] = uint8(0xff - avg)

			si += 4
			di += 4
		}
	}
	return dst
}
