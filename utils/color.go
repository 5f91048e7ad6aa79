package utils

import (
	"fmt"
	"image/color"
	"strings"
)

// HexToRGBA converts a color expressed in hexadecimal format ("#rgb", "#rrggbb"
// or "#rrggbbaa", with or without the leading hash) to a color.NRGBA.
func HexToRGBA(hex string) (color.NRGBA, error) {
	var (
		c   = color.NRGBA{A: 0xff}
		err error
	)
	hex = strings.TrimPrefix(hex, "#")

	switch len(hex) {
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &c.R, &c.G, &c.B)
		// Expand the shorthand notation: #f80 -> #ff8800.
		c.R *= 17
		c.G *= 17
		c.B *= 17
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return c, fmt.Errorf("invalid hex color %q", hex)
	}
	if err != nil {
		return c, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return c, nil
}

// Contains returns true if the value is present in the collection.
func Contains[T comparable](slice []T, value T) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}
