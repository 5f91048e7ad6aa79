/*
Package stamp is a dabs based brush engine painting strokes of colorized
greyscale templates onto raster layers.

A brush shape is synthesized once into a template shared by every brush of
that shape. Each brush keeps its own stamp cache, recoloring the template
only when the color changes and rescaling it only when the diameter or the
color changes. Dabs are spread uniformly along the stroke by a DabsEngine and
optionally rotated along the stroke direction.

The package provides a command line interface painting presets over single
images or whole directories. To check the supported commands type:

	$ stamp --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/stamp"
	)

	func main() {
		preset := stamp.DefaultPreset()
		preset.Strokes = []stamp.Stroke{
			{Points: [][2]float64{{10, 10}, {120, 80}}},
		}
		p := &stamp.Processor{Preset: preset}

		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error painting image: %s", err.Error())
		}
	}
*/
package stamp
