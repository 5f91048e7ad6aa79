package stamp

import (
	"fmt"
	"image"
	"io"

	"go.uber.org/zap"
)

// Processor paints the strokes of a preset onto images.
// Render is not safe for concurrent use; Execute serializes it.
type Processor struct {
	Preset *Preset
	// Templates defaults to DefaultTemplates.
	Templates *TemplateCache
}

// templates returns the cache holding the preset's template, registering
// the custom template of the preset if needed.
func (p *Processor) templates() (*TemplateCache, Shape, error) {
	cache := p.Templates
	if cache == nil {
		cache = DefaultTemplates
	}
	if p.Preset.Template == "" {
		if _, err := cache.Get(p.Preset.Shape); err != nil {
			return nil, "", err
		}
		return cache, p.Preset.Shape, nil
	}

	shape := Shape("file:" + p.Preset.Template)
	if _, err := cache.Get(shape); err == nil {
		return cache, shape, nil
	}
	fn, err := LoadTemplate(p.Preset.Template)
	if err != nil {
		return nil, "", err
	}
	cache.RegisterShape(shape, fn)
	return cache, shape, nil
}

// Validate checks the preset and resolves its brush template, so that an
// unknown shape or an unreadable template is reported before any image is read.
func (p *Processor) Validate() error {
	if err := p.Preset.Validate(); err != nil {
		return err
	}
	if _, _, err := p.templates(); err != nil {
		return fmt.Errorf("invalid preset: %w", err)
	}
	return nil
}

// Brush creates the brush of the preset for a canvas of the given size.
func (p *Processor) Brush(width, height int) (*SymmetryBrush, error) {
	cache, shape, err := p.templates()
	if err != nil {
		return nil, err
	}
	b, err := NewSymmetryBrush(cache, shape, p.Preset.Spacing, p.Preset.AngleAware,
		p.Preset.Symmetry, width, height)
	if err != nil {
		return nil, err
	}
	b.SetRadius(ClampRadius(p.Preset.Radius))
	return b, nil
}

// Render paints every stroke of the preset into img and returns the changed region.
func (p *Processor) Render(img *image.NRGBA) (image.Rectangle, error) {
	col, err := p.Preset.RGBA()
	if err != nil {
		return image.Rectangle{}, err
	}
	b, err := p.Brush(img.Bounds().Dx(), img.Bounds().Dy())
	if err != nil {
		return image.Rectangle{}, err
	}

	tool := NewDirectTool(b)
	tool.Composite = p.Preset.Composite
	tool.Blend = p.Preset.Blend

	var damaged image.Rectangle
	for i, s := range p.Preset.Strokes {
		pts := s.Vertices()
		if len(pts) == 0 {
			continue
		}
		if err := tool.Press(img, col, pts[0]); err != nil {
			return damaged, fmt.Errorf("stroke %d: %w", i, err)
		}
		for _, pt := range pts[1:] {
			if err := tool.Drag(pt); err != nil {
				return damaged, fmt.Errorf("stroke %d: %w", i, err)
			}
		}
		dabs := tool.Dabs()
		damaged = damaged.Union(tool.Release())

		Logger().Debug("stroke rendered", zap.Int("stroke", i), zap.Int("dabs", dabs))
	}
	return damaged, nil
}

// Process decodes the image from r, renders the strokes and encodes the
// result into w in the preset's format.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	img, err := decodeImg(r)
	if err != nil {
		return err
	}
	if _, err := p.Render(img); err != nil {
		return err
	}
	return encodeImg(w, img, p.Preset.Format)
}
