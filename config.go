package stamp

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/esimov/stamp/imop"
	"github.com/esimov/stamp/utils"
	"seehuhn.de/go/geom/vec"
)

// Preset describes a brush and the strokes painted with it.
type Preset struct {
	Shape      Shape    `toml:"shape"`
	Template   string   `toml:"template,omitempty"` // custom template path or URL, overrides Shape
	Radius     float64  `toml:"radius"`
	Spacing    float64  `toml:"spacing"`
	AngleAware bool     `toml:"angle_aware"`
	Color      string   `toml:"color"`
	Symmetry   Symmetry `toml:"symmetry"`
	Composite  string   `toml:"composite"`
	Blend      string   `toml:"blend,omitempty"`
	Format     string   `toml:"format"`
	Strokes    []Stroke `toml:"stroke"`
}

// Stroke is a polyline, as a list of [x, y] points.
type Stroke struct {
	Points [][2]float64 `toml:"points"`
}

// Vertices returns the stroke points.
func (s Stroke) Vertices() []vec.Vec2 {
	pts := make([]vec.Vec2, len(s.Points))
	for i, p := range s.Points {
		pts[i] = vec.Vec2{X: p[0], Y: p[1]}
	}
	return pts
}

// DefaultPreset returns a black hard round brush with no strokes.
func DefaultPreset() *Preset {
	return &Preset{
		Shape:     Hard,
		Radius:    10,
		Spacing:   0.25,
		Color:     "#000000",
		Symmetry:  NoSymmetry,
		Composite: imop.SrcOver,
		Format:    "png",
	}
}

// LoadPreset reads a TOML preset. Missing fields keep their default value.
func LoadPreset(path string) (*Preset, error) {
	p := DefaultPreset()
	if _, err := toml.DecodeFile(path, p); err != nil {
		return nil, fmt.Errorf("could not read preset file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode writes the preset as TOML.
func (p *Preset) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("could not encode preset: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the preset to a file.
func (p *Preset) Save(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the preset and clamps the radius into the supported range.
func (p *Preset) Validate() error {
	var errs []error

	p.Radius = ClampRadius(p.Radius)
	if p.Shape == "" && p.Template == "" {
		errs = append(errs, errors.New("a shape or a template is required"))
	}
	if p.Spacing <= 0 {
		errs = append(errs, fmt.Errorf("spacing must be positive, got %v", p.Spacing))
	}
	if _, err := p.RGBA(); err != nil {
		errs = append(errs, err)
	}
	if _, err := p.Symmetry.mirrors(); err != nil {
		errs = append(errs, err)
	}
	if p.Composite != "" {
		if err := imop.InitOp().Set(p.Composite); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Blend != "" {
		if err := imop.NewBlend().Set(p.Blend); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := parseFormat(p.Format); err != nil {
		errs = append(errs, err)
	}
	for i, s := range p.Strokes {
		if len(s.Points) == 0 {
			errs = append(errs, fmt.Errorf("stroke %d has no points", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid preset: %w", errors.Join(errs...))
	}
	return nil
}

// RGBA returns the brush color.
func (p *Preset) RGBA() (color.NRGBA, error) {
	return utils.HexToRGBA(p.Color)
}
