package stamp

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor() *Processor {
	p := DefaultPreset()
	p.Radius = 4
	p.Strokes = []Stroke{{Points: [][2]float64{{10, 20}, {26, 20}}}}
	return &Processor{Preset: p, Templates: NewTemplateCache(16)}
}

func TestProcessor_Render(t *testing.T) {
	p := newTestProcessor()
	img := solid(40, 40, white)

	damaged, err := p.Render(img)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(6, 16, 30, 24), damaged)
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(20, 20))
	assert.Equal(t, white, img.NRGBAAt(2, 2))
}

func TestProcessor_RenderWithSymmetry(t *testing.T) {
	p := newTestProcessor()
	p.Preset.Symmetry = VerticalMirror
	img := solid(40, 40, white)

	_, err := p.Render(img)
	require.NoError(t, err)
	// the stroke from x=10 to 26 is mirrored onto x=30 to 14
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(30, 20))
}

func TestProcessor_Process(t *testing.T) {
	p := newTestProcessor()
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, solid(40, 40, white)))

	var out bytes.Buffer
	require.NoError(t, p.Process(&in, &out))

	res, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 255}, color.NRGBAModel.Convert(res.At(20, 20)))
	assert.Equal(t, white, color.NRGBAModel.Convert(res.At(2, 2)))
}

func TestProcessor_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "dot.png")
	require.NoError(t, imaging.Save(imaging.New(8, 8, color.Black), tplPath))

	p := newTestProcessor()
	p.Preset.Template = tplPath
	img := solid(40, 40, white)

	_, err := p.Render(img)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(20, 20))

	tpl, err := p.Templates.Get(Shape("file:" + tplPath))
	require.NoError(t, err)
	assert.Equal(t, 32, tpl.Bounds().Dx())

	p.Preset.Template = filepath.Join(dir, "missing.png")
	_, err = p.Render(solid(4, 4, white))
	assert.Error(t, err)
}

func TestProcessor_InvalidColor(t *testing.T) {
	p := newTestProcessor()
	p.Preset.Color = "nope"
	_, err := p.Render(solid(4, 4, white))
	assert.Error(t, err)
}

func writeTestImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, imaging.Save(solid(40, 40, white), filepath.Join(dir, name)))
	}
}

func TestExecute_ProcessesDirectory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeTestImages(t, src, "a.png", "b.jpg")
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip me"), 0644))

	var (
		mu   sync.Mutex
		seen int
	)
	op := &Ops{Src: src, Dst: dst, Workers: 2, OnResult: func(Result) {
		mu.Lock()
		seen++
		mu.Unlock()
	}}

	results, err := newTestProcessor().Execute(context.Background(), op)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, seen)

	assert.Equal(t, filepath.Join(dst, "a.png"), results[0].Out)
	assert.Equal(t, filepath.Join(dst, "b.png"), results[1].Out)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.False(t, r.Skipped)

		img, err := imaging.Open(r.Out)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{A: 255}, color.NRGBAModel.Convert(img.At(20, 20)))
	}
}

func TestExecute_OverwritePolicies(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTestImages(t, src, "a.png", "b.png")
	p := newTestProcessor()

	_, err := p.Execute(context.Background(), &Ops{Src: src, Dst: dst})
	require.NoError(t, err)

	results, err := p.Execute(context.Background(), &Ops{Src: src, Dst: dst, Overwrite: OverwriteSkip})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Skipped)
	}

	results, err = p.Execute(context.Background(), &Ops{Src: src, Dst: dst, Overwrite: OverwriteAll})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Skipped)
		assert.NoError(t, r.Err)
	}

	_, err = p.Execute(context.Background(), &Ops{Src: src, Dst: dst, Overwrite: OverwriteCancel})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestExecute_DestinationInsideSource(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(src, "out")
	writeTestImages(t, src, "a.png")
	p := newTestProcessor()

	for i := 0; i < 2; i++ {
		results, err := p.Execute(context.Background(), &Ops{Src: src, Dst: dst, Overwrite: OverwriteAll})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	}
}

func TestExecute_OutputFormat(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTestImages(t, src, "a.png")
	p := newTestProcessor()
	p.Preset.Format = "jpg"

	results, err := p.Execute(context.Background(), &Ops{Src: src, Dst: dst})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dst, "a.jpg"), results[0].Out)
	assert.FileExists(t, results[0].Out)
}

func TestExecute_Errors(t *testing.T) {
	p := newTestProcessor()

	file := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, imaging.Save(solid(4, 4, white), file))
	_, err := p.Execute(context.Background(), &Ops{Src: file, Dst: t.TempDir()})
	assert.Error(t, err)

	_, err = p.Execute(context.Background(), &Ops{Src: filepath.Join(t.TempDir(), "missing"), Dst: t.TempDir()})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := t.TempDir()
	writeTestImages(t, src, "a.png")
	_, err = p.Execute(ctx, &Ops{Src: src, Dst: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessor_Validate(t *testing.T) {
	p := newTestProcessor()
	assert.NoError(t, p.Validate())

	p.Preset.Shape = "blob"
	assert.ErrorIs(t, p.Validate(), ErrUnknownShape)

	p.Preset.Shape = Hard
	p.Preset.Template = filepath.Join(t.TempDir(), "missing.png")
	assert.Error(t, p.Validate())
}

func TestExecute_RejectsUnknownShapeUpFront(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeTestImages(t, src, "a.png", "b.png")

	var seen int
	p := newTestProcessor()
	p.Preset.Shape = "blob"

	results, err := p.Execute(context.Background(), &Ops{Src: src, Dst: dst, OnResult: func(Result) { seen++ }})
	assert.ErrorIs(t, err, ErrUnknownShape)
	assert.Empty(t, results)
	assert.Equal(t, 0, seen)
	assert.NoDirExists(t, dst)
}

func TestExecute_DuplicateOutputs(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTestImages(t, src, "a.jpg", "a.png")

	results, err := newTestProcessor().Execute(context.Background(), &Ops{Src: src, Dst: dst, Workers: 4})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(src, "a.jpg"), results[0].Path)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(src, "a.png"), results[1].Path)
	assert.ErrorIs(t, results[1].Err, ErrDuplicateOutput)
	assert.Equal(t, filepath.Join(dst, "a.png"), results[1].Out)
	assert.FileExists(t, filepath.Join(dst, "a.png"))
}
