package stamp

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func newTestTool(t *testing.T) *DirectTool {
	t.Helper()
	b, err := NewImageBrush(NewTemplateCache(8), Square, 0.25, false)
	require.NoError(t, err)
	tool := NewDirectTool(b)
	tool.SetRadius(4)
	return tool
}

func TestDirectTool_Stroke(t *testing.T) {
	layer := solid(40, 40, white)
	tool := newTestTool(t)

	require.NoError(t, tool.Press(layer, color.Black, vec.Vec2{X: 10, Y: 10}))
	require.NoError(t, tool.Drag(vec.Vec2{X: 26, Y: 10}))
	assert.Equal(t, 9, tool.Dabs())

	orig, err := tool.Original()
	require.NoError(t, err)
	assert.Equal(t, white, orig.NRGBAAt(10, 10))
	assert.Equal(t, color.NRGBA{A: 255}, layer.NRGBAAt(10, 10))
	assert.Equal(t, color.NRGBA{A: 255}, layer.NRGBAAt(26, 10))

	assert.Equal(t, image.Rect(6, 6, 30, 14), tool.Release())
	_, err = tool.Original()
	assert.ErrorIs(t, err, ErrNoStroke)
	assert.Equal(t, 0, tool.Dabs())
}

func TestDirectTool_Clip(t *testing.T) {
	layer := solid(40, 40, white)
	tool := newTestTool(t)
	tool.Clip = image.Rect(0, 0, 20, 40)

	require.NoError(t, tool.Press(layer, color.Black, vec.Vec2{X: 10, Y: 10}))
	require.NoError(t, tool.Drag(vec.Vec2{X: 26, Y: 10}))

	assert.Equal(t, image.Rect(6, 6, 20, 14), tool.Release())
	assert.Equal(t, color.NRGBA{A: 255}, layer.NRGBAAt(10, 10))
	assert.Equal(t, white, layer.NRGBAAt(24, 10))
}

func TestDirectTool_Erase(t *testing.T) {
	layer := solid(20, 20, white)
	tool := newTestTool(t)
	tool.Composite = "dst_out"

	require.NoError(t, tool.Press(layer, color.Black, vec.Vec2{X: 10, Y: 10}))
	tool.Release()
	assert.Equal(t, uint8(0), layer.NRGBAAt(10, 10).A)
	assert.Equal(t, white, layer.NRGBAAt(1, 1))
}

func TestDirectTool_DragWithoutPress(t *testing.T) {
	tool := newTestTool(t)
	assert.ErrorIs(t, tool.Drag(vec.Vec2{X: 1, Y: 1}), ErrNoStroke)
}

func TestDirectTool_InvalidComposite(t *testing.T) {
	tool := newTestTool(t)
	tool.Composite = "bogus"
	assert.Error(t, tool.Press(solid(4, 4, white), color.Black, vec.Vec2{}))
}

func TestDirectTool_SetRadiusClamps(t *testing.T) {
	tool := newTestTool(t)
	tool.SetRadius(500)
	assert.Equal(t, float64(MaxBrushRadius), tool.brush.Radius())
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, 1.0, ClampRadius(math.NaN()))
	assert.Equal(t, 1.0, ClampRadius(0))
	assert.Equal(t, 1.0, ClampRadius(-20))
	assert.Equal(t, 50.0, ClampRadius(50))
	assert.Equal(t, 100.0, ClampRadius(500))
	assert.Equal(t, 100.0, ClampRadius(math.Inf(1)))
}
