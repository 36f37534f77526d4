package text

import (
	"os"
	"path/filepath"
	"testing"

	"isoengine/internal/assets"
	"isoengine/internal/gpu"
	"isoengine/internal/gpu/gputest"
	"isoengine/internal/scene"
	"isoengine/internal/system"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loaded(t *testing.T, opts ...Option) (*Displayer, *gputest.Driver, *system.Registry) {
	t.Helper()
	drv := gputest.New()
	reg := system.NewRegistry()
	require.NoError(t, reg.Register(assets.NewProvider(drv, t.TempDir(), nil)))
	d := NewDisplayer(append(opts, WithLogger(zaptest.NewLogger(t)))...)
	require.NoError(t, reg.Register(d))
	require.NoError(t, reg.LoadAll())
	return d, drv, reg
}

type collector struct{ quads []scene.Quad }

func (c *collector) Viewport() (int, int)  { return 640, 480 }
func (c *collector) Camera() *scene.Camera { return scene.NewCamera(640, 480) }
func (c *collector) Draw(q scene.Quad)     { c.quads = append(c.quads, q) }

func TestBitmapAtlas(t *testing.T) {
	d, drv, _ := loaded(t)

	atlas := d.Atlas()
	require.NotNil(t, atlas)
	assert.Equal(t, 256, atlas.Width())
	assert.Equal(t, 41, atlas.Height())
	assert.Equal(t, float32(13), d.LineHeight())

	spec, ok := drv.Texture(atlas.Handle())
	require.True(t, ok)
	assert.Equal(t, gpu.FilterLinear, spec.Filter)
}

func TestMeasure(t *testing.T) {
	d, _, _ := loaded(t)

	w, h := d.Measure("ab", 1)
	assert.Equal(t, float32(14), w)
	assert.Equal(t, float32(13), h)

	w, h = d.Measure("abc\nd", 2)
	assert.Equal(t, float32(42), w)
	assert.Equal(t, float32(52), h)

	w, h = d.Measure("", 1)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestLayoutSkipsWhitespace(t *testing.T) {
	d, _, _ := loaded(t)

	quads := d.Layout("a b\nc", 10, 20, 1, scene.White)
	require.Len(t, quads, 3)
	assert.Equal(t, mgl32.Vec4{10, 20, 6, 13}, quads[0].Dst)
	assert.Equal(t, mgl32.Vec4{24, 20, 6, 13}, quads[1].Dst)
	assert.Equal(t, mgl32.Vec4{10, 33, 6, 13}, quads[2].Dst)
	for _, q := range quads {
		assert.Same(t, d.Atlas(), q.Texture)
	}

	src := quads[0].Src
	assert.Less(t, src.X(), src.Z())
	assert.Less(t, src.Y(), src.W())
}

func TestDrawSetsDepth(t *testing.T) {
	d, _, _ := loaded(t)
	c := &collector{}
	d.Draw(c, "hi", 0, 0, 1, scene.White, 5)
	require.Len(t, c.quads, 2)
	assert.Equal(t, float32(5), c.quads[1].Depth)
}

func TestUnloadReleasesAtlas(t *testing.T) {
	d, drv, reg := loaded(t)
	atlas := d.Atlas()
	require.Equal(t, 1, drv.LiveTextures())

	require.NoError(t, reg.UnloadAll())
	assert.True(t, atlas.Released())
	assert.Zero(t, drv.LiveTextures())
	assert.Nil(t, d.Layout("x", 0, 0, 1, scene.White))
}

func TestBadFontFile(t *testing.T) {
	drv := gputest.New()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("nope"), 0o644))

	reg := system.NewRegistry()
	require.NoError(t, reg.Register(assets.NewProvider(drv, dir, nil)))
	require.NoError(t, reg.Register(NewDisplayer(WithFont("broken.ttf", 12))))
	assert.Error(t, reg.LoadAll())
	assert.Zero(t, drv.LiveTextures())
}
