package scene

import (
	"errors"
	"testing"

	"isoengine/internal/system"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopScene struct{ name string }

func (nopScene) Rescale(int, int)     {}
func (nopScene) BeginRender(Renderer) {}
func (nopScene) Update(Frame) error   { return nil }

type recordingSetter struct{ installed []Scene }

func (r *recordingSetter) SetScene(s Scene) { r.installed = append(r.installed, s) }

func TestManagerSwitch(t *testing.T) {
	setter := &recordingSetter{}
	m := NewManager(setter, nil)
	reg := system.NewRegistry()
	require.NoError(t, reg.Register(m))
	require.NoError(t, reg.LoadAll())

	var gotHost system.Host
	require.NoError(t, m.Add("menu", func(h system.Host) (Scene, error) {
		gotHost = h
		return nopScene{name: "menu"}, nil
	}))
	require.NoError(t, m.Add("world", func(system.Host) (Scene, error) {
		return nopScene{name: "world"}, nil
	}))
	assert.ErrorIs(t, m.Add("menu", nil), ErrDuplicateScene)
	assert.Equal(t, []string{"menu", "world"}, m.Names())

	require.NoError(t, m.Switch("menu"))
	require.NoError(t, m.Switch("world"))
	assert.Equal(t, "world", m.Current())
	assert.Same(t, reg, gotHost)
	assert.Equal(t, []Scene{nopScene{name: "menu"}, nopScene{name: "world"}}, setter.installed)

	assert.ErrorIs(t, m.Switch("credits"), ErrUnknownScene)

	require.NoError(t, reg.UnloadAll())
	assert.Empty(t, m.Current())
}

func TestManagerFactoryError(t *testing.T) {
	setter := &recordingSetter{}
	m := NewManager(setter, nil)
	boom := errors.New("boom")
	require.NoError(t, m.Add("broken", func(system.Host) (Scene, error) { return nil, boom }))

	assert.ErrorIs(t, m.Switch("broken"), boom)
	assert.Empty(t, setter.installed)
	assert.Empty(t, m.Current())
}

func TestCameraIsoRoundTrip(t *testing.T) {
	c := NewCamera(800, 600)
	tile := mgl32.Vec2{3, 5}
	world := c.IsoToWorld(tile)
	assert.Equal(t, mgl32.Vec2{-64, 128}, world)

	back := c.WorldToIso(world)
	assert.InDelta(t, 3, back.X(), 1e-5)
	assert.InDelta(t, 5, back.Y(), 1e-5)
}

func TestCameraViewCentersPosition(t *testing.T) {
	c := NewCamera(800, 600)
	c.Position = mgl32.Vec2{100, 50}
	c.Zoom = 2

	center := c.WorldToScreen(mgl32.Vec2{100, 50})
	assert.InDelta(t, 400, center.X(), 1e-4)
	assert.InDelta(t, 300, center.Y(), 1e-4)

	p := c.WorldToScreen(mgl32.Vec2{110, 50})
	assert.InDelta(t, 420, p.X(), 1e-4)

	w := c.ScreenToWorld(mgl32.Vec2{420, 300})
	assert.InDelta(t, 110, w.X(), 1e-3)
	assert.InDelta(t, 50, w.Y(), 1e-3)
}

func TestCameraVisible(t *testing.T) {
	c := NewCamera(800, 600)
	assert.True(t, c.Visible(mgl32.Vec4{0, 0, 10, 10}))
	assert.False(t, c.Visible(mgl32.Vec4{1000, 0, 10, 10}))
	assert.False(t, c.Visible(mgl32.Vec4{-500, -400, 10, 10}))
}
