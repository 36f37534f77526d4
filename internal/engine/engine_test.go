package engine

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"isoengine/internal/config"
	"isoengine/internal/demo"
	"isoengine/internal/gpu/gputest"
	"isoengine/internal/input"
	"isoengine/internal/render"
	"isoengine/internal/scene"
	"isoengine/internal/system"
	"isoengine/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWindow struct {
	width, height int
	closeAfter    int
	polls         int
	swaps         int
	onPoll        func(frame int)
	log           *[]string
}

func (w *fakeWindow) ShouldClose() bool { return w.closeAfter > 0 && w.polls >= w.closeAfter }
func (w *fakeWindow) Size() (int, int)  { return w.width, w.height }

func (w *fakeWindow) PollEvents() {
	w.polls++
	if w.onPoll != nil {
		w.onPoll(w.polls)
	}
}

func (w *fakeWindow) SwapBuffers() {
	w.swaps++
	if w.log != nil {
		*w.log = append(*w.log, "swap")
	}
}

// recScene records every call the engine makes on it.
type recScene struct {
	log       *[]string
	updates   []scene.Frame
	draws     []scene.Frame
	rescales  [][2]int
	updateErr error
	disposed  int
	pool      *texture.Pool
}

func (s *recScene) record(what string) {
	if s.log != nil {
		*s.log = append(*s.log, what)
	}
}

func (s *recScene) Rescale(w, h int) {
	s.rescales = append(s.rescales, [2]int{w, h})
}

func (s *recScene) BeginRender(scene.Renderer) { s.record("begin-render") }

func (s *recScene) Update(f scene.Frame) error {
	s.record("update")
	s.updates = append(s.updates, f)
	return s.updateErr
}

func (s *recScene) Draw(r scene.Renderer, f scene.Frame) {
	s.record("draw")
	s.draws = append(s.draws, f)
}

func (s *recScene) Dispose() error {
	s.disposed++
	if s.pool != nil {
		s.pool.ReleaseAll()
	}
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	base := t.TempDir()
	shaders := filepath.Join(base, "Assets", "Shaders")
	require.NoError(t, os.MkdirAll(shaders, 0o755))
	for _, ext := range []string{".vert", ".frag"} {
		require.NoError(t, os.WriteFile(filepath.Join(shaders, "shader"+ext), []byte("void main() {}"), 0o644))
	}
	cfg := config.Default()
	cfg.Dirs = config.Dirs{Base: base}
	cfg.Window.Width, cfg.Window.Height = 320, 240
	return cfg
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *gputest.Driver, *fakeWindow) {
	t.Helper()
	drv := gputest.New()
	win := &fakeWindow{width: 640, height: 480}
	e, err := New(testConfig(t), win, drv, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	require.NoError(t, err)
	return e, drv, win
}

func TestNewRegistersBuiltinsInOrder(t *testing.T) {
	e, drv, _ := newEngine(t)

	assert.Equal(t, []system.Capability{
		system.Assets, system.Sprites, system.Render, system.Text,
		system.Input, system.Animation, system.Scenes,
	}, e.Registry().Capabilities())
	assert.Equal(t, 1, drv.LivePrograms())
	assert.Equal(t, 1, drv.LiveTextures(), "glyph atlas")

	w, h := e.Render().Viewport()
	assert.Equal(t, 640, w, "window size wins over config")
	assert.Equal(t, 480, h)
	assert.NotNil(t, e.Scheduler())

	r, err := system.Get[*render.Service](e, system.Render)
	require.NoError(t, err)
	assert.Same(t, e.Render(), r)
	assert.Equal(t, filepath.Join(e.Dirs().Base, "Worlds"), e.Dirs().Worlds)
}

func TestUpdateTimeSumsDeltas(t *testing.T) {
	e, _, _ := newEngine(t)
	sc := &recScene{}
	e.SetScene(sc)

	for _, d := range []float64{0.016, 0.033, 0.0} {
		require.NoError(t, e.UpdateTick(d))
	}

	assert.Equal(t, 0.016+0.033+0.0, e.UpdateTime())
	require.Len(t, sc.updates, 3)
	assert.Equal(t, scene.Frame{Time: 0.016, Delta: 0.016}, sc.updates[0])
	assert.Equal(t, 0.0, sc.updates[2].Delta)
	assert.Equal(t, e.UpdateTime(), sc.updates[2].Time)
	assert.Zero(t, e.RenderTime())
}

func TestNegativeDeltaIsClamped(t *testing.T) {
	e, _, _ := newEngine(t)
	require.NoError(t, e.UpdateTick(0.5))
	require.NoError(t, e.UpdateTick(-0.25))
	e.RenderTick(-1)

	assert.Equal(t, 0.5, e.UpdateTime())
	assert.Zero(t, e.RenderTime())
}

func TestRenderTickWithoutScene(t *testing.T) {
	e, drv, win := newEngine(t)
	sc := &recScene{}
	e.SetScene(sc)
	e.SetScene(nil)
	drv.Reset()

	assert.NotPanics(t, func() { e.RenderTick(0.016) })

	assert.Empty(t, sc.draws, "scene render is never reached")
	assert.Empty(t, drv.Draws)
	assert.Equal(t, 1, drv.Clears, "a cleared frame is presented")
	assert.Equal(t, 1, win.swaps)
	assert.Equal(t, 0.016, e.RenderTime())
}

func TestTickOrdering(t *testing.T) {
	var log []string
	e, _, win := newEngine(t)
	win.log = &log
	sc := &recScene{log: &log}
	e.SetScene(sc)

	e.Scheduler().After(0.01, func(float64) { log = append(log, "event") })

	require.NoError(t, e.UpdateTick(0.02))
	e.RenderTick(0.02)

	assert.Equal(t, []string{"event", "update", "begin-render", "draw", "swap"}, log)
	require.Len(t, sc.draws, 1)
	assert.Equal(t, scene.Frame{Time: 0.02, Delta: 0.02}, sc.draws[0])
}

func TestUpdateErrorPropagates(t *testing.T) {
	e, _, _ := newEngine(t)
	boom := errors.New("scene exploded")
	e.SetScene(&recScene{updateErr: boom})

	assert.ErrorIs(t, e.UpdateTick(0.1), boom)
}

func TestResize(t *testing.T) {
	e, drv, _ := newEngine(t)
	assert.NotPanics(t, func() { e.Resize(800, 600) }, "no scene is tolerated")
	assert.Equal(t, 800, drv.ViewportW)

	sc := &recScene{}
	e.SetScene(sc)
	e.Resize(1024, 768)
	assert.Equal(t, [][2]int{{800, 600}, {1024, 768}}, sc.rescales)

	w, h := e.Render().Camera().Viewport()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
}

func TestSceneSwapReleasesTextures(t *testing.T) {
	e, drv, _ := newEngine(t)
	baseline := drv.LiveTextures()

	load := func(n int) *recScene {
		pool := texture.NewPool(e.Driver())
		for i := 0; i < n; i++ {
			_, err := pool.Acquire(image.NewRGBA(image.Rect(0, 0, 4, 4)), true)
			require.NoError(t, err)
		}
		return &recScene{pool: pool}
	}

	first := load(3)
	e.SetScene(first)
	assert.Equal(t, baseline+3, drv.LiveTextures())

	second := load(2)
	e.SetScene(second)
	assert.Equal(t, 1, first.disposed)
	assert.Equal(t, baseline+2, drv.LiveTextures())

	e.SetScene(second)
	assert.Zero(t, second.disposed, "re-installing the active scene keeps it")

	e.SetScene(nil)
	assert.Equal(t, baseline, drv.LiveTextures())
}

func TestSceneManagerInstallsOnEngine(t *testing.T) {
	e, _, _ := newEngine(t)
	built := &recScene{}
	require.NoError(t, e.Scenes().Add("menu", func(h system.Host) (scene.Scene, error) {
		if _, err := system.Get[*input.Manager](h, system.Input); err != nil {
			return nil, err
		}
		return built, nil
	}))

	require.NoError(t, e.Scenes().Switch("menu"))
	assert.Same(t, built, e.Scene())
	assert.Equal(t, [][2]int{{640, 480}}, built.rescales)
	assert.Equal(t, "menu", e.Scenes().Current())

	e.SetScene(&recScene{})
	assert.Empty(t, e.Scenes().Current(), "a scene installed directly has no name")

	require.NoError(t, e.Scenes().Switch("menu"))
	assert.Equal(t, "menu", e.Scenes().Current())
	e.SetScene(nil)
	assert.Empty(t, e.Scenes().Current())

	require.NoError(t, e.Scenes().Switch("menu"))
	require.NoError(t, e.Teardown())
	assert.Empty(t, e.Scenes().Current())
}

func TestSwitchToActiveGridScene(t *testing.T) {
	e, drv, _ := newEngine(t)
	baseline := drv.LiveTextures()
	require.NoError(t, e.Scenes().Add("grid", demo.Factory(4, nil)))

	require.NoError(t, e.Scenes().Switch("grid"))
	first := e.Scene()
	assert.Equal(t, baseline+1, drv.LiveTextures())

	require.NoError(t, e.Scenes().Switch("grid"))
	assert.NotSame(t, first, e.Scene())
	assert.Equal(t, baseline+1, drv.LiveTextures(), "the old grid's sheet is released")
	assert.Equal(t, 1, e.Sprites().Len())
	assert.Equal(t, []input.Action{demo.ActionPanLeft}, e.Input().KeyBindings(input.KeyLeft))

	require.NoError(t, e.UpdateTick(0.016))
	e.RenderTick(0.016)
	assert.Equal(t, 16, e.Scene().(*demo.Grid).Visible())

	e.SetScene(nil)
	assert.Equal(t, baseline, drv.LiveTextures())
	assert.Zero(t, e.Sprites().Len())
}

type physics struct {
	system.Base
	render   *render.Service
	unloaded bool
}

func (p *physics) Load(h system.Host) error {
	r, err := system.Get[*render.Service](h, system.Render)
	p.render = r
	return err
}

func (p *physics) Unload() error {
	p.unloaded = true
	return nil
}

func TestCustomSystems(t *testing.T) {
	p := &physics{Base: system.NewBase("physics")}
	e, _, _ := newEngine(t, WithSystems(p))

	assert.Same(t, e.Render(), p.render)
	got, err := e.System("physics")
	require.NoError(t, err)
	assert.Same(t, p, got)

	require.NoError(t, e.Teardown())
	assert.True(t, p.unloaded)
}

func TestDuplicateCustomSystemAbortsNew(t *testing.T) {
	drv := gputest.New()
	_, err := New(testConfig(t), nil, drv, WithSystems(input.NewManager()))

	var dup *system.DuplicateCapabilityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, system.Input, dup.Capability)
	assert.Zero(t, drv.LiveTextures())
	assert.Zero(t, drv.LivePrograms())
}

func TestShaderFailureUnloads(t *testing.T) {
	drv := gputest.New()
	_, err := New(testConfig(t), nil, drv, WithShaders("missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, drv.LiveTextures())
}

func TestContentHook(t *testing.T) {
	var seen *Engine
	e, _, _ := newEngine(t, WithContent(func(e *Engine) error {
		seen = e
		_, ok := e.Render().Program("shader")
		assert.True(t, ok, "shaders compile before content")
		return nil
	}))
	assert.Same(t, e, seen)

	drv := gputest.New()
	sc := &recScene{}
	boom := errors.New("no sprites")
	_, err := New(testConfig(t), nil, drv, WithContent(func(e *Engine) error {
		e.SetScene(sc)
		return boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sc.disposed)
	assert.Zero(t, drv.LiveTextures())
	assert.Zero(t, drv.LivePrograms())
}

type failingUnload struct {
	system.Base
	calls *[]system.Capability
	err   error
}

func (f *failingUnload) Load(system.Host) error { return nil }

func (f *failingUnload) Unload() error {
	*f.calls = append(*f.calls, f.Capability())
	return f.err
}

func TestTeardown(t *testing.T) {
	var calls []system.Capability
	boom := errors.New("stuck")
	a := &failingUnload{Base: system.NewBase("a"), calls: &calls, err: boom}
	b := &failingUnload{Base: system.NewBase("b"), calls: &calls}

	e, drv, _ := newEngine(t, WithSystems(a, b))
	sc := &recScene{}
	e.SetScene(sc)

	err := e.Teardown()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []system.Capability{"a", "b"}, calls, "b unloads after a fails")
	assert.Equal(t, 1, sc.disposed)
	assert.Nil(t, e.Scene())
	assert.Zero(t, drv.LiveTextures())
	assert.Zero(t, drv.LivePrograms())

	assert.ErrorIs(t, e.Teardown(), ErrTornDown)
}

func TestClearColorOption(t *testing.T) {
	red := mgl32.Vec4{1, 0, 0, 1}
	e, _, _ := newEngine(t, WithRenderOptions(render.WithClearColor(red)))
	assert.Equal(t, red, e.Render().ClearColor())
}
