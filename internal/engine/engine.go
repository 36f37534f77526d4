// Package engine wires the built-in systems together and drives the frame
// loop: resize, update and render ticks against the active scene.
package engine

import (
	"errors"
	"fmt"
	"time"

	"isoengine/internal/animation"
	"isoengine/internal/assets"
	"isoengine/internal/config"
	"isoengine/internal/gpu"
	"isoengine/internal/input"
	"isoengine/internal/profiling"
	"isoengine/internal/render"
	"isoengine/internal/scene"
	"isoengine/internal/scheduler"
	"isoengine/internal/sprites"
	"isoengine/internal/system"
	"isoengine/internal/text"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrTornDown = errors.New("engine: already torn down")

// Window is the platform surface the engine presents to and polls.
type Window interface {
	ShouldClose() bool
	PollEvents()
	SwapBuffers()
	Size() (width, height int)
}

// Engine owns the system registry, the scheduler and the active scene.
// All methods run on the thread that owns the graphics context.
type Engine struct {
	cfg    config.Config
	window Window
	drv    gpu.Driver
	log    *zap.Logger

	registry   *system.Registry
	assets     *assets.Provider
	sprites    *sprites.Library
	render     *render.Service
	text       *text.Displayer
	input      *input.Manager
	animations *animation.Library
	scenes     *scene.Manager

	sched    *scheduler.Scheduler
	runtime  *config.Runtime
	profiler *profiling.Profiler
	limiter  *frameLimiter

	scene      scene.Scene
	updateTime float64
	renderTime float64
	tornDown   bool

	shaders       []string
	extras        []system.System
	content       func(*Engine) error
	clock         func() time.Time
	reverseUnload bool
	renderOpts    []render.Option
}

// Option configures an Engine at construction.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSystems registers additional systems after the built-in ones.
func WithSystems(s ...system.System) Option {
	return func(e *Engine) { e.extras = append(e.extras, s...) }
}

// WithShaders overrides the shader programs compiled at startup.
func WithShaders(ids ...string) Option {
	return func(e *Engine) { e.shaders = ids }
}

// WithContent runs fn once every system is loaded and the shaders are
// compiled. It is the place to load sprites, define animations and install
// the first scene.
func WithContent(fn func(*Engine) error) Option {
	return func(e *Engine) { e.content = fn }
}

// WithClock replaces the wall clock used by Run.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithReverseUnload tears systems down from last registered to first.
func WithReverseUnload() Option {
	return func(e *Engine) { e.reverseUnload = true }
}

// WithRenderOptions passes options through to the render service.
func WithRenderOptions(opts ...render.Option) Option {
	return func(e *Engine) { e.renderOpts = append(e.renderOpts, opts...) }
}

// New builds and loads an engine. Systems are registered in a fixed order
// (assets, sprites, render, text, input, animation, scenes, then extras),
// loaded, the scheduler is created, shaders are compiled and the content
// hook runs. Any failure unloads what was loaded and returns the error.
func New(cfg config.Config, window Window, drv gpu.Driver, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		window:   window,
		drv:      drv,
		log:      zap.NewNop(),
		profiler: profiling.New(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg.Resolve()
	if len(e.shaders) == 0 {
		e.shaders = e.cfg.Shaders
	}
	if len(e.shaders) == 0 {
		e.shaders = []string{"shader"}
	}
	e.runtime = config.NewRuntime(e.cfg.Window)
	e.limiter = newFrameLimiter(e.clock)

	width, height := e.cfg.Window.Width, e.cfg.Window.Height
	if window != nil {
		width, height = window.Size()
	}

	regOpts := []system.Option{system.WithLogger(e.log.Named("systems"))}
	if e.reverseUnload {
		regOpts = append(regOpts, system.WithReverseUnload())
	}
	e.registry = system.NewRegistry(regOpts...)

	textOpts := []text.Option{text.WithLogger(e.log.Named("text"))}
	if e.cfg.Font.Path != "" {
		textOpts = append(textOpts, text.WithFont(e.cfg.Font.Path, e.cfg.Font.Size))
	}
	e.assets = assets.NewProvider(drv, e.cfg.Dirs.Assets, e.log.Named("assets"))
	e.sprites = sprites.NewLibrary(e.log.Named("sprites"))
	e.render = render.NewService(drv, e.cfg.Dirs.Shaders, width, height,
		append([]render.Option{render.WithLogger(e.log.Named("render"))}, e.renderOpts...)...)
	e.text = text.NewDisplayer(textOpts...)
	e.input = input.NewManager()
	e.animations = animation.NewLibrary(e.log.Named("animation"))
	e.scenes = scene.NewManager(e, e.log.Named("scenes"))

	builtin := []system.System{e.assets, e.sprites, e.render, e.text, e.input, e.animations, e.scenes}
	for _, s := range append(builtin, e.extras...) {
		if err := e.registry.Register(s); err != nil {
			return nil, fmt.Errorf("register systems: %w", err)
		}
	}
	if err := e.registry.LoadAll(); err != nil {
		return nil, err
	}

	e.sched = scheduler.New(e.log.Named("scheduler"))

	if err := e.render.LoadShaders(e.shaders); err != nil {
		return nil, multierr.Append(fmt.Errorf("load shaders: %w", err), e.registry.UnloadAll())
	}
	if e.content != nil {
		if err := e.content(e); err != nil {
			err = fmt.Errorf("load content: %w", err)
			return nil, multierr.Append(err, e.Teardown())
		}
	}

	e.log.Info("engine ready",
		zap.Int("systems", e.registry.Len()),
		zap.Strings("shaders", e.shaders),
		zap.Int("width", width),
		zap.Int("height", height))
	return e, nil
}

// Teardown disposes the active scene and unloads every system. Every
// system gets its Unload call even when an earlier one fails.
func (e *Engine) Teardown() error {
	if e.tornDown {
		return ErrTornDown
	}
	e.tornDown = true

	var errs error
	if d, ok := e.scene.(scene.Disposer); ok {
		if err := d.Dispose(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dispose scene: %w", err))
		}
	}
	e.scene = nil
	e.scenes.Detach()
	errs = multierr.Append(errs, e.registry.UnloadAll())
	e.log.Info("engine torn down", zap.Error(errs))
	return errs
}

// System implements system.Host for callers holding the engine.
func (e *Engine) System(c system.Capability) (system.System, error) {
	return e.registry.System(c)
}

func (e *Engine) Config() config.Config           { return e.cfg }
func (e *Engine) Dirs() config.Dirs               { return e.cfg.Dirs }
func (e *Engine) Logger() *zap.Logger             { return e.log }
func (e *Engine) Driver() gpu.Driver              { return e.drv }
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }
func (e *Engine) Runtime() *config.Runtime        { return e.runtime }
func (e *Engine) Profiler() *profiling.Profiler   { return e.profiler }
func (e *Engine) Registry() *system.Registry      { return e.registry }

func (e *Engine) Assets() *assets.Provider       { return e.assets }
func (e *Engine) Sprites() *sprites.Library      { return e.sprites }
func (e *Engine) Render() *render.Service        { return e.render }
func (e *Engine) Text() *text.Displayer          { return e.text }
func (e *Engine) Input() *input.Manager          { return e.input }
func (e *Engine) Animations() *animation.Library { return e.animations }
func (e *Engine) Scenes() *scene.Manager         { return e.scenes }

// UpdateTime is the sum of every update delta so far, in seconds.
func (e *Engine) UpdateTime() float64 { return e.updateTime }

// RenderTime is the sum of every render delta so far, in seconds.
func (e *Engine) RenderTime() float64 { return e.renderTime }
