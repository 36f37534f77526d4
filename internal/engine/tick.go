package engine

import (
	"fmt"
	"reflect"

	"isoengine/internal/scene"

	"go.uber.org/zap"
)

// SetScene makes s the active scene and sizes it to the viewport. The
// outgoing scene is disposed when it implements scene.Disposer. A nil s
// leaves the engine without a scene.
func (e *Engine) SetScene(s scene.Scene) {
	old := e.scene
	if sameScene(old, s) {
		return
	}
	e.scene = s
	e.scenes.Detach()
	if s != nil {
		s.Rescale(e.render.Viewport())
	}
	if d, ok := old.(scene.Disposer); ok {
		if err := d.Dispose(); err != nil {
			e.log.Warn("scene dispose failed", zap.Error(err))
		}
	}
}

func sameScene(a, b scene.Scene) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	t := reflect.TypeOf(a)
	return t == reflect.TypeOf(b) && t.Comparable() && a == b
}

// Scene returns the active scene, or nil.
func (e *Engine) Scene() scene.Scene { return e.scene }

// Resize adjusts the projection and rescales the active scene.
func (e *Engine) Resize(width, height int) {
	e.render.AdjustProjection(width, height)
	if e.scene == nil {
		return
	}
	e.scene.Rescale(e.render.Viewport())
}

// UpdateTick advances simulated time by delta: the scheduler fires due
// events, then the active scene updates.
func (e *Engine) UpdateTick(delta float64) error {
	defer e.profiler.Track("engine.UpdateTick")()

	delta = e.clampDelta("update", delta)
	e.updateTime += delta
	e.sched.Advance(delta)
	if e.scene == nil {
		return nil
	}
	if err := e.scene.Update(scene.Frame{Time: e.updateTime, Delta: delta}); err != nil {
		return fmt.Errorf("update scene: %w", err)
	}
	return nil
}

// RenderTick draws and presents one frame. Without an active scene a
// cleared frame is presented and nothing is asked to draw.
func (e *Engine) RenderTick(delta float64) {
	defer e.profiler.Track("engine.RenderTick")()

	delta = e.clampDelta("render", delta)
	e.renderTime += delta

	if e.scene != nil {
		e.scene.BeginRender(e.render)
	}
	e.render.BeginFrame()
	if e.scene != nil {
		e.render.RenderScene(e.scene, scene.Frame{Time: e.renderTime, Delta: delta})
	}
	e.render.EndFrame()

	if e.window != nil {
		func() { defer e.profiler.Track("window.SwapBuffers")(); e.window.SwapBuffers() }()
	}
}

func (e *Engine) clampDelta(kind string, delta float64) float64 {
	if delta >= 0 {
		return delta
	}
	e.log.Warn("negative tick delta clamped", zap.String("tick", kind), zap.Float64("delta", delta))
	return 0
}
