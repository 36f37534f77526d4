// Package glfwhost opens a GLFW window with an OpenGL 4.1 core context and
// forwards its events to the engine.
package glfwhost

import (
	"fmt"

	"isoengine/internal/config"
	"isoengine/internal/input"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Sink receives window events. *engine.Engine implements it.
type Sink interface {
	Resize(width, height int)
	Input() *input.Manager
}

// Window adapts a GLFW window to the engine's Window interface.
type Window struct {
	win *glfw.Window
}

// Open creates the window, makes its context current and loads the GL
// bindings. glfw.Init must have succeeded on the calling thread.
func Open(cfg config.Window) (*Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()

	// Initialize OpenGL bindings
	if err := gl.Init(); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("init gl: %w", err)
	}

	// Without vsync the engine's frame limiter paces the loop
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)

	return &Window{win: win}, nil
}

// Attach routes resize, keyboard, mouse and scroll events to s.
func (w *Window) Attach(s Sink) {
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		s.Resize(width, height)
	})
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		s.Input().HandleKey(input.Key(key), state(action))
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		s.Input().HandleMouseButton(input.MouseButton(button), state(action))
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		s.Input().HandleCursor(x, y)
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		s.Input().HandleScroll(dx, dy)
	})
}

func state(a glfw.Action) input.State {
	switch a {
	case glfw.Press:
		return input.Press
	case glfw.Repeat:
		return input.Repeat
	default:
		return input.Release
	}
}

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }
func (w *Window) PollEvents()       { glfw.PollEvents() }
func (w *Window) SwapBuffers()      { w.win.SwapBuffers() }

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (int, int) { return w.win.GetFramebufferSize() }

// Close asks the loop to stop at the next frame.
func (w *Window) Close() { w.win.SetShouldClose(true) }

// Destroy releases the window and its context.
func (w *Window) Destroy() { w.win.Destroy() }
