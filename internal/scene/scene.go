// Package scene defines the unit of simulation and drawing the engine hands
// to its update and render phases.
package scene

import (
	"isoengine/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
)

// Frame carries the accumulated time of a tick kind and the delta since the
// previous tick of that kind, both in seconds.
type Frame struct {
	Time  float64
	Delta float64
}

// Quad is one textured rectangle submitted for drawing.
type Quad struct {
	Texture *texture.Texture
	// Src is the texture rectangle in UV space: u0, v0, u1, v1.
	Src mgl32.Vec4
	// Dst is the screen rectangle in pixels: x, y, width, height.
	Dst  mgl32.Vec4
	Tint mgl32.Vec4
	// Depth orders quads within a frame; lower draws first.
	Depth float32
}

// FullSrc covers a whole texture.
var FullSrc = mgl32.Vec4{0, 0, 1, 1}

// White leaves texels untinted.
var White = mgl32.Vec4{1, 1, 1, 1}

// Renderer is the drawing surface a scene sees.
type Renderer interface {
	Viewport() (width, height int)
	Camera() *Camera
	Draw(q Quad)
}

// Scene is installed on the engine and driven by its ticks. The engine never
// inspects a scene beyond this contract.
type Scene interface {
	// Rescale adapts the scene to a new viewport size.
	Rescale(width, height int)
	// BeginRender prepares for drawing (culling, sorting) before the frame
	// is opened.
	BeginRender(r Renderer)
	Update(f Frame) error
}

// Drawer is implemented by scenes that submit quads while the render
// capability renders them.
type Drawer interface {
	Draw(r Renderer, f Frame)
}

// Disposer is implemented by scenes that hold resources to free when they
// are swapped out or the engine is torn down.
type Disposer interface {
	Dispose() error
}
