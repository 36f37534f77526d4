// Package gpu defines the boundary between the engine and the graphics driver.
package gpu

import "github.com/go-gl/mathgl/mgl32"

// Handle is an opaque driver object name (texture or program).
type Handle uint32

// Filter selects texture sampling for minification and magnification.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

func (f Filter) String() string {
	if f == FilterNearest {
		return "nearest"
	}
	return "linear"
}

// TextureSpec describes a tightly packed 8-bit RGBA upload.
type TextureSpec struct {
	Width  int
	Height int
	Pixels []byte
	Filter Filter
}

// Vertex layout used by DrawQuads: x, y, u, v, r, g, b, a.
const (
	VertexFloats = 8
	QuadVertices = 6
	QuadFloats   = VertexFloats * QuadVertices
)

// Driver is the set of GPU operations the engine issues. All calls happen on
// the thread that owns the graphics context.
type Driver interface {
	CreateTexture(spec TextureSpec) (Handle, error)
	DeleteTexture(h Handle)

	CompileProgram(name, vertexSrc, fragmentSrc string) (Handle, error)
	DeleteProgram(h Handle)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
	// DrawQuads draws len(vertices)/QuadFloats textured quads.
	DrawQuads(program, texture Handle, vertices []float32, projection mgl32.Mat4)
}
