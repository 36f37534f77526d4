// Package gputest provides an in-memory gpu.Driver for tests.
package gputest

import (
	"fmt"
	"sync"

	"isoengine/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawCall is one recorded DrawQuads invocation.
type DrawCall struct {
	Program    gpu.Handle
	Texture    gpu.Handle
	Quads      int
	Projection mgl32.Mat4
}

// Driver records every call and tracks live handles.
type Driver struct {
	mu sync.Mutex

	next     gpu.Handle
	textures map[gpu.Handle]gpu.TextureSpec
	programs map[gpu.Handle]string

	// TextureErr, when set, is returned by CreateTexture.
	TextureErr error
	// ProgramErr maps program names to compile errors.
	ProgramErr map[string]error

	Calls     []string
	Draws     []DrawCall
	Clears    int
	ViewportW int
	ViewportH int
}

// New returns an empty driver.
func New() *Driver {
	return &Driver{
		textures:   make(map[gpu.Handle]gpu.TextureSpec),
		programs:   make(map[gpu.Handle]string),
		ProgramErr: make(map[string]error),
	}
}

func (d *Driver) CreateTexture(spec gpu.TextureSpec) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TextureErr != nil {
		return 0, d.TextureErr
	}
	d.next++
	d.textures[d.next] = spec
	d.Calls = append(d.Calls, fmt.Sprintf("CreateTexture %dx%d %s", spec.Width, spec.Height, spec.Filter))
	return d.next, nil
}

func (d *Driver) DeleteTexture(h gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, h)
	d.Calls = append(d.Calls, fmt.Sprintf("DeleteTexture %d", h))
}

func (d *Driver) CompileProgram(name, vertexSrc, fragmentSrc string) (gpu.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ProgramErr[name]; err != nil {
		return 0, err
	}
	d.next++
	d.programs[d.next] = name
	d.Calls = append(d.Calls, "CompileProgram "+name)
	return d.next, nil
}

func (d *Driver) DeleteProgram(h gpu.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, h)
	d.Calls = append(d.Calls, fmt.Sprintf("DeleteProgram %d", h))
}

func (d *Driver) Viewport(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ViewportW, d.ViewportH = width, height
	d.Calls = append(d.Calls, fmt.Sprintf("Viewport %dx%d", width, height))
}

func (d *Driver) Clear(r, g, b, a float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Clears++
	d.Calls = append(d.Calls, "Clear")
}

func (d *Driver) DrawQuads(program, texture gpu.Handle, vertices []float32, projection mgl32.Mat4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Draws = append(d.Draws, DrawCall{
		Program:    program,
		Texture:    texture,
		Quads:      len(vertices) / gpu.QuadFloats,
		Projection: projection,
	})
	d.Calls = append(d.Calls, fmt.Sprintf("DrawQuads %d", len(vertices)/gpu.QuadFloats))
}

// LiveTextures returns the number of textures created and not yet deleted.
func (d *Driver) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// LivePrograms returns the number of programs compiled and not yet deleted.
func (d *Driver) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

// Texture returns the spec uploaded for h.
func (d *Driver) Texture(h gpu.Handle) (gpu.TextureSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	spec, ok := d.textures[h]
	return spec, ok
}

// Reset clears recorded calls and draws, keeping live handles.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = nil
	d.Draws = nil
	d.Clears = 0
}
