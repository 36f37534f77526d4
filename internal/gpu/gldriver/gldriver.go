// Package gldriver implements gpu.Driver on OpenGL 4.1 core.
// It must be used from the thread that owns the current GL context, after
// gl.Init has succeeded.
package gldriver

import (
	"fmt"
	"strings"

	"isoengine/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var _ gpu.Driver = (*Driver)(nil)

// Driver issues GL calls. The quad stream buffers are created lazily on the
// first draw.
type Driver struct {
	vao      uint32
	vbo      uint32
	capacity int // in floats
}

// New configures global GL state for 2D sprite rendering.
func New() *Driver {
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return &Driver{}
}

func (d *Driver) CreateTexture(spec gpu.TextureSpec) (gpu.Handle, error) {
	if len(spec.Pixels) != spec.Width*spec.Height*4 {
		return 0, fmt.Errorf("create texture: %d bytes for %dx%d RGBA", len(spec.Pixels), spec.Width, spec.Height)
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	filter := int32(gl.LINEAR)
	if spec.Filter == gpu.FilterNearest {
		filter = gl.NEAREST
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA8,
		int32(spec.Width),
		int32(spec.Height),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(spec.Pixels),
	)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &texture)
		return 0, fmt.Errorf("create texture: gl error 0x%x", code)
	}
	return gpu.Handle(texture), nil
}

func (d *Driver) DeleteTexture(h gpu.Handle) {
	texture := uint32(h)
	gl.DeleteTextures(1, &texture)
}

func (d *Driver) CompileProgram(name, vertexSrc, fragmentSrc string) (gpu.Handle, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("shader %s: %w", name, err)
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, fmt.Errorf("shader %s: %w", name, err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("shader %s: failed to link program: %v", name, log)
	}
	return gpu.Handle(program), nil
}

func (d *Driver) DeleteProgram(h gpu.Handle) {
	gl.DeleteProgram(uint32(h))
}

func (d *Driver) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Driver) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Driver) DrawQuads(program, texture gpu.Handle, vertices []float32, projection mgl32.Mat4) {
	if len(vertices) == 0 {
		return
	}
	d.ensureBuffers(len(vertices))

	gl.UseProgram(uint32(program))
	gl.UniformMatrix4fv(gl.GetUniformLocation(uint32(program), gl.Str("projection\x00")), 1, false, &projection[0])
	gl.Uniform1i(gl.GetUniformLocation(uint32(program), gl.Str("sprite\x00")), 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture))

	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(vertices)/gpu.VertexFloats))
	gl.BindVertexArray(0)
}

// ensureBuffers grows the streaming vertex buffer to hold n floats.
func (d *Driver) ensureBuffers(n int) {
	if d.vao == 0 {
		gl.GenVertexArrays(1, &d.vao)
		gl.GenBuffers(1, &d.vbo)
		gl.BindVertexArray(d.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)

		stride := int32(gpu.VertexFloats * 4)
		gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, gl.PtrOffset(4*4))
		gl.EnableVertexAttribArray(2)
		gl.BindVertexArray(0)
	}
	if n <= d.capacity {
		return
	}
	capacity := d.capacity
	if capacity == 0 {
		capacity = gpu.QuadFloats * 256
	}
	for capacity < n {
		capacity *= 2
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*4, nil, gl.DYNAMIC_DRAW)
	d.capacity = capacity
}

// Dispose deletes the streaming buffers.
func (d *Driver) Dispose() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		gl.DeleteBuffers(1, &d.vbo)
		d.vao, d.vbo, d.capacity = 0, 0, 0
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}
