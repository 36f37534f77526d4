// Package render is the engine's render capability: it owns shader
// programs, the projection, and the per-frame sprite batch.
package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"isoengine/internal/gpu"
	"isoengine/internal/scene"
	"isoengine/internal/system"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var ErrNoShaders = errors.New("render: no shaders requested")

// Stats describes the last completed frame.
type Stats struct {
	Quads     int
	DrawCalls int
	Dropped   int
}

// Service is the render capability.
type Service struct {
	system.Base

	drv       gpu.Driver
	shaderDir string
	programs  map[string]gpu.Handle
	order     []string
	sprite    gpu.Handle

	width      int
	height     int
	projection mgl32.Mat4
	camera     *scene.Camera
	clearColor mgl32.Vec4

	batch batch
	stats Stats
	frame Stats
	log   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClearColor sets the color frames are cleared to.
func WithClearColor(c mgl32.Vec4) Option {
	return func(s *Service) { s.clearColor = c }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates the render capability for a width x height surface.
// Shader sources are read from shaderDir.
func NewService(drv gpu.Driver, shaderDir string, width, height int, opts ...Option) *Service {
	s := &Service{
		Base:       system.NewBase(system.Render),
		drv:        drv,
		shaderDir:  shaderDir,
		programs:   make(map[string]gpu.Handle),
		width:      width,
		height:     height,
		camera:     scene.NewCamera(width, height),
		clearColor: mgl32.Vec4{0.08, 0.09, 0.12, 1},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Load(system.Host) error {
	s.AdjustProjection(s.width, s.height)
	return nil
}

// Unload deletes every compiled program.
func (s *Service) Unload() error {
	for _, name := range s.order {
		s.drv.DeleteProgram(s.programs[name])
	}
	s.programs = make(map[string]gpu.Handle)
	s.order = nil
	s.sprite = 0
	return nil
}

// LoadShaders compiles <id>.vert and <id>.frag for every id. The first id
// becomes the program used for sprite quads.
func (s *Service) LoadShaders(ids []string) error {
	if len(ids) == 0 {
		return ErrNoShaders
	}
	for _, id := range ids {
		if _, ok := s.programs[id]; ok {
			continue
		}
		vertexSource, err := os.ReadFile(filepath.Join(s.shaderDir, id+".vert"))
		if err != nil {
			return fmt.Errorf("could not read vertex shader %s: %w", id, err)
		}
		fragmentSource, err := os.ReadFile(filepath.Join(s.shaderDir, id+".frag"))
		if err != nil {
			return fmt.Errorf("could not read fragment shader %s: %w", id, err)
		}
		program, err := s.drv.CompileProgram(id, string(vertexSource), string(fragmentSource))
		if err != nil {
			return fmt.Errorf("compile shader %s: %w", id, err)
		}
		s.programs[id] = program
		s.order = append(s.order, id)
		s.log.Debug("shader loaded", zap.String("shader", id))
	}
	s.sprite = s.programs[ids[0]]
	return nil
}

// Program returns a compiled program by id.
func (s *Service) Program(id string) (gpu.Handle, bool) {
	h, ok := s.programs[id]
	return h, ok
}

// AdjustProjection resizes the viewport and rebuilds the orthographic
// projection with the origin at the top-left corner.
func (s *Service) AdjustProjection(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.width, s.height = width, height
	s.drv.Viewport(width, height)
	s.projection = mgl32.Ortho2D(0, float32(width), float32(height), 0)
	s.camera.SetViewport(width, height)
}

// BeginFrame clears the surface and opens a new batch.
func (s *Service) BeginFrame() {
	c := s.clearColor
	s.drv.Clear(c[0], c[1], c[2], c[3])
	s.batch.reset()
	s.frame = Stats{}
}

// RenderScene lets the scene submit its quads.
func (s *Service) RenderScene(sc scene.Scene, f scene.Frame) {
	if d, ok := sc.(scene.Drawer); ok {
		d.Draw(s, f)
	}
}

// EndFrame flushes the batch to the driver.
func (s *Service) EndFrame() {
	s.frame.Quads = len(s.batch.quads)
	s.frame.DrawCalls = s.batch.flush(func(texture gpu.Handle, vertices []float32) {
		s.drv.DrawQuads(s.sprite, texture, vertices, s.projection)
	})
	s.stats = s.frame
}

// Draw queues a quad for the current frame. Quads without a live texture
// are dropped.
func (s *Service) Draw(q scene.Quad) {
	if q.Texture == nil || q.Texture.Released() {
		s.frame.Dropped++
		return
	}
	s.batch.add(q)
}

func (s *Service) Viewport() (int, int)       { return s.width, s.height }
func (s *Service) Camera() *scene.Camera      { return s.camera }
func (s *Service) Projection() mgl32.Mat4     { return s.projection }
func (s *Service) Stats() Stats               { return s.stats }
func (s *Service) Driver() gpu.Driver         { return s.drv }
func (s *Service) ClearColor() mgl32.Vec4     { return s.clearColor }
func (s *Service) SetClearColor(c mgl32.Vec4) { s.clearColor = c }
