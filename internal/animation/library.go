// Package animation defines frame sequences over sprite sheets and resolves
// the frame to show at a point in time.
package animation

import (
	"errors"
	"fmt"
	"math"

	"isoengine/internal/scene"
	"isoengine/internal/sprites"
	"isoengine/internal/system"

	"go.uber.org/zap"
)

var (
	ErrUnknownAnimation   = errors.New("animation: unknown schematic")
	ErrDuplicateAnimation = errors.New("animation: schematic already defined")
	ErrInvalidSchematic   = errors.New("animation: invalid schematic")
)

// Schematic describes an animation: which frames of a sprite to show and
// for how long each one stays on screen.
type Schematic struct {
	Name      string
	Sprite    string
	Frames    []int
	FrameTime float64
	Loop      bool
}

// Duration is the length of one pass through the frames.
func (s Schematic) Duration() float64 { return float64(len(s.Frames)) * s.FrameTime }

// Library is the animation capability.
type Library struct {
	system.Base

	sprites    *sprites.Library
	schematics map[string]Schematic
	log        *zap.Logger
}

func NewLibrary(log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	return &Library{
		Base:       system.NewBase(system.Animation),
		schematics: make(map[string]Schematic),
		log:        log,
	}
}

func (l *Library) Load(h system.Host) error {
	s, err := system.Get[*sprites.Library](h, system.Sprites)
	if err != nil {
		return err
	}
	l.sprites = s
	return nil
}

func (l *Library) Unload() error {
	l.schematics = make(map[string]Schematic)
	return nil
}

// Define registers a schematic. Frame indices are checked against the
// sprite when the sprite library knows it.
func (l *Library) Define(s Schematic) error {
	if s.Name == "" || len(s.Frames) == 0 || s.FrameTime <= 0 {
		return fmt.Errorf("%w: %q needs a name, frames and a positive frame time", ErrInvalidSchematic, s.Name)
	}
	if _, ok := l.schematics[s.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAnimation, s.Name)
	}
	if l.sprites != nil && s.Sprite != "" {
		sp, err := l.sprites.Sprite(s.Sprite)
		if err != nil {
			return err
		}
		for _, f := range s.Frames {
			if f < 0 || f >= sp.Frames() {
				return fmt.Errorf("%w: %s frame %d outside sprite %s", ErrInvalidSchematic, s.Name, f, s.Sprite)
			}
		}
	}
	s.Frames = append([]int(nil), s.Frames...)
	l.schematics[s.Name] = s
	l.log.Debug("animation defined", zap.String("animation", s.Name), zap.Int("frames", len(s.Frames)))
	return nil
}

// Schematic returns the schematic registered under name.
func (l *Library) Schematic(name string) (Schematic, error) {
	s, ok := l.schematics[name]
	if !ok {
		return Schematic{}, fmt.Errorf("%w: %s", ErrUnknownAnimation, name)
	}
	return s, nil
}

// Remove forgets a schematic and reports whether it was defined.
func (l *Library) Remove(name string) bool {
	_, ok := l.schematics[name]
	delete(l.schematics, name)
	return ok
}

// FrameAt returns the sprite frame index shown t seconds after the
// animation started. Looping animations wrap; others hold the last frame.
func (l *Library) FrameAt(name string, t float64) (int, error) {
	s, err := l.Schematic(name)
	if err != nil {
		return 0, err
	}
	return s.Frames[s.step(t)], nil
}

func (s Schematic) step(t float64) int {
	if t < 0 {
		t = 0
	}
	n := len(s.Frames)
	i := int(math.Floor(t/s.FrameTime + 1e-9))
	if s.Loop {
		return i % n
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Quad resolves the frame at t and builds a quad for it through the sprite
// library.
func (l *Library) Quad(name string, t float64, x, y, scale float32) (scene.Quad, error) {
	s, err := l.Schematic(name)
	if err != nil {
		return scene.Quad{}, err
	}
	if l.sprites == nil {
		return scene.Quad{}, fmt.Errorf("animation %s: %w", name, system.ErrCapabilityNotFound)
	}
	sp, err := l.sprites.Sprite(s.Sprite)
	if err != nil {
		return scene.Quad{}, err
	}
	return sp.Quad(s.Frames[s.step(t)], x, y, scale), nil
}
