// Package sprites indexes sprite sheets: textures sliced into equally sized
// frames addressed by name.
package sprites

import (
	"errors"
	"fmt"

	"isoengine/internal/assets"
	"isoengine/internal/scene"
	"isoengine/internal/system"
	"isoengine/internal/texture"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var (
	ErrSpriteNotFound  = errors.New("sprites: sprite not found")
	ErrDuplicateSprite = errors.New("sprites: sprite already registered")
	ErrFrameSize       = errors.New("sprites: invalid frame size")
)

// Sprite is a named sheet of frames on one texture.
type Sprite struct {
	Name        string
	Texture     *texture.Texture
	FrameWidth  int
	FrameHeight int
	// frames holds UV rectangles (u0, v0, u1, v1), row-major.
	frames []mgl32.Vec4
}

// Frames returns the number of frames in the sheet.
func (s *Sprite) Frames() int { return len(s.frames) }

// Frame returns the UV rectangle of frame i, wrapping out of range indices.
func (s *Sprite) Frame(i int) mgl32.Vec4 {
	n := len(s.frames)
	i %= n
	if i < 0 {
		i += n
	}
	return s.frames[i]
}

// Quad builds a quad drawing frame i with its top-left corner at (x, y).
func (s *Sprite) Quad(i int, x, y, scale float32) scene.Quad {
	return scene.Quad{
		Texture: s.Texture,
		Src:     s.Frame(i),
		Dst:     mgl32.Vec4{x, y, float32(s.FrameWidth) * scale, float32(s.FrameHeight) * scale},
		Tint:    scene.White,
	}
}

// Library is the sprite indexing capability.
type Library struct {
	system.Base

	assets *assets.Provider
	// Sprites are bucketed by name hash; names are compared within a bucket.
	sprites map[uint64][]*Sprite
	count   int
	hash    func(string) uint64
	log     *zap.Logger
}

// NewLibrary creates an empty library.
func NewLibrary(log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	return &Library{
		Base:    system.NewBase(system.Sprites),
		sprites: make(map[uint64][]*Sprite),
		hash:    xxhash.Sum64String,
		log:     log,
	}
}

func (l *Library) Load(h system.Host) error {
	a, err := system.Get[*assets.Provider](h, system.Assets)
	if err != nil {
		return err
	}
	l.assets = a
	return nil
}

// Unload forgets every sprite. Textures belong to the asset provider.
func (l *Library) Unload() error {
	l.sprites = make(map[uint64][]*Sprite)
	l.count = 0
	return nil
}

// Sheet loads rel through the asset provider and registers it under name,
// sliced into frameW x frameH frames.
func (l *Library) Sheet(name, rel string, frameW, frameH int, pixelated bool) (*Sprite, error) {
	if l.assets == nil {
		return nil, fmt.Errorf("sheet %s: %w", name, system.ErrCapabilityNotFound)
	}
	tex, err := l.assets.Texture(rel, pixelated)
	if err != nil {
		return nil, err
	}
	return l.Add(name, tex, frameW, frameH)
}

// Add registers an already uploaded texture. A zero frame size uses the
// whole texture as a single frame.
func (l *Library) Add(name string, tex *texture.Texture, frameW, frameH int) (*Sprite, error) {
	key := l.hash(name)
	if l.find(key, name) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSprite, name)
	}
	if frameW == 0 && frameH == 0 {
		frameW, frameH = tex.Width(), tex.Height()
	}
	if frameW <= 0 || frameH <= 0 || frameW > tex.Width() || frameH > tex.Height() {
		return nil, fmt.Errorf("%w: %dx%d on %dx%d texture", ErrFrameSize, frameW, frameH, tex.Width(), tex.Height())
	}

	cols, rows := tex.Width()/frameW, tex.Height()/frameH
	tw, th := float32(tex.Width()), float32(tex.Height())
	frames := make([]mgl32.Vec4, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x, y := float32(c*frameW), float32(r*frameH)
			frames = append(frames, mgl32.Vec4{
				x / tw,
				y / th,
				(x + float32(frameW)) / tw,
				(y + float32(frameH)) / th,
			})
		}
	}

	s := &Sprite{
		Name:        name,
		Texture:     tex,
		FrameWidth:  frameW,
		FrameHeight: frameH,
		frames:      frames,
	}
	l.sprites[key] = append(l.sprites[key], s)
	l.count++
	l.log.Debug("sprite registered", zap.String("sprite", name), zap.Int("frames", len(frames)))
	return s, nil
}

// Sprite looks up a sprite by name.
func (l *Library) Sprite(name string) (*Sprite, error) {
	key := l.hash(name)
	i := l.find(key, name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSpriteNotFound, name)
	}
	return l.sprites[key][i], nil
}

// Len returns the number of registered sprites.
func (l *Library) Len() int { return l.count }

// Remove forgets a sprite. The texture is left to its owner.
func (l *Library) Remove(name string) bool {
	key := l.hash(name)
	i := l.find(key, name)
	if i < 0 {
		return false
	}
	bucket := append(l.sprites[key][:i], l.sprites[key][i+1:]...)
	if len(bucket) == 0 {
		delete(l.sprites, key)
	} else {
		l.sprites[key] = bucket
	}
	l.count--
	return true
}

func (l *Library) find(key uint64, name string) int {
	for i, s := range l.sprites[key] {
		if s.Name == name {
			return i
		}
	}
	return -1
}
