package animation

import (
	"image"
	"testing"

	"isoengine/internal/assets"
	"isoengine/internal/gpu/gputest"
	"isoengine/internal/sprites"
	"isoengine/internal/system"
	"isoengine/internal/texture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaded(t *testing.T) (*Library, *sprites.Library) {
	t.Helper()
	drv := gputest.New()
	reg := system.NewRegistry()
	require.NoError(t, reg.Register(assets.NewProvider(drv, t.TempDir(), nil)))
	sl := sprites.NewLibrary(nil)
	require.NoError(t, reg.Register(sl))
	al := NewLibrary(nil)
	require.NoError(t, reg.Register(al))
	require.NoError(t, reg.LoadAll())

	tex, err := texture.New(drv, image.NewRGBA(image.Rect(0, 0, 64, 16)), true)
	require.NoError(t, err)
	_, err = sl.Add("walker", tex, 16, 16)
	require.NoError(t, err)
	return al, sl
}

func TestFrameAt(t *testing.T) {
	al, _ := loaded(t)
	require.NoError(t, al.Define(Schematic{Name: "walk", Sprite: "walker", Frames: []int{0, 1, 2, 3}, FrameTime: 0.1, Loop: true}))
	require.NoError(t, al.Define(Schematic{Name: "die", Sprite: "walker", Frames: []int{3, 2}, FrameTime: 0.25}))

	tests := []struct {
		name string
		anim string
		t    float64
		want int
	}{
		{"start", "walk", 0, 0},
		{"mid", "walk", 0.25, 2},
		{"exact boundary", "walk", 0.3, 3},
		{"wraps", "walk", 0.4, 0},
		{"wraps twice", "walk", 0.95, 1},
		{"negative time", "walk", -1, 0},
		{"once first", "die", 0.1, 3},
		{"once second", "die", 0.3, 2},
		{"once clamps", "die", 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := al.FrameAt(tt.anim, tt.t)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := al.FrameAt("fly", 0)
	assert.ErrorIs(t, err, ErrUnknownAnimation)
}

func TestDefineValidation(t *testing.T) {
	al, _ := loaded(t)

	assert.ErrorIs(t, al.Define(Schematic{Name: "x", Frames: nil, FrameTime: 1}), ErrInvalidSchematic)
	assert.ErrorIs(t, al.Define(Schematic{Name: "x", Frames: []int{0}}), ErrInvalidSchematic)
	assert.ErrorIs(t, al.Define(Schematic{Name: "x", Sprite: "walker", Frames: []int{4}, FrameTime: 1}), ErrInvalidSchematic)
	assert.ErrorIs(t, al.Define(Schematic{Name: "x", Sprite: "ghost", Frames: []int{0}, FrameTime: 1}), sprites.ErrSpriteNotFound)

	frames := []int{0, 1}
	require.NoError(t, al.Define(Schematic{Name: "idle", Sprite: "walker", Frames: frames, FrameTime: 1}))
	frames[0] = 3
	s, err := al.Schematic("idle")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, s.Frames)
	assert.Equal(t, 2.0, s.Duration())

	assert.ErrorIs(t, al.Define(s), ErrDuplicateAnimation)

	assert.True(t, al.Remove("idle"))
	assert.False(t, al.Remove("idle"))
	require.NoError(t, al.Define(s), "a removed name can be defined again")
}

func TestQuadUsesSpriteFrame(t *testing.T) {
	al, sl := loaded(t)
	require.NoError(t, al.Define(Schematic{Name: "walk", Sprite: "walker", Frames: []int{1, 2}, FrameTime: 0.5, Loop: true}))

	q, err := al.Quad("walk", 0.6, 0, 0, 1)
	require.NoError(t, err)
	sp, err := sl.Sprite("walker")
	require.NoError(t, err)
	assert.Equal(t, sp.Frame(2), q.Src)

	require.NoError(t, al.Unload())
	_, err = al.Quad("walk", 0, 0, 0, 1)
	assert.ErrorIs(t, err, ErrUnknownAnimation)
}
