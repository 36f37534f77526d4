package sprites

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"isoengine/internal/assets"
	"isoengine/internal/gpu/gputest"
	"isoengine/internal/system"
	"isoengine/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedLibrary(t *testing.T, dir string) (*Library, *gputest.Driver) {
	t.Helper()
	drv := gputest.New()
	reg := system.NewRegistry()
	require.NoError(t, reg.Register(assets.NewProvider(drv, dir, nil)))
	lib := NewLibrary(nil)
	require.NoError(t, reg.Register(lib))
	require.NoError(t, reg.LoadAll())
	return lib, drv
}

func TestSheetSlicesFrames(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "walk.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 64, 32))))
	require.NoError(t, f.Close())

	lib, _ := loadedLibrary(t, dir)
	s, err := lib.Sheet("walk", "walk.png", 16, 16, true)
	require.NoError(t, err)

	assert.Equal(t, 8, s.Frames())
	assert.Equal(t, mgl32.Vec4{0, 0, 0.25, 0.5}, s.Frame(0))
	assert.Equal(t, mgl32.Vec4{0.25, 0.5, 0.5, 1}, s.Frame(5))
	assert.Equal(t, s.Frame(0), s.Frame(8))
	assert.Equal(t, s.Frame(7), s.Frame(-1))

	got, err := lib.Sprite("walk")
	require.NoError(t, err)
	assert.Same(t, s, got)

	q := s.Quad(1, 10, 20, 2)
	assert.Equal(t, mgl32.Vec4{10, 20, 32, 32}, q.Dst)
	assert.Same(t, s.Texture, q.Texture)
}

func TestAddValidation(t *testing.T) {
	lib, drv := loadedLibrary(t, t.TempDir())
	tex, err := texture.New(drv, image.NewRGBA(image.Rect(0, 0, 8, 4)), true)
	require.NoError(t, err)

	whole, err := lib.Add("tile", tex, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, whole.Frames())

	_, err = lib.Add("tile", tex, 0, 0)
	assert.ErrorIs(t, err, ErrDuplicateSprite)

	_, err = lib.Add("big", tex, 16, 4)
	assert.ErrorIs(t, err, ErrFrameSize)

	_, err = lib.Sprite("nope")
	assert.ErrorIs(t, err, ErrSpriteNotFound)

	assert.True(t, lib.Remove("tile"))
	assert.False(t, lib.Remove("tile"))
	_, err = lib.Add("tile", tex, 4, 4)
	require.NoError(t, err)

	require.NoError(t, lib.Unload())
	assert.Zero(t, lib.Len())
}

func TestHashCollisionsKeepNamesApart(t *testing.T) {
	lib, drv := loadedLibrary(t, t.TempDir())
	lib.hash = func(string) uint64 { return 42 }
	tex, err := texture.New(drv, image.NewRGBA(image.Rect(0, 0, 8, 4)), true)
	require.NoError(t, err)

	grass, err := lib.Add("grass", tex, 4, 4)
	require.NoError(t, err)
	stone, err := lib.Add("stone", tex, 0, 0)
	require.NoError(t, err, "same hash, different name")
	assert.Equal(t, 2, lib.Len())

	got, err := lib.Sprite("stone")
	require.NoError(t, err)
	assert.Same(t, stone, got)
	_, err = lib.Sprite("water")
	assert.ErrorIs(t, err, ErrSpriteNotFound)

	assert.False(t, lib.Remove("water"))
	assert.True(t, lib.Remove("stone"))
	got, err = lib.Sprite("grass")
	require.NoError(t, err)
	assert.Same(t, grass, got)
	assert.Equal(t, 1, lib.Len())
}

func TestLoadNeedsAssets(t *testing.T) {
	reg := system.NewRegistry()
	require.NoError(t, reg.Register(NewLibrary(nil)))
	assert.ErrorIs(t, reg.LoadAll(), system.ErrCapabilityNotFound)
}
