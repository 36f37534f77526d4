// Package demo holds the scene shown by the isoengine binary: a pannable
// isometric grid of pulsing tiles with a text overlay.
package demo

import (
	"fmt"
	"image"
	"image/color"

	"isoengine/internal/animation"
	"isoengine/internal/assets"
	"isoengine/internal/input"
	"isoengine/internal/render"
	"isoengine/internal/scene"
	"isoengine/internal/sprites"
	"isoengine/internal/system"
	"isoengine/internal/text"
	"isoengine/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	tileSprite = "demo.tile"
	pulseAnim  = "demo.pulse"
	panSpeed   = 240 // world pixels per second
)

// Demo actions.
const (
	ActionPanLeft input.Action = iota + 1
	ActionPanRight
	ActionPanUp
	ActionPanDown
	ActionQuit
)

// Grid is a size x size isometric board. Each grid registers its sprite and
// animation under its own names so a new grid can be built while the
// previous one is still active.
type Grid struct {
	size   int
	sprite string
	anim   string

	pool    *texture.Pool
	sprites *sprites.Library
	anims   *animation.Library
	text    *text.Displayer
	input   *input.Manager
	camera  *scene.Camera

	visible []scene.Quad
	elapsed float64
	quit    func()
}

// Factory returns a scene factory for a grid of the given size. quit is
// called when the quit action fires; it may be nil.
func Factory(size int, quit func()) scene.Factory {
	return func(h system.Host) (scene.Scene, error) {
		return NewGrid(h, size, quit)
	}
}

// NewGrid builds the grid and uploads its tile sheet into a pool released
// by Dispose.
func NewGrid(h system.Host, size int, quit func()) (*Grid, error) {
	a, err := system.Get[*assets.Provider](h, system.Assets)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	g := &Grid{
		size:   size,
		sprite: tileSprite + "/" + id,
		anim:   pulseAnim + "/" + id,
		pool:   texture.NewPool(a.Pool().Driver()),
		quit:   quit,
	}
	if g.sprites, err = system.Get[*sprites.Library](h, system.Sprites); err != nil {
		return nil, err
	}
	if g.anims, err = system.Get[*animation.Library](h, system.Animation); err != nil {
		return nil, err
	}
	if g.text, err = system.Get[*text.Displayer](h, system.Text); err != nil {
		return nil, err
	}
	if g.input, err = system.Get[*input.Manager](h, system.Input); err != nil {
		return nil, err
	}
	r, err := system.Get[*render.Service](h, system.Render)
	if err != nil {
		return nil, err
	}
	g.camera = r.Camera()

	tex, err := g.pool.Acquire(tileSheet(int(g.camera.TileWidth), int(g.camera.TileHeight)), true)
	if err != nil {
		return nil, err
	}
	if _, err := g.sprites.Add(g.sprite, tex, int(g.camera.TileWidth), int(g.camera.TileHeight)); err != nil {
		g.pool.ReleaseAll()
		return nil, err
	}
	if err := g.anims.Define(animation.Schematic{
		Name:      g.anim,
		Sprite:    g.sprite,
		Frames:    []int{0, 1},
		FrameTime: 0.5,
		Loop:      true,
	}); err != nil {
		g.Dispose()
		return nil, err
	}

	g.input.BindKey(input.KeyLeft, ActionPanLeft)
	g.input.BindKey(input.KeyA, ActionPanLeft)
	g.input.BindKey(input.KeyRight, ActionPanRight)
	g.input.BindKey(input.KeyD, ActionPanRight)
	g.input.BindKey(input.KeyUp, ActionPanUp)
	g.input.BindKey(input.KeyW, ActionPanUp)
	g.input.BindKey(input.KeyDown, ActionPanDown)
	g.input.BindKey(input.KeyS, ActionPanDown)
	g.input.BindKey(input.KeyEscape, ActionQuit)

	// Center on the middle tile
	g.camera.Position = g.camera.IsoToWorld(mgl32.Vec2{float32(size) / 2, float32(size) / 2})
	return g, nil
}

// tileSheet draws two diamond frames side by side.
func tileSheet(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2*w, h))
	shades := []color.NRGBA{
		{R: 0x4c, G: 0x8c, B: 0x4a, A: 0xff},
		{R: 0x5f, G: 0xa8, B: 0x5c, A: 0xff},
	}
	hw, hh := float64(w)/2, float64(h)/2
	for frame, c := range shades {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dx := (float64(x) + 0.5 - hw) / hw
				dy := (float64(y) + 0.5 - hh) / hh
				if dx < 0 {
					dx = -dx
				}
				if dy < 0 {
					dy = -dy
				}
				if dx+dy <= 1 {
					img.SetNRGBA(frame*w+x, y, c)
				}
			}
		}
	}
	return img
}

func (g *Grid) Rescale(width, height int) {
	g.camera.SetViewport(width, height)
}

func (g *Grid) Update(f scene.Frame) error {
	g.elapsed = f.Time
	step := float32(panSpeed * f.Delta)
	var move mgl32.Vec2
	if g.input.IsActive(ActionPanLeft) {
		move[0] -= step
	}
	if g.input.IsActive(ActionPanRight) {
		move[0] += step
	}
	if g.input.IsActive(ActionPanUp) {
		move[1] -= step
	}
	if g.input.IsActive(ActionPanDown) {
		move[1] += step
	}
	g.camera.Position = g.camera.Position.Add(move)

	if g.input.JustPressed(ActionQuit) && g.quit != nil {
		g.quit()
	}
	return nil
}

// BeginRender culls the board to the viewport and resolves each tile's
// animation frame.
func (g *Grid) BeginRender(r scene.Renderer) {
	g.visible = g.visible[:0]
	cam := r.Camera()
	zoom := cam.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	tw, th := cam.TileWidth, cam.TileHeight
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			world := cam.IsoToWorld(mgl32.Vec2{float32(x), float32(y)})
			rect := mgl32.Vec4{world.X() - tw/2, world.Y(), tw, th}
			if !cam.Visible(rect) {
				continue
			}
			offset := float64(x+y) * 0.1
			q, err := g.anims.Quad(g.anim, g.elapsed+offset, 0, 0, zoom)
			if err != nil {
				continue
			}
			screen := cam.WorldToScreen(mgl32.Vec2{rect[0], rect[1]})
			q.Dst[0], q.Dst[1] = screen.X(), screen.Y()
			q.Depth = float32(x + y)
			g.visible = append(g.visible, q)
		}
	}
}

func (g *Grid) Draw(r scene.Renderer, f scene.Frame) {
	for _, q := range g.visible {
		r.Draw(q)
	}
	overlay := fmt.Sprintf("t=%.1fs tiles=%d", f.Time, len(g.visible))
	g.text.Draw(r, overlay, 8, 8, 1, scene.White, float32(2*g.size))
}

// Visible returns the number of tiles that survived culling last frame.
func (g *Grid) Visible() int { return len(g.visible) }

// Dispose drops the tile sprite and animation and releases the sheet.
func (g *Grid) Dispose() error {
	g.anims.Remove(g.anim)
	g.sprites.Remove(g.sprite)
	g.pool.ReleaseAll()
	return nil
}
