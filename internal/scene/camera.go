package scene

import "github.com/go-gl/mathgl/mgl32"

// Camera is a 2D camera over an isometric world. Position is the world point
// shown at the center of the viewport.
type Camera struct {
	Position mgl32.Vec2
	Zoom     float32

	// TileWidth and TileHeight are the screen size of one isometric tile at
	// zoom 1.
	TileWidth  float32
	TileHeight float32

	width  int
	height int
}

// NewCamera returns a camera for a viewport with 2:1 isometric tiles.
func NewCamera(width, height int) *Camera {
	return &Camera{
		Zoom:       1,
		TileWidth:  64,
		TileHeight: 32,
		width:      width,
		height:     height,
	}
}

// SetViewport records the viewport size used to center the view.
func (c *Camera) SetViewport(width, height int) {
	c.width = width
	c.height = height
}

// Viewport returns the viewport size.
func (c *Camera) Viewport() (int, int) { return c.width, c.height }

// View maps world pixels to screen pixels.
func (c *Camera) View() mgl32.Mat4 {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	center := mgl32.Translate3D(float32(c.width)/2, float32(c.height)/2, 0)
	scale := mgl32.Scale3D(zoom, zoom, 1)
	offset := mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), 0)
	return center.Mul4(scale).Mul4(offset)
}

// WorldToScreen applies the view to a world point.
func (c *Camera) WorldToScreen(p mgl32.Vec2) mgl32.Vec2 {
	v := c.View().Mul4x1(mgl32.Vec4{p.X(), p.Y(), 0, 1})
	return mgl32.Vec2{v.X(), v.Y()}
}

// ScreenToWorld inverts WorldToScreen.
func (c *Camera) ScreenToWorld(p mgl32.Vec2) mgl32.Vec2 {
	v := c.View().Inv().Mul4x1(mgl32.Vec4{p.X(), p.Y(), 0, 1})
	return mgl32.Vec2{v.X(), v.Y()}
}

// IsoToWorld projects tile coordinates onto the world plane.
func (c *Camera) IsoToWorld(tile mgl32.Vec2) mgl32.Vec2 {
	hw, hh := c.TileWidth/2, c.TileHeight/2
	return mgl32.Vec2{
		(tile.X() - tile.Y()) * hw,
		(tile.X() + tile.Y()) * hh,
	}
}

// WorldToIso inverts IsoToWorld.
func (c *Camera) WorldToIso(p mgl32.Vec2) mgl32.Vec2 {
	hw, hh := c.TileWidth/2, c.TileHeight/2
	a, b := p.X()/hw, p.Y()/hh
	return mgl32.Vec2{(a + b) / 2, (b - a) / 2}
}

// Visible reports whether a world-space rectangle (x, y, w, h) intersects
// the viewport.
func (c *Camera) Visible(rect mgl32.Vec4) bool {
	lo := c.WorldToScreen(mgl32.Vec2{rect[0], rect[1]})
	hi := c.WorldToScreen(mgl32.Vec2{rect[0] + rect[2], rect[1] + rect[3]})
	return hi.X() >= 0 && hi.Y() >= 0 && lo.X() <= float32(c.width) && lo.Y() <= float32(c.height)
}
