// Package text bakes a glyph atlas and lays strings out as textured quads.
package text

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"
	"unicode"

	"isoengine/internal/assets"
	"isoengine/internal/scene"
	"isoengine/internal/system"
	"isoengine/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	firstRune = rune(32)
	lastRune  = rune(126)
	atlasW    = 256
	padding   = 1
)

// glyph places one character in the atlas.
type glyph struct {
	// Atlas rectangle in pixels.
	x, y, w, h int
	// Offset of the bitmap from the pen position on the baseline.
	bearingX, bearingY float32
	advance            float32
}

// Displayer is the text capability.
type Displayer struct {
	system.Base

	fontPath string
	fontSize float64
	log      *zap.Logger

	pool       *texture.Pool
	atlas      *texture.Texture
	glyphs     map[rune]glyph
	ascent     float32
	lineHeight float32
}

// Option configures a Displayer.
type Option func(*Displayer)

// WithFont uses a TrueType or OpenType font file at the given pixel size
// instead of the built-in bitmap face.
func WithFont(path string, size float64) Option {
	return func(d *Displayer) {
		d.fontPath = path
		d.fontSize = size
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Displayer) {
		if l != nil {
			d.log = l
		}
	}
}

func NewDisplayer(opts ...Option) *Displayer {
	d := &Displayer{
		Base:     system.NewBase(system.Text),
		fontSize: 16,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load bakes the atlas and uploads it through the asset provider, which
// owns the texture from then on.
func (d *Displayer) Load(h system.Host) error {
	a, err := system.Get[*assets.Provider](h, system.Assets)
	if err != nil {
		return err
	}

	face, err := d.face(a)
	if err != nil {
		return err
	}
	defer func() { _ = face.Close() }()

	img, glyphs := bake(face)
	tex, err := a.Pool().Acquire(img, false)
	if err != nil {
		return fmt.Errorf("upload glyph atlas: %w", err)
	}

	m := face.Metrics()
	d.pool = a.Pool()
	d.atlas = tex
	d.glyphs = glyphs
	d.ascent = float32(m.Ascent.Ceil())
	d.lineHeight = float32(m.Height.Ceil())
	d.log.Debug("glyph atlas baked",
		zap.Int("glyphs", len(glyphs)),
		zap.Int("width", tex.Width()),
		zap.Int("height", tex.Height()))
	return nil
}

func (d *Displayer) Unload() error {
	if d.pool != nil && d.atlas != nil {
		d.pool.Release(d.atlas)
	}
	d.atlas = nil
	d.glyphs = nil
	return nil
}

func (d *Displayer) face(a *assets.Provider) (font.Face, error) {
	if d.fontPath == "" {
		return basicfont.Face7x13, nil
	}
	fontBytes, err := os.ReadFile(a.Path(d.fontPath))
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: d.fontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// bake renders printable ASCII into a white atlas whose alpha carries the
// glyph coverage, packed in rows.
func bake(face font.Face) (*image.NRGBA, map[rune]glyph) {
	glyphs := make(map[rune]glyph, int(lastRune-firstRune)+1)

	type placed struct {
		r     rune
		g     glyph
		mask  image.Image
		maskp image.Point
	}
	var all []placed
	x, y, rowH := 0, 0, 0
	for r := firstRune; r <= lastRune; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok {
			continue
		}
		g := glyph{
			w:        dr.Dx(),
			h:        dr.Dy(),
			bearingX: float32(dr.Min.X),
			bearingY: float32(dr.Min.Y),
			advance:  float32(math.Round(float64(advance) / 64.0)),
		}
		if g.w > 0 && g.h > 0 {
			if x+g.w > atlasW {
				x = 0
				y += rowH + padding
				rowH = 0
			}
			g.x, g.y = x, y
			x += g.w + padding
			if g.h > rowH {
				rowH = g.h
			}
		}
		glyphs[r] = g
		all = append(all, placed{r: r, g: g, mask: mask, maskp: maskp})
	}

	atlasH := y + rowH
	if atlasH == 0 {
		atlasH = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, atlasW, atlasH))
	for _, p := range all {
		if p.g.w == 0 || p.g.h == 0 || p.mask == nil {
			continue
		}
		dst := image.Rect(p.g.x, p.g.y, p.g.x+p.g.w, p.g.y+p.g.h)
		draw.DrawMask(img, dst, image.White, image.Point{}, p.mask, p.maskp, draw.Over)
	}
	return img, glyphs
}

// Atlas returns the glyph atlas texture, nil before Load.
func (d *Displayer) Atlas() *texture.Texture { return d.atlas }

// LineHeight returns the unscaled distance between baselines.
func (d *Displayer) LineHeight() float32 { return d.lineHeight }

func (d *Displayer) advance(r rune) float32 {
	if g, ok := d.glyphs[r]; ok {
		return g.advance
	}
	return d.glyphs[' '].advance
}

// Measure returns the size of s at the given scale. Lines are split on '\n'.
func (d *Displayer) Measure(s string, scale float32) (float32, float32) {
	if s == "" {
		return 0, 0
	}
	var width, line float32
	lines := 1
	for _, r := range s {
		if r == '\n' {
			lines++
			line = 0
			continue
		}
		line += d.advance(r) * scale
		if line > width {
			width = line
		}
	}
	return width, float32(lines) * d.lineHeight * scale
}

// Layout returns one quad per visible glyph of s with the top-left corner of
// the first line at (x, y). Runes outside the atlas advance like a space.
func (d *Displayer) Layout(s string, x, y, scale float32, tint mgl32.Vec4) []scene.Quad {
	if d.atlas == nil {
		return nil
	}
	aw, ah := float32(d.atlas.Width()), float32(d.atlas.Height())
	quads := make([]scene.Quad, 0, len(s))
	penX, baseline := x, y+d.ascent*scale
	for _, r := range s {
		if r == '\n' {
			penX = x
			baseline += d.lineHeight * scale
			continue
		}
		g, ok := d.glyphs[r]
		if !ok || unicode.IsSpace(r) || g.w == 0 || g.h == 0 {
			penX += d.advance(r) * scale
			continue
		}
		gx, gy := float32(g.x), float32(g.y)
		gw, gh := float32(g.w), float32(g.h)
		quads = append(quads, scene.Quad{
			Texture: d.atlas,
			Src:     mgl32.Vec4{gx / aw, gy / ah, (gx + gw) / aw, (gy + gh) / ah},
			Dst:     mgl32.Vec4{penX + g.bearingX*scale, baseline + g.bearingY*scale, gw * scale, gh * scale},
			Tint:    tint,
		})
		penX += g.advance * scale
	}
	return quads
}

// Draw lays s out and submits it to r at the given depth.
func (d *Displayer) Draw(r scene.Renderer, s string, x, y, scale float32, tint mgl32.Vec4, depth float32) {
	for _, q := range d.Layout(s, x, y, scale, tint) {
		q.Depth = depth
		r.Draw(q)
	}
}
