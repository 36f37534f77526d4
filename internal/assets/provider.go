// Package assets is the asset loading capability. It decodes images from
// the assets directory and turns them into textures it owns.
package assets

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"isoengine/internal/gpu"
	"isoengine/internal/system"
	"isoengine/internal/texture"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Provider is the asset capability. Textures are cached by their path
// relative to the assets directory and released on Unload.
type Provider struct {
	system.Base

	dir  string
	pool *texture.Pool
	log  *zap.Logger

	mu    sync.RWMutex
	cache map[string]*texture.Texture

	decoders int
}

// NewProvider creates a provider rooted at dir.
func NewProvider(drv gpu.Driver, dir string, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		Base:     system.NewBase(system.Assets),
		dir:      dir,
		pool:     texture.NewPool(drv),
		log:      log,
		cache:    make(map[string]*texture.Texture),
		decoders: 4,
	}
}

func (p *Provider) Load(system.Host) error {
	info, err := os.Stat(p.dir)
	if err != nil {
		p.log.Warn("assets directory unavailable", zap.String("dir", p.dir), zap.Error(err))
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", p.dir)
	}
	return nil
}

// Unload releases every texture the provider created.
func (p *Provider) Unload() error {
	p.mu.Lock()
	p.cache = make(map[string]*texture.Texture)
	p.mu.Unlock()
	p.pool.ReleaseAll()
	return nil
}

// Dir returns the assets directory.
func (p *Provider) Dir() string { return p.dir }

// Path resolves rel against the assets directory.
func (p *Provider) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

// Decode reads and decodes an image file.
func (p *Provider) Decode(rel string) (image.Image, error) {
	path := p.Path(rel)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// Texture returns the cached texture for rel, loading it on first use.
// Must be called on the thread that owns the graphics context.
func (p *Provider) Texture(rel string, pixelated bool) (*texture.Texture, error) {
	if tex, ok := p.cached(rel); ok {
		return tex, nil
	}
	img, err := p.Decode(rel)
	if err != nil {
		return nil, err
	}
	return p.upload(rel, img, pixelated)
}

// Preload decodes every file in parallel, then uploads them in order on the
// calling thread. Already cached paths are skipped. The returned textures
// follow the order of rels.
func (p *Provider) Preload(ctx context.Context, rels []string, pixelated bool) ([]*texture.Texture, error) {
	images := make([]image.Image, len(rels))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.decoders)
	for i, rel := range rels {
		if _, ok := p.cached(rel); ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := p.Decode(rel)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*texture.Texture, len(rels))
	for i, rel := range rels {
		if tex, ok := p.cached(rel); ok {
			out[i] = tex
			continue
		}
		tex, err := p.upload(rel, images[i], pixelated)
		if err != nil {
			return nil, err
		}
		out[i] = tex
	}
	p.log.Debug("assets preloaded", zap.Int("count", len(rels)))
	return out, nil
}

// Adopt hands a texture created elsewhere to the provider's pool so it is
// released with the provider.
func (p *Provider) Adopt(t *texture.Texture) { p.pool.Adopt(t) }

// Pool exposes the provider's texture scope.
func (p *Provider) Pool() *texture.Pool { return p.pool }

// Loaded returns the number of live textures owned by the provider.
func (p *Provider) Loaded() int { return p.pool.Live() }

func (p *Provider) cached(rel string) (*texture.Texture, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tex, ok := p.cache[rel]
	return tex, ok
}

func (p *Provider) upload(rel string, img image.Image, pixelated bool) (*texture.Texture, error) {
	tex, err := p.pool.Acquire(img, pixelated)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", rel, err)
	}
	p.mu.Lock()
	p.cache[rel] = tex
	p.mu.Unlock()
	p.log.Debug("texture loaded", zap.String("path", rel), zap.Int("width", tex.Width()), zap.Int("height", tex.Height()))
	return tex, nil
}
