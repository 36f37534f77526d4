package texture

import (
	"image"
	"sync"

	"isoengine/internal/gpu"
)

// Pool is a scope of texture ownership. Everything acquired through a pool
// is released by ReleaseAll, typically when the owning scene or system is
// torn down.
type Pool struct {
	drv gpu.Driver

	mu       sync.Mutex
	textures map[*Texture]struct{}
}

// NewPool creates an empty pool that uploads through drv.
func NewPool(drv gpu.Driver) *Pool {
	return &Pool{
		drv:      drv,
		textures: make(map[*Texture]struct{}),
	}
}

// Acquire uploads img and tracks the resulting texture.
func (p *Pool) Acquire(img image.Image, pixelated bool) (*Texture, error) {
	t, err := FromImage(p.drv, img, pixelated)
	if err != nil {
		return nil, err
	}
	p.Adopt(t)
	return t, nil
}

// Adopt transfers ownership of t to the pool.
func (p *Pool) Adopt(t *Texture) {
	p.mu.Lock()
	p.textures[t] = struct{}{}
	p.mu.Unlock()
}

// Release frees t if the pool owns it.
func (p *Pool) Release(t *Texture) {
	p.mu.Lock()
	_, ok := p.textures[t]
	delete(p.textures, t)
	p.mu.Unlock()
	if ok {
		t.Release()
	}
}

// ReleaseAll frees every texture the pool owns.
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	owned := p.textures
	p.textures = make(map[*Texture]struct{})
	p.mu.Unlock()

	for t := range owned {
		t.Release()
	}
}

// Live returns the number of textures still owned.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.textures)
}

// Driver returns the driver the pool uploads through.
func (p *Pool) Driver() gpu.Driver { return p.drv }
