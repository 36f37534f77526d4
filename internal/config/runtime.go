package config

import "sync"

// Runtime holds settings that may change while the engine runs, for
// example from an options scene. Safe for concurrent use.
type Runtime struct {
	mu       sync.RWMutex
	fpsLimit int
	paused   bool
}

// NewRuntime seeds the live settings from the window configuration.
func NewRuntime(w Window) *Runtime {
	r := &Runtime{}
	r.SetFPSLimit(w.FPSLimit)
	return r
}

// FPSLimit returns the current frame cap; 0 means uncapped.
func (r *Runtime) FPSLimit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fpsLimit
}

// SetFPSLimit sets the frame cap. Values below 0 disable the cap and
// positive values are clamped to 10..1000.
func (r *Runtime) SetFPSLimit(limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case limit <= 0:
		limit = 0
	case limit < 10:
		limit = 10
	case limit > 1000:
		limit = 1000
	}
	r.fpsLimit = limit
}

// Paused reports whether the loop should skip updates.
func (r *Runtime) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

func (r *Runtime) SetPaused(p bool) {
	r.mu.Lock()
	r.paused = p
	r.mu.Unlock()
}
