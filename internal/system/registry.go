package system

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registry owns the ordered set of systems and drives their lifecycle.
// It is not safe for concurrent use; registration and lookup happen on the
// engine's control thread.
type Registry struct {
	systems []System
	index   map[Capability]int

	loading       bool
	reverseUnload bool
	log           *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithReverseUnload makes UnloadAll walk systems from last registered to
// first.
func WithReverseUnload() Option {
	return func(r *Registry) { r.reverseUnload = true }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		index: make(map[Capability]int),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends s to the registry. It fails if the capability is taken
// or if LoadAll has already started.
func (r *Registry) Register(s System) error {
	if s == nil {
		return ErrNilSystem
	}
	if r.loading {
		return fmt.Errorf("register %q: %w", s.Capability(), ErrRegistrationClosed)
	}
	c := s.Capability()
	if _, ok := r.index[c]; ok {
		return &DuplicateCapabilityError{Capability: c}
	}
	r.index[c] = len(r.systems)
	r.systems = append(r.systems, s)
	r.log.Debug("system registered", zap.String("capability", string(c)), zap.Int("position", len(r.systems)-1))
	return nil
}

// LoadAll loads every system in registration order. It runs once; when a
// system fails to load, the systems already loaded are unloaded again and
// the load error is returned.
func (r *Registry) LoadAll() error {
	if r.loading {
		return ErrAlreadyLoaded
	}
	r.loading = true

	for i, s := range r.systems {
		if err := s.Load(r); err != nil {
			err = fmt.Errorf("load %q: %w", s.Capability(), err)
			r.log.Error("system load failed", zap.String("capability", string(s.Capability())), zap.Error(err))
			return multierr.Append(err, r.unload(r.systems[:i]))
		}
		r.log.Debug("system loaded", zap.String("capability", string(s.Capability())))
	}
	return nil
}

// System returns the accessible system registered for c.
func (r *Registry) System(c Capability) (System, error) {
	i, ok := r.index[c]
	if !ok {
		return nil, &CapabilityNotFoundError{Capability: c}
	}
	s := r.systems[i]
	if !s.Accessible() {
		return nil, &CapabilityNotFoundError{Capability: c, Reason: "not accessible"}
	}
	return s, nil
}

// UnloadAll unloads every registered system exactly once. A failing Unload
// does not stop the remaining ones; all failures are returned together.
func (r *Registry) UnloadAll() error {
	return r.unload(r.systems)
}

func (r *Registry) unload(systems []System) error {
	var errs error
	n := len(systems)
	for i := 0; i < n; i++ {
		s := systems[i]
		if r.reverseUnload {
			s = systems[n-1-i]
		}
		if err := s.Unload(); err != nil {
			r.log.Warn("system unload failed", zap.String("capability", string(s.Capability())), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("unload %q: %w", s.Capability(), err))
			continue
		}
		r.log.Debug("system unloaded", zap.String("capability", string(s.Capability())))
	}
	return errs
}

// Len returns the number of registered systems.
func (r *Registry) Len() int { return len(r.systems) }

// Capabilities returns the registered capabilities in registration order.
func (r *Registry) Capabilities() []Capability {
	out := make([]Capability, len(r.systems))
	for i, s := range r.systems {
		out[i] = s.Capability()
	}
	return out
}
