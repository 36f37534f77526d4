package system

// Capability identifies the single functional role a system fulfills.
// At most one system per capability can be registered with a Registry.
type Capability string

// Built-in capabilities, in the order the engine registers them.
const (
	Assets    Capability = "assets"
	Sprites   Capability = "sprites"
	Render    Capability = "render"
	Text      Capability = "text"
	Input     Capability = "input"
	Animation Capability = "animation"
	Scenes    Capability = "scenes"
)

// System is a self-contained engine subsystem.
//
// Systems are constructed and registered first, then loaded in registration
// order. Load receives the Host so a system can resolve the siblings
// registered before or after it.
type System interface {
	Capability() Capability
	// Accessible reports whether generic lookup may return this system.
	Accessible() bool
	Load(h Host) error
	Unload() error
}

// Host resolves registered systems by capability.
type Host interface {
	System(c Capability) (System, error)
}

// Get resolves a system and asserts its concrete type.
func Get[T System](h Host, c Capability) (T, error) {
	var zero T
	s, err := h.System(c)
	if err != nil {
		return zero, err
	}
	t, ok := s.(T)
	if !ok {
		return zero, &CapabilityNotFoundError{Capability: c, Reason: "type mismatch"}
	}
	return t, nil
}

// Base carries the capability tag and accessibility flag shared by every
// built-in system. Embed it and override Load/Unload as needed.
type Base struct {
	capability Capability
	hidden     bool
}

// NewBase returns a Base for the given capability, accessible by default.
func NewBase(c Capability) Base {
	return Base{capability: c}
}

// Capability returns the capability tag.
func (b *Base) Capability() Capability { return b.capability }

// Accessible reports whether lookup is permitted.
func (b *Base) Accessible() bool { return !b.hidden }

// SetAccessible toggles lookup visibility.
func (b *Base) SetAccessible(v bool) { b.hidden = !v }
