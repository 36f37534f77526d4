// Package input maps physical keys and mouse buttons to logical actions and
// tracks per-frame edges.
package input

import (
	"sync"

	"isoengine/internal/system"
)

// Action is a logical game action, not a physical key. Games define their
// own constants.
type Action int

// Key is a physical keyboard key. Codes match GLFW's so window hosts can
// convert directly.
type Key int

const (
	KeyUnknown      Key = -1
	KeySpace        Key = 32
	Key0            Key = 48
	Key1            Key = 49
	Key2            Key = 50
	Key3            Key = 51
	Key4            Key = 52
	Key5            Key = 53
	Key6            Key = 54
	Key7            Key = 55
	Key8            Key = 56
	Key9            Key = 57
	KeyA            Key = 65
	KeyD            Key = 68
	KeyE            Key = 69
	KeyF            Key = 70
	KeyQ            Key = 81
	KeyS            Key = 83
	KeyW            Key = 87
	KeyEscape       Key = 256
	KeyEnter        Key = 257
	KeyTab          Key = 258
	KeyRight        Key = 262
	KeyLeft         Key = 263
	KeyDown         Key = 264
	KeyUp           Key = 265
	KeyF3           Key = 292
	KeyLeftShift    Key = 340
	KeyLeftControl  Key = 341
	KeyLeftAlt      Key = 342
	KeyRightShift   Key = 344
	KeyRightControl Key = 345
	KeyRightAlt     Key = 346
)

// MouseButton is a physical mouse button, numbered like GLFW's.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)

// State is the transition reported by the platform for a key or button.
type State int

const (
	Release State = iota
	Press
	Repeat
)

type actionState struct {
	current      bool
	justPressed  bool
	justReleased bool
}

// Manager is the input capability. Event handlers may run on the platform
// callback thread; queries come from the update thread.
type Manager struct {
	system.Base

	mu sync.RWMutex

	// One key can map to multiple actions.
	keyToActions         map[Key][]Action
	mouseButtonToActions map[MouseButton][]Action

	states map[Action]*actionState

	cursorX, cursorY float64
	scrollX, scrollY float64
}

// NewManager creates a manager with no bindings.
func NewManager() *Manager {
	return &Manager{
		Base:                 system.NewBase(system.Input),
		keyToActions:         make(map[Key][]Action),
		mouseButtonToActions: make(map[MouseButton][]Action),
		states:               make(map[Action]*actionState),
	}
}

func (m *Manager) Load(system.Host) error { return nil }

// Unload drops all bindings and held state.
func (m *Manager) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyToActions = make(map[Key][]Action)
	m.mouseButtonToActions = make(map[MouseButton][]Action)
	m.states = make(map[Action]*actionState)
	return nil
}

// BindKey binds a physical key to a logical action.
// Multiple keys can be bound to the same action (e.g., WASD and arrow keys).
func (m *Manager) BindKey(key Key, action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyToActions[key] = appendAction(m.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key.
func (m *Manager) UnbindKey(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keyToActions, key)
}

// BindMouseButton binds a mouse button to a logical action.
func (m *Manager) BindMouseButton(button MouseButton, action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseButtonToActions[button] = appendAction(m.mouseButtonToActions[button], action)
}

// appendAction adds action unless it is already bound.
func appendAction(actions []Action, action Action) []Action {
	for _, a := range actions {
		if a == action {
			return actions
		}
	}
	return append(actions, action)
}

// KeyBindings returns the actions bound to key.
func (m *Manager) KeyBindings(key Key) []Action {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Action(nil), m.keyToActions[key]...)
}

// UnbindMouseButton removes all action bindings for a mouse button.
func (m *Manager) UnbindMouseButton(button MouseButton) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mouseButtonToActions, button)
}

// HandleKey processes a key event.
func (m *Manager) HandleKey(key Key, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.keyToActions[key], state == Press || state == Repeat)
}

// HandleMouseButton processes a mouse button event.
func (m *Manager) HandleMouseButton(button MouseButton, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.mouseButtonToActions[button], state == Press)
}

// HandleCursor records the cursor position in window pixels.
func (m *Manager) HandleCursor(x, y float64) {
	m.mu.Lock()
	m.cursorX, m.cursorY = x, y
	m.mu.Unlock()
}

// HandleScroll accumulates scroll offsets until the next PostUpdate.
func (m *Manager) HandleScroll(dx, dy float64) {
	m.mu.Lock()
	m.scrollX += dx
	m.scrollY += dy
	m.mu.Unlock()
}

// apply updates the bound actions. Edges are detected when the event
// arrives. Callers hold mu.
func (m *Manager) apply(actions []Action, pressed bool) {
	for _, act := range actions {
		s, ok := m.states[act]
		if !ok {
			s = &actionState{}
			m.states[act] = s
		}
		if pressed && !s.current {
			s.justPressed = true
		}
		if !pressed && s.current {
			s.justReleased = true
		}
		s.current = pressed
	}
}

// PostUpdate must be called at the end of each frame, after all input
// checks are done, to reset edge flags.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.states {
		s.justPressed = false
		s.justReleased = false
	}
	m.scrollX, m.scrollY = 0, 0
}

// IsActive returns true if the action is currently being held down.
func (m *Manager) IsActive(action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[action]
	return ok && s.current
}

// JustPressed returns true only if the action was pressed in the current frame.
func (m *Manager) JustPressed(action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[action]
	return ok && s.justPressed
}

// JustReleased returns true only if the action was released in the current frame.
func (m *Manager) JustReleased(action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[action]
	return ok && s.justReleased
}

// Cursor returns the last reported cursor position.
func (m *Manager) Cursor() (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursorX, m.cursorY
}

// Scroll returns the scroll offsets accumulated this frame.
func (m *Manager) Scroll() (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scrollX, m.scrollY
}
