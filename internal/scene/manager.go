package scene

import (
	"errors"
	"fmt"

	"isoengine/internal/system"

	"go.uber.org/zap"
)

var (
	ErrUnknownScene   = errors.New("scene: unknown scene")
	ErrDuplicateScene = errors.New("scene: scene already added")
)

// Factory builds a scene. It may resolve systems through h.
type Factory func(h system.Host) (Scene, error)

// Setter installs the active scene; the engine implements it.
type Setter interface {
	SetScene(s Scene)
}

// Manager is the scene management system: a catalog of named scene
// factories and the name of the scene last switched to.
type Manager struct {
	system.Base

	setter    Setter
	host      system.Host
	factories map[string]Factory
	names     []string
	current   string
	log       *zap.Logger
}

// NewManager returns a manager that installs scenes through setter.
func NewManager(setter Setter, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		Base:      system.NewBase(system.Scenes),
		setter:    setter,
		factories: make(map[string]Factory),
		log:       log,
	}
}

func (m *Manager) Load(h system.Host) error {
	m.host = h
	return nil
}

func (m *Manager) Unload() error {
	m.current = ""
	return nil
}

// Add registers a named factory.
func (m *Manager) Add(name string, f Factory) error {
	if _, ok := m.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScene, name)
	}
	m.factories[name] = f
	m.names = append(m.names, name)
	return nil
}

// Switch builds the named scene and makes it active.
func (m *Manager) Switch(name string) error {
	f, ok := m.factories[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	s, err := f(m.host)
	if err != nil {
		return fmt.Errorf("build scene %s: %w", name, err)
	}
	m.setter.SetScene(s)
	m.current = name
	m.log.Info("scene switched", zap.String("scene", name))
	return nil
}

// Current returns the name of the active scene, or "" when the active scene
// was not installed by Switch.
func (m *Manager) Current() string { return m.current }

// Detach forgets the current name. The engine calls it whenever the active
// scene changes; Switch records the new name afterwards.
func (m *Manager) Detach() { m.current = "" }

// Names returns the registered scene names in insertion order.
func (m *Manager) Names() []string {
	return append([]string(nil), m.names...)
}
