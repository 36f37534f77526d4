// Package config holds engine settings: window, directories, shaders and
// logging. Values come from defaults, an optional YAML file, then
// ISOENGINE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ISOENGINE_"

// Window describes the platform window and loop pacing.
type Window struct {
	Title  string `yaml:"title" env:"TITLE"`
	Width  int    `yaml:"width" env:"WIDTH"`
	Height int    `yaml:"height" env:"HEIGHT"`
	VSync  bool   `yaml:"vsync" env:"VSYNC"`
	// FPSLimit caps rendered frames per second; 0 disables the cap.
	FPSLimit int `yaml:"fps_limit" env:"FPS_LIMIT"`
	// UpdateRate runs updates at a fixed rate in Hz; 0 ties updates to
	// rendered frames.
	UpdateRate int `yaml:"update_rate" env:"UPDATE_RATE"`
}

// Dirs locates engine content on disk. Empty fields derive from Base.
type Dirs struct {
	Base    string `yaml:"base" env:"BASE"`
	Assets  string `yaml:"assets" env:"ASSETS"`
	Shaders string `yaml:"shaders" env:"SHADERS"`
	Worlds  string `yaml:"worlds" env:"WORLDS"`
}

type Font struct {
	// Path is relative to the assets directory; empty uses the built-in face.
	Path string  `yaml:"path" env:"PATH"`
	Size float64 `yaml:"size" env:"SIZE"`
}

type Log struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

// Config is the full engine configuration.
type Config struct {
	Window    Window   `yaml:"window" envPrefix:"WINDOW_"`
	Dirs      Dirs     `yaml:"dirs" envPrefix:"DIR_"`
	Shaders   []string `yaml:"shaders" env:"SHADERS" envSeparator:","`
	Font      Font     `yaml:"font" envPrefix:"FONT_"`
	Pixelated bool     `yaml:"pixelated" env:"PIXELATED"`
	Log       Log      `yaml:"log" envPrefix:"LOG_"`
}

// Default returns the built-in settings with directories rooted at the
// executable's directory.
func Default() Config {
	return Config{
		Window: Window{
			Title:    "isoengine",
			Width:    1280,
			Height:   720,
			VSync:    true,
			FPSLimit: 0,
		},
		Dirs:      Dirs{Base: executableDir()},
		Shaders:   []string{"shader"},
		Font:      Font{Size: 16},
		Pixelated: true,
		Log:       Log{Level: "info"},
	}
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Load builds a Config from defaults, the YAML file at path when path is
// not empty, and environment overrides, then resolves directories and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with ISOENGINE_ environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve fills empty directories: assets under base, shaders under assets
// and worlds under base.
func (c *Config) Resolve() {
	if c.Dirs.Base == "" {
		c.Dirs.Base = executableDir()
	}
	if c.Dirs.Assets == "" {
		c.Dirs.Assets = filepath.Join(c.Dirs.Base, "Assets")
	}
	if c.Dirs.Shaders == "" {
		c.Dirs.Shaders = filepath.Join(c.Dirs.Assets, "Shaders")
	}
	if c.Dirs.Worlds == "" {
		c.Dirs.Worlds = filepath.Join(c.Dirs.Base, "Worlds")
	}
}

var (
	ErrWindowSize = errors.New("config: window size must be positive")
	ErrNoShaders  = errors.New("config: at least one shader is required")
	ErrNegative   = errors.New("config: rates must not be negative")
)

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrWindowSize, c.Window.Width, c.Window.Height)
	}
	if c.Window.FPSLimit < 0 || c.Window.UpdateRate < 0 {
		return ErrNegative
	}
	if len(c.Shaders) == 0 {
		return ErrNoShaders
	}
	if c.Font.Path != "" && c.Font.Size <= 0 {
		return fmt.Errorf("config: font size must be positive, got %v", c.Font.Size)
	}
	return nil
}

// YAML renders the configuration as it would be read back by Load.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
