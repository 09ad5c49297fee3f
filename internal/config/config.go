// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Render     RenderConfig     `yaml:"render" toml:"render"`
	Window     WindowConfig     `yaml:"window" toml:"window"`
	Picking    PickingConfig    `yaml:"picking" toml:"picking"`
	Assets     AssetsConfig     `yaml:"assets" toml:"assets"`
	Screenshot ScreenshotConfig `yaml:"screenshot" toml:"screenshot"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

// RenderConfig holds render loop settings.
type RenderConfig struct {
	FPS              int      `yaml:"fps" toml:"fps"`
	InitRetry        Duration `yaml:"init_retry" toml:"init_retry"`
	RedrawWait       Duration `yaml:"redraw_wait" toml:"redraw_wait"`
	BoundsTimeout    Duration `yaml:"bounds_timeout" toml:"bounds_timeout"`
	ExceptionLogSize int      `yaml:"exception_log_size" toml:"exception_log_size"`
	// ApparentSizeCull is the minimum bounding radius / distance ratio drawn.
	ApparentSizeCull float64 `yaml:"apparent_size_cull" toml:"apparent_size_cull"`
}

// FrameInterval is the minimum spacing between two draws.
func (r RenderConfig) FrameInterval() time.Duration {
	if r.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(r.FPS)
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	VSync  bool   `yaml:"vsync" toml:"vsync"`
}

// PickingConfig holds picking diagnostics settings.
type PickingConfig struct {
	DebugOverlay bool `yaml:"debug_overlay" toml:"debug_overlay"`
}

// AssetsConfig holds asset lookup settings.
type AssetsConfig struct {
	TextureDirs []string `yaml:"texture_dirs" toml:"texture_dirs"`
	Watch       bool     `yaml:"watch" toml:"watch"`
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Duration is a time.Duration written as "30ms" in config files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			FPS:              60,
			InitRetry:        Duration(100 * time.Millisecond),
			RedrawWait:       Duration(30 * time.Millisecond),
			BoundsTimeout:    Duration(5 * time.Second),
			ExceptionLogSize: 64,
			ApparentSizeCull: 0.001,
		},
		Window: WindowConfig{
			Title:  "simview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Picking: PickingConfig{
			DebugOverlay: false,
		},
		Assets: AssetsConfig{
			TextureDirs: []string{"assets"},
			Watch:       false,
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Prefix: "simview",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the render loop cannot run with.
func (c *Config) Validate() error {
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.ApparentSizeCull < 0 {
		return fmt.Errorf("render.apparent_size_cull must not be negative, got %g", c.Render.ApparentSizeCull)
	}
	return nil
}
