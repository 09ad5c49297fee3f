package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and the pick overlay")
	flagFPS        = flag.Int("fps", 0, "Target frame rate")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagTextures   = flag.String("textures", "", "Additional texture directory")
	flagWatch      = flag.Bool("watch", false, "Reload textures when files change")
	flagScreenshot = flag.String("screenshots", "", "Screenshot output directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Picking.DebugOverlay = true
	}
	if *flagFPS > 0 {
		cfg.Render.FPS = *flagFPS
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagTextures != "" {
		cfg.Assets.TextureDirs = append(cfg.Assets.TextureDirs, *flagTextures)
	}
	if *flagWatch {
		cfg.Assets.Watch = true
	}
	if *flagScreenshot != "" {
		cfg.Screenshot.Dir = *flagScreenshot
	}
}
