// Package config loads facade settings from TOML. The embedded defaults are
// decoded first and the user's config.toml is decoded on top, so a user file
// only needs the keys it changes.
package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

//go:embed default/config.toml
var configFS embed.FS

// Config is the full set of settings.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Editor  EditorConfig  `toml:"editor"`
	Gallery GalleryConfig `toml:"gallery"`
	Catalog CatalogConfig `toml:"catalog"`
	Export  ExportConfig  `toml:"export"`
	Log     LogConfig     `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type EditorConfig struct {
	HistoryCapacity    int     `toml:"history_capacity"`
	RotateStep         float64 `toml:"rotate_step"`
	ScaleStep          float64 `toml:"scale_step"`
	DragDeadZone       float64 `toml:"drag_dead_zone"`
	MaxOverlayFraction float64 `toml:"max_overlay_fraction"`
	Debug              bool    `toml:"debug"`
}

type GalleryConfig struct {
	Path string `toml:"path"`
}

type CatalogConfig struct {
	Path string `toml:"path"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the embedded defaults.
func Default() *Config {
	data, err := configFS.ReadFile("default/config.toml")
	if err != nil {
		panic("config: no embedded default config: " + err.Error())
	}
	c := &Config{}
	if err := c.Load(string(data)); err != nil {
		panic("config: invalid embedded default config: " + err.Error())
	}
	return c
}

// Load decodes TOML data on top of the current values and validates the
// result.
func (c *Config) Load(data string) error {
	md, err := toml.Decode(data, c)
	if err != nil {
		return err
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("unknown config key %q", keys[0].String())
	}
	return c.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Editor.HistoryCapacity < 1 {
		errs = append(errs, fmt.Errorf("editor.history_capacity %d must be at least 1", c.Editor.HistoryCapacity))
	}
	if c.Editor.RotateStep <= 0 || c.Editor.RotateStep >= 360 {
		errs = append(errs, fmt.Errorf("editor.rotate_step %v must be in (0, 360)", c.Editor.RotateStep))
	}
	if c.Editor.ScaleStep <= 1 {
		errs = append(errs, fmt.Errorf("editor.scale_step %v must be greater than 1", c.Editor.ScaleStep))
	}
	if c.Editor.DragDeadZone < 0 {
		errs = append(errs, fmt.Errorf("editor.drag_dead_zone %v must not be negative", c.Editor.DragDeadZone))
	}
	if f := c.Editor.MaxOverlayFraction; f <= 0 || f > 1 {
		errs = append(errs, fmt.Errorf("editor.max_overlay_fraction %v must be in (0, 1]", f))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured logrus level.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// GalleryPath returns the gallery database path, defaulting to a file in
// dir.
func (c *Config) GalleryPath(dir string) string {
	if c.Gallery.Path != "" {
		return c.Gallery.Path
	}
	return filepath.Join(dir, "gallery.db")
}

// Dir returns the directory holding config.toml. FACADE_CONFIG_DIR wins
// when it names an existing directory.
func Dir() string {
	if dir := os.Getenv("FACADE_CONFIG_DIR"); dir != "" {
		if s, err := os.Stat(dir); err == nil && s.IsDir() {
			return dir
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "facade")
	}
	return ""
}

// FilePath returns the path of the user config file.
func FilePath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// LoadFile returns the defaults overlaid with the file at path. A missing
// file is not an error.
func LoadFile(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := c.Load(string(data)); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// Load reads the user config file from the default location.
func Load() (*Config, error) {
	return LoadFile(FilePath())
}
