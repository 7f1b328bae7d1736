/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "gowhiteboard/internal/log"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme       string `yaml:"theme"` // "light" | "dark"
	ShowGrid    bool   `yaml:"show_grid"`
	RecentLimit int    `yaml:"recent_limit"`
}

type DrawingConfig struct {
	BrushColor  string  `yaml:"brush_color"`
	BrushSize   float64 `yaml:"brush_size"`
	UndoDepth   int     `yaml:"undo_depth"`
	GridSpacing float64 `yaml:"grid_spacing"`
	FontFamily  string  `yaml:"font_family"`
	FontSize    float64 `yaml:"font_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Drawing       DrawingConfig `yaml:"drawing"`
	Logging       LoggingConfig `yaml:"logging"`
}

// MaxUndoDepth is the hard ceiling for the per-page history.
const MaxUndoDepth = 50

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "light", ShowGrid: false, RecentLimit: 10},
		Drawing: DrawingConfig{
			BrushColor:  "black",
			BrushSize:   5,
			UndoDepth:   MaxUndoDepth,
			GridSpacing: 20,
			FontFamily:  "Helvetica",
			FontSize:    14,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// LogOptions maps the logging section onto logger options.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir  = "GWB_CONFIG_DIR"
	EnvTheme      = "GWB_THEME"
	EnvBrushSize  = "GWB_BRUSH_SIZE"
	EnvBrushColor = "GWB_BRUSH_COLOR"
	EnvUndoDepth  = "GWB_UNDO_DEPTH"
	EnvLogLevel   = "GWB_LOG_LEVEL"
	EnvLogFormat  = "GWB_LOG_FORMAT"
	EnvLogSource  = "GWB_LOG_SOURCE"
	EnvLogFile    = "GWB_LOG_FILE"
)

// Dir returns the per-user configuration directory. GWB_CONFIG_DIR wins when set.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoWhiteboard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoWhiteboard")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gowhiteboard")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "gowhiteboard")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults plus env overrides are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if t := strings.TrimSpace(src.General.Theme); t != "" {
		dst.General.Theme = strings.ToLower(t)
	}
	dst.General.ShowGrid = src.General.ShowGrid
	if src.General.RecentLimit > 0 {
		dst.General.RecentLimit = src.General.RecentLimit
	}
	if c := strings.TrimSpace(src.Drawing.BrushColor); c != "" {
		dst.Drawing.BrushColor = c
	}
	if src.Drawing.BrushSize > 0 {
		dst.Drawing.BrushSize = src.Drawing.BrushSize
	}
	if src.Drawing.UndoDepth > 0 {
		dst.Drawing.UndoDepth = src.Drawing.UndoDepth
	}
	if src.Drawing.GridSpacing > 0 {
		dst.Drawing.GridSpacing = src.Drawing.GridSpacing
	}
	if f := strings.TrimSpace(src.Drawing.FontFamily); f != "" {
		dst.Drawing.FontFamily = f
	}
	if src.Drawing.FontSize > 0 {
		dst.Drawing.FontSize = src.Drawing.FontSize
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBrushSize)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Drawing.BrushSize = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBrushColor)); v != "" {
		cfg.Drawing.BrushColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUndoDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Drawing.UndoDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// normalize clamps values the rest of the app relies on.
func normalize(cfg *AppConfig) {
	if cfg.Drawing.UndoDepth <= 0 || cfg.Drawing.UndoDepth > MaxUndoDepth {
		cfg.Drawing.UndoDepth = MaxUndoDepth
	}
	if cfg.Drawing.BrushSize < 0.5 {
		cfg.Drawing.BrushSize = 0.5
	}
	if cfg.Drawing.BrushSize > 100 {
		cfg.Drawing.BrushSize = 100
	}
	if cfg.General.Theme != "dark" {
		cfg.General.Theme = "light"
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.theme":       EnvTheme,
		"drawing.brush_size":  EnvBrushSize,
		"drawing.brush_color": EnvBrushColor,
		"drawing.undo_depth":  EnvUndoDepth,
		"logging.level":       EnvLogLevel,
		"logging.format":      EnvLogFormat,
		"logging.source":      EnvLogSource,
		"logging.file":        EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
