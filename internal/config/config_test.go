/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Drawing.UndoDepth != MaxUndoDepth || cfg.Drawing.BrushSize != 5 || cfg.General.Theme != "light" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	cfg := Defaults()
	cfg.General.Theme = "dark"
	cfg.General.ShowGrid = true
	cfg.Drawing.BrushColor = "#ff0000"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.General.Theme != "dark" || !got.General.ShowGrid || got.Drawing.BrushColor != "#ff0000" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}

func TestMalformedFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("general: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Drawing.BrushSize != 5 {
		t.Fatalf("defaults not applied on parse error: %#v", cfg.Drawing)
	}
}

func TestEnvOverridesAndClamping(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	t.Setenv(EnvUndoDepth, "500")
	t.Setenv(EnvBrushSize, "250")
	t.Setenv(EnvTheme, "DARK")
	t.Setenv(EnvLogLevel, "error")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Drawing.UndoDepth != MaxUndoDepth {
		t.Fatalf("undo depth should be capped at %d, got %d", MaxUndoDepth, cfg.Drawing.UndoDepth)
	}
	if cfg.Drawing.BrushSize != 100 {
		t.Fatalf("brush size should clamp to 100, got %v", cfg.Drawing.BrushSize)
	}
	if cfg.General.Theme != "dark" || cfg.Logging.Level != "error" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if env, ok := EnvOverrideFor("drawing.undo_depth"); !ok || env != EnvUndoDepth {
		t.Fatalf("EnvOverrideFor mismatch: %q %v", env, ok)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging = LoggingConfig{Level: "DEBUG", Format: "json", Source: true, File: "/tmp/gwb.log"}
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gwb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestLogOptionsFromConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Logging = LoggingConfig{Level: "warn", Format: "json", Source: true, File: "gwb.log"}
	o := cfg.LogOptions()
	if o.Level != "warn" || o.Format != "json" || !o.AddSource || o.File != "gwb.log" {
		t.Fatalf("unexpected options: %#v", o)
	}
}
