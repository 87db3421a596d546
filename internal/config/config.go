/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads and saves the per-user YAML configuration and
// merges read-only environment overrides at runtime. The backend token
// never touches the config file; it lives in the OS keychain.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
	EnableBackend  bool   `yaml:"enable_backend"`
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	DatabaseURL string `yaml:"database_url"` // direct Postgres store, optional
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// EditorConfig holds designer defaults applied to new canvases.
type EditorConfig struct {
	HistoryLimit     int `yaml:"history_limit"`
	DefaultColumns   int `yaml:"default_columns"`
	DefaultRowHeight int `yaml:"default_row_height"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
	Editor        EditorConfig  `yaml:"editor"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system", EnableBackend: false},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Editor:        EditorConfig{HistoryLimit: 50, DefaultColumns: 12, DefaultRowHeight: 40},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "DSH_BACKEND_URL"
	EnvBackendDBURL     = "DSH_BACKEND_DB_URL"
	EnvBackendTimeoutMs = "DSH_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "DSH_TLS_INSECURE"
	EnvTelemetryOptIn   = "DSH_TELEMETRY_OPT_IN"
	EnvEnableBackend    = "DSH_ENABLE_BACKEND"
	EnvHistoryLimit     = "DSH_HISTORY_LIMIT"
	EnvLogLevel         = "DSH_LOG_LEVEL"
	EnvLogFormat        = "DSH_LOG_FORMAT"
	EnvLogSource        = "DSH_LOG_SOURCE"
	EnvLogFile          = "DSH_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "DashStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "DashStudio")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "dashstudio")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and
// merges environment overrides. The backend token comes from the
// keyring and is returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS
// keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
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
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		return tokenStore.Set(keyringService, keyringToken, token)
	}
	return nil
}

// mergeInto overlays values from the config file onto the defaults.
// Strings and ints replace the default only when set; booleans always
// copy through so a user's explicit "false" persists.
func mergeInto(dst *AppConfig, src *AppConfig) {
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setStr := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setLower := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.ToLower(strings.TrimSpace(v))
		}
	}

	setInt(&dst.ConfigVersion, src.ConfigVersion)
	setStr(&dst.General.Theme, src.General.Theme)
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.EnableBackend = src.General.EnableBackend
	setStr(&dst.Backend.BaseURL, src.Backend.BaseURL)
	setStr(&dst.Backend.DatabaseURL, src.Backend.DatabaseURL)
	setInt(&dst.Backend.TimeoutMs, src.Backend.TimeoutMs)
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	setLower(&dst.Logging.Level, src.Logging.Level)
	setLower(&dst.Logging.Format, src.Logging.Format)
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
	setInt(&dst.Editor.HistoryLimit, src.Editor.HistoryLimit)
	setInt(&dst.Editor.DefaultColumns, src.Editor.DefaultColumns)
	setInt(&dst.Editor.DefaultRowHeight, src.Editor.DefaultRowHeight)
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(name string) (string, bool) {
		v := strings.TrimSpace(os.Getenv(name))
		return v, v != ""
	}

	if v, ok := env(EnvBackendURL); ok {
		cfg.Backend.BaseURL = v
	}
	if v, ok := env(EnvBackendDBURL); ok {
		cfg.Backend.DatabaseURL = v
	}
	if v, ok := env(EnvBackendTimeoutMs); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v, ok := env(EnvBackendTLSInsec); ok {
		cfg.Backend.TLSInsecure = parseBool(v)
	}
	if v, ok := env(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v, ok := env(EnvEnableBackend); ok {
		cfg.General.EnableBackend = parseBool(v)
	}
	if v, ok := env(EnvHistoryLimit); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v, ok := env(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := env(EnvLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := env(EnvLogSource); ok {
		cfg.Logging.Source = parseBool(v)
	}
	if v, ok := env(EnvLogFile); ok {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// EnvOverrideFor returns the env var name if the field is overridden by
// environment variables.
func EnvOverrideFor(key string) (string, bool) {
	pairs := map[string]string{
		"backend.base_url":         EnvBackendURL,
		"backend.database_url":     EnvBackendDBURL,
		"backend.timeout_ms":       EnvBackendTimeoutMs,
		"backend.tls_insecure":     EnvBackendTLSInsec,
		"general.telemetry_opt_in": EnvTelemetryOptIn,
		"general.enable_backend":   EnvEnableBackend,
		"editor.history_limit":     EnvHistoryLimit,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}
	env, ok := pairs[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
