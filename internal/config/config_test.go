/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"
)

// memStore stubs the OS keyring for tests.
type memStore struct {
	values map[string]string
	errGet error
}

func key(service, k string) string { return service + "/" + k }

func (m *memStore) Get(service, k string) (string, error) {
	if m.errGet != nil {
		return "", m.errGet
	}
	v, ok := m.values[key(service, k)]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m *memStore) Set(service, k, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key(service, k)] = value
	return nil
}

func (m *memStore) Delete(service, k string) error {
	delete(m.values, key(service, k))
	return nil
}

func withMemStore(t *testing.T) *memStore {
	t.Helper()
	ms := &memStore{}
	prev := SetTokenStore(ms)
	t.Cleanup(func() { SetTokenStore(prev) })
	return ms
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry must default to off")
	}
	if cfg.Editor.HistoryLimit != 50 {
		t.Fatalf("history limit default = %d, want 50", cfg.Editor.HistoryLimit)
	}
	if cfg.Editor.DefaultColumns != 12 || cfg.Editor.DefaultRowHeight != 40 {
		t.Fatalf("grid defaults = %d/%d, want 12/40", cfg.Editor.DefaultColumns, cfg.Editor.DefaultRowHeight)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestEnvOverrides(t *testing.T) {
	withMemStore(t)
	t.Setenv(EnvBackendURL, "https://backend.example.com")
	t.Setenv(EnvHistoryLimit, "75")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvTelemetryOptIn, "true")

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://backend.example.com" {
		t.Fatalf("backend url override lost: %s", cfg.Backend.BaseURL)
	}
	if cfg.Editor.HistoryLimit != 75 {
		t.Fatalf("history limit override lost: %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level should be lowercased: %s", cfg.Logging.Level)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry opt-in override lost")
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	withMemStore(t)
	t.Setenv(EnvHistoryLimit, "many")
	t.Setenv(EnvBackendTimeoutMs, "soon")

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Editor.HistoryLimit != 50 {
		t.Fatalf("garbage history limit applied: %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Backend.TimeoutMs != 15000 {
		t.Fatalf("garbage timeout applied: %d", cfg.Backend.TimeoutMs)
	}
}

func TestTokenRoundTripThroughStore(t *testing.T) {
	ms := withMemStore(t)
	if err := ms.Set(keyringService, keyringToken, "secret-token"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	_, tok, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tok != "secret-token" {
		t.Fatalf("token = %q, want secret-token", tok)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := ms.Get(keyringService, keyringToken); err == nil {
		t.Fatalf("token survived ClearToken")
	}
}

func TestLoadToleratesKeyringFailure(t *testing.T) {
	ms := withMemStore(t)
	ms.errGet = errors.New("keyring locked")
	_, tok, err := Load()
	if err != nil {
		t.Fatalf("keyring failure must not fail Load: %v", err)
	}
	if tok != "" {
		t.Fatalf("token should be empty on keyring failure")
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "yes", "TRUE"} {
		if !parseBool(v) {
			t.Fatalf("parseBool(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		if parseBool(v) {
			t.Fatalf("parseBool(%q) = true", v)
		}
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	env, ok := EnvOverrideFor("logging.level")
	if !ok || env != EnvLogLevel {
		t.Fatalf("EnvOverrideFor(logging.level) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("no.such.key"); ok {
		t.Fatalf("unknown key must report no override")
	}
}
