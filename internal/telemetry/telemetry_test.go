/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DSH_TELEMETRY_OPT_IN", "")
	t.Setenv("DSH_TELEMETRY_URL", "")
	t.Setenv("DSH_CRASH_UPLOAD_URL", "")
	t.Setenv("DSH_TELEMETRY_TIMEOUT_MS", "")
	cfg := FromEnv()
	if cfg.OptIn {
		t.Fatalf("telemetry must be off by default")
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Fatalf("default timeout = %v", cfg.Timeout)
	}
}

func TestFromEnvParses(t *testing.T) {
	t.Setenv("DSH_TELEMETRY_OPT_IN", "yes")
	t.Setenv("DSH_TELEMETRY_URL", "  https://t.example.com/events  ")
	t.Setenv("DSH_CRASH_UPLOAD_URL", "https://t.example.com/crash")
	t.Setenv("DSH_TELEMETRY_TIMEOUT_MS", "250")
	cfg := FromEnv()
	if !cfg.OptIn {
		t.Fatalf("opt-in not parsed")
	}
	if cfg.EventsURL != "https://t.example.com/events" {
		t.Fatalf("events url not trimmed: %q", cfg.EventsURL)
	}
	if cfg.CrashURL != "https://t.example.com/crash" {
		t.Fatalf("crash url lost")
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
}

func TestEnabledRequiresOptInAndURL(t *testing.T) {
	cases := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{OptIn: true}, false},
		{Config{EventsURL: "https://x"}, false},
		{Config{OptIn: true, EventsURL: "https://x"}, true},
	}
	for i, tc := range cases {
		c := New(tc.cfg)
		if got := c.Enabled(); got != tc.want {
			t.Fatalf("case %d: Enabled() = %v, want %v", i, got, tc.want)
		}
		c.Close()
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must report disabled")
	}
}

func TestEventDeliveredWhenEnabled(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		select {
		case got <- m:
		default:
		}
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.Event("editor_opened", map[string]any{"pages": 3})

	select {
	case m := <-got:
		if m["name"] != "editor_opened" {
			t.Fatalf("event name = %v", m["name"])
		}
		if m["pages"] != float64(3) {
			t.Fatalf("event props lost: %v", m["pages"])
		}
		if m["version"] == "" || m["os"] == "" {
			t.Fatalf("event missing ambient fields: %v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event never reached the server")
	}
}

func TestEventDroppedWhenDisabled(t *testing.T) {
	hit := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case hit <- struct{}{}:
		default:
		}
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL})
	defer c.Close()
	c.Event("should_not_send", nil)

	select {
	case <-hit:
		t.Fatalf("event sent while disabled")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUploadCrashRespectsOptIn(t *testing.T) {
	got := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		select {
		case got <- b:
		default:
		}
	}))
	defer srv.Close()

	off := New(Config{OptIn: false, CrashURL: srv.URL})
	off.UploadCrash([]byte("report"))
	off.Close()
	select {
	case <-got:
		t.Fatalf("crash uploaded without opt-in")
	case <-time.After(200 * time.Millisecond):
	}

	on := New(Config{OptIn: true, CrashURL: srv.URL, Timeout: time.Second})
	defer on.Close()
	on.UploadCrash([]byte("panic: boom"))
	select {
	case b := <-got:
		if string(b) != "panic: boom" {
			t.Fatalf("report mangled: %s", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("crash report never uploaded")
	}
}
