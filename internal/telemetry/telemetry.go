/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous, strictly opt-in usage events and
// optional crash report uploads. Everything here is fire-and-forget:
// the queue is bounded and failures are swallowed so telemetry can
// never stall or break an edit.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	applog "dashstudio/internal/log"
	"dashstudio/internal/version"
)

const (
	defaultTimeout = 1500 * time.Millisecond
	queueDepth     = 64
)

// Config controls event and crash upload delivery. Telemetry is off by
// default; with no EventsURL configured, events are dropped even when
// opted in.
//
// Environment (read by FromEnv):
//   - DSH_TELEMETRY_OPT_IN: 1|true|yes|on enables metrics
//   - DSH_TELEMETRY_URL: endpoint events are POSTed to
//   - DSH_CRASH_UPLOAD_URL: endpoint crash reports are POSTed to
//   - DSH_TELEMETRY_TIMEOUT_MS: request timeout, default 1500
//   - DSH_TELEMETRY_DEBUG: when set, log delivery attempts
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads the DSH_TELEMETRY_* variables into a Config.
func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("DSH_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("DSH_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("DSH_CRASH_UPLOAD_URL")),
		Timeout:      defaultTimeout,
		DebugLogging: os.Getenv("DSH_TELEMETRY_DEBUG") != "",
	}
	if raw := strings.TrimSpace(os.Getenv("DSH_TELEMETRY_TIMEOUT_MS")); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Client queues events on a bounded channel and delivers them from a
// single background goroutine.
type Client struct {
	cfg  Config
	log  *slog.Logger
	http *http.Client

	queue chan map[string]any
	done  chan struct{}
	stop  sync.Once
}

// New constructs a client and starts its delivery goroutine.
func New(cfg Config) *Client {
	c := &Client{
		cfg:   cfg,
		log:   applog.WithComponent("telemetry"),
		http:  &http.Client{Timeout: cfg.Timeout},
		queue: make(chan map[string]any, queueDepth),
		done:  make(chan struct{}),
	}
	go c.deliver()
	return c
}

// Enabled reports whether events will actually be sent.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.OptIn && c.cfg.EventsURL != ""
}

// Event enqueues one named event with optional non-PII properties.
// When the queue is full the event is dropped.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	select {
	case c.queue <- payload:
	default:
	}
}

// Flush waits up to half a second for queued events to drain.
func (c *Client) Flush(ctx context.Context) {
	deadline := time.NewTimer(500 * time.Millisecond)
	defer deadline.Stop()
	tick := time.NewTicker(25 * time.Millisecond)
	defer tick.Stop()
	for len(c.queue) > 0 {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
		}
	}
}

// Close stops the delivery goroutine.
func (c *Client) Close() { c.stop.Do(func() { close(c.done) }) }

func (c *Client) deliver() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.queue:
			body, err := json.Marshal(payload)
			if err != nil {
				continue
			}
			c.post(c.cfg.EventsURL, "application/json", body, "event")
		}
	}
}

// UploadCrash posts a serialized crash report when crash uploads are
// opted in. It runs on its own goroutine so a crashing process is not
// held up by a slow endpoint.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	body := append([]byte(nil), report...)
	go c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", body, "crash report")
}

func (c *Client) post(url, contentType string, body []byte, kind string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry post failed", slog.String("kind", kind), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry post delivered", slog.String("kind", kind))
	}
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// InitDefault lazily builds the package-level client from env.
func InitDefault() {
	defaultOnce.Do(func() { NewDefault(FromEnv()) })
}

// NewDefault installs a client built from cfg as the package default.
func NewDefault(cfg Config) { defaultClient = New(cfg) }

// Enabled reports whether the default client will send events.
func Enabled() bool {
	InitDefault()
	return defaultClient.Enabled()
}

// Event sends an event through the default client.
func Event(name string, props map[string]any) {
	InitDefault()
	defaultClient.Event(name, props)
}

// UploadCrash uploads a crash report through the default client.
func UploadCrash(report []byte) {
	InitDefault()
	defaultClient.UploadCrash(report)
}
