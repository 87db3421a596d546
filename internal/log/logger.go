/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log is the designer's slog setup: a one-line console handler
// for humans, an optional rotating JSON file sink, and helpers that tag
// records with component/operation fields.
package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"dashstudio/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, format and sinks. Matching environment
// variables (read by FromEnv):
//   - DSH_LOG_LEVEL=debug|info|warn|error
//   - DSH_LOG_FORMAT=console|json
//   - DSH_LOG_FILE=<path>, enables rotated JSON file logging
//   - DSH_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
}

// FromEnv builds Options from the DSH_LOG_* variables, falling back to
// info/console with no file sink.
func FromEnv() Options {
	return Options{
		Level:     envOr("DSH_LOG_LEVEL", "info"),
		Format:    envOr("DSH_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(envOr("DSH_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("DSH_LOG_FILE"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	mu     sync.RWMutex
	active *slog.Logger
)

// L returns the process logger, initializing it from env on first use.
func L() *slog.Logger {
	mu.RLock()
	l := active
	mu.RUnlock()
	if l == nil {
		Init(FromEnv())
		mu.RLock()
		l = active
		mu.RUnlock()
	}
	return l
}

// Init builds the logger from opts and installs it as both the package
// logger and slog's default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	ho := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(os.Stderr, ho)
	} else {
		console = &consoleTextHandler{opts: consoleOpts{Level: lvl, AddSource: opts.AddSource}, w: os.Stderr}
	}

	h := console
	if file := strings.TrimSpace(opts.File); file != "" {
		rot := &lj.Logger{Filename: file, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		h = multiHandler(console, slog.NewJSONHandler(rot, ho))
	}

	l := slog.New(h).With(
		slog.String("app", "dashstudio"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	active = l
	mu.Unlock()
	slog.SetDefault(l)
}

// WithComponent tags a logger with the subsystem emitting the records.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags a logger with the operation currently running.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler fans one record out to every wrapped handler.
func multiHandler(handlers ...slog.Handler) slog.Handler { return &fanout{hs: handlers} }

type fanout struct{ hs []slog.Handler }

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f.hs {
		if err := h.Handle(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.hs))
	for i, h := range f.hs {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{hs: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.hs))
	for i, h := range f.hs {
		next[i] = h.WithGroup(name)
	}
	return &fanout{hs: next}
}

type consoleOpts struct {
	Level     slog.Leveler
	AddSource bool
}

// consoleTextHandler emits "ts LVL msg key=val ..." lines with group
// names dotted into attribute keys.
type consoleTextHandler struct {
	opts   consoleOpts
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

func (h *consoleTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return level >= min
}

func (h *consoleTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(256)
	buf.WriteString(time.Now().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(shortLevel(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	emit := func(a slog.Attr) {
		buf.WriteByte(' ')
		buf.WriteString(prefix)
		buf.WriteString(a.Key)
		buf.WriteByte('=')
		buf.WriteString(renderValue(a.Value))
	}
	for _, a := range h.attrs {
		emit(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		emit(a)
		return true
	})
	buf.WriteByte('\n')
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &consoleTextHandler{opts: h.opts, w: h.w, attrs: merged, groups: h.groups}
}

func (h *consoleTextHandler) WithGroup(name string) slog.Handler {
	groups := append(append([]string(nil), h.groups...), name)
	return &consoleTextHandler{opts: h.opts, w: h.w, attrs: h.attrs, groups: groups}
}

func shortLevel(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERR"
	case l >= slog.LevelWarn:
		return "WRN"
	case l >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	default:
		return v.String()
	}
}
