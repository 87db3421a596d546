/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a report file, a crash-safe autosave
// of the open workspace, and a non-zero exit.
package crash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	applog "dashstudio/internal/log"
	"dashstudio/internal/storage"
	"dashstudio/internal/telemetry"
	"dashstudio/internal/version"
)

// exitFn is swapped out in tests so Recover can be exercised without
// killing the test process.
var exitFn = os.Exit

// Recover is meant to run deferred around main. On panic it logs the
// stack, writes a crash report, autosaves the workspace manifest when
// one is open, and exits with code 2. Without a panic it does nothing.
//
// Usage: defer func(){ crash.Recover(wh) }()
func Recover(wh *storage.WorkspaceHandle) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath := writeReport(l, wh, r, stack)

	if wh != nil {
		if path, err := storage.AutosaveCrashSnapshot(wh); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written", slog.String("path", path))
		}
	}

	fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// writeReport composes the report text and stores it under the
// workspace backups folder, or the OS temp dir when no workspace is
// open. The report is also offered to telemetry for opt-in upload.
func writeReport(l *slog.Logger, wh *storage.WorkspaceHandle, panicVal any, stack []byte) string {
	dir := os.TempDir()
	if wh != nil && wh.Root != "" {
		dir = filepath.Join(wh.Root, storage.BackupsDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			dir = os.TempDir()
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var sb strings.Builder
	sb.WriteString("DashStudio Crash Report\n")
	fmt.Fprintf(&sb, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version: %s\n", version.String())
	fmt.Fprintf(&sb, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if wh != nil {
		fmt.Fprintf(&sb, "WorkspaceRoot: %s\n", wh.Root)
		fmt.Fprintf(&sb, "Manifest: %s\n", wh.ManifestPath)
	}
	fmt.Fprintf(&sb, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&sb, "Stack:\n%s\n", stack)

	body := []byte(sb.String())
	if err := os.WriteFile(path, body, 0o644); err != nil {
		l.Error("crash report write failed", slog.Any("err", err), slog.String("path", path))
	}

	telemetry.UploadCrash(body)
	return path
}
