/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package pack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func seedPacksDir(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, "packs", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestExportThenInstallRoundTrip(t *testing.T) {
	src := t.TempDir()
	seedPacksDir(t, src, map[string]string{
		"ops/dashboard.json": `{"name":"Ops"}`,
		"sales/README.txt":   "sales pack",
	})

	zipPath := filepath.Join(t.TempDir(), "bundle.zip")
	if err := ExportWorkspacePacks(src, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := t.TempDir()
	n, err := InstallPack(dst, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if n != 2 {
		t.Fatalf("installed %d files, want 2", n)
	}
	b, err := os.ReadFile(filepath.Join(dst, "packs", "ops", "dashboard.json"))
	if err != nil {
		t.Fatalf("installed file missing: %v", err)
	}
	if string(b) != `{"name":"Ops"}` {
		t.Fatalf("installed content mangled: %s", b)
	}
}

func TestExportContainsManifest(t *testing.T) {
	src := t.TempDir()
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	if err := ExportWorkspacePacks(src, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if f.Name == manifestName {
			found = true
		}
	}
	if !found {
		t.Fatalf("manifest missing from empty pack")
	}
}

func TestInstallSkipsExistingFiles(t *testing.T) {
	src := t.TempDir()
	seedPacksDir(t, src, map[string]string{"ops/dashboard.json": "incoming"})
	zipPath := filepath.Join(t.TempDir(), "bundle.zip")
	if err := ExportWorkspacePacks(src, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := t.TempDir()
	seedPacksDir(t, dst, map[string]string{"ops/dashboard.json": "local edits"})
	n, err := InstallPack(dst, zipPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if n != 0 {
		t.Fatalf("installed %d files over existing ones", n)
	}
	b, _ := os.ReadFile(filepath.Join(dst, "packs", "ops", "dashboard.json"))
	if string(b) != "local edits" {
		t.Fatalf("existing file overwritten")
	}
}

func TestInstallRejectsMissingArchive(t *testing.T) {
	if _, err := InstallPack(t.TempDir(), filepath.Join(t.TempDir(), "nope.zip")); err == nil {
		t.Fatalf("missing archive accepted")
	}
}

func TestExportRequiresArguments(t *testing.T) {
	if err := ExportWorkspacePacks("", "out.zip"); err == nil {
		t.Fatalf("empty workspace root accepted")
	}
	if err := ExportWorkspacePacks(t.TempDir(), ""); err == nil {
		t.Fatalf("empty destination accepted")
	}
}
