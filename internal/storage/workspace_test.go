/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dashstudio/internal/domain"
)

func sampleDoc(name string) domain.Document {
	return domain.Document{
		Name: name,
		MenuTemplate: &domain.MenuTemplate{
			Name:     name,
			Version:  1,
			IsActive: true,
			Items: []domain.MenuNode{
				{ID: "n1", Label: "Overview", Type: domain.NodeDashboardPage, IsVisible: true, IsEnabled: true},
			},
		},
		DashboardTemplates: []domain.CanvasState{
			{MenuItemID: "n1", Name: "Overview", Layout: domain.DefaultLayoutConfig()},
		},
	}
}

func TestInitWorkspaceScaffolds(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	wh, err := InitWorkspace(root, sampleDoc("Ops"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, d := range []string{"exports", "packs", "backups"} {
		if st, err := os.Stat(filepath.Join(root, d)); err != nil || !st.IsDir() {
			t.Fatalf("missing subdir %s", d)
		}
	}
	if _, err := os.Stat(wh.ManifestPath); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	if _, err := InitWorkspace(root, sampleDoc("Ops")); err != nil {
		t.Fatalf("init: %v", err)
	}
	wh, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if wh.Document.Name != "Ops" {
		t.Fatalf("document name = %q", wh.Document.Name)
	}
	if len(wh.Document.DashboardTemplates) != 1 {
		t.Fatalf("dashboard templates lost")
	}
}

func TestSaveCreatesBackup(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	wh, err := InitWorkspace(root, sampleDoc("Ops"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	wh.Document.Description = "second save"
	if err := Save(wh); err != nil {
		t.Fatalf("save: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	found := false
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), ManifestFileName+".") && strings.HasSuffix(e.Name(), ".bak") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no timestamped backup written")
	}
}

func TestOpenFallsBackToBackupOnCorruptManifest(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	wh, err := InitWorkspace(root, sampleDoc("Ops"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	// Second save produces a backup of the valid manifest.
	if err := Save(wh); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(wh.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("open with backup available: %v", err)
	}
	if got.Document.Name != "Ops" {
		t.Fatalf("backup recovery produced %q", got.Document.Name)
	}
}

func TestOpenFailsWithoutManifestOrBackup(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root); err == nil {
		t.Fatalf("open of empty dir must fail")
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	base := t.TempDir()
	wh, err := InitWorkspace(filepath.Join(base, "a"), sampleDoc("Ops"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	newRoot := filepath.Join(base, "b")
	if err := SaveAs(wh, newRoot); err != nil {
		t.Fatalf("save as: %v", err)
	}
	if wh.Root != newRoot {
		t.Fatalf("handle root not updated")
	}
	if _, err := os.Stat(filepath.Join(newRoot, ManifestFileName)); err != nil {
		t.Fatalf("manifest missing at new root: %v", err)
	}
}

func TestAutosaveCrashSnapshot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	wh, err := InitWorkspace(root, sampleDoc("Ops"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	path, err := AutosaveCrashSnapshot(wh)
	if err != nil {
		t.Fatalf("autosave: %v", err)
	}
	if !strings.Contains(path, IndexDirName) {
		t.Fatalf("autosave outside index dir: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read autosave: %v", err)
	}
	if !strings.Contains(string(b), `"Ops"`) {
		t.Fatalf("autosave does not contain the document")
	}
}
