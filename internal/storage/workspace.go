/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage persists a designer workspace on disk: the template
// document manifest with timestamped backups plus an embedded SQLite
// index for autosave snapshots.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dashstudio/internal/domain"
)

const (
	ManifestFileName = "dashboard.json"
	BackupsDirName   = "backups"

	stampLayout = "20060102-150405"
)

// Standard subfolders scaffolded into every workspace.
var standardSubDirs = []string{
	"exports",
	"packs",
	BackupsDirName,
}

// WorkspaceHandle tracks a workspace loaded from or saved to disk.
// Root is the workspace directory containing dashboard.json and the
// standard subfolders; Document holds the in-memory manifest.
type WorkspaceHandle struct {
	Root         string
	ManifestPath string
	Document     domain.Document
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// InitWorkspace creates a workspace directory at root, scaffolds the
// standard subfolders, and writes the given manifest transactionally.
func InitWorkspace(root string, doc domain.Document) (*WorkspaceHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	wh := &WorkspaceHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Document:     doc,
	}
	if err := Save(wh); err != nil {
		return nil, err
	}
	return wh, nil
}

// Open loads an existing workspace from root. When the manifest is
// missing or does not parse, the most recent backup is tried before
// giving up.
func Open(root string) (*WorkspaceHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	doc, err := decodeDocumentFile(mpath)
	if err != nil {
		bdoc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		doc = bdoc
	}
	return &WorkspaceHandle{Root: root, ManifestPath: mpath, Document: *doc}, nil
}

// Save writes the current Document to disk. The previous manifest is
// first copied to a timestamped backup, then the new content goes to a
// temp file in the same directory and is renamed over the target.
func Save(wh *WorkspaceHandle) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if wh.Root == "" || wh.ManifestPath == "" {
		return errors.New("invalid WorkspaceHandle: missing paths")
	}
	data, err := encodeDocument(wh.Document)
	if err != nil {
		return err
	}
	if err := backupCurrentManifest(wh); err != nil {
		return err
	}
	return replaceFile(wh.ManifestPath, data)
}

func backupCurrentManifest(wh *WorkspaceHandle) error {
	if _, err := os.Stat(wh.ManifestPath); err != nil {
		return nil // first save, nothing to back up
	}
	bdir := filepath.Join(wh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	cur, err := os.ReadFile(wh.ManifestPath)
	if err != nil {
		return fmt.Errorf("read current manifest: %w", err)
	}
	bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ManifestFileName, time.Now().Format(stampLayout)))
	if err := writeFileSync(bpath, cur); err != nil {
		return fmt.Errorf("backup current manifest: %w", err)
	}
	return nil
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	dir, base := filepath.Split(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp manifest: %w", err)
	}
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding the
// workspace structure there, and moves the handle over.
func SaveAs(wh *WorkspaceHandle, newRoot string) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	wh.Root = newRoot
	wh.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(wh)
}

// AutosaveCrashSnapshot writes the in-memory document to a timestamped
// file under the index directory, bypassing the backup machinery. The
// crash handler uses it where the regular save path may be suspect.
func AutosaveCrashSnapshot(wh *WorkspaceHandle) (string, error) {
	if wh == nil {
		return "", errors.New("nil WorkspaceHandle")
	}
	dir := filepath.Join(wh.Root, IndexDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure index dir: %w", err)
	}
	data, err := encodeDocument(wh.Document)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("autosave-%s.json", time.Now().Format(stampLayout)))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return path, nil
}

func encodeDocument(doc domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeDocumentFile(path string) (*domain.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// writeFileSync writes data to path and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// openFromLatestBackup loads the newest timestamped manifest backup.
func openFromLatestBackup(root string) (*domain.Document, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // stamp in the name sorts chronologically
	latest := filepath.Join(bdir, candidates[len(candidates)-1])
	doc, err := decodeDocumentFile(latest)
	if err != nil {
		return nil, fmt.Errorf("latest backup: %w", err)
	}
	return doc, nil
}
