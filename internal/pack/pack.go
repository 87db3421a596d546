/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package pack bundles workspace template documents into portable .zip
// template packs and installs packs into a workspace's packs directory.
package pack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "dashstudio/internal/log"
)

const (
	manifestName = "templatepack.manifest.txt"
	packsDirName = "packs"
)

// ExportWorkspacePacks zips the workspace's packs directory into a
// single archive at destZipPath. The archive mirrors the on-disk layout
// and carries a small manifest at its root; an empty packs directory
// yields an archive containing just the manifest.
func ExportWorkspacePacks(workspaceRoot string, destZipPath string) error {
	if strings.TrimSpace(workspaceRoot) == "" {
		return errors.New("workspaceRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	l := applog.WithOperation(applog.WithComponent("pack"), "export").With(slog.String("workspace", workspaceRoot))

	packsDir := filepath.Join(workspaceRoot, packsDirName)
	if err := os.MkdirAll(packsDir, 0o755); err != nil {
		return fmt.Errorf("ensure packs dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// Recreate rather than append; Windows needs the remove.
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	if err := writeManifest(zw, workspaceRoot); err != nil {
		return err
	}

	added := 0
	err = filepath.WalkDir(packsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return err
		}
		if err := addToZip(zw, filepath.ToSlash(rel), path); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("template pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

func writeManifest(zw *zip.Writer, workspaceRoot string) error {
	w, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	_, err = fmt.Fprintf(w, "DashStudio Template Pack\nCreated: %s\nWorkspace: %s\n\nContents mirror the workspace's /packs directory.\n",
		time.Now().Format(time.RFC3339), workspaceRoot)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func addToZip(zw *zip.Writer, name, path string) error {
	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	_, err = io.Copy(dst, src)
	return err
}

// InstallPack extracts a .zip pack into the workspace's packs
// directory. Files already present are kept untouched and skipped.
// Returns how many files were installed.
func InstallPack(workspaceRoot string, packZipPath string) (int, error) {
	if strings.TrimSpace(workspaceRoot) == "" {
		return 0, errors.New("workspaceRoot is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	l := applog.WithOperation(applog.WithComponent("pack"), "install").With(slog.String("workspace", workspaceRoot))

	if err := os.MkdirAll(filepath.Join(workspaceRoot, packsDirName), 0o755); err != nil {
		return 0, fmt.Errorf("ensure packs dir: %w", err)
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.Name == manifestName {
			continue
		}
		// Archives may carry entries with or without the packs/ prefix;
		// everything lands under the workspace packs directory.
		rel := f.Name
		if !strings.HasPrefix(rel, packsDirName+"/") {
			rel = packsDirName + "/" + rel
		}
		target := filepath.Join(workspaceRoot, filepath.FromSlash(rel))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extractFile(f, target); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("template pack installed", slog.Int("files", installed))
	return installed, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
