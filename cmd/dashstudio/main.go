/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dashstudio/internal/backend"
	"dashstudio/internal/config"
	"dashstudio/internal/crash"
	"dashstudio/internal/domain"
	"dashstudio/internal/export"
	applog "dashstudio/internal/log"
	"dashstudio/internal/pack"
	"dashstudio/internal/storage"
	"dashstudio/internal/telemetry"
	"dashstudio/internal/template"
	"dashstudio/internal/version"
)

// snapshotLimit bounds how many autosave snapshots each page keeps.
const snapshotLimit = 20

func usage() {
	fmt.Println("DashStudio - dashboard template designer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dashstudio version|-v|--version             Show version")
	fmt.Println("  dashstudio init <dir> <name>                Create a new workspace at <dir> with name <name>")
	fmt.Println("  dashstudio open <dir>                       Open workspace at <dir> and print summary")
	fmt.Println("  dashstudio save <dir>                       Save workspace at <dir> (creates backup)")
	fmt.Println("  dashstudio validate <file>                  Validate a template document JSON file")
	fmt.Println("  dashstudio export-pdf <dir> [out.pdf]       Export layout sheets as a single PDF")
	fmt.Println("  dashstudio export-svg <dir> [outdir]        Export layout sheets as per-page SVGs")
	fmt.Println("  dashstudio pack-export <dir> <out.zip>      Zip the workspace packs folder")
	fmt.Println("  dashstudio pack-install <dir> <pack.zip>    Install a template pack into the workspace")
	fmt.Println("  dashstudio publish <dir>                    Publish the workspace document to the backend")
	fmt.Println("  dashstudio templates                        List shared templates on the backend")
	fmt.Println("  dashstudio fetch <id> <out.json>            Download a shared template document")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("DashStudio - dashboard template designer")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			abs, _ := filepath.Abs(dir)
			l.Info("init workspace", slog.String("root", abs), slog.String("name", name))
			doc := domain.Document{
				Name:         name,
				MenuTemplate: &domain.MenuTemplate{Name: name, Position: "side", Version: 1, IsActive: true},
			}
			h, err := storage.InitWorkspace(abs, doc)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			wh = h
			fmt.Println("Created workspace at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args[2])
			wh = h
			fmt.Printf("Opened document: %s\n", h.Document.Name)
			items := 0
			if h.Document.MenuTemplate != nil {
				items = countItems(h.Document.MenuTemplate.Items)
			}
			fmt.Printf("Menu items: %d\n", items)
			fmt.Printf("Dashboard pages: %d\n", len(h.Document.DashboardTemplates))
			fmt.Println("Root:", h.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args[2])
			wh = h
			h.Document.Description = fmt.Sprintf("Saved at %s", time.Now().Format(time.RFC3339))
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			snapshotCanvases(l, h)
			telemetry.Event("save", map[string]any{"pages": len(h.Document.DashboardTemplates)})
			fmt.Println("Saved document and created a backup of previous manifest (if any).")
			return
		case "validate":
			if len(args) < 3 {
				fmt.Println("validate requires <file>")
				usage()
				os.Exit(2)
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if _, err := template.Parse(data); err != nil {
				fmt.Println("Invalid:", err)
				os.Exit(1)
			}
			fmt.Println("Document is valid.")
			return
		case "export-pdf":
			if len(args) < 3 {
				fmt.Println("export-pdf requires <dir>")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args[2])
			wh = h
			out := "layout-sheets.pdf"
			if len(args) >= 4 {
				out = args[3]
			}
			if err := export.ExportLayoutPDF(h, out, export.PDFOptions{ShowGrid: true}); err != nil {
				l.Error("pdf export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			telemetry.Event("export", map[string]any{"format": "pdf"})
			fmt.Println("Exported layout sheets PDF.")
			return
		case "export-svg":
			if len(args) < 3 {
				fmt.Println("export-svg requires <dir>")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args[2])
			wh = h
			out := "svg"
			if len(args) >= 4 {
				out = args[3]
			}
			if err := export.ExportLayoutSVGPages(h, out, export.SVGOptions{ShowGrid: true}); err != nil {
				l.Error("svg export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			telemetry.Event("export", map[string]any{"format": "svg"})
			fmt.Println("Exported layout sheet SVGs.")
			return
		case "pack-export":
			if len(args) < 4 {
				fmt.Println("pack-export requires <dir> and <out.zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			if err := pack.ExportWorkspacePacks(abs, args[3]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported template pack.")
			return
		case "pack-install":
			if len(args) < 4 {
				fmt.Println("pack-install requires <dir> and <pack.zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			n, err := pack.InstallPack(abs, args[3])
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Installed %d file(s) from pack.\n", n)
			return
		case "publish":
			if len(args) < 3 {
				fmt.Println("publish requires <dir>")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args[2])
			wh = h
			cfg, token, err := config.Load()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if !cfg.General.EnableBackend {
				fmt.Println("Backend is disabled; enable it in the config or set", config.EnvEnableBackend)
				os.Exit(2)
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
			defer cancel()
			if cfg.Backend.DatabaseURL != "" {
				st, err := backend.OpenStore(ctx, cfg.Backend.DatabaseURL)
				if err != nil {
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				defer func() { _ = st.Close() }()
				v, err := st.SaveTemplate(ctx, h.Document)
				if err != nil {
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				telemetry.Event("publish", map[string]any{"transport": "postgres"})
				fmt.Printf("Published %q as version %d.\n", h.Document.Name, v)
				return
			}
			cli := backend.NewClient(cfg.Backend.BaseURL, token)
			res, err := cli.Publish(ctx, h.Document)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			telemetry.Event("publish", map[string]any{"transport": "http"})
			fmt.Printf("Published %q as id %d version %d.\n", h.Document.Name, res.ID, res.Version)
			return
		case "templates":
			cfg, token, err := config.Load()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
			defer cancel()
			cli := backend.NewClient(cfg.Backend.BaseURL, token)
			list, err := cli.ListTemplates(ctx)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, t := range list {
				fmt.Printf("%d\t%s\t%s\tv%d\t%s\n", t.ID, t.Name, t.Category, t.Version, t.UpdatedAt.Format(time.RFC3339))
			}
			return
		case "fetch":
			if len(args) < 4 {
				fmt.Println("fetch requires <id> and <out.json>")
				usage()
				os.Exit(2)
			}
			id, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				fmt.Println("Error: template id must be a number")
				os.Exit(2)
			}
			cfg, token, err := config.Load()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
			defer cancel()
			cli := backend.NewClient(cfg.Backend.BaseURL, token)
			env, err := cli.GetTemplate(ctx, id)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			data, err := template.Marshal(env.Document)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if err := os.WriteFile(args[3], data, 0o644); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Fetched %q (v%d) to %s\n", env.Document.Name, env.Version, args[3])
			return
		}
	}

	usage()
}

// snapshotCanvases records one autosave snapshot per dashboard page and
// prunes each page's history to the last snapshotLimit entries. Save
// succeeded already, so snapshot failures only warn.
func snapshotCanvases(l *slog.Logger, h *storage.WorkspaceHandle) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, cs := range h.Document.DashboardTemplates {
		if err := storage.SaveCanvasSnapshot(ctx, h, cs.MenuItemID, cs.Widgets, now); err != nil {
			l.Warn("canvas snapshot failed", slog.String("page", cs.MenuItemID), slog.Any("err", err))
			continue
		}
		if _, err := storage.PruneOldCanvasSnapshots(ctx, h, cs.MenuItemID, snapshotLimit); err != nil {
			l.Warn("snapshot prune failed", slog.String("page", cs.MenuItemID), slog.Any("err", err))
		}
	}
}

func mustOpen(l *slog.Logger, dir string) *storage.WorkspaceHandle {
	abs, _ := filepath.Abs(dir)
	l.Info("open workspace", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return h
}

func countItems(items []domain.MenuNode) int {
	n := 0
	stack := append([]domain.MenuNode(nil), items...)
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, it.Children...)
	}
	return n
}
