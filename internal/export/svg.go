/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dashstudio/internal/storage"
)

// SVGOptions controls SVG layout sheet export. Each dashboard page
// becomes a separate file named page-<menu item id>.svg.
type SVGOptions struct {
	ShowGrid  bool
	CellWidth float64 // px per grid column; default 80
	RowHeight float64 // px per grid row; default 40
	Pages     []string
}

// ExportLayoutSVGPages writes one SVG wireframe per dashboard page under
// outDir (resolved against the workspace exports folder when relative).
func ExportLayoutSVGPages(wh *storage.WorkspaceHandle, outDir string, opt SVGOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	canvases := selectCanvases(wh.Document, opt.Pages)
	if len(canvases) == 0 {
		return fmt.Errorf("no dashboard pages to export")
	}

	cellW := opt.CellWidth
	if cellW <= 0 {
		cellW = 80
	}
	rowH := opt.RowHeight
	if rowH <= 0 {
		rowH = 40
	}

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(wh.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	for _, cs := range canvases {
		cols, rows := gridExtent(cs)
		w := float64(cols) * cellW
		h := float64(rows) * rowH

		var buf bytes.Buffer
		var werr error
		wf := func(format string, args ...any) {
			if werr != nil {
				return
			}
			_, werr = fmt.Fprintf(&buf, format, args...)
		}

		wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", w, h, w, h)
		wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", w, h)

		if opt.ShowGrid {
			for c := 0; c <= cols; c++ {
				x := float64(c) * cellW
				wf("  <line x1=\"%g\" y1=\"0\" x2=\"%g\" y2=\"%g\" stroke=\"#dddddd\" stroke-width=\"0.5\"/>\n", x, x, h)
			}
			for r := 0; r <= rows; r++ {
				y := float64(r) * rowH
				wf("  <line x1=\"0\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"#dddddd\" stroke-width=\"0.5\"/>\n", y, w, y)
			}
		}

		for _, wp := range orderedWidgets(cs) {
			if !wp.IsVisible {
				continue
			}
			x := float64(wp.Position.X) * cellW
			y := float64(wp.Position.Y) * rowH
			bw := float64(wp.Position.Width) * cellW
			bh := float64(wp.Position.Height) * rowH
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#f5f5f5\" stroke=\"#000000\" stroke-width=\"1\"/>\n", x, y, bw, bh)
			label := wp.WidgetDefinitionID
			if wp.Overrides != nil && wp.Overrides.Title != "" {
				label = wp.Overrides.Title
			}
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"12\" fill=\"#000\">%s</text>\n", x+4, y+14, escText(label))
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"8\" fill=\"#888\">%s</text>\n", x+4, y+bh-4, escText(wp.WidgetInstanceID))
		}

		wf("</svg>\n")

		if werr != nil {
			return fmt.Errorf("build svg: %w", werr)
		}

		name := filepath.Join(outDir, fmt.Sprintf("page-%s.svg", cs.MenuItemID))
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	return nil
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escText(s string) string { return svgEscaper.Replace(s) }
