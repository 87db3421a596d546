/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"dashstudio/internal/storage"
)

// PageSize is a PDF page size in points.
type PageSize struct {
	WidthPts  float64
	HeightPts float64
}

// Common layout sheet page sizes. Landscape suits wide dashboards.
var (
	PresetA4Portrait      = PageSize{WidthPts: 595.28, HeightPts: 841.89}
	PresetA4Landscape     = PageSize{WidthPts: 841.89, HeightPts: 595.28}
	PresetLetterPortrait  = PageSize{WidthPts: 612, HeightPts: 792}
	PresetLetterLandscape = PageSize{WidthPts: 792, HeightPts: 612}
)

// PageSizeByName resolves a preset name like "a4" or "letter-portrait".
func PageSizeByName(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4", "a4-landscape":
		return PresetA4Landscape, nil
	case "a4-portrait":
		return PresetA4Portrait, nil
	case "letter", "letter-landscape":
		return PresetLetterLandscape, nil
	case "letter-portrait":
		return PresetLetterPortrait, nil
	}
	return PageSize{}, fmt.Errorf("unknown page size: %s", name)
}

// BatchOptions controls batch export across formats.
// Path semantics:
//   - If OutDir is empty or relative it is created under <workspace>/exports/.
//   - PDF output is a single layout-sheets.pdf in OutDir.
//   - SVG outputs go to an svg/ subfolder inside OutDir, one file per page.
type BatchOptions struct {
	Formats  []string // allowed: pdf, svg; empty means both
	Pages    []string // menu item ids; empty means all dashboard pages
	PageSize string   // preset name for PDF
	ShowGrid bool
	OutDir   string
}

// BatchExport runs the requested exporters over the workspace document.
func BatchExport(wh *storage.WorkspaceHandle, opt BatchOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = []string{"pdf", "svg"}
	}
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = "sheets"
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(wh.Root, "exports", baseOut)
	}

	for _, f := range formats {
		switch f {
		case "pdf":
			size, err := PageSizeByName(opt.PageSize)
			if err != nil {
				return err
			}
			out := filepath.Join(baseOut, "layout-sheets.pdf")
			po := PDFOptions{PageSize: size, ShowGrid: opt.ShowGrid, Pages: opt.Pages}
			if err := ExportLayoutPDF(wh, out, po); err != nil {
				return fmt.Errorf("pdf export: %w", err)
			}
		case "svg":
			outDir := filepath.Join(baseOut, "svg")
			so := SVGOptions{ShowGrid: opt.ShowGrid, Pages: opt.Pages}
			if err := ExportLayoutSVGPages(wh, outDir, so); err != nil {
				return fmt.Errorf("svg export: %w", err)
			}
		default:
			return fmt.Errorf("unknown format: %s", f)
		}
	}
	return nil
}
