/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders dashboard layout sheets for review outside the
// designer: a multi-page PDF or per-page SVG wireframes showing the
// grid and widget placement of every dashboard page.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"dashstudio/internal/domain"
	"dashstudio/internal/storage"
)

// PDFOptions controls PDF layout sheet export.
// Units are points (pt). Page origin is top-left.
// Built-in Helvetica keeps text vector without embedding fonts.
type PDFOptions struct {
	PageSize  PageSize
	ShowGrid  bool
	Pages     []string // menu item ids; empty means all dashboard pages
	MarginPts float64  // outer margin; default 36pt
}

// ExportLayoutPDF writes one PDF page per dashboard page of the document
// at outPath, each drawn as a grid wireframe with labelled widget boxes.
func ExportLayoutPDF(wh *storage.WorkspaceHandle, outPath string, opt PDFOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	canvases := selectCanvases(wh.Document, opt.Pages)
	if len(canvases) == 0 {
		return fmt.Errorf("no dashboard pages to export")
	}

	size := opt.PageSize
	if size.WidthPts <= 0 || size.HeightPts <= 0 {
		size = PresetA4Landscape
	}
	margin := opt.MarginPts
	if margin <= 0 {
		margin = 36
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: size.WidthPts, Ht: size.HeightPts},
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("%s layout sheets", wh.Document.Name), false)
	pdf.SetAuthor("DashStudio", false)
	pdf.SetFont("Helvetica", "", 12)

	for _, cs := range canvases {
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: size.WidthPts, Ht: size.HeightPts})

		// Title line
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Text(margin, margin-10, cs.Name)
		pdf.SetFont("Helvetica", "", 12)

		cols, rows := gridExtent(cs)
		cellW := (size.WidthPts - 2*margin) / float64(cols)
		cellH := (size.HeightPts - 2*margin) / float64(rows)

		if opt.ShowGrid {
			pdf.SetDrawColor(200, 200, 200)
			pdf.SetLineWidth(0.2)
			for c := 0; c <= cols; c++ {
				x := margin + float64(c)*cellW
				pdf.Line(x, margin, x, size.HeightPts-margin)
			}
			for r := 0; r <= rows; r++ {
				y := margin + float64(r)*cellH
				pdf.Line(margin, y, size.WidthPts-margin, y)
			}
		}

		pdf.SetDrawColor(0, 0, 0)
		pdf.SetFillColor(245, 245, 245)
		pdf.SetLineWidth(0.8)
		for _, w := range orderedWidgets(cs) {
			if !w.IsVisible {
				continue
			}
			x := margin + float64(w.Position.X)*cellW
			y := margin + float64(w.Position.Y)*cellH
			bw := float64(w.Position.Width) * cellW
			bh := float64(w.Position.Height) * cellH
			pdf.Rect(x, y, bw, bh, "FD")
			label := w.WidgetDefinitionID
			if w.Overrides != nil && w.Overrides.Title != "" {
				label = w.Overrides.Title
			}
			pdf.SetFont("Helvetica", "", 10)
			pdf.Text(x+4, y+12, label)
			pdf.SetFont("Helvetica", "", 7)
			pdf.SetTextColor(120, 120, 120)
			pdf.Text(x+4, y+bh-4, w.WidgetInstanceID)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(wh.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// selectCanvases filters the document's dashboard templates to the
// requested menu item ids, keeping document order. Empty means all.
func selectCanvases(doc domain.Document, ids []string) []domain.CanvasState {
	if len(ids) == 0 {
		return doc.DashboardTemplates
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.CanvasState
	for _, cs := range doc.DashboardTemplates {
		if want[cs.MenuItemID] {
			out = append(out, cs)
		}
	}
	return out
}

// gridExtent returns the column count and the row count needed to fit
// every widget on the canvas, with sane minimums for empty pages.
func gridExtent(cs domain.CanvasState) (cols, rows int) {
	cols = cs.Layout.Columns
	if cols <= 0 {
		cols = 12
	}
	rows = 1
	for _, w := range cs.Widgets {
		if b := w.Position.Y + w.Position.Height; b > rows {
			rows = b
		}
	}
	return cols, rows
}

// orderedWidgets returns widgets sorted by Order for stable draw order.
func orderedWidgets(cs domain.CanvasState) []domain.WidgetPlacement {
	out := domain.CloneWidgets(cs.Widgets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
