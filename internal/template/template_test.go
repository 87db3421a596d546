/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package template

import (
	"errors"
	"testing"

	"dashstudio/internal/canvas"
	"dashstudio/internal/domain"
	"dashstudio/internal/menu"
)

func buildTree(t *testing.T) (*menu.Tree, string) {
	t.Helper()
	tr := menu.NewTree()
	id, err := tr.AddNode("")
	if err != nil {
		t.Fatalf("add node: %v", err)
	}
	cs, _ := tr.Canvas(id)
	cs.AddWidget(canvas.WidgetDefaults{DefinitionID: "kpi_card", Width: 4, Height: 3})
	return tr, id
}

func TestBuildAssemblesDocument(t *testing.T) {
	tr, id := buildTree(t)
	doc := Build(Meta{Name: "Ops", Position: "side", Version: 1, IsActive: true}, tr)
	if doc.Name != "Ops" {
		t.Fatalf("name = %q", doc.Name)
	}
	if doc.MenuTemplate == nil || len(doc.MenuTemplate.Items) != 1 {
		t.Fatalf("menu template not assembled")
	}
	if len(doc.DashboardTemplates) != 1 || doc.DashboardTemplates[0].MenuItemID != id {
		t.Fatalf("dashboard templates not joined by menu item id")
	}
	if len(doc.DashboardTemplates[0].Widgets) != 1 {
		t.Fatalf("widgets missing from dashboard template")
	}
}

func TestValidateSavePreconditions(t *testing.T) {
	tr, _ := buildTree(t)
	good := Build(Meta{Name: "Ops"}, tr)
	if errs := ValidateSave(good); len(errs) != 0 {
		t.Fatalf("valid document rejected: %v", errs)
	}

	noName := Build(Meta{Name: "   "}, tr)
	errs := ValidateSave(noName)
	if len(errs) != 1 || errs[0].Field != "name" {
		t.Fatalf("expected name error, got %v", errs)
	}

	empty := Build(Meta{Name: "Ops"}, menu.NewTree())
	errs = ValidateSave(empty)
	if len(errs) != 1 || errs[0].Field != "menuTemplate.items" {
		t.Fatalf("expected menu items error, got %v", errs)
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	tr, id := buildTree(t)
	doc := Build(Meta{Name: "Ops", Version: 2, IsActive: true}, tr)

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Name != "Ops" || got.MenuTemplate.Version != 2 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if len(got.DashboardTemplates) != 1 || got.DashboardTemplates[0].MenuItemID != id {
		t.Fatalf("dashboard templates lost in round trip")
	}
}

func TestParseRejectsMissingDashboardTemplates(t *testing.T) {
	raw := []byte(`{
		"name": "Broken",
		"menuTemplate": {"name": "Broken", "items": []}
	}`)
	_, err := Parse(raw)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestParseRejectsBadNodeType(t *testing.T) {
	raw := []byte(`{
		"name": "Broken",
		"menuTemplate": {"name": "Broken", "items": [
			{"id": "n1", "label": "X", "type": "carousel"}
		]},
		"dashboardTemplates": []
	}`)
	if _, err := Parse(raw); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	tr, id := buildTree(t)

	// Parsing an invalid payload fails before Load is ever reached, so
	// the tree keeps its current contents.
	raw := []byte(`{"name": "Broken", "menuTemplate": {"name": "Broken", "items": []}}`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("invalid payload accepted")
	}
	if tr.Len() != 1 {
		t.Fatalf("tree mutated by failed import")
	}
	if cs, ok := tr.Canvas(id); !ok || len(cs.Widgets) != 1 {
		t.Fatalf("canvas mutated by failed import")
	}
}

func TestLoadInstallsDocument(t *testing.T) {
	src, _ := buildTree(t)
	doc := Build(Meta{Name: "Ops"}, src)

	dst := menu.NewTree()
	if err := Load(doc, dst); err != nil {
		t.Fatalf("load: %v", err)
	}
	if dst.Len() != src.Len() {
		t.Fatalf("node count %d, want %d", dst.Len(), src.Len())
	}
	ids := dst.DashboardIDs()
	if len(ids) != 1 {
		t.Fatalf("dashboard count %d, want 1", len(ids))
	}
	cs, _ := dst.Canvas(ids[0])
	if len(cs.Widgets) != 1 {
		t.Fatalf("widgets not restored on load")
	}
	if err := dst.CheckInvariant(); err != nil {
		t.Fatalf("invariant after load: %v", err)
	}
}

func TestLoadRejectsIncompleteDocument(t *testing.T) {
	dst := menu.NewTree()
	if err := Load(domain.Document{Name: "X"}, dst); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("missing menuTemplate: expected ErrInvalidDocument, got %v", err)
	}
	if err := Load(domain.Document{
		Name:         "X",
		MenuTemplate: &domain.MenuTemplate{Name: "X"},
	}, dst); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("missing dashboardTemplates: expected ErrInvalidDocument, got %v", err)
	}
	if dst.Len() != 0 {
		t.Fatalf("failed load mutated the tree")
	}
}
