/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package template assembles, validates, imports, and exports the
// persisted template document: the menu template plus the flat list of
// dashboard templates joined by menu item id.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dashstudio/internal/canvas"
	"dashstudio/internal/domain"
	"dashstudio/internal/menu"
)

var ErrInvalidDocument = errors.New("invalid template document")

// FieldError reports a save precondition failure on a specific field,
// surfaced to the user before any persistence call is attempted.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// Meta carries the document metadata supplied by the operator.
type Meta struct {
	Name        string
	Description string
	Tags        []string
	Category    string
	Position    string
	Version     int
	IsActive    bool
}

// Build assembles the save payload from the current menu tree: the
// nested menu items plus one dashboard template per canvas-owning node.
func Build(meta Meta, tree *menu.Tree) domain.Document {
	doc := domain.Document{
		Name:        meta.Name,
		Description: meta.Description,
		Tags:        append([]string(nil), meta.Tags...),
		Category:    meta.Category,
		MenuTemplate: &domain.MenuTemplate{
			Name:     meta.Name,
			Position: meta.Position,
			Items:    tree.Items(),
			Version:  meta.Version,
			IsActive: meta.IsActive,
		},
		DashboardTemplates: []domain.CanvasState{},
	}
	for _, id := range tree.DashboardIDs() {
		if cs, ok := tree.Canvas(id); ok {
			doc.DashboardTemplates = append(doc.DashboardTemplates, cs.Template())
		}
	}
	return doc
}

// ValidateSave checks the save preconditions. A non-empty result means
// the persistence collaborator must not be invoked.
func ValidateSave(doc domain.Document) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(doc.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "template name is required"})
	}
	if doc.MenuTemplate == nil || len(doc.MenuTemplate.Items) == 0 {
		errs = append(errs, FieldError{Field: "menuTemplate.items", Message: "at least one menu item is required"})
	}
	return errs
}

// Parse validates raw JSON against the document schema and decodes it.
// Nothing is mutated on failure; callers apply the returned document to
// the editor state themselves, which makes import all-or-nothing.
func Parse(data []byte) (domain.Document, error) {
	if err := ValidateSchema(data); err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Marshal renders the document as the human-readable JSON manifest.
func Marshal(doc domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal template document: %w", err)
	}
	return append(data, '\n'), nil
}

// Load replaces the menu tree's contents from a parsed document: the
// nested items are installed, then each dashboard template is matched to
// its canvas by menu item id. Templates referencing no dashboard node
// are skipped (the join key is authoritative).
func Load(doc domain.Document, tree *menu.Tree) error {
	if doc.MenuTemplate == nil {
		return fmt.Errorf("%w: missing menuTemplate", ErrInvalidDocument)
	}
	if doc.DashboardTemplates == nil {
		return fmt.Errorf("%w: missing dashboardTemplates", ErrInvalidDocument)
	}
	if err := tree.Reorder(doc.MenuTemplate.Items); err != nil {
		return fmt.Errorf("install menu items: %w", err)
	}
	for _, dt := range doc.DashboardTemplates {
		cs, ok := tree.Canvas(dt.MenuItemID)
		if !ok {
			continue
		}
		restored := canvas.FromTemplate(dt)
		cs.Name = restored.Name
		cs.Layout = restored.Layout
		cs.Widgets = restored.Widgets
	}
	return nil
}
