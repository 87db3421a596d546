/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas holds the per-page widget collection and the layout
// reconciler that turns continuous drag/resize callbacks into discrete,
// change-minimal position updates.
package canvas

import (
	"github.com/google/uuid"

	"dashstudio/internal/domain"
)

// State is the mutable canvas of one dashboard page. All mutation happens
// synchronously inside a single gesture handler; there is no internal
// locking.
type State struct {
	MenuItemID string
	Name       string
	Layout     domain.LayoutConfig
	Widgets    []domain.WidgetPlacement
}

// New creates an empty canvas for the given menu node.
func New(menuItemID, name string) *State {
	return &State{
		MenuItemID: menuItemID,
		Name:       name,
		Layout:     domain.DefaultLayoutConfig(),
	}
}

// FromTemplate rebuilds a canvas from its persisted form.
func FromTemplate(t domain.CanvasState) *State {
	layout := t.Layout
	if layout.Columns == 0 {
		layout = domain.DefaultLayoutConfig()
	}
	return &State{
		MenuItemID: t.MenuItemID,
		Name:       t.Name,
		Layout:     layout,
		Widgets:    domain.CloneWidgets(t.Widgets),
	}
}

// Template returns the persisted form of the canvas.
func (s *State) Template() domain.CanvasState {
	return domain.CanvasState{
		MenuItemID: s.MenuItemID,
		Name:       s.Name,
		Layout:     s.Layout,
		Widgets:    domain.CloneWidgets(s.Widgets),
	}
}

// WidgetDefaults carries the definition-derived values a new placement
// starts with. The editor resolves them from the widget registry.
type WidgetDefaults struct {
	DefinitionID string
	Width        int
	Height       int
	Config       map[string]any
}

// AddWidget instantiates a placement at the grid origin with the
// definition's default size and configuration. Returns the new instance id.
func (s *State) AddWidget(def WidgetDefaults) string {
	w := def.Width
	if w <= 0 {
		w = 4
	}
	h := def.Height
	if h <= 0 {
		h = 3
	}
	placement := domain.WidgetPlacement{
		WidgetInstanceID:   uuid.NewString(),
		WidgetDefinitionID: def.DefinitionID,
		Position:           domain.GridPos{X: 0, Y: 0, Width: w, Height: h},
		Order:              len(s.Widgets),
		IsVisible:          true,
		Config:             def.Config,
	}
	s.Widgets = append(s.Widgets, placement)
	return placement.WidgetInstanceID
}

// PlacementPatch is a shallow field patch for UpdateWidget. Nil fields
// are left untouched.
type PlacementPatch struct {
	Position  *domain.GridPos
	Order     *int
	IsVisible *bool
	Config    map[string]any
	Overrides *domain.Overrides
}

// UpdateWidget merges the patch into the matching placement. Unknown ids
// are ignored and reported via the return value.
func (s *State) UpdateWidget(id string, patch PlacementPatch) bool {
	for i := range s.Widgets {
		if s.Widgets[i].WidgetInstanceID != id {
			continue
		}
		w := &s.Widgets[i]
		if patch.Position != nil {
			w.Position = *patch.Position
		}
		if patch.Order != nil {
			w.Order = *patch.Order
		}
		if patch.IsVisible != nil {
			w.IsVisible = *patch.IsVisible
		}
		if patch.Config != nil {
			w.Config = patch.Config
		}
		if patch.Overrides != nil {
			ov := *patch.Overrides
			w.Overrides = &ov
		}
		return true
	}
	return false
}

// DeleteWidget removes the matching placement. Sibling Order values are
// left as-is; gaps are permitted.
func (s *State) DeleteWidget(id string) bool {
	for i := range s.Widgets {
		if s.Widgets[i].WidgetInstanceID == id {
			s.Widgets = append(s.Widgets[:i], s.Widgets[i+1:]...)
			return true
		}
	}
	return false
}

// Widget returns a copy of the placement with the given instance id.
func (s *State) Widget(id string) (domain.WidgetPlacement, bool) {
	for i := range s.Widgets {
		if s.Widgets[i].WidgetInstanceID == id {
			return s.Widgets[i].Clone(), true
		}
	}
	return domain.WidgetPlacement{}, false
}

// SnapshotWidgets implements history.Target.
func (s *State) SnapshotWidgets() []domain.WidgetPlacement {
	return domain.CloneWidgets(s.Widgets)
}

// RestoreWidgets implements history.Target.
func (s *State) RestoreWidgets(ws []domain.WidgetPlacement) {
	s.Widgets = ws
}
