/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for the dashboard template
// designer: the navigation menu tree, per-page widget canvases, and the
// persisted template document. All structures serialize to a
// human-readable JSON manifest.

// NodeType classifies a menu node. Only dashboard pages own a canvas.
type NodeType string

const (
	NodeDashboardPage NodeType = "dashboard_page"
	NodeGroup         NodeType = "group"
	NodeLink          NodeType = "link"
	NodeDivider       NodeType = "divider"
	NodeHeader        NodeType = "header"
	NodeExternal      NodeType = "external"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeDashboardPage, NodeGroup, NodeLink, NodeDivider, NodeHeader, NodeExternal:
		return true
	}
	return false
}

// OwnsCanvas reports whether a node of this type carries a dashboard canvas.
func (t NodeType) OwnsCanvas() bool { return t == NodeDashboardPage }

// MenuNode is one entry of the hierarchical navigation menu.
// Children are owned; the tree is a strict hierarchy with a single parent
// per node.
type MenuNode struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Type      NodeType   `json:"type"`
	Order     int        `json:"order"`
	IsVisible bool       `json:"isVisible"`
	IsEnabled bool       `json:"isEnabled"`
	Children  []MenuNode `json:"children,omitempty"`
	URL       string     `json:"url,omitempty"`
	Icon      string     `json:"icon,omitempty"`
}

// GridPos is a widget's placement in integer grid units.
type GridPos struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LayoutConfig describes the responsive grid a canvas is rendered against.
type LayoutConfig struct {
	Columns          int `json:"columns"`
	RowHeight        int `json:"rowHeight"`
	Margin           int `json:"margin"`
	ContainerPadding int `json:"containerPadding"`
}

// DefaultLayoutConfig returns the grid settings a new canvas starts with.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{Columns: 12, RowHeight: 40, Margin: 8, ContainerPadding: 8}
}

// Overrides carries per-placement presentation overrides.
type Overrides struct {
	Title string `json:"title,omitempty"`
}

// WidgetPlacement is one widget instance placed on a canvas.
// Config is opaque to the core; its shape is governed by the widget
// definition's configuration schema.
type WidgetPlacement struct {
	WidgetInstanceID   string         `json:"widgetInstanceId"`
	WidgetDefinitionID string         `json:"widgetDefinitionId"`
	Position           GridPos        `json:"position"`
	Order              int            `json:"order"`
	IsVisible          bool           `json:"isVisible"`
	Config             map[string]any `json:"config,omitempty"`
	Overrides          *Overrides     `json:"overrides,omitempty"`
}

// Clone returns a deep copy of the placement, independent of later mutation.
func (w WidgetPlacement) Clone() WidgetPlacement {
	c := w
	if w.Config != nil {
		c.Config = make(map[string]any, len(w.Config))
		for k, v := range w.Config {
			c.Config[k] = v
		}
	}
	if w.Overrides != nil {
		ov := *w.Overrides
		c.Overrides = &ov
	}
	return c
}

// CloneWidgets deep-copies a widget list (a history snapshot).
func CloneWidgets(ws []WidgetPlacement) []WidgetPlacement {
	if ws == nil {
		return nil
	}
	out := make([]WidgetPlacement, len(ws))
	for i, w := range ws {
		out[i] = w.Clone()
	}
	return out
}

// CanvasState is the widget collection of one dashboard page, keyed to its
// owning menu node via MenuItemID.
type CanvasState struct {
	MenuItemID string            `json:"menuItemId"`
	Name       string            `json:"name"`
	Layout     LayoutConfig      `json:"layoutConfig"`
	Widgets    []WidgetPlacement `json:"widgets"`
}

// MenuTemplate is the persisted form of the navigation menu.
type MenuTemplate struct {
	Name     string     `json:"name"`
	Position string     `json:"position,omitempty"`
	Items    []MenuNode `json:"items"`
	Version  int        `json:"version"`
	IsActive bool       `json:"isActive"`
}

// Document is the persisted template document: the save payload and the
// export/import interchange format. DashboardTemplates is flat; each
// entry's MenuItemID joins back to a dashboard_page node in
// MenuTemplate.Items.
type Document struct {
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	Tags               []string      `json:"tags,omitempty"`
	Category           string        `json:"category,omitempty"`
	MenuTemplate       *MenuTemplate `json:"menuTemplate"`
	DashboardTemplates []CanvasState `json:"dashboardTemplates"`
}
