/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package menu models the hierarchical navigation menu and its binding
// to per-page canvases. Nodes live in an arena keyed by id with parent
// and children stored as id references, so ownership stays strictly
// tree-shaped and walks never recurse. Every dashboard_page node owns
// exactly one canvas; no other node type owns any.
package menu

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dashstudio/internal/canvas"
	"dashstudio/internal/domain"
)

var (
	ErrNodeNotFound = errors.New("menu node not found")
	// ErrConfirmationRequired signals a destructive type change: the node
	// leaves dashboard_page while its canvas still holds widgets. The
	// patch is parked until ConfirmTypeChange or CancelTypeChange.
	ErrConfirmationRequired = errors.New("type change discards dashboard widgets; confirmation required")
	ErrNoPendingChange      = errors.New("no pending type change for node")
	ErrInvalidNodeType      = errors.New("invalid menu node type")
)

// node is one arena entry. Relations are id references, never embedded
// object graphs.
type node struct {
	data     domain.MenuNode // Children field unused inside the arena
	parent   string          // "" for a root node
	children []string
}

// Tree is the navigation menu model. Mutations are validated fully
// before anything is written, so a failed operation leaves the tree
// untouched.
type Tree struct {
	nodes    map[string]*node
	roots    []string
	canvases map[string]*canvas.State
	pending  map[string]NodePatch
}

// NewTree returns an empty menu.
func NewTree() *Tree {
	return &Tree{
		nodes:    make(map[string]*node),
		canvases: make(map[string]*canvas.State),
		pending:  make(map[string]NodePatch),
	}
}

// AddNode appends a new dashboard page node, either at root level
// (parentID == "") or as the last child of parentID. The new node gets
// an empty canvas. Returns the new node id; callers typically select it.
func (t *Tree) AddNode(parentID string) (string, error) {
	var siblings *[]string
	if parentID == "" {
		siblings = &t.roots
	} else {
		p, ok := t.nodes[parentID]
		if !ok {
			return "", fmt.Errorf("add node under %q: %w", parentID, ErrNodeNotFound)
		}
		siblings = &p.children
	}

	id := uuid.NewString()
	n := &node{
		data: domain.MenuNode{
			ID:        id,
			Label:     "New Page",
			Type:      domain.NodeDashboardPage,
			Order:     len(*siblings),
			IsVisible: true,
			IsEnabled: true,
		},
		parent: parentID,
	}
	t.nodes[id] = n
	*siblings = append(*siblings, id)
	t.canvases[id] = canvas.New(id, n.data.Label)
	return id, nil
}

// NodePatch is a shallow field patch for UpdateNode. Nil fields are left
// untouched.
type NodePatch struct {
	Label     *string
	Type      *domain.NodeType
	Order     *int
	IsVisible *bool
	IsEnabled *bool
	URL       *string
	Icon      *string
}

// UpdateNode applies the patch to the node. A patch changing the type
// away from dashboard_page while the node's canvas holds widgets is not
// applied; it is parked and ErrConfirmationRequired is returned. Any
// other type change takes effect immediately and creates or destroys
// the associated canvas per the ownership invariant.
func (t *Tree) UpdateNode(id string, patch NodePatch) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("update node %q: %w", id, ErrNodeNotFound)
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return fmt.Errorf("update node %q: type %q: %w", id, *patch.Type, ErrInvalidNodeType)
		}
		oldType := n.data.Type
		newType := *patch.Type
		if newType != oldType && oldType.OwnsCanvas() && !newType.OwnsCanvas() {
			if cs, ok := t.canvases[id]; ok && len(cs.Widgets) > 0 {
				t.pending[id] = patch
				return ErrConfirmationRequired
			}
		}
	}
	t.applyPatch(n, patch)
	return nil
}

// HasPendingTypeChange reports whether a destructive patch is parked for
// the node.
func (t *Tree) HasPendingTypeChange(id string) bool {
	_, ok := t.pending[id]
	return ok
}

// ConfirmTypeChange applies a parked destructive patch: the canvas is
// destroyed and the patch applied atomically.
func (t *Tree) ConfirmTypeChange(id string) error {
	patch, ok := t.pending[id]
	if !ok {
		return fmt.Errorf("confirm type change %q: %w", id, ErrNoPendingChange)
	}
	n, ok := t.nodes[id]
	if !ok {
		delete(t.pending, id)
		return fmt.Errorf("confirm type change %q: %w", id, ErrNodeNotFound)
	}
	delete(t.pending, id)
	t.applyPatch(n, patch)
	return nil
}

// CancelTypeChange drops a parked destructive patch; no mutation occurs.
func (t *Tree) CancelTypeChange(id string) error {
	if _, ok := t.pending[id]; !ok {
		return fmt.Errorf("cancel type change %q: %w", id, ErrNoPendingChange)
	}
	delete(t.pending, id)
	return nil
}

func (t *Tree) applyPatch(n *node, patch NodePatch) {
	if patch.Label != nil {
		n.data.Label = *patch.Label
		if cs, ok := t.canvases[n.data.ID]; ok {
			cs.Name = *patch.Label
		}
	}
	if patch.Order != nil {
		n.data.Order = *patch.Order
	}
	if patch.IsVisible != nil {
		n.data.IsVisible = *patch.IsVisible
	}
	if patch.IsEnabled != nil {
		n.data.IsEnabled = *patch.IsEnabled
	}
	if patch.URL != nil {
		n.data.URL = *patch.URL
	}
	if patch.Icon != nil {
		n.data.Icon = *patch.Icon
	}
	if patch.Type != nil && *patch.Type != n.data.Type {
		oldType := n.data.Type
		n.data.Type = *patch.Type
		switch {
		case n.data.Type.OwnsCanvas() && !oldType.OwnsCanvas():
			t.canvases[n.data.ID] = canvas.New(n.data.ID, n.data.Label)
		case !n.data.Type.OwnsCanvas() && oldType.OwnsCanvas():
			delete(t.canvases, n.data.ID)
		}
	}
}

// DeleteNode removes the node and all descendants, destroying every
// canvas owned by the removed subtree. Returns the removed node ids so
// callers can clear dangling selection references.
func (t *Tree) DeleteNode(id string) ([]string, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("delete node %q: %w", id, ErrNodeNotFound)
	}

	// Collect the subtree with an explicit stack (pre-order).
	removed := make([]string, 0, 4)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		removed = append(removed, cur)
		if cn, ok := t.nodes[cur]; ok {
			stack = append(stack, cn.children...)
		}
	}

	// Detach from parent or roots.
	if n.parent == "" {
		t.roots = removeID(t.roots, id)
	} else if p, ok := t.nodes[n.parent]; ok {
		p.children = removeID(p.children, id)
	}

	for _, rid := range removed {
		delete(t.nodes, rid)
		delete(t.canvases, rid)
		delete(t.pending, rid)
	}
	return removed, nil
}

// Find looks up a node by id and returns a snapshot of its subtree.
func (t *Tree) Find(id string) (domain.MenuNode, bool) {
	if _, ok := t.nodes[id]; !ok {
		return domain.MenuNode{}, false
	}
	return t.snapshot(id), true
}

// Reorder replaces the full ordered node sequence from a nested item
// list, preserving subtree structure (drag-reorder of menu entries).
// The arena is rebuilt from scratch; canvases are reconciled afterward
// so the ownership invariant holds: dashboard nodes keep their existing
// canvas, newly appearing dashboard ids get an empty one, and canvases
// of vanished or retyped nodes are destroyed.
func (t *Tree) Reorder(items []domain.MenuNode) error {
	nodes := make(map[string]*node, len(t.nodes))
	var roots []string

	// Iterative pre-order over the incoming nested list.
	type frame struct {
		item   domain.MenuNode
		parent string
	}
	stack := make([]frame, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		stack = append(stack, frame{item: items[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.item.ID == "" {
			return errors.New("reorder: node without id")
		}
		if !f.item.Type.Valid() {
			return fmt.Errorf("reorder: node %q: %w", f.item.ID, ErrInvalidNodeType)
		}
		if _, dup := nodes[f.item.ID]; dup {
			return fmt.Errorf("reorder: duplicate node id %q", f.item.ID)
		}
		data := f.item
		data.Children = nil
		nodes[f.item.ID] = &node{data: data, parent: f.parent}
		if f.parent == "" {
			roots = append(roots, f.item.ID)
		} else {
			p := nodes[f.parent]
			p.children = append(p.children, f.item.ID)
		}
		for i := len(f.item.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{item: f.item.Children[i], parent: f.item.ID})
		}
	}

	// All-or-nothing: swap in the new arena only after full validation.
	t.nodes = nodes
	t.roots = roots

	canvases := make(map[string]*canvas.State, len(nodes))
	for id, n := range nodes {
		if !n.data.Type.OwnsCanvas() {
			continue
		}
		if cs, ok := t.canvases[id]; ok {
			canvases[id] = cs
		} else {
			canvases[id] = canvas.New(id, n.data.Label)
		}
	}
	t.canvases = canvases
	t.pending = make(map[string]NodePatch)
	return nil
}

// Items returns the nested snapshot of the whole menu, the persisted form.
func (t *Tree) Items() []domain.MenuNode {
	out := make([]domain.MenuNode, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.snapshot(id))
	}
	return out
}

// snapshot builds a nested copy of the subtree rooted at id using an
// explicit post-order stack.
func (t *Tree) snapshot(root string) domain.MenuNode {
	built := make(map[string]*domain.MenuNode)
	type frame struct {
		id       string
		expanded bool
	}
	stack := []frame{{id: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[f.id]
		if !f.expanded {
			stack = append(stack, frame{id: f.id, expanded: true})
			for i := len(n.children) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: n.children[i]})
			}
			continue
		}
		out := n.data
		if len(n.children) > 0 {
			out.Children = make([]domain.MenuNode, 0, len(n.children))
			for _, cid := range n.children {
				out.Children = append(out.Children, *built[cid])
				delete(built, cid)
			}
		}
		built[f.id] = &out
	}
	return *built[root]
}

// Canvas returns the canvas owned by a dashboard node.
func (t *Tree) Canvas(id string) (*canvas.State, bool) {
	cs, ok := t.canvases[id]
	return cs, ok
}

// DashboardIDs lists node ids that own a canvas, in menu order.
func (t *Tree) DashboardIDs() []string {
	var out []string
	stack := make([]string, 0, len(t.roots))
	for i := len(t.roots) - 1; i >= 0; i-- {
		stack = append(stack, t.roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		if n.data.Type.OwnsCanvas() {
			out = append(out, id)
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return out
}

// Len returns the total node count.
func (t *Tree) Len() int { return len(t.nodes) }

// CheckInvariant verifies that a node owns a canvas iff its type is
// dashboard_page and that no orphan canvases exist.
func (t *Tree) CheckInvariant() error {
	for id, n := range t.nodes {
		_, hasCanvas := t.canvases[id]
		if n.data.Type.OwnsCanvas() != hasCanvas {
			return fmt.Errorf("node %q type %q: canvas ownership mismatch", id, n.data.Type)
		}
	}
	for id := range t.canvases {
		if _, ok := t.nodes[id]; !ok {
			return fmt.Errorf("orphan canvas for id %q", id)
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
