/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor binds the menu tree, canvases, history, alignment, and
// the widget registry behind a single command reducer. All mutations run
// synchronously inside Dispatch on the caller's goroutine.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"dashstudio/internal/align"
	"dashstudio/internal/canvas"
	"dashstudio/internal/domain"
	"dashstudio/internal/history"
	applog "dashstudio/internal/log"
	"dashstudio/internal/menu"
	"dashstudio/internal/registry"
)

var (
	ErrNoActiveCanvas = errors.New("no dashboard page selected")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownWidget  = errors.New("widget definition not registered")
	ErrRenameInFlight = errors.New("a rename is in progress")
	ErrWidgetNotFound = errors.New("widget instance not found")
)

// Notifier is the injected notification channel for user-facing
// warnings and informational messages. Presentation is external.
type Notifier interface {
	Warn(msg string)
	Info(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Warn(string) {}
func (NopNotifier) Info(string) {}

// Editor is the designer's editing core. Construct one per open
// document; nothing here is global.
type Editor struct {
	Tree     *menu.Tree
	Registry *registry.Registry

	notifier  Notifier
	histories map[string]*history.Manager
	histLimit int

	selectedNode    string
	selectedWidgets []string
	activeWidget    string
	clipboard       *domain.WidgetPlacement
	renaming        bool

	log *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithNotifier injects the notification channel.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) { e.notifier = n }
}

// WithHistoryLimit overrides the per-canvas undo depth.
func WithHistoryLimit(limit int) Option {
	return func(e *Editor) { e.histLimit = limit }
}

// New creates an editor over an empty menu.
func New(reg *registry.Registry, opts ...Option) *Editor {
	e := &Editor{
		Tree:      menu.NewTree(),
		Registry:  reg,
		notifier:  NopNotifier{},
		histories: make(map[string]*history.Manager),
		histLimit: history.DefaultLimit,
		log:       applog.WithComponent("editor"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SelectedNode returns the currently selected menu node id ("" if none).
func (e *Editor) SelectedNode() string { return e.selectedNode }

// SelectedWidgets returns the widget multi-selection in selection order.
func (e *Editor) SelectedWidgets() []string {
	return append([]string(nil), e.selectedWidgets...)
}

// ActiveWidget returns the widget copy/paste operates on ("" if none).
func (e *Editor) ActiveWidget() string { return e.activeWidget }

// BeginRename and EndRename bracket an inline label edit. Keyboard
// shortcut commands are rejected while a rename is in flight.
func (e *Editor) BeginRename() { e.renaming = true }
func (e *Editor) EndRename()   { e.renaming = false }

// ActiveCanvas returns the canvas of the selected dashboard node.
func (e *Editor) ActiveCanvas() (*canvas.State, bool) {
	if e.selectedNode == "" {
		return nil, false
	}
	return e.Tree.Canvas(e.selectedNode)
}

// History returns the undo manager of the selected canvas, creating it
// on first use.
func (e *Editor) History() (*history.Manager, bool) {
	cs, ok := e.ActiveCanvas()
	if !ok {
		return nil, false
	}
	return e.historyFor(e.selectedNode, cs), true
}

func (e *Editor) historyFor(nodeID string, cs *canvas.State) *history.Manager {
	if h, ok := e.histories[nodeID]; ok {
		return h
	}
	h := history.NewManager(cs, e.histLimit)
	e.histories[nodeID] = h
	return h
}

// RendererFor resolves the renderer displaying a placement. An unknown
// definition id yields a typed placeholder instead of failing, so one
// stale widget cannot take down the whole canvas.
func (e *Editor) RendererFor(p domain.WidgetPlacement) registry.Renderer {
	if r, ok := e.Registry.GetComponent(p.WidgetDefinitionID); ok {
		return r
	}
	e.log.Warn("no renderer for widget type, using placeholder",
		slog.String("type", p.WidgetDefinitionID))
	return registry.Placeholder{Type: p.WidgetDefinitionID}
}

// Dispatch executes one command against the editor state. Warnings
// (insufficient selection, empty clipboard) are surfaced through the
// notifier and return nil; structural failures return an error.
func (e *Editor) Dispatch(cmd Command) error {
	switch c := cmd.(type) {
	case AddMenuNode:
		id, err := e.Tree.AddNode(c.ParentID)
		if err != nil {
			return err
		}
		e.selectNode(id)
		return nil

	case UpdateMenuNode:
		err := e.Tree.UpdateNode(c.ID, c.Patch)
		if errors.Is(err, menu.ErrConfirmationRequired) {
			e.notifier.Warn("This page still contains widgets. Confirm to discard them.")
			return err
		}
		return err

	case ConfirmTypeChange:
		if err := e.Tree.ConfirmTypeChange(c.ID); err != nil {
			return err
		}
		delete(e.histories, c.ID)
		return nil

	case CancelTypeChange:
		return e.Tree.CancelTypeChange(c.ID)

	case DeleteMenuNode:
		removed, err := e.Tree.DeleteNode(c.ID)
		if err != nil {
			return err
		}
		for _, id := range removed {
			delete(e.histories, id)
			if e.selectedNode == id {
				e.selectNode("")
			}
		}
		return nil

	case ReorderMenu:
		if err := e.Tree.Reorder(c.Items); err != nil {
			return err
		}
		if e.selectedNode != "" {
			if _, ok := e.Tree.Find(e.selectedNode); !ok {
				e.selectNode("")
			}
		}
		return nil

	case SelectNode:
		if c.ID != "" {
			if _, ok := e.Tree.Find(c.ID); !ok {
				return fmt.Errorf("select node %q: %w", c.ID, menu.ErrNodeNotFound)
			}
		}
		e.selectNode(c.ID)
		return nil

	case AddWidget:
		return e.addWidget(c.DefinitionID)

	case UpdateWidget:
		return e.updateWidget(c)

	case DeleteWidget:
		return e.deleteWidget(c.ID)

	case ReconcileLayout:
		return e.reconcile(c.Items)

	case AlignSelection:
		return e.alignSelection(c.Edge)

	case DistributeSelection:
		return e.distributeSelection(c.Axis)

	case SelectWidget:
		e.selectWidget(c.ID, c.Toggle)
		return nil

	case CopyWidget:
		return e.copyWidget()

	case PasteWidget:
		return e.pasteWidget()

	case Undo:
		return e.undo()

	case Redo:
		return e.redo()

	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func (e *Editor) selectNode(id string) {
	e.selectedNode = id
	e.selectedWidgets = nil
	e.activeWidget = ""
}

func (e *Editor) selectWidget(id string, toggle bool) {
	if !toggle {
		e.selectedWidgets = []string{id}
		e.activeWidget = id
		return
	}
	for i, v := range e.selectedWidgets {
		if v == id {
			e.selectedWidgets = append(e.selectedWidgets[:i], e.selectedWidgets[i+1:]...)
			if e.activeWidget == id {
				e.activeWidget = ""
			}
			return
		}
	}
	e.selectedWidgets = append(e.selectedWidgets, id)
	e.activeWidget = id
}

func (e *Editor) addWidget(defID string) error {
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	reg, ok := e.Registry.Get(defID)
	if !ok {
		return fmt.Errorf("add widget %q: %w", defID, ErrUnknownWidget)
	}
	h := e.historyFor(e.selectedNode, cs)
	id := cs.AddWidget(canvas.WidgetDefaults{
		DefinitionID: reg.Type,
		Width:        reg.DefaultWidth,
		Height:       reg.DefaultHeight,
		Config:       e.Registry.DefaultConfig(reg.Type),
	})
	h.Record("add " + reg.Type)
	e.selectWidget(id, false)
	return nil
}

func (e *Editor) updateWidget(c UpdateWidget) error {
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	h := e.historyFor(e.selectedNode, cs)
	if !cs.UpdateWidget(c.ID, c.Patch) {
		return nil // no-op on unknown id, per canvas semantics
	}
	desc := c.Description
	if desc == "" {
		desc = "update widget"
	}
	h.Record(desc)
	return nil
}

func (e *Editor) deleteWidget(id string) error {
	if e.renaming {
		return ErrRenameInFlight
	}
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	h := e.historyFor(e.selectedNode, cs)
	if !cs.DeleteWidget(id) {
		return fmt.Errorf("delete widget %q: %w", id, ErrWidgetNotFound)
	}
	h.Record("delete widget")
	e.selectedWidgets = removeString(e.selectedWidgets, id)
	if e.activeWidget == id {
		e.activeWidget = ""
	}
	return nil
}

func (e *Editor) reconcile(items []canvas.LayoutItem) error {
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	h := e.historyFor(e.selectedNode, cs)
	changed := cs.Reconcile(items)
	if len(changed) > 0 {
		h.Record("move/resize widgets")
	}
	return nil
}

func (e *Editor) selectionPlacements(cs *canvas.State) []domain.WidgetPlacement {
	out := make([]domain.WidgetPlacement, 0, len(e.selectedWidgets))
	for _, id := range e.selectedWidgets {
		if w, ok := cs.Widget(id); ok {
			out = append(out, w)
		}
	}
	return out
}

func (e *Editor) alignSelection(edge align.Edge) error {
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	moves, err := align.Align(e.selectionPlacements(cs), edge)
	if errors.Is(err, align.ErrAlignSelection) {
		e.notifier.Warn("Select at least 2 widgets to align.")
		return nil
	}
	if err != nil {
		return err
	}
	e.applyMoves(cs, moves, "align "+string(edge))
	return nil
}

func (e *Editor) distributeSelection(axis align.Axis) error {
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	moves, err := align.Distribute(e.selectionPlacements(cs), axis)
	if errors.Is(err, align.ErrDistributeSelection) {
		e.notifier.Warn("Select at least 3 widgets to distribute.")
		return nil
	}
	if err != nil {
		return err
	}
	e.applyMoves(cs, moves, "distribute "+string(axis))
	return nil
}

// applyMoves writes computed positions back and records exactly one
// history entry for the whole invocation.
func (e *Editor) applyMoves(cs *canvas.State, moves []align.Move, desc string) {
	h := e.historyFor(e.selectedNode, cs)
	for _, m := range moves {
		pos := m.Position
		cs.UpdateWidget(m.ID, canvas.PlacementPatch{Position: &pos})
	}
	h.Record(desc)
}

func (e *Editor) copyWidget() error {
	if e.renaming {
		return ErrRenameInFlight
	}
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	if e.activeWidget == "" {
		return nil // nothing active, copy is a no-op
	}
	w, ok := cs.Widget(e.activeWidget)
	if !ok {
		return nil
	}
	clone := w.Clone()
	e.clipboard = &clone
	return nil
}

// pasteWidget clones the copied widget with a fresh instance id and a
// one-cell offset, clamped so the copy cannot land off-grid.
func (e *Editor) pasteWidget() error {
	if e.renaming {
		return ErrRenameInFlight
	}
	cs, ok := e.ActiveCanvas()
	if !ok {
		return ErrNoActiveCanvas
	}
	if e.clipboard == nil {
		e.notifier.Warn("Nothing to paste.")
		return nil
	}
	h := e.historyFor(e.selectedNode, cs)

	clone := e.clipboard.Clone()
	maxX := cs.Layout.Columns - clone.Position.Width
	if maxX < 0 {
		maxX = 0
	}
	clone.Position.X = minInt(clone.Position.X+1, maxX)
	clone.Position.Y++

	id := cs.AddWidget(canvas.WidgetDefaults{
		DefinitionID: clone.WidgetDefinitionID,
		Width:        clone.Position.Width,
		Height:       clone.Position.Height,
		Config:       clone.Config,
	})
	pos := clone.Position
	cs.UpdateWidget(id, canvas.PlacementPatch{Position: &pos, Overrides: clone.Overrides})
	h.Record("paste widget")
	e.selectWidget(id, false)
	return nil
}

func (e *Editor) undo() error {
	if e.renaming {
		return ErrRenameInFlight
	}
	h, ok := e.History()
	if !ok {
		return ErrNoActiveCanvas
	}
	if !h.Undo() {
		e.notifier.Info("Nothing to undo.")
	}
	return nil
}

func (e *Editor) redo() error {
	if e.renaming {
		return ErrRenameInFlight
	}
	h, ok := e.History()
	if !ok {
		return ErrNoActiveCanvas
	}
	if !h.Redo() {
		e.notifier.Info("Nothing to redo.")
	}
	return nil
}

func removeString(ss []string, s string) []string {
	for i, v := range ss {
		if v == s {
			return append(ss[:i], ss[i+1:]...)
		}
	}
	return ss
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
