/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"fmt"
	"testing"

	"dashstudio/internal/domain"
)

// fakeCanvas implements Target and optionally records from inside
// RestoreWidgets to exercise the re-entrancy guard.
type fakeCanvas struct {
	widgets   []domain.WidgetPlacement
	onRestore func()
}

func (f *fakeCanvas) SnapshotWidgets() []domain.WidgetPlacement {
	return domain.CloneWidgets(f.widgets)
}

func (f *fakeCanvas) RestoreWidgets(ws []domain.WidgetPlacement) {
	f.widgets = ws
	if f.onRestore != nil {
		f.onRestore()
	}
}

func placement(id string, x int) domain.WidgetPlacement {
	return domain.WidgetPlacement{
		WidgetInstanceID:   id,
		WidgetDefinitionID: "kpi_card",
		Position:           domain.GridPos{X: x, Y: 0, Width: 4, Height: 3},
		IsVisible:          true,
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	fc := &fakeCanvas{}
	m := NewManager(fc, 0)

	fc.widgets = append(fc.widgets, placement("a", 0))
	m.Record("add a")
	fc.widgets = append(fc.widgets, placement("b", 4))
	m.Record("add b")

	if !m.Undo() {
		t.Fatalf("undo should succeed")
	}
	if len(fc.widgets) != 1 || fc.widgets[0].WidgetInstanceID != "a" {
		t.Fatalf("after undo expected [a], got %d widgets", len(fc.widgets))
	}
	if !m.Redo() {
		t.Fatalf("redo should succeed")
	}
	if len(fc.widgets) != 2 {
		t.Fatalf("after redo expected 2 widgets, got %d", len(fc.widgets))
	}
	if m.PresentDescription() != "add b" {
		t.Fatalf("present description = %q, want 'add b'", m.PresentDescription())
	}
}

func TestUndoThenRedoIsIdentity(t *testing.T) {
	fc := &fakeCanvas{widgets: []domain.WidgetPlacement{placement("a", 0)}}
	m := NewManager(fc, 0)
	fc.widgets[0].Position.X = 7
	m.Record("move a")

	before := domain.CloneWidgets(fc.widgets)
	if !m.Undo() {
		t.Fatalf("undo failed")
	}
	if !m.Redo() {
		t.Fatalf("redo failed")
	}
	if len(fc.widgets) != len(before) || fc.widgets[0].Position != before[0].Position {
		t.Fatalf("undo+redo changed state: got %+v want %+v", fc.widgets[0].Position, before[0].Position)
	}
}

func TestEmptyStacks(t *testing.T) {
	fc := &fakeCanvas{}
	m := NewManager(fc, 0)
	if m.Undo() {
		t.Fatalf("undo on empty past should return false")
	}
	if m.Redo() {
		t.Fatalf("redo on empty future should return false")
	}
	if m.CanUndo() || m.CanRedo() {
		t.Fatalf("CanUndo/CanRedo should both be false")
	}
}

func TestRecordClearsFuture(t *testing.T) {
	fc := &fakeCanvas{}
	m := NewManager(fc, 0)
	fc.widgets = append(fc.widgets, placement("a", 0))
	m.Record("add a")
	fc.widgets = append(fc.widgets, placement("b", 4))
	m.Record("add b")
	if !m.Undo() {
		t.Fatalf("undo failed")
	}
	if !m.CanRedo() {
		t.Fatalf("redo should be available after undo")
	}
	fc.widgets = append(fc.widgets, placement("c", 8))
	m.Record("add c")
	if m.CanRedo() {
		t.Fatalf("recording a new edit must clear the redo stack")
	}
}

func TestPastCappedAtLimit(t *testing.T) {
	fc := &fakeCanvas{}
	m := NewManager(fc, 0)
	for i := 0; i < DefaultLimit+25; i++ {
		fc.widgets = []domain.WidgetPlacement{placement(fmt.Sprintf("w%d", i), i)}
		m.Record(fmt.Sprintf("edit %d", i))
	}
	past, _ := m.Depths()
	if past != DefaultLimit {
		t.Fatalf("past depth = %d, want %d", past, DefaultLimit)
	}
	// Oldest surviving entries remain reachable; undo all the way down.
	steps := 0
	for m.Undo() {
		steps++
	}
	if steps != DefaultLimit {
		t.Fatalf("undo steps = %d, want %d", steps, DefaultLimit)
	}
}

func TestRestoreDoesNotRecord(t *testing.T) {
	fc := &fakeCanvas{}
	var m *Manager
	fc.onRestore = func() { m.Record("spurious") }
	m = NewManager(fc, 0)
	fc.widgets = append(fc.widgets, placement("a", 0))
	m.Record("add a")

	pastBefore, _ := m.Depths()
	if !m.Undo() {
		t.Fatalf("undo failed")
	}
	past, future := m.Depths()
	if past != pastBefore-1 || future != 1 {
		t.Fatalf("restore recorded an entry: past=%d future=%d", past, future)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	fc := &fakeCanvas{widgets: []domain.WidgetPlacement{placement("a", 0)}}
	m := NewManager(fc, 0)
	fc.widgets[0].Position.X = 3
	m.Record("move")

	// Mutating the live canvas must not corrupt stored entries.
	fc.widgets[0].Position.X = 99
	if !m.Undo() {
		t.Fatalf("undo failed")
	}
	if fc.widgets[0].Position.X != 0 {
		t.Fatalf("undo restored X=%d, want 0", fc.widgets[0].Position.X)
	}
}
