/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history provides a bounded undo/redo stack of full widget
// snapshots for one canvas.
package history

import (
	"dashstudio/internal/domain"
)

// DefaultLimit bounds past+future entries kept per manager.
const DefaultLimit = 50

// Entry is one recorded state: a deep snapshot of the canvas widgets at
// the time, plus a human-readable description of the edit that produced it.
type Entry struct {
	Widgets     []domain.WidgetPlacement
	Description string
}

// Target is the canvas the manager snapshots and restores.
type Target interface {
	// SnapshotWidgets returns a deep copy of the current widget list.
	SnapshotWidgets() []domain.WidgetPlacement
	// RestoreWidgets replaces the widget list from a snapshot.
	RestoreWidgets([]domain.WidgetPlacement)
}

// Manager keeps three regions: past (older snapshots, bottom = oldest),
// present (current), and future (redo candidates). Applying a historical
// state sets an internal flag so that Record calls issued while restoring
// are dropped; restoring must never itself generate a history entry.
type Manager struct {
	target   Target
	limit    int
	past     []Entry
	present  Entry
	future   []Entry
	applying bool
}

// NewManager attaches a manager to a canvas and seeds the present entry
// from its current state. limit <= 0 selects DefaultLimit.
func NewManager(target Target, limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{
		target:  target,
		limit:   limit,
		present: Entry{Widgets: target.SnapshotWidgets(), Description: "initial"},
	}
}

// Record pushes the present entry onto the past, captures a fresh
// snapshot as the new present, and clears the future. It is a no-op
// while a historical state is being applied.
func (m *Manager) Record(description string) {
	if m.applying {
		return
	}
	m.past = append(m.past, m.present)
	if len(m.past) > m.limit {
		m.past = append([]Entry(nil), m.past[len(m.past)-m.limit:]...)
	}
	m.present = Entry{Widgets: m.target.SnapshotWidgets(), Description: description}
	m.future = nil
}

// Undo restores the most recent past entry. Returns false when there is
// nothing to undo.
func (m *Manager) Undo() bool {
	if len(m.past) == 0 {
		return false
	}
	entry := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]

	m.applying = true
	m.target.RestoreWidgets(domain.CloneWidgets(entry.Widgets))
	m.applying = false

	m.future = append([]Entry{m.present}, m.future...)
	m.present = entry
	return true
}

// Redo restores the nearest future entry. Returns false when there is
// nothing to redo.
func (m *Manager) Redo() bool {
	if len(m.future) == 0 {
		return false
	}
	entry := m.future[0]
	m.future = m.future[1:]

	m.applying = true
	m.target.RestoreWidgets(domain.CloneWidgets(entry.Widgets))
	m.applying = false

	m.past = append(m.past, m.present)
	m.present = entry
	return true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.past) > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depths returns the current past and future stack sizes for diagnostics.
func (m *Manager) Depths() (past, future int) { return len(m.past), len(m.future) }

// PresentDescription returns the description of the current entry.
func (m *Manager) PresentDescription() string { return m.present.Description }
