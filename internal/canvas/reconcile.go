/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import "dashstudio/internal/domain"

// Breakpoint names a viewport-width tier of the responsive grid.
type Breakpoint string

const (
	BreakpointLG  Breakpoint = "lg"
	BreakpointMD  Breakpoint = "md"
	BreakpointSM  Breakpoint = "sm"
	BreakpointXS  Breakpoint = "xs"
	BreakpointXXS Breakpoint = "xxs"
)

// BreakpointColumns maps each tier to its column count.
var BreakpointColumns = map[Breakpoint]int{
	BreakpointLG:  12,
	BreakpointMD:  10,
	BreakpointSM:  6,
	BreakpointXS:  4,
	BreakpointXXS: 2,
}

// Columns returns the column count for the breakpoint, falling back to
// the lg tier for unknown names.
func Columns(bp Breakpoint) int {
	if c, ok := BreakpointColumns[bp]; ok {
		return c
	}
	return BreakpointColumns[BreakpointLG]
}

// LayoutItem is one entry of a layout-engine callback: the engine's view
// of a widget's grid rectangle at the active breakpoint.
type LayoutItem struct {
	ID string
	X  int
	Y  int
	W  int
	H  int
}

// Reconcile compares each reported item against the stored placement and
// writes back only those whose x/y/w/h actually differ. Items referring
// to unknown instance ids are skipped. The returned ids name the changed
// placements; callers record a history entry only when the list is
// non-empty, which keeps breakpoint-switch recomputations out of the
// undo stack.
func (s *State) Reconcile(items []LayoutItem) []string {
	var changed []string
	for _, it := range items {
		for i := range s.Widgets {
			w := &s.Widgets[i]
			if w.WidgetInstanceID != it.ID {
				continue
			}
			next := domain.GridPos{X: it.X, Y: it.Y, Width: it.W, Height: it.H}
			if w.Position != next {
				w.Position = next
				changed = append(changed, it.ID)
			}
			break
		}
	}
	return changed
}
