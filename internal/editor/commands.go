/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"dashstudio/internal/align"
	"dashstudio/internal/canvas"
	"dashstudio/internal/domain"
	"dashstudio/internal/menu"
)

// Command is a discrete editing gesture dispatched to the editor's
// reducer. Modeling gestures as values keeps the core free of any
// UI-toolkit event model and makes it directly testable.
type Command interface{ isCommand() }

// Menu structure commands.

type AddMenuNode struct{ ParentID string }

type UpdateMenuNode struct {
	ID    string
	Patch menu.NodePatch
}

type DeleteMenuNode struct{ ID string }

type ReorderMenu struct{ Items []domain.MenuNode }

type ConfirmTypeChange struct{ ID string }

type CancelTypeChange struct{ ID string }

type SelectNode struct{ ID string }

// Canvas commands. They operate on the selected node's canvas.

type AddWidget struct{ DefinitionID string }

type UpdateWidget struct {
	ID          string
	Patch       canvas.PlacementPatch
	Description string
}

type DeleteWidget struct{ ID string }

type ReconcileLayout struct{ Items []canvas.LayoutItem }

type AlignSelection struct{ Edge align.Edge }

type DistributeSelection struct{ Axis align.Axis }

// SelectWidget replaces the widget selection, or toggles membership when
// Toggle is set (modifier-click).
type SelectWidget struct {
	ID     string
	Toggle bool
}

type CopyWidget struct{}

type PasteWidget struct{}

type Undo struct{}

type Redo struct{}

func (AddMenuNode) isCommand()         {}
func (UpdateMenuNode) isCommand()      {}
func (DeleteMenuNode) isCommand()      {}
func (ReorderMenu) isCommand()         {}
func (ConfirmTypeChange) isCommand()   {}
func (CancelTypeChange) isCommand()    {}
func (SelectNode) isCommand()          {}
func (AddWidget) isCommand()           {}
func (UpdateWidget) isCommand()        {}
func (DeleteWidget) isCommand()        {}
func (ReconcileLayout) isCommand()     {}
func (AlignSelection) isCommand()      {}
func (DistributeSelection) isCommand() {}
func (SelectWidget) isCommand()        {}
func (CopyWidget) isCommand()          {}
func (PasteWidget) isCommand()         {}
func (Undo) isCommand()                {}
func (Redo) isCommand()                {}
