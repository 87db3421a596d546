/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package align implements alignment and distribution over widget
// selections. The functions are UI-agnostic and deterministic to enable
// unit testing and reuse across different frontends; callers apply the
// returned moves to the canvas themselves.
package align

import (
	"errors"
	"math"
	"sort"

	"dashstudio/internal/domain"
)

// Edge selects the alignment target for Align.
type Edge string

const (
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
	EdgeCenter Edge = "center" // horizontal centers
	EdgeTop    Edge = "top"
	EdgeMiddle Edge = "middle" // vertical centers
	EdgeBottom Edge = "bottom"
)

// Axis selects the direction for Distribute.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// Errors surfaced to the user as warnings, not fatal failures.
var (
	ErrAlignSelection      = errors.New("select at least 2 widgets to align")
	ErrDistributeSelection = errors.New("select at least 3 widgets to distribute")
	ErrUnknownEdge         = errors.New("unknown alignment edge")
	ErrUnknownAxis         = errors.New("unknown distribution axis")
)

// Move is a computed position update for one widget.
type Move struct {
	ID       string
	Position domain.GridPos
}

// Align computes new positions so the selection shares the given edge.
// It requires at least two widgets. Center/middle alignment targets the
// midpoint of the selection's bounding extent and rounds half up to the
// nearest grid unit.
func Align(selection []domain.WidgetPlacement, edge Edge) ([]Move, error) {
	if len(selection) < 2 {
		return nil, ErrAlignSelection
	}

	moves := make([]Move, 0, len(selection))
	switch edge {
	case EdgeLeft:
		target := minOver(selection, func(w domain.WidgetPlacement) int { return w.Position.X })
		for _, w := range selection {
			p := w.Position
			p.X = target
			moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
		}
	case EdgeRight:
		target := maxOver(selection, func(w domain.WidgetPlacement) int { return w.Position.X + w.Position.Width })
		for _, w := range selection {
			p := w.Position
			p.X = target - p.Width
			moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
		}
	case EdgeCenter:
		lo := minOver(selection, func(w domain.WidgetPlacement) int { return w.Position.X })
		hi := maxOver(selection, func(w domain.WidgetPlacement) int { return w.Position.X + w.Position.Width })
		center := float64(lo+hi) / 2
		for _, w := range selection {
			p := w.Position
			p.X = roundHalfUp(center - float64(p.Width)/2)
			moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
		}
	case EdgeTop:
		target := minOver(selection, func(w domain.WidgetPlacement) int { return w.Position.Y })
		for _, w := range selection {
			p := w.Position
			p.Y = target
			moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
		}
	case EdgeBottom:
		target := maxOver(selection, func(w domain.WidgetPlacement) int { return w.Position.Y + w.Position.Height })
		for _, w := range selection {
			p := w.Position
			p.Y = target - p.Height
			moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
		}
	case EdgeMiddle:
		lo := minOver(selection, func(w domain.WidgetPlacement) int { return w.Position.Y })
		hi := maxOver(selection, func(w domain.WidgetPlacement) int { return w.Position.Y + w.Position.Height })
		center := float64(lo+hi) / 2
		for _, w := range selection {
			p := w.Position
			p.Y = roundHalfUp(center - float64(p.Height)/2)
			moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
		}
	default:
		return nil, ErrUnknownEdge
	}
	return moves, nil
}

// Distribute spaces the selection's leading edges evenly along the axis.
// It requires at least three widgets. The outermost widgets keep their
// coordinates; intermediate ones are interpolated and rounded half up.
// This distributes leading edges, it does not equalize the visual gaps
// between widgets of differing sizes.
func Distribute(selection []domain.WidgetPlacement, axis Axis) ([]Move, error) {
	if len(selection) < 3 {
		return nil, ErrDistributeSelection
	}

	var coord func(domain.GridPos) int
	var setCoord func(*domain.GridPos, int)
	switch axis {
	case AxisHorizontal:
		coord = func(p domain.GridPos) int { return p.X }
		setCoord = func(p *domain.GridPos, v int) { p.X = v }
	case AxisVertical:
		coord = func(p domain.GridPos) int { return p.Y }
		setCoord = func(p *domain.GridPos, v int) { p.Y = v }
	default:
		return nil, ErrUnknownAxis
	}

	sorted := make([]domain.WidgetPlacement, len(selection))
	copy(sorted, selection)
	sort.SliceStable(sorted, func(i, j int) bool {
		return coord(sorted[i].Position) < coord(sorted[j].Position)
	})

	first := float64(coord(sorted[0].Position))
	last := float64(coord(sorted[len(sorted)-1].Position))
	spacing := (last - first) / float64(len(sorted)-1)

	moves := make([]Move, 0, len(sorted))
	for i, w := range sorted {
		p := w.Position
		setCoord(&p, roundHalfUp(first+spacing*float64(i)))
		moves = append(moves, Move{ID: w.WidgetInstanceID, Position: p})
	}
	return moves, nil
}

// roundHalfUp rounds to the nearest integer with ties toward +inf.
func roundHalfUp(v float64) int { return int(math.Floor(v + 0.5)) }

func minOver(ws []domain.WidgetPlacement, f func(domain.WidgetPlacement) int) int {
	m := f(ws[0])
	for _, w := range ws[1:] {
		if v := f(w); v < m {
			m = v
		}
	}
	return m
}

func maxOver(ws []domain.WidgetPlacement, f func(domain.WidgetPlacement) int) int {
	m := f(ws[0])
	for _, w := range ws[1:] {
		if v := f(w); v > m {
			m = v
		}
	}
	return m
}
