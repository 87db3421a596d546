/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dashstudio/internal/domain"
)

func snapWorkspace(t *testing.T) *WorkspaceHandle {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ws")
	wh, err := InitWorkspace(root, sampleDoc("Snaps"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	return wh
}

func snapWidgets(x int) []domain.WidgetPlacement {
	return []domain.WidgetPlacement{
		{
			WidgetInstanceID:   "w1",
			WidgetDefinitionID: "kpi_card",
			Position:           domain.GridPos{X: x, Y: 0, Width: 4, Height: 3},
			IsVisible:          true,
		},
	}
}

func TestSaveAndLatestCanvasSnapshot(t *testing.T) {
	wh := snapWorkspace(t)
	ctx := context.Background()
	t0 := time.Now().Add(-time.Minute)

	if err := SaveCanvasSnapshot(ctx, wh, "n1", snapWidgets(0), t0); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := SaveCanvasSnapshot(ctx, wh, "n1", snapWidgets(5), t0.Add(30*time.Second)); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	snap, ok, err := LatestCanvasSnapshot(ctx, wh, "n1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !ok {
		t.Fatalf("expected a snapshot")
	}
	if len(snap.Widgets) != 1 || snap.Widgets[0].Position.X != 5 {
		t.Fatalf("latest snapshot is not the newest one: %+v", snap.Widgets)
	}
}

func TestLatestCanvasSnapshotEmpty(t *testing.T) {
	wh := snapWorkspace(t)
	_, ok, err := LatestCanvasSnapshot(context.Background(), wh, "n1")
	if err != nil {
		t.Fatalf("latest on empty: %v", err)
	}
	if ok {
		t.Fatalf("empty index reported a snapshot")
	}
}

func TestListCanvasSnapshotsNewestFirst(t *testing.T) {
	wh := snapWorkspace(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if err := SaveCanvasSnapshot(ctx, wh, "n1", snapWidgets(i), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	list, err := ListCanvasSnapshots(ctx, wh, "n1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(list))
	}
	if list[0].Widgets[0].Position.X != 4 {
		t.Fatalf("newest first expected, got X=%d", list[0].Widgets[0].Position.X)
	}
}

func TestPruneOldCanvasSnapshots(t *testing.T) {
	wh := snapWorkspace(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		if err := SaveCanvasSnapshot(ctx, wh, "n1", snapWidgets(i), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	deleted, err := PruneOldCanvasSnapshots(ctx, wh, "n1", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("deleted %d, want 4", deleted)
	}
	list, err := ListCanvasSnapshots(ctx, wh, "n1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("survivors = %d, want 2", len(list))
	}
	if list[0].Widgets[0].Position.X != 5 {
		t.Fatalf("prune kept the wrong snapshots")
	}
}

func TestSnapshotsArePerPage(t *testing.T) {
	wh := snapWorkspace(t)
	ctx := context.Background()
	now := time.Now()
	if err := SaveCanvasSnapshot(ctx, wh, "n1", snapWidgets(1), now); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveCanvasSnapshot(ctx, wh, "n2", snapWidgets(2), now); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := ListCanvasSnapshots(ctx, wh, "n2", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Widgets[0].Position.X != 2 {
		t.Fatalf("page isolation broken: %+v", list)
	}
}
