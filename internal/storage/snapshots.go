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
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"dashstudio/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO canvas_snapshots(menu_item_id, ts, widgets_blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, widgets_blob FROM canvas_snapshots WHERE menu_item_id = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, widgets_blob FROM canvas_snapshots WHERE menu_item_id = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM canvas_snapshots WHERE menu_item_id = ? AND id NOT IN (
	SELECT id FROM canvas_snapshots WHERE menu_item_id = ? ORDER BY ts DESC LIMIT ?
)`

// CanvasSnapshot is one autosaved widget list for a dashboard page.
type CanvasSnapshot struct {
	TS      time.Time
	Widgets []domain.WidgetPlacement
}

// SaveCanvasSnapshot persists a canvas widget snapshot with a timestamp.
// It opens the workspace's index database if needed and inserts the record.
func SaveCanvasSnapshot(ctx context.Context, wh *WorkspaceHandle, menuItemID string, widgets []domain.WidgetPlacement, ts time.Time) error {
	if wh == nil {
		return errors.New("nil WorkspaceHandle")
	}
	blob, err := json.Marshal(widgets)
	if err != nil {
		return err
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, menuItemID, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// LatestCanvasSnapshot returns the latest snapshot for a page, or a zero
// value when none has been written yet.
func LatestCanvasSnapshot(ctx context.Context, wh *WorkspaceHandle, menuItemID string) (CanvasSnapshot, bool, error) {
	if wh == nil {
		return CanvasSnapshot{}, false, errors.New("nil WorkspaceHandle")
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return CanvasSnapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, menuItemID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return CanvasSnapshot{}, false, nil
	}
	if err != nil {
		return CanvasSnapshot{}, false, err
	}
	return decodeSnapshot(tsStr, blob)
}

// ListCanvasSnapshots returns up to limit most recent snapshots for a page.
func ListCanvasSnapshots(ctx context.Context, wh *WorkspaceHandle, menuItemID string, limit int) ([]CanvasSnapshot, error) {
	if wh == nil {
		return nil, errors.New("nil WorkspaceHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, menuItemID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []CanvasSnapshot
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		snap, ok, err := decodeSnapshot(tsStr, blob)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, snap)
		}
	}
	return out, rows.Err()
}

// PruneOldCanvasSnapshots keeps at most keepLast snapshots for the page
// and deletes older ones.
func PruneOldCanvasSnapshots(ctx context.Context, wh *WorkspaceHandle, menuItemID string, keepLast int) (int64, error) {
	if wh == nil {
		return 0, errors.New("nil WorkspaceHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(wh.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, menuItemID, menuItemID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func decodeSnapshot(tsStr string, blob []byte) (CanvasSnapshot, bool, error) {
	var widgets []domain.WidgetPlacement
	if err := json.Unmarshal(blob, &widgets); err != nil {
		return CanvasSnapshot{}, false, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return CanvasSnapshot{TS: ts, Widgets: widgets}, true, nil
}
