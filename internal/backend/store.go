/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dashstudio/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrTemplateNotFound is returned when a template name is unknown to the store.
var ErrTemplateNotFound = errors.New("template not found")

// Store publishes template documents directly into a Postgres database,
// for teams that run their own instance without the HTTP service.
type Store struct {
	db *sql.DB
}

// OpenStore connects to Postgres via the pgx stdlib driver and ensures
// the template schema exists.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureSchema(pctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// dialect=PostgreSQL
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS dashboard_templates (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		category    TEXT NOT NULL DEFAULT '',
		version     BIGINT NOT NULL DEFAULT 1,
		document    JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure dashboard_templates: %w", err)
	}
	return nil
}

// SaveTemplate upserts a document by name, bumping the version on update.
func (s *Store) SaveTemplate(ctx context.Context, doc domain.Document) (int64, error) {
	blob, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}
	var version int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO dashboard_templates (name, category, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			category   = EXCLUDED.category,
			document   = EXCLUDED.document,
			version    = dashboard_templates.version + 1,
			updated_at = now()
		RETURNING version`, doc.Name, doc.Category, blob).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("save template: %w", err)
	}
	return version, nil
}

// LoadTemplate fetches a document by name.
func (s *Store) LoadTemplate(ctx context.Context, name string) (domain.Document, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM dashboard_templates WHERE name = $1`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, ErrTemplateNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("load template: %w", err)
	}
	var doc domain.Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode template: %w", err)
	}
	return doc, nil
}

// ListTemplates returns summaries ordered by most recently updated.
func (s *Store) ListTemplates(ctx context.Context) ([]TemplateSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, updated_at, version FROM dashboard_templates ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var list []TemplateSummary
	for rows.Next() {
		var t TemplateSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.UpdatedAt, &t.Version); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// DeleteTemplate removes a template by name.
func (s *Store) DeleteTemplate(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM dashboard_templates WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
