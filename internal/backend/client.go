/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend talks to the optional template service. The desktop
// designer works fully offline; publishing and browsing shared template
// documents goes through either the thin HTTP client here or a direct
// Postgres store.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dashstudio/internal/domain"
)

// Client is a minimal HTTP client for the template service API.
// It is only used when the backend feature flag is enabled.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient builds a client for the service at baseURL. A trailing
// slash on baseURL is stripped.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// doJSON issues one JSON request. body and dest may each be nil; a
// non-2xx status becomes an error carrying the method, path and status.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("bad request url: %w", err)
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// TemplateSummary is a minimal projection for listing shared templates.
type TemplateSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListTemplates returns the shared templates visible to the caller.
func (c *Client) ListTemplates(ctx context.Context) ([]TemplateSummary, error) {
	var list []TemplateSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/templates", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// TemplateEnvelope matches the server response for a fetched template.
type TemplateEnvelope struct {
	ID        int64           `json:"id"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
	Document  domain.Document `json:"document"`
}

// GetTemplate fetches a single shared template document by id.
func (c *Client) GetTemplate(ctx context.Context, id int64) (*TemplateEnvelope, error) {
	var env TemplateEnvelope
	path := fmt.Sprintf("/api/templates/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// PublishResult is the server acknowledgement of a publish.
type PublishResult struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

// Publish uploads a template document to the service.
func (c *Client) Publish(ctx context.Context, doc domain.Document) (*PublishResult, error) {
	var res PublishResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/templates", doc, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
