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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dashstudio/internal/domain"
)

func TestListTemplatesSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]TemplateSummary{
			{ID: 1, Name: "Ops", Category: "operations", Version: 3},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok123")
	list, err := c.ListTemplates(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPath != "/api/templates" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(list) != 1 || list[0].Name != "Ops" || list[0].Version != 3 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestGetTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/templates/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(TemplateEnvelope{
			ID:      42,
			Version: 2,
			Document: domain.Document{
				Name:         "Shared",
				MenuTemplate: &domain.MenuTemplate{Name: "Shared"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	env, err := c.GetTemplate(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if env.ID != 42 || env.Document.Name != "Shared" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestPublishPostsDocument(t *testing.T) {
	var gotMethod, gotCT string
	var gotBody domain.Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(PublishResult{ID: 7, Version: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	res, err := c.Publish(context.Background(), domain.Document{
		Name:         "Ops",
		MenuTemplate: &domain.MenuTemplate{Name: "Ops"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotMethod != http.MethodPost || gotCT != "application/json" {
		t.Fatalf("request = %s %s", gotMethod, gotCT)
	}
	if gotBody.Name != "Ops" {
		t.Fatalf("server received %q", gotBody.Name)
	}
	if res.ID != 7 || res.Version != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestNon2xxBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ListTemplates(context.Background())
	if err == nil {
		t.Fatalf("expected error on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestBaseURLNormalized(t *testing.T) {
	c := NewClient("https://example.com///", "")
	if c.BaseURL != "https://example.com" {
		t.Fatalf("base url = %q", c.BaseURL)
	}
}
