/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package registry maps widget type codes to renderer capabilities and
// configuration schemas. Registries are explicitly constructed and
// passed around; there is no process-wide singleton, so multiple editor
// instances and test harnesses never share mutable state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	applog "dashstudio/internal/log"
)

var (
	ErrUnknownType = errors.New("unknown widget type")
	ErrNoRenderer  = errors.New("registration requires a renderer")
	ErrEmptyType   = errors.New("registration requires a type code")
	ErrNoLoader    = errors.New("no loader registered for widget type")
)

// Renderer is the external contract each widget type satisfies: a pure,
// stateless mapping of (config, data) to a visual output opaque to this
// core. The hosting presentation layer supplies implementations.
type Renderer interface {
	Render(config map[string]any, data any) (any, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(config map[string]any, data any) (any, error)

func (f RendererFunc) Render(config map[string]any, data any) (any, error) { return f(config, data) }

// FieldSpec describes one configuration schema field.
type FieldSpec struct {
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Default  any      `json:"default,omitempty"`
}

// Registration binds a type code to its renderer and schema.
type Registration struct {
	Type          string
	Renderer      Renderer
	Name          string
	Description   string
	Category      string
	DefaultWidth  int
	DefaultHeight int
	ConfigSchema  map[string]FieldSpec
	// Validate, when set, replaces the generic required-field check.
	Validate func(config map[string]any) error
}

// Loader produces a registration asynchronously, typically by loading a
// widget module on first use.
type Loader func(ctx context.Context) (Registration, error)

// Registry holds widget registrations, alias mappings, and lazy loaders.
// The mutex only guards against the one asynchronous operation in the
// system, widget loading; all editing mutations are synchronous.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Registration
	aliases map[string]string // alias -> canonical
	loaders map[string]Loader // keyed by canonical type
	log     *slog.Logger
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Registration),
		aliases: make(map[string]string),
		loaders: make(map[string]Loader),
		log:     applog.WithComponent("registry"),
	}
}

// Register stores a registration. Re-registering a type overwrites the
// previous entry with a warning.
func (r *Registry) Register(reg Registration) error {
	if reg.Type == "" {
		return ErrEmptyType
	}
	if reg.Renderer == nil {
		return fmt.Errorf("register %q: %w", reg.Type, ErrNoRenderer)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[reg.Type]; exists {
		r.log.Warn("widget type re-registered, overwriting", slog.String("type", reg.Type))
	}
	r.entries[reg.Type] = reg
	return nil
}

// RegisterAlias maps an alternate type code onto a canonical one.
func (r *Registry) RegisterAlias(alias, canonical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = canonical
}

// RegisterLoader installs the async loader for a canonical type.
func (r *Registry) RegisterLoader(canonical string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[canonical] = l
}

// Get returns the registration for a type code, resolving aliases.
func (r *Registry) Get(typeCode string) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(typeCode)
}

// GetComponent returns just the renderer for a type code.
func (r *Registry) GetComponent(typeCode string) (Renderer, bool) {
	reg, ok := r.Get(typeCode)
	if !ok {
		return nil, false
	}
	return reg.Renderer, true
}

func (r *Registry) lookupLocked(typeCode string) (Registration, bool) {
	if reg, ok := r.entries[typeCode]; ok {
		return reg, true
	}
	if canonical, ok := r.aliases[typeCode]; ok {
		if reg, ok := r.entries[canonical]; ok {
			return reg, true
		}
	}
	return Registration{}, false
}

// Canonical resolves a type code through the alias table.
func (r *Registry) Canonical(typeCode string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if canonical, ok := r.aliases[typeCode]; ok {
		return canonical
	}
	return typeCode
}

// LoadWidget resolves typeCode to its canonical type and returns its
// renderer, invoking the canonical type's loader if the renderer is not
// yet cached. When the cache already holds the canonical entry, an alias
// request registers the alias against it and returns immediately.
//
// Loader coalescing is best-effort, not exclusivity-guaranteed: two
// concurrent calls for the same uncached type may both run the loader.
// Renderers are pure and stateless, so last-registration-wins produces
// no observable divergence.
func (r *Registry) LoadWidget(ctx context.Context, typeCode string) (Renderer, error) {
	r.mu.Lock()
	canonical := typeCode
	if c, ok := r.aliases[typeCode]; ok {
		canonical = c
	}
	if reg, ok := r.entries[canonical]; ok {
		if canonical != typeCode {
			r.entries[typeCode] = reg
		}
		r.mu.Unlock()
		return reg.Renderer, nil
	}
	loader, ok := r.loaders[canonical]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("load widget %q: %w", typeCode, ErrNoLoader)
	}

	reg, err := loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("load widget %q: %w", typeCode, err)
	}
	reg.Type = canonical
	if err := r.Register(reg); err != nil {
		return nil, err
	}
	if canonical != typeCode {
		r.mu.Lock()
		r.entries[typeCode] = reg
		r.mu.Unlock()
	}
	return reg.Renderer, nil
}

// DefaultConfig builds a configuration map from the schema defaults of
// the type, or nil when the type is unknown or has no defaults.
func (r *Registry) DefaultConfig(typeCode string) map[string]any {
	reg, ok := r.Get(typeCode)
	if !ok {
		return nil
	}
	var cfg map[string]any
	for field, spec := range reg.ConfigSchema {
		if spec.Default == nil {
			continue
		}
		if cfg == nil {
			cfg = make(map[string]any)
		}
		cfg[field] = spec.Default
	}
	return cfg
}

// ValidateConfiguration checks config against the type's schema: every
// field marked required must be present. A registration-supplied
// validator takes precedence over the generic check. Unknown types fail
// with ErrUnknownType.
func (r *Registry) ValidateConfiguration(typeCode string, config map[string]any) error {
	reg, ok := r.Get(typeCode)
	if !ok {
		return fmt.Errorf("validate %q: %w", typeCode, ErrUnknownType)
	}
	if reg.Validate != nil {
		return reg.Validate(config)
	}
	for field, spec := range reg.ConfigSchema {
		if !spec.Required {
			continue
		}
		if _, present := config[field]; !present {
			return fmt.Errorf("validate %q: missing required field %q", typeCode, field)
		}
	}
	return nil
}
